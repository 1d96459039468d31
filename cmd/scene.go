package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/chazu/truss/pkg/engine"
	"github.com/chazu/truss/pkg/graph"
	"github.com/chazu/truss/pkg/resolve"
	"github.com/pkg/errors"
)

// loadScene evaluates a scene file with the configured precision and timeout.
func loadScene(ctx context.Context, path string) (*engine.Scene, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scene")
	}
	scene, evalErrs, err := cfg.NewEngine().EvaluateContext(ctx, string(src))
	if err != nil {
		return nil, errors.Wrapf(err, "evaluate %s", path)
	}
	if len(evalErrs) > 0 {
		msgs := make([]string, len(evalErrs))
		for i, e := range evalErrs {
			msgs[i] = fmt.Sprintf("%s: %s", path, e.Error())
		}
		return nil, errors.New(strings.Join(msgs, "\n"))
	}
	for _, w := range scene.Warnings {
		log.Warn().Str("member", w.Name).Msg(w.Message)
	}
	log.Debug().Str("scene", path).Int("members", scene.Model.MemberCount()).Int("nodes", scene.Model.NodeCount()).Msg("scene loaded")
	return scene, nil
}

// resolveScene runs the configured pipeline on m and checks the result.
func resolveScene(ctx context.Context, m *graph.Model) (resolve.Report, graph.ValidationResult, error) {
	rep, err := resolve.New(cfg.ResolveOptions(), log).Run(ctx, m)
	if err != nil {
		return rep, graph.ValidationResult{}, err
	}
	vr := graph.ValidateAll(m)
	for _, w := range vr.Warnings {
		log.Warn().Stringer("member", w.MemberID).Stringer("node", w.NodeID).Msg(w.Message)
	}
	return rep, vr, nil
}
