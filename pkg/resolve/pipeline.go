package resolve

import (
	"context"

	"github.com/chazu/truss/pkg/geom"
	"github.com/chazu/truss/pkg/graph"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Options selects the passes a Pipeline runs and their tolerances.
type Options struct {
	FrameMembers    bool
	SurfacesToFrame bool
	WallsToSlabs    bool
	WallsToWalls    bool

	MaxCycles           int       // frame resolver cycle cap; zero selects DefaultMaxCycles
	MinSurfaceTolerance float64   // zero selects SurfaceTolerance
	AngleTolerance      float64   // degrees; zero selects geom.DefaultAngleTolerance
	MergeIndex          IndexKind // empty selects IndexGrid
}

// DefaultOptions runs every pass with the default tolerances.
func DefaultOptions() Options {
	return Options{
		FrameMembers:        true,
		SurfacesToFrame:     true,
		WallsToSlabs:        true,
		WallsToWalls:        true,
		MaxCycles:           DefaultMaxCycles,
		MinSurfaceTolerance: SurfaceTolerance,
		AngleTolerance:      geom.DefaultAngleTolerance,
		MergeIndex:          IndexGrid,
	}
}

// PassReport is the outcome of one pass and the merge that follows it.
type PassReport struct {
	Name  string     `json:"name"`
	Moved int        `json:"moved"`
	Merge MergeStats `json:"merge"`
}

// Report summarises a pipeline run.
type Report struct {
	Frame  FrameStats   `json:"frame"`
	Passes []PassReport `json:"passes"`
}

// Pipeline runs the resolution passes in their fixed order.
type Pipeline struct {
	opts Options
	log  zerolog.Logger
}

// New creates a pipeline.
func New(opts Options, log zerolog.Logger) *Pipeline {
	return &Pipeline{opts: opts, log: log}
}

// Run resolves m in place. On error the model is in an undefined state
// and must be discarded.
func (p *Pipeline) Run(ctx context.Context, m *graph.Model) (Report, error) {
	var rep Report
	merger := &Merger{Index: p.opts.MergeIndex, Log: p.log.With().Str("pass", "merge").Logger()}
	snapper := &Snapper{
		MinTolerance:   p.opts.MinSurfaceTolerance,
		AngleTolerance: p.opts.AngleTolerance,
		Log:            p.log.With().Str("pass", "surface").Logger(),
	}

	passes := []struct {
		name    string
		enabled bool
		run     func() (int, error)
	}{
		{"frame", p.opts.FrameMembers, func() (int, error) {
			fr := &FrameResolver{MaxCycles: p.opts.MaxCycles, Log: p.log.With().Str("pass", "frame").Logger()}
			stats, err := fr.Resolve(ctx, m)
			rep.Frame = stats
			return stats.Snaps, err
		}},
		{"surfaces-to-frame", p.opts.SurfacesToFrame, func() (int, error) { return snapper.FrameToSurfaces(m) }},
		{"walls-to-slabs", p.opts.WallsToSlabs, func() (int, error) { return snapper.WallsToSlabs(m) }},
		{"walls-to-walls", p.opts.WallsToWalls, func() (int, error) { return snapper.WallsToWalls(m) }},
	}

	for _, pass := range passes {
		if !pass.enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		moved, err := pass.run()
		if err != nil {
			return rep, errors.Wrapf(err, "%s pass", pass.name)
		}
		stats, err := merger.Merge(m)
		if err != nil {
			return rep, errors.Wrapf(err, "merge after %s pass", pass.name)
		}
		rep.Passes = append(rep.Passes, PassReport{Name: pass.name, Moved: moved, Merge: stats})
		p.log.Info().Str("pass", pass.name).Int("moved", moved).Int("merged", stats.Merged).Int("nodes", stats.Representatives).Msg("pass complete")
	}
	return rep, nil
}
