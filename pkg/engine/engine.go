// Package engine evaluates truss scene files. It wraps zygomys in a
// sandboxed environment and produces a structural model from user source.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/truss/pkg/classify"
	"github.com/chazu/truss/pkg/geom"
	"github.com/chazu/truss/pkg/graph"
	"github.com/chazu/truss/pkg/profile"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Message string
	Name    string // scene name of the member concerned, if any
}

// MeshMember records the classification of one mesh-member form.
type MeshMember struct {
	Name    string
	Kind    graph.MemberKind
	Input   profile.Profile // profile the mesh was extruded from
	OK      bool
	Preset  classify.Preset
	Profile profile.Profile // profile recovered by the classifier
	Member  graph.MemberID  // zero when classification failed
}

// MeshSurface records the classification of one mesh-surface form.
type MeshSurface struct {
	Name      string
	Kind      graph.MemberKind
	Input     float64 // thickness the mesh was extruded with
	Corners   int     // outline points given
	OK        bool
	Thickness float64 // thickness recovered by the classifier
	Outline   []geom.Vec
	Member    graph.MemberID // zero when classification failed
}

// Scene is the output of a successful evaluation.
type Scene struct {
	Model    *graph.Model
	Meshes   []MeshMember
	Surfaces []MeshSurface
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter for scene evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	// Precision is the model precision used unless the scene sets its own
	// with (precision ...). Zero selects graph.DefaultPrecision.
	Precision float64
	// Timeout bounds each evaluation. Zero selects DefaultTimeout.
	Timeout time.Duration

	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{Precision: graph.DefaultPrecision, Timeout: DefaultTimeout}
}

// Evaluate is EvaluateContext with a background context.
func (e *Engine) Evaluate(source string) (*Scene, []EvalError, error) {
	return e.EvaluateContext(context.Background(), source)
}

// EvaluateContext runs source in a fresh zygomys sandbox and returns the
// scene it builds.
//
// Return semantics:
//   - On success: returns scene + nil errors + nil error
//   - On parse/eval failure: returns nil scene + eval errors + nil error
//   - On fatal failure (timeout, cancellation, panic, superseded): returns nil + nil + error
func (e *Engine) EvaluateContext(ctx context.Context, source string) (*Scene, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	precision, timeout := e.Precision, e.Timeout
	e.mu.Unlock()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		s, evalErrs, err := evaluate(source, precision)
		ch <- evalResult{scene: s, errors: evalErrs, err: err}
	}()

	return e.wait(ctx, ch, gen, timeout)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func evaluate(source string, precision float64) (*Scene, []EvalError, error) {
	st := newState(precision)

	// Empty source is a valid program that produces an empty model.
	if strings.TrimSpace(source) == "" {
		return st.scene(), nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, st)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return st.scene(), nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
