package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEvaluateProducesEmptyScene(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t  \n  "},
		{"comment only", "; nothing here\n"},
		{"arithmetic", "(+ 1 2)"},
		{"definitions", "(def x 10)\n(def y 20)\n(+ x y)"},
	}
	eng := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, evalErrs, err := eng.Evaluate(tt.source)
			if err != nil {
				t.Fatalf("unexpected fatal error: %v", err)
			}
			if len(evalErrs) > 0 {
				t.Fatalf("unexpected eval errors: %v", evalErrs)
			}
			if s == nil || s.Model == nil {
				t.Fatal("expected non-nil scene")
			}
			if s.Model.NodeCount() != 0 || s.Model.MemberCount() != 0 {
				t.Errorf("expected empty model, got %d nodes, %d members", s.Model.NodeCount(), s.Model.MemberCount())
			}
		})
	}
}

func TestEvaluateReportsEvalErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"unbalanced", `(column "c1" :from (vec3 0 0 0)`},
		{"undefined symbol", `(column "c1" :from origin :to (vec3 0 0 3) :profile (rect 0.3 0.3))`},
		{"second form", "(def sq (rect 0.3 0.3))\n(beam \"b1\""},
	}
	eng := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, evalErrs, err := eng.Evaluate(tt.source)
			if err != nil {
				t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
			}
			if s != nil {
				t.Fatal("expected nil scene on eval error")
			}
			if len(evalErrs) == 0 || evalErrs[0].Message == "" {
				t.Fatalf("expected a populated eval error, got %v", evalErrs)
			}
		})
	}
}

func TestEvaluateIsRepeatable(t *testing.T) {
	const source = `
(def sq (rect 0.4 0.4))
(column "c1" :from (vec3 0 0 0) :to (vec3 0 0 3) :profile sq)
(column "c2" :from (vec3 4 0 0) :to (vec3 4 0 3) :profile sq)
(beam "b1" :from (vec3 0 0 3) :to (vec3 4 0 3) :profile sq)
`
	eng := NewEngine()
	var first []string
	for i := 0; i < 3; i++ {
		s, evalErrs, err := eng.Evaluate(source)
		if err != nil || len(evalErrs) > 0 {
			t.Fatalf("run %d: %v %v", i, err, evalErrs)
		}
		var names []string
		for _, ms := range s.Model.Snapshot().Members {
			names = append(names, ms.Name)
		}
		if i == 0 {
			first = names
			continue
		}
		if strings.Join(names, ",") != strings.Join(first, ",") {
			t.Errorf("run %d: members %v, want %v", i, names, first)
		}
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 members, got %v", first)
	}
}

func TestEvalErrorString(t *testing.T) {
	if got := (EvalError{Line: 5, Message: "beam requires :to"}).Error(); got != "line 5: beam requires :to" {
		t.Errorf("Error() = %q", got)
	}
	if got := (EvalError{Message: "no location"}).Error(); got != "no location" {
		t.Errorf("Error() = %q", got)
	}
}

func TestWaitTimesOut(t *testing.T) {
	eng := NewEngine()
	eng.generation = 1
	ch := make(chan evalResult) // never sends

	start := time.Now()
	_, _, err := eng.wait(context.Background(), ch, 1, 20*time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "timed out after 20ms") {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("wait took %s", elapsed)
	}
}

func TestWaitHonoursContext(t *testing.T) {
	eng := NewEngine()
	eng.generation = 1
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := eng.wait(ctx, make(chan evalResult), 1, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	_, _, err = eng.EvaluateContext(ctx, "(+ 1 2)")
	if err == nil {
		// The interpreter may win the race against the cancelled context.
		t.Log("evaluation finished before cancellation was observed")
	}
}

func TestWaitDiscardsSupersededResult(t *testing.T) {
	eng := NewEngine()
	eng.generation = 2

	ch := make(chan evalResult, 1)
	ch <- evalResult{scene: &Scene{}}

	_, _, err := eng.wait(context.Background(), ch, 1, time.Second)
	if !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
}

func TestEngineTimeoutDefault(t *testing.T) {
	eng := NewEngine()
	if eng.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %s, want %s", eng.Timeout, DefaultTimeout)
	}
	eng.Timeout = 0
	if _, _, err := eng.Evaluate("(+ 1 2)"); err != nil {
		t.Fatalf("zero timeout should fall back to the default: %v", err)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"error on line", "Error on line 5: unexpected token\n", 5, "unexpected token"},
		{"lowercase", "error on line 12: missing paren", 12, "missing paren"},
		{"short form", "line 3: beam requires :to", 3, "beam requires :to"},
		{"no line info", "slab: :thickness must be positive", 0, "slab: :thickness must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errors.New(tt.msg))
			if len(errs) != 1 {
				t.Fatalf("expected one error, got %v", errs)
			}
			if errs[0].Line != tt.wantLine {
				t.Errorf("line = %d, want %d", errs[0].Line, tt.wantLine)
			}
			if errs[0].Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", errs[0].Message, tt.wantMsg)
			}
		})
	}
}
