package graph

import (
	"strings"
	"testing"

	"github.com/chazu/truss/pkg/geom"
	"github.com/chazu/truss/pkg/profile"
)

// ---------------------------------------------------------------------------
// Test helpers for ValidationResult
// ---------------------------------------------------------------------------

// resultHasError returns true if result.Errors contains at least one entry
// whose Message contains substr.
func resultHasError(r ValidationResult, substr string) bool {
	for _, e := range r.Errors {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// resultHasWarning returns true if result.Warnings contains at least one entry
// whose Message contains substr.
func resultHasWarning(r ValidationResult, substr string) bool {
	for _, w := range r.Warnings {
		if strings.Contains(w.Message, substr) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Tier 2
// ---------------------------------------------------------------------------

func TestValidateAll_UnresolvedFrameHasCoincidentNodes(t *testing.T) {
	// The beam ends sit on the columns but use their own nodes, and the
	// columns have no node at z=2, so nothing coincides yet.
	m := buildFrame(t)
	if r := ValidateAll(m); !r.OK() {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}

	// A second beam starting exactly where b1 starts.
	if _, err := m.AddLineAt(KindBeam, "b2", vec(0, 0, 2), vec(0, 5, 2), geom.XAxis, testRect); err != nil {
		t.Fatal(err)
	}
	r := ValidateAll(m)
	if !resultHasError(r, "coincides with node") {
		t.Errorf("expected coincident node error, got %v", r.Errors)
	}
	if len(r.Errors) != 1 {
		t.Errorf("got %d errors, want 1", len(r.Errors))
	}
}

func TestValidateAll_MergedNodesAreClean(t *testing.T) {
	m := buildFrame(t)
	b2, _ := m.AddLineAt(KindBeam, "b2", vec(0, 0, 2), vec(0, 5, 2), geom.XAxis, testRect)
	if err := m.ReplaceNode(m.Member(b2).Line().Start, m.MustLookup("b1").Line().Start); err != nil {
		t.Fatal(err)
	}
	if r := ValidateAll(m); !r.OK() {
		t.Errorf("merged model has errors: %v", r.Errors)
	}
}

func TestValidateAll_InvalidProfile(t *testing.T) {
	m := New(0.001)
	bad := profile.Profile{Kind: profile.Rectangle, Dimensions: []float64{0, 0.3}}
	if _, err := m.AddLineAt(KindBeam, "b", vec(0, 0, 0), vec(1, 0, 0), geom.ZAxis, bad); err != nil {
		t.Fatal(err)
	}
	if r := ValidateAll(m); !resultHasError(r, "must be positive") {
		t.Errorf("expected profile error, got %v", r.Errors)
	}
}

func TestValidateAll_NonPositiveThickness(t *testing.T) {
	m := New(0.001)
	if _, err := m.AddSurface(KindSlab, "s", []geom.Vec{vec(0, 0, 0), vec(1, 0, 0), vec(1, 1, 0)}, 0); err != nil {
		t.Fatal(err)
	}
	if r := ValidateAll(m); !resultHasError(r, "thickness") {
		t.Errorf("expected thickness error, got %v", r.Errors)
	}
}

func TestValidateAll_DanglingNodeWarning(t *testing.T) {
	m := buildFrame(t)
	m.AddNode(vec(10, 10, 10))
	r := ValidateAll(m)
	if !r.OK() {
		t.Errorf("dangling node should not be an error: %v", r.Errors)
	}
	if !resultHasWarning(r, "not referenced") {
		t.Errorf("expected dangling node warning, got %v", r.Warnings)
	}
}
