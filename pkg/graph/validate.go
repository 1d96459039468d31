package graph

import (
	"fmt"

	"github.com/chazu/truss/pkg/geom"
)

// ValidationSeverity indicates whether a validation finding blocks the
// model from being handed downstream or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks analysis
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	MemberID MemberID           // which member has the problem (zero if node-level)
	NodeID   NodeID             // which node has the problem (zero if member-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	switch {
	case !e.MemberID.IsZero():
		return fmt.Sprintf("[%s] member %s: %s", e.Severity, e.MemberID, e.Message)
	case !e.NodeID.IsZero():
		return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	MemberID MemberID
	NodeID   NodeID
	Message  string
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether the result has no errors.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate runs the Tier 1 structural checks and returns the findings. An
// empty slice means the model is structurally sound. Validate never
// mutates the model.
func Validate(m *Model) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateReferences(m)...)
	errs = append(errs, validateLines(m)...)
	errs = append(errs, validateSurfaces(m)...)
	return errs
}

// ValidateAll runs all validation tiers (structural, geometric) and returns
// a ValidationResult with separated errors and warnings.
func ValidateAll(m *Model) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(m) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{
				MemberID: e.MemberID,
				NodeID:   e.NodeID,
				Message:  e.Message,
			})
			continue
		}
		result.Errors = append(result.Errors, e)
	}

	tier2Errs, tier2Warnings := validateGeometry(m)
	result.Errors = append(result.Errors, tier2Errs...)
	result.Warnings = append(result.Warnings, tier2Warnings...)
	return result
}

// validateReferences checks that every node a member references exists and
// that the back-references agree with the payloads.
func validateReferences(m *Model) []ValidationError {
	var errs []ValidationError
	for _, mem := range m.members {
		for _, n := range mem.Data.Nodes() {
			if m.Node(n) == nil {
				errs = append(errs, ValidationError{
					MemberID: mem.ID,
					Message:  fmt.Sprintf("references missing node %s", n),
					Severity: SeverityError,
				})
				continue
			}
			if !containsMember(m.refs[n], mem.ID) {
				errs = append(errs, ValidationError{
					MemberID: mem.ID,
					NodeID:   n,
					Message:  "node back-reference missing",
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

func containsMember(ids []MemberID, id MemberID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// validateLines checks that no line member has zero length.
func validateLines(m *Model) []ValidationError {
	var errs []ValidationError
	for _, id := range m.Lines() {
		d := m.Member(id).Line()
		if d.Start == d.End || m.Coincident(m.Point(d.Start), m.Point(d.End)) {
			errs = append(errs, ValidationError{
				MemberID: id,
				Message:  "line member has zero length",
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateSurfaces checks loop size and planarity of every surface member.
func validateSurfaces(m *Model) []ValidationError {
	var errs []ValidationError
	for _, id := range m.Surfaces() {
		d := m.Member(id).Surface()
		if len(d.Boundary) < 3 {
			errs = append(errs, ValidationError{
				MemberID: id,
				Message:  fmt.Sprintf("boundary has %d nodes, need at least 3", len(d.Boundary)),
				Severity: SeverityError,
			})
			continue
		}
		pts, _ := m.Outline(id)
		pl, err := geom.PlaneFromLoop(pts)
		if err != nil {
			errs = append(errs, ValidationError{
				MemberID: id,
				Message:  "boundary has zero area",
				Severity: SeverityError,
			})
			continue
		}
		for i, p := range pts {
			if dist := pl.SignedDistance(p); geom.Round(dist, m.scale) != 0 {
				errs = append(errs, ValidationError{
					MemberID: id,
					NodeID:   d.Boundary[i],
					Message:  fmt.Sprintf("boundary node is %.6g off the surface plane", dist),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}
