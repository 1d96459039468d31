package graph

import (
	"fmt"

	"github.com/chazu/truss/pkg/geom"
)

// validateGeometry runs Tier 2 geometric checks. Errors: distinct nodes at
// the same rounded position, invalid profiles, non-positive thickness.
// Warnings: nodes no member references.
func validateGeometry(m *Model) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	errs = append(errs, validateCoincidentNodes(m)...)
	errs = append(errs, validateSections(m)...)
	return errs, validateDanglingNodes(m)
}

// validateCoincidentNodes reports every node that shares a rounded
// position with a lower-numbered node. After resolution two touching
// members must reference the same node, never two coincident ones.
func validateCoincidentNodes(m *Model) []ValidationError {
	var errs []ValidationError
	seen := make(map[geom.Vec]NodeID)
	for _, id := range m.NodeIDs() {
		k := geom.RoundVec(m.Point(id), m.scale)
		if first, ok := seen[k]; ok {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("coincides with node %s at %v", first, k),
				Severity: SeverityError,
			})
			continue
		}
		seen[k] = id
	}
	return errs
}

// validateSections checks profile dimensions of line members and the
// thickness of surface members.
func validateSections(m *Model) []ValidationError {
	var errs []ValidationError
	for _, mem := range m.members {
		switch d := mem.Data.(type) {
		case *LineData:
			if err := d.Profile.Validate(); err != nil {
				errs = append(errs, ValidationError{
					MemberID: mem.ID,
					Message:  err.Error(),
					Severity: SeverityError,
				})
			}
		case *SurfaceData:
			if !(d.Thickness > 0) {
				errs = append(errs, ValidationError{
					MemberID: mem.ID,
					Message:  fmt.Sprintf("thickness %g must be positive", d.Thickness),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

func validateDanglingNodes(m *Model) []ValidationWarning {
	var warnings []ValidationWarning
	for _, id := range m.NodeIDs() {
		if len(m.refs[id]) == 0 {
			warnings = append(warnings, ValidationWarning{
				NodeID:  id,
				Message: "node is not referenced by any member",
			})
		}
	}
	return warnings
}
