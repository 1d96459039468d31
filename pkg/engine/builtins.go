package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/truss/pkg/geom"
	"github.com/chazu/truss/pkg/graph"
	"github.com/chazu/truss/pkg/profile"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a point or direction.
type sexpVec3 struct {
	vec geom.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpProfile wraps a cross-section so it can be handed to member forms.
type sexpProfile struct {
	p profile.Profile
}

func (p *sexpProfile) SexpString(ps *zygo.PrintState) string {
	return "(" + p.p.String() + ")"
}
func (p *sexpProfile) Type() *zygo.RegisteredType { return nil }

// sexpMember is what member forms return.
type sexpMember struct {
	id   graph.MemberID
	kind graph.MemberKind
	name string
}

func (m *sexpMember) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", m.kind, m.name)
}
func (m *sexpMember) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		switch {
		case !ok:
			result.positional = append(result.positional, args[i])
		case i+1 < len(args):
			result.kw[name] = args[i+1]
			i++
		default:
			// Keyword at end with no value: treat as flag with nil.
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

func toVec3(s zygo.Sexp) (geom.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geom.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toProfile(s zygo.Sexp) (profile.Profile, error) {
	if p, ok := s.(*sexpProfile); ok {
		return p.p, nil
	}
	return profile.Profile{}, fmt.Errorf("expected profile, got %T (%s)", s, s.SexpString(nil))
}

// toLineKind accepts :column, :beam or :member.
func toLineKind(s zygo.Sexp) (graph.MemberKind, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, err
	}
	k, err := graph.ParseMemberKind(name)
	if err != nil {
		return 0, err
	}
	if !k.IsLine() {
		return 0, fmt.Errorf("%v is not a line member kind", k)
	}
	return k, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// memberName reads the leading name argument of a member form.
func memberName(form string, pa kwArgs) (string, error) {
	if len(pa.positional) < 1 {
		return "", fmt.Errorf("%s requires a name argument", form)
	}
	name, err := toString(pa.positional[0])
	if err != nil {
		return "", fmt.Errorf("%s: name: %w", form, err)
	}
	return name, nil
}

// surfaceArgs reads the :points outline and positive :thickness of a
// surface form.
func surfaceArgs(form string, pa kwArgs) ([]geom.Vec, float64, error) {
	items, err := requireKW(form, pa, "points", sexpListToSlice)
	if err != nil {
		return nil, 0, err
	}
	pts := make([]geom.Vec, len(items))
	for i, item := range items {
		if pts[i], err = toVec3(item); err != nil {
			return nil, 0, fmt.Errorf("%s: point %d: %w", form, i, err)
		}
	}
	t, err := requireKW(form, pa, "thickness", toFloat64)
	if err != nil {
		return nil, 0, err
	}
	if t <= 0 {
		return nil, 0, fmt.Errorf("%s: thickness must be positive, got %g", form, t)
	}
	return pts, t, nil
}

// toSurfaceKind accepts :slab or :wall.
func toSurfaceKind(s zygo.Sexp) (graph.MemberKind, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, err
	}
	k, err := graph.ParseMemberKind(name)
	if err != nil {
		return 0, err
	}
	if !k.IsSurface() {
		return 0, fmt.Errorf("%v is not a surface kind", k)
	}
	return k, nil
}

// requireKW fetches a mandatory keyword argument.
func requireKW[T any](form string, pa kwArgs, key string, conv func(zygo.Sexp) (T, error)) (T, error) {
	var zero T
	v, ok := pa.kw[key]
	if !ok {
		return zero, fmt.Errorf("%s requires :%s", form, key)
	}
	out, err := conv(v)
	if err != nil {
		return zero, fmt.Errorf("%s: %s: %w", form, key, err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// profileForms maps each section form to its profile kind. Keyword names
// follow profile.Kind.DimensionNames, except that circles take :r.
var profileForms = []struct {
	form string
	kind profile.Kind
	keys []string
}{
	{"rect", profile.Rectangle, []string{"x", "y"}},
	{"rect_hollow", profile.RectangleHollow, []string{"x", "y", "wall"}},
	{"circle", profile.Circle, []string{"r"}},
	{"circle_hollow", profile.CircleHollow, []string{"r", "wall"}},
	{"i_shape", profile.IShape, []string{"width", "depth", "web", "flange"}},
	{"l_shape", profile.LShape, []string{"depth", "width", "thickness"}},
	{"u_shape", profile.UShape, []string{"depth", "flange-width", "web", "flange"}},
	{"t_shape", profile.TShape, []string{"depth", "flange-width", "web", "flange"}},
}

// registerBuiltins installs the scene builtins into a zygomys environment.
// The builtins populate st during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals. Forms
// with hyphens are registered under their underscore spelling.
func registerBuiltins(env *zygo.Zlisp, st *state) {

	// (vec3 1 2 3)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: geom.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// (precision 0.001)
	env.AddFunction("precision", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("precision requires exactly 1 argument, got %d", len(args))
		}
		p, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("precision: %w", err)
		}
		if err := st.setPrecision(p); err != nil {
			return zygo.SexpNull, fmt.Errorf("precision: %w", err)
		}
		return &zygo.SexpFloat{Val: p}, nil
	})

	// (rect :x 0.3 :y 0.5), (i-shape :width ...), ...
	// Dimensions may also be given positionally in DimensionNames order.
	for _, pf := range profileForms {
		pf := pf
		env.AddFunction(pf.form, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			form := strings.ReplaceAll(pf.form, "_", "-")
			pa := parseArgs(args)
			dims := make([]float64, len(pf.keys))
			for i, key := range pf.keys {
				v, ok := pa.kw[key]
				if !ok && i < len(pa.positional) {
					v, ok = pa.positional[i], true
				}
				if !ok {
					return zygo.SexpNull, fmt.Errorf("%s requires :%s", form, key)
				}
				f, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: %s: %w", form, key, err)
				}
				dims[i] = f
			}
			p, err := profile.New(pf.kind, dims...)
			if err == nil {
				err = p.Validate()
			}
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", form, err)
			}
			return &sexpProfile{p: p}, nil
		})
	}

	// (column "c1" :from (vec3 0 0 0) :to (vec3 0 0 3) :profile (rect :x 0.3 :y 0.3) :y-axis (vec3 0 1 0))
	for _, kind := range []graph.MemberKind{graph.KindColumn, graph.KindBeam, graph.KindMember} {
		kind := kind
		env.AddFunction(kind.String(), func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			form := kind.String()
			pa := parseArgs(args)
			memName, err := memberName(form, pa)
			if err != nil {
				return zygo.SexpNull, err
			}
			from, err := requireKW(form, pa, "from", toVec3)
			if err != nil {
				return zygo.SexpNull, err
			}
			to, err := requireKW(form, pa, "to", toVec3)
			if err != nil {
				return zygo.SexpNull, err
			}
			p, err := requireKW(form, pa, "profile", toProfile)
			if err != nil {
				return zygo.SexpNull, err
			}
			y := defaultYAxis(to.Sub(from))
			if _, ok := pa.kw["y-axis"]; ok {
				if y, err = requireKW(form, pa, "y-axis", toVec3); err != nil {
					return zygo.SexpNull, err
				}
			}
			id, err := st.ensure().AddLineAt(kind, memName, from, to, y, p)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", form, err)
			}
			return &sexpMember{id: id, kind: kind, name: memName}, nil
		})
	}

	// (slab "roof" :points (list (vec3 0 0 3) ...) :thickness 0.2)
	for _, kind := range []graph.MemberKind{graph.KindSlab, graph.KindWall} {
		kind := kind
		env.AddFunction(kind.String(), func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			form := kind.String()
			pa := parseArgs(args)
			memName, err := memberName(form, pa)
			if err != nil {
				return zygo.SexpNull, err
			}
			pts, t, err := surfaceArgs(form, pa)
			if err != nil {
				return zygo.SexpNull, err
			}
			id, err := st.ensure().AddSurface(kind, memName, pts, t)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", form, err)
			}
			return &sexpMember{id: id, kind: kind, name: memName}, nil
		})
	}

	// (mesh-member "b1" :kind :beam :profile (i-shape ...) :from v :to v :y-axis v)
	//
	// Returns nil when the classifier cannot recover the section; the scene
	// gets a warning instead of an error.
	env.AddFunction("mesh_member", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		const form = "mesh-member"
		pa := parseArgs(args)
		memName, err := memberName(form, pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		kind := graph.KindMember
		if _, ok := pa.kw["kind"]; ok {
			if kind, err = requireKW(form, pa, "kind", toLineKind); err != nil {
				return zygo.SexpNull, err
			}
		}
		from, err := requireKW(form, pa, "from", toVec3)
		if err != nil {
			return zygo.SexpNull, err
		}
		to, err := requireKW(form, pa, "to", toVec3)
		if err != nil {
			return zygo.SexpNull, err
		}
		p, err := requireKW(form, pa, "profile", toProfile)
		if err != nil {
			return zygo.SexpNull, err
		}
		var y geom.Vec
		if _, ok := pa.kw["y-axis"]; ok {
			if y, err = requireKW(form, pa, "y-axis", toVec3); err != nil {
				return zygo.SexpNull, err
			}
		}
		rec, err := st.addMeshMember(kind, memName, from, to, y, p)
		if err != nil {
			return zygo.SexpNull, err
		}
		if !rec.OK {
			return zygo.SexpNull, nil
		}
		return &sexpMember{id: rec.Member, kind: kind, name: memName}, nil
	})

	// (mesh-surface "roof" :kind :slab :points (list ...) :thickness 0.2)
	//
	// Like mesh-member: a surface the classifier rejects returns nil and
	// leaves a warning.
	env.AddFunction("mesh_surface", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		const form = "mesh-surface"
		pa := parseArgs(args)
		memName, err := memberName(form, pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		kind := graph.KindSlab
		if _, ok := pa.kw["kind"]; ok {
			if kind, err = requireKW(form, pa, "kind", toSurfaceKind); err != nil {
				return zygo.SexpNull, err
			}
		}
		pts, t, err := surfaceArgs(form, pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		rec, err := st.addMeshSurface(kind, memName, pts, t)
		if err != nil {
			return zygo.SexpNull, err
		}
		if !rec.OK {
			return zygo.SexpNull, nil
		}
		return &sexpMember{id: rec.Member, kind: kind, name: memName}, nil
	})
}
