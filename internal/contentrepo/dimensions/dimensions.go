// Package dimensions expands configured content dimensions into the allowed
// preset combinations a content context can be created for.
package dimensions

import (
	"fmt"
	"strings"

	"github.com/fulmenhq/janitor/pkg/config"
)

// Preset is one selectable value set of a dimension. Values are ordered by
// fallback priority, most specific first.
type Preset struct {
	Key         string
	Values      []string
	URISegment  string
	Constraints map[string]map[string]bool
}

// Dimension is a named variation axis.
type Dimension struct {
	Name    string
	Default string
	Presets []Preset
}

// Axis is the selection of one dimension inside a Combination.
type Axis struct {
	Name       string
	Preset     string
	Values     []string
	URISegment string
}

// Combination is one allowed variant: an ordered list of axes.
type Combination struct {
	Axes []Axis
}

// Values returns the fallback values selected for a dimension, or nil.
func (c Combination) Values(dimension string) []string {
	for _, a := range c.Axes {
		if a.Name == dimension {
			return a.Values
		}
	}
	return nil
}

// IsEmpty reports whether the combination selects no dimension at all.
func (c Combination) IsEmpty() bool {
	return len(c.Axes) == 0
}

// Label renders every axis as "[name: v1,v2]". Axes are concatenated without
// a separator, which is how operators know the report output.
func (c Combination) Label() string {
	var sb strings.Builder
	for _, a := range c.Axes {
		fmt.Fprintf(&sb, "[%s: %s]", a.Name, strings.Join(a.Values, ","))
	}
	return sb.String()
}

// Key renders the combination the way context paths carry it:
// "language=de,en&country=de".
func (c Combination) Key() string {
	parts := make([]string, 0, len(c.Axes))
	for _, a := range c.Axes {
		parts = append(parts, a.Name+"="+strings.Join(a.Values, ","))
	}
	return strings.Join(parts, "&")
}

// URISegment joins the non-empty uri segments of all axes with "_".
func (c Combination) URISegment() string {
	var segs []string
	for _, a := range c.Axes {
		if a.URISegment != "" {
			segs = append(segs, a.URISegment)
		}
	}
	return strings.Join(segs, "_")
}

// Combinator computes allowed combinations of configured dimensions.
type Combinator struct {
	dimensions []Dimension
}

// NewCombinator creates a combinator over dims in the given order.
func NewCombinator(dims []Dimension) *Combinator {
	return &Combinator{dimensions: dims}
}

// FromConfig builds a combinator from the dimensions section of the config.
func FromConfig(cfgs []config.DimensionConfig) *Combinator {
	dims := make([]Dimension, 0, len(cfgs))
	for _, dc := range cfgs {
		d := Dimension{Name: dc.Name, Default: dc.Default}
		for _, pc := range dc.Presets {
			d.Presets = append(d.Presets, Preset{
				Key:         pc.Key,
				Values:      append([]string(nil), pc.Values...),
				URISegment:  pc.URISegment,
				Constraints: pc.Constraints,
			})
		}
		dims = append(dims, d)
	}
	return NewCombinator(dims)
}

// Dimensions returns the configured dimensions.
func (c *Combinator) Dimensions() []Dimension {
	return c.dimensions
}

// DefaultCombination selects the default preset of every dimension, falling
// back to the first preset.
func (c *Combinator) DefaultCombination() Combination {
	var combo Combination
	for _, d := range c.dimensions {
		if len(d.Presets) == 0 {
			continue
		}
		chosen := d.Presets[0]
		for _, p := range d.Presets {
			if p.Key == d.Default {
				chosen = p
				break
			}
		}
		combo.Axes = append(combo.Axes, axisOf(d, chosen))
	}
	return combo
}

// AllowedCombinations returns the cartesian product of all presets, in
// configuration order, minus combinations excluded by preset constraints.
// Without dimensions there is exactly one, empty, combination.
func (c *Combinator) AllowedCombinations() []Combination {
	var out []Combination
	var walk func(depth int, chosen []selection)
	walk = func(depth int, chosen []selection) {
		if depth == len(c.dimensions) {
			if !allowed(chosen) {
				return
			}
			combo := Combination{Axes: make([]Axis, 0, len(chosen))}
			for _, p := range chosen {
				combo.Axes = append(combo.Axes, axisOf(p.dim, p.preset))
			}
			out = append(out, combo)
			return
		}
		d := c.dimensions[depth]
		for _, p := range d.Presets {
			walk(depth+1, append(chosen, selection{dim: d, preset: p}))
		}
	}
	walk(0, make([]selection, 0, len(c.dimensions)))
	return out
}

type selection struct {
	dim    Dimension
	preset Preset
}

func axisOf(d Dimension, p Preset) Axis {
	return Axis{
		Name:       d.Name,
		Preset:     p.Key,
		Values:     append([]string(nil), p.Values...),
		URISegment: p.URISegment,
	}
}

// allowed checks every preset's constraints against the presets chosen for
// the other dimensions. An explicit preset key wins over "*"; no rule allows.
func allowed(chosen []selection) bool {
	selected := make(map[string]string, len(chosen))
	for _, s := range chosen {
		selected[strings.ToLower(s.dim.Name)] = s.preset.Key
	}
	for _, s := range chosen {
		for otherDim, rules := range s.preset.Constraints {
			otherKey, ok := selected[strings.ToLower(otherDim)]
			if !ok {
				continue
			}
			if v, found := lookupFold(rules, otherKey); found {
				if !v {
					return false
				}
				continue
			}
			if v, found := rules["*"]; found && !v {
				return false
			}
		}
	}
	return true
}

func lookupFold(m map[string]bool, key string) (bool, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return false, false
}
