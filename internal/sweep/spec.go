// Package sweep enumerates the points of a convergence study and drives the
// executor over them.
package sweep

import (
	"fmt"
	"math"
)

// Subcycling describes how the time step of one participant is refined
// within a time window: the j-th subcycling refinement advances
// Base * Factor^j time steps per window.
type Subcycling struct {
	Name   string
	Base   int
	Factor int
}

// Spec describes the parameter grid of a study.
type Spec struct {
	BaseTimeWindowSize    float64
	TimeWindowRefinements int
	Participants          []Subcycling
	SubcyclingRefinements int
}

// Validate checks that the grid is non-empty and well formed.
func (s Spec) Validate() error {
	if !(s.BaseTimeWindowSize > 0) || math.IsInf(s.BaseTimeWindowSize, 0) {
		return fmt.Errorf("base time window size must be positive, got %g", s.BaseTimeWindowSize)
	}
	if s.TimeWindowRefinements < 1 {
		return fmt.Errorf("time window refinements must be at least 1, got %d", s.TimeWindowRefinements)
	}
	if math.Ldexp(s.BaseTimeWindowSize, 1-s.TimeWindowRefinements) == 0 {
		return fmt.Errorf("%d time window refinements of %g underflow to zero", s.TimeWindowRefinements, s.BaseTimeWindowSize)
	}
	if s.SubcyclingRefinements < 1 {
		return fmt.Errorf("time step refinements must be at least 1, got %d", s.SubcyclingRefinements)
	}
	if len(s.Participants) == 0 {
		return fmt.Errorf("no participants to refine")
	}
	seen := make(map[string]bool, len(s.Participants))
	refined := false
	for _, p := range s.Participants {
		if p.Name == "" {
			return fmt.Errorf("participant name is required")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate participant %q", p.Name)
		}
		seen[p.Name] = true
		if p.Base < 1 {
			return fmt.Errorf("participant %q: base time step refinement must be at least 1, got %d", p.Name, p.Base)
		}
		if p.Factor < 1 {
			return fmt.Errorf("participant %q: time step refinement factor must be at least 1, got %d", p.Name, p.Factor)
		}
		if _, ok := finestSubsteps(p.Base, p.Factor, s.SubcyclingRefinements); !ok {
			return fmt.Errorf("participant %q: %d time steps per window times %d^%d does not fit in an int",
				p.Name, p.Base, p.Factor, s.SubcyclingRefinements-1)
		}
		if p.Factor > 1 {
			refined = true
		}
	}
	if s.SubcyclingRefinements > 1 && !refined {
		return fmt.Errorf("%d time step refinements need a refinement factor above 1 for at least one participant", s.SubcyclingRefinements)
	}
	return nil
}

// finestSubsteps returns base * factor^(refinements-1), or false if it
// overflows an int.
func finestSubsteps(base, factor, refinements int) (int, bool) {
	n := base
	for j := 1; j < refinements; j++ {
		if n > math.MaxInt/factor {
			return 0, false
		}
		n *= factor
	}
	return n, true
}

// TimeWindowSizes returns base / 2^i for i in [0, TimeWindowRefinements).
// Halving is exact in binary floating point.
func (s Spec) TimeWindowSizes() []float64 {
	sizes := make([]float64, s.TimeWindowRefinements)
	for i := range sizes {
		sizes[i] = math.Ldexp(s.BaseTimeWindowSize, -i)
	}
	return sizes
}

// SubstepCounts returns base * factor^j for j in [0, refinements). The
// arguments must have passed Spec.Validate, which rules out overflow.
func SubstepCounts(base, factor, refinements int) []int {
	counts := make([]int, refinements)
	n := base
	for j := range counts {
		counts[j] = n
		n *= factor
	}
	return counts
}

// Point is one experiment of the study.
type Point struct {
	TimeWindowSize float64
	Refinement     int // Index of the time window size
	Subcycle       int // Index of the subcycling refinement

	names    []string
	substeps map[string]int
}

// Substeps returns the number of time steps per window of the named participant.
func (p Point) Substeps(name string) int {
	return p.substeps[name]
}

// Names returns the participant names in sweep order.
func (p Point) Names() []string {
	return append([]string(nil), p.names...)
}

// String describes the point for diagnostics.
func (p Point) String() string {
	s := fmt.Sprintf("time window size %g", p.TimeWindowSize)
	for _, name := range p.names {
		s += fmt.Sprintf(", %s substeps %d", name, p.substeps[name])
	}
	return s
}

// Points enumerates the grid: time window sizes in decreasing order on the
// outside, subcycling refinements in increasing order on the inside.
func (s Spec) Points() []Point {
	names := make([]string, len(s.Participants))
	counts := make([][]int, len(s.Participants))
	for k, p := range s.Participants {
		names[k] = p.Name
		counts[k] = SubstepCounts(p.Base, p.Factor, s.SubcyclingRefinements)
	}

	points := make([]Point, 0, s.TimeWindowRefinements*s.SubcyclingRefinements)
	for i, dt := range s.TimeWindowSizes() {
		for j := 0; j < s.SubcyclingRefinements; j++ {
			substeps := make(map[string]int, len(names))
			for k, name := range names {
				substeps[name] = counts[k][j]
			}
			points = append(points, Point{
				TimeWindowSize: dt,
				Refinement:     i,
				Subcycle:       j,
				names:          names,
				substeps:       substeps,
			})
		}
	}
	return points
}

// RequiresSubstepping reports whether any participant ever takes more than
// one time step per window.
func (s Spec) RequiresSubstepping() bool {
	for _, p := range s.Participants {
		for _, n := range SubstepCounts(p.Base, p.Factor, s.SubcyclingRefinements) {
			if n > 1 {
				return true
			}
		}
	}
	return false
}
