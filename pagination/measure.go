package pagination

import "math"

// Measurer reports the vertical footprint of a laid out node, margins included.
type Measurer[N any] interface {
	Measure(node N) float64
}

// MeasureFunc adapts a function to a Measurer.
type MeasureFunc[N any] func(node N) float64

func (f MeasureFunc[N]) Measure(node N) float64 {
	if f == nil {
		return 0
	}
	return f(node)
}

// Heights holds measurements keyed by node id, as returned by a single
// layout read in the browser. Unknown ids measure 0.
type Heights map[string]float64

func (h Heights) Measure(id string) float64 {
	return clamp(h[id])
}

func measure[N any](m Measurer[N], node N) float64 {
	if m == nil {
		return 0
	}
	return clamp(m.Measure(node))
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
