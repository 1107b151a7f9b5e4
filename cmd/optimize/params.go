package main

import (
	"math"

	"github.com/pthm-cable/octree/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	Integer bool    // Rounded before use
	Log     bool    // Searched on a log2 scale
}

func (s ParamSpec) scale(v float64) float64 {
	if s.Log {
		return math.Log2(v)
	}
	return v
}

func (s ParamSpec) unscale(v float64) float64 {
	if s.Log {
		return math.Exp2(v)
	}
	return v
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the index parameters searched by the optimizer.
func NewParamVector(base *config.Config) *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "capacity", Path: "index.capacity", Min: 1, Max: 256, Default: float64(base.Index.Capacity), Integer: true, Log: true},
			{Name: "max_depth", Path: "index.max_depth", Min: 1, Max: 8, Default: float64(base.Index.MaxDepth), Integer: true},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize maps raw values onto [0,1], through log2 for Log specs.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		lo, hi := s.scale(s.Min), s.scale(s.Max)
		out[i] = (s.scale(raw[i]) - lo) / (hi - lo)
	}
	return out
}

// Denormalize is the inverse of Normalize.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		lo, hi := s.scale(s.Min), s.scale(s.Max)
		out[i] = s.unscale(lo + normalized[i]*(hi-lo))
	}
	return out
}

// Clamp keeps values within bounds and rounds integer parameters.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := math.Min(math.Max(v[i], spec.Min), spec.Max)
		if spec.Integer {
			val = math.Round(val)
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct. Order matches Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	cfg.Index.Capacity = int(clamped[0])
	cfg.Index.MaxDepth = int(clamped[1])
}
