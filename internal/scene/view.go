// Package scene aggregates the external collaborator contracts (camera,
// background, accelerator, lights, volume) declared in internal/core into
// a single immutable View that is safe to share, read-only, across every
// tile worker goroutine for the duration of a pass.
package scene

import "github.com/cwbudde/lumenforge/internal/core"

// DarkDetection selects how the adaptive threshold scales with a pixel's
// brightness.
type DarkDetection int

const (
	DarkDetectionNone DarkDetection = iota
	DarkDetectionLinear
	DarkDetectionCurve
)

// NoiseParams bundles every adaptive-sampling / clamp knob the film and
// integrator consult.
type NoiseParams struct {
	Threshold          float64
	DarkDetection      DarkDetection
	DarkThresholdFactor float64
	DetectColourNoise  bool // Open Question: both metrics are implemented; this switches between them.
	VariancePixels     int
	VarianceEdgeSize   int
	ClampSamples       float64
	ClampIndirect      float64
}

// View is the immutable, read-only aggregate every tile worker is handed.
// Nothing in it may be mutated once a render starts; the scene graph's own
// lifetime outlives every pass that references it.
type View struct {
	Camera      core.Camera
	Background  core.Background
	Accelerator core.Accelerator
	Lights      []core.Light
	Volume      core.Volume // nil if no participating media is configured
	Noise       NoiseParams
	ShadowBias  float64 // k in bias = max(auto_floor, k*max(1,|p|)); 0 means auto
	Bounds      core.Bounds3

	// HighestObjectIndex/HighestMaterialIndex are the scene-wide maxima the
	// object-index/material-index "norm" layers divide by. <= 0 means
	// "unconfigured" and is treated as 1, matching the abs layer.
	HighestObjectIndex   int
	HighestMaterialIndex int
}

// AutoShadowBiasFloor is the platform constant used when a scene has no
// meaningful extent to calibrate from.
const AutoShadowBiasFloor = 1e-4

// ShadowBiasAt returns the self-shadow bias at a hit point, following the
// auto-floor calibration: bias = max(autoFloor, k * max(1, |p|)), where
// autoFloor is derived once from the scene bounding box diagonal.
func (v View) ShadowBiasAt(p core.Point3) float64 {
	k := v.ShadowBias
	if k <= 0 {
		k = 1e-5
	}
	autoFloor := AutoShadowBiasFloor
	if diag := v.Bounds.DiagonalLength(); diag > 0 {
		autoFloor = diag * 1e-6
	}
	scaled := k * max(1, p.Abs())
	if scaled > autoFloor {
		return scaled
	}
	return autoFloor
}
