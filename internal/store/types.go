package store

import (
	"fmt"
	"time"
)

// RenderConfig holds the configuration a render job was started with
// (checkpoint copy, to avoid import cycles with the render package).
type RenderConfig struct {
	ScenePath string `json:"scenePath"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`

	AAPasses       int     `json:"aaPasses"`
	SamplesPerPass int     `json:"samplesPerPass"`
	SamplesIncrement int   `json:"samplesIncrement,omitempty"`
	Adaptive       bool    `json:"adaptive"`
	Threshold      float64 `json:"threshold"`

	Seed               int64 `json:"seed"`
	CheckpointInterval int   `json:"checkpointInterval,omitempty"` // passes between autosaves; 0 disables periodic checkpointing
}

// Checkpoint represents a saved render job state that can be resumed later.
// All fields are serialized to JSON for persistence.
//
// Film state handling:
//
// The checkpoint does NOT duplicate the accumulated radiance itself — that
// lives in the binary .film file referenced by FilmPath (see the film
// package's save/load format). What the checkpoint records is the render
// driver's own progress bookkeeping: how many passes have completed, the
// sampling-offset counter the low-discrepancy sequences were drawn from,
// and the adaptive threshold as it stood after the last pass's adjustment.
//
// RESUME STRATEGY:
// A resumed job loads FilmPath into a fresh film of the same dimensions
// (film.LoadInto rejects a dimension mismatch), reads SamplingOffset so
// new low-discrepancy draws never repeat indices the discarded run already
// consumed, and continues the pass loop from PassesCompleted+1 with
// Threshold as its adapted starting point rather than the job's original
// configured value.
type Checkpoint struct {
	// JobID is the unique identifier for this render job.
	JobID string `json:"jobId"`

	// FilmPath is the path to the binary .film file holding the
	// accumulated per-layer radiance and weight planes for this job.
	FilmPath string `json:"filmPath"`

	// PassesCompleted is the number of AA passes fully swept so far.
	PassesCompleted int `json:"passesCompleted"`

	// SamplingOffset is the monotonically increasing counter low-discrepancy
	// sequences were drawn from; a resumed run continues from this value.
	SamplingOffset uint64 `json:"samplingOffset"`

	// Threshold is the adaptive dirty-pixel threshold as adjusted after the
	// last completed pass, not the job's original configured threshold.
	Threshold float64 `json:"threshold"`

	// DirtyPixels is the dirty-pixel count reported by the last completed
	// pass's next_pass call.
	DirtyPixels int `json:"dirtyPixels"`

	// Timestamp records when this checkpoint was created.
	Timestamp time.Time `json:"timestamp"`

	// Config holds the job configuration, needed for validation during
	// resume: we ensure that resumed jobs use compatible settings (same
	// scene, resolution, AA plan).
	Config RenderConfig `json:"config"`
}

// CheckpointInfo contains metadata about a checkpoint without the film
// reference. Used for listing checkpoints efficiently.
type CheckpointInfo struct {
	JobID           string    `json:"jobId"`
	PassesCompleted int       `json:"passesCompleted"`
	DirtyPixels     int       `json:"dirtyPixels"`
	Timestamp       time.Time `json:"timestamp"`

	ScenePath string `json:"scenePath"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// NewCheckpoint creates a checkpoint from render driver state.
func NewCheckpoint(jobID, filmPath string, passesCompleted int, samplingOffset uint64, threshold float64, dirtyPixels int, config RenderConfig) *Checkpoint {
	return &Checkpoint{
		JobID:           jobID,
		FilmPath:        filmPath,
		PassesCompleted: passesCompleted,
		SamplingOffset:  samplingOffset,
		Threshold:       threshold,
		DirtyPixels:     dirtyPixels,
		Timestamp:       time.Now(),
		Config:          config,
	}
}

// ToInfo converts a full Checkpoint to CheckpointInfo (metadata only).
func (c *Checkpoint) ToInfo() CheckpointInfo {
	return CheckpointInfo{
		JobID:           c.JobID,
		PassesCompleted: c.PassesCompleted,
		DirtyPixels:     c.DirtyPixels,
		Timestamp:       c.Timestamp,
		ScenePath:       c.Config.ScenePath,
		Width:           c.Config.Width,
		Height:          c.Config.Height,
	}
}

// Validate checks if the checkpoint has valid data.
func (c *Checkpoint) Validate() error {
	if c.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if c.FilmPath == "" {
		return &ValidationError{Field: "FilmPath", Reason: "cannot be empty"}
	}
	if c.PassesCompleted < 0 {
		return &ValidationError{Field: "PassesCompleted", Reason: "cannot be negative"}
	}
	if c.DirtyPixels < 0 {
		return &ValidationError{Field: "DirtyPixels", Reason: "cannot be negative"}
	}
	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if c.Config.ScenePath == "" {
		return &ValidationError{Field: "Config.ScenePath", Reason: "cannot be empty"}
	}
	if c.Config.Width <= 0 {
		return &ValidationError{Field: "Config.Width", Reason: "must be positive"}
	}
	if c.Config.Height <= 0 {
		return &ValidationError{Field: "Config.Height", Reason: "must be positive"}
	}
	if c.Config.AAPasses <= 0 {
		return &ValidationError{Field: "Config.AAPasses", Reason: "must be positive"}
	}
	if c.PassesCompleted > c.Config.AAPasses {
		return &ValidationError{
			Field:  "PassesCompleted",
			Reason: fmt.Sprintf("exceeds configured AAPasses (%d > %d)", c.PassesCompleted, c.Config.AAPasses),
		}
	}
	return nil
}

// ValidationError represents a checkpoint validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// IsCompatible checks if this checkpoint can be resumed with the given
// config. Returns an error if the configs are incompatible.
func (c *Checkpoint) IsCompatible(config RenderConfig) error {
	if c.Config.ScenePath != config.ScenePath {
		return &CompatibilityError{
			Field:    "ScenePath",
			Expected: c.Config.ScenePath,
			Actual:   config.ScenePath,
		}
	}
	if c.Config.Width != config.Width || c.Config.Height != config.Height {
		return &CompatibilityError{
			Field:    "Resolution",
			Expected: fmt.Sprintf("%dx%d", c.Config.Width, c.Config.Height),
			Actual:   fmt.Sprintf("%dx%d", config.Width, config.Height),
		}
	}
	if c.Config.AAPasses != config.AAPasses {
		return &CompatibilityError{
			Field:    "AAPasses",
			Expected: fmt.Sprintf("%d", c.Config.AAPasses),
			Actual:   fmt.Sprintf("%d", config.AAPasses),
		}
	}
	return nil
}

// CompatibilityError represents a checkpoint compatibility error.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
