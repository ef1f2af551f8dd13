package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/lumenforge/internal/film"
)

// FilmStore persists a render job's binary .film state to disk, using the
// same atomic temp-file-plus-rename pattern FSStore uses for checkpoint
// JSON. Unlike checkpoint.json, film files are named per pass so autosave
// can keep more than one generation around (scanning the output directory
// for matching .film files is how a resumed job discovers what to load).
type FilmStore struct {
	baseDir string
}

// NewFilmStore creates a new filesystem-based film store.
func NewFilmStore(baseDir string) (*FilmStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &FilmStore{baseDir: baseDir}, nil
}

// jobDir returns the directory path for a given job ID.
func (fs *FilmStore) jobDir(jobID string) string {
	return filepath.Join(fs.baseDir, "jobs", jobID)
}

// PassPath returns the path a given pass's film file would be saved at.
func (fs *FilmStore) PassPath(jobID string, pass int) string {
	return filepath.Join(fs.jobDir(jobID), fmt.Sprintf("pass-%04d.film", pass))
}

// SaveFilm atomically writes f's state to the pass file for the given job.
func (fs *FilmStore) SaveFilm(jobID string, pass int, f *film.Film) (string, error) {
	if jobID == "" {
		return "", fmt.Errorf("jobID cannot be empty")
	}

	jobDir := fs.jobDir(jobID)
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create job directory: %w", err)
	}

	finalPath := fs.PassPath(jobID, pass)
	tempPath := finalPath + ".tmp"

	out, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("failed to create temp film file: %w", err)
	}

	w := bufio.NewWriterSize(out, 256*1024)
	if err := f.SaveState(w); err != nil {
		out.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to serialize film state: %w", err)
	}
	if err := w.Flush(); err != nil {
		out.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to flush film file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to close film file: %w", err)
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to rename film file: %w", err)
	}

	return finalPath, nil
}

// ScanFilms finds every .film file belonging to jobID, in pass order, for
// the resume path: the caller loads each in turn into a freshly constructed
// film of matching dimensions via film.LoadInto's additive-combine rule.
func (fs *FilmStore) ScanFilms(jobID string) ([]string, error) {
	pattern := filepath.Join(fs.jobDir(jobID), "pass-*.film")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan film files: %w", err)
	}
	return matches, nil
}

// LoadFilm opens path and merges its saved state into f via film.LoadInto.
func (fs *FilmStore) LoadFilm(path string, f *film.Film) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open film file: %w", err)
	}
	defer in.Close()

	r := bufio.NewReaderSize(in, 256*1024)
	if err := f.LoadInto(r); err != nil {
		return fmt.Errorf("failed to load film state from %s: %w", path, err)
	}
	return nil
}
