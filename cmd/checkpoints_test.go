package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwbudde/lumenforge/internal/store"
)

func TestSelectCheckpointsForDeletionByAge(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10)},
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5)},
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1)},
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30)},
	}

	toDelete := selectCheckpointsForDeletion(infos, 0, 7)
	if len(toDelete) != 2 {
		t.Fatalf("expected 2 checkpoints to delete, got %d", len(toDelete))
	}

	found10, found30 := false, false
	for _, info := range toDelete {
		switch info.JobID {
		case "job1":
			found10 = true
		case "job4":
			found30 = true
		}
	}
	if !found10 || !found30 {
		t.Error("expected job1 and job4 to be selected for deletion")
	}
}

func TestSelectCheckpointsForDeletionByCount(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10)},
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5)},
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1)},
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30)},
	}

	toDelete := selectCheckpointsForDeletion(infos, 2, 0)
	if len(toDelete) != 2 {
		t.Fatalf("expected 2 checkpoints to delete, got %d", len(toDelete))
	}

	found30, found10 := false, false
	for _, info := range toDelete {
		switch info.JobID {
		case "job4":
			found30 = true
		case "job1":
			found10 = true
		}
	}
	if !found30 || !found10 {
		t.Error("expected job4 and job1 (oldest) to be selected for deletion")
	}
}

func TestSelectCheckpointsForDeletionCombined(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10)},
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5)},
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1)},
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30)},
		{JobID: "job5", Timestamp: now.AddDate(0, 0, -2)},
	}

	toDelete := selectCheckpointsForDeletion(infos, 3, 7)
	if len(toDelete) < 2 {
		t.Fatalf("expected at least 2 checkpoints to delete, got %d", len(toDelete))
	}
}

func TestGetDirSize(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")
	content := []byte("hello checkpoint")
	if err := os.WriteFile(testFile, content, 0644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	size, err := getDirSize(tmpDir)
	if err != nil {
		t.Fatalf("getDirSize: %v", err)
	}
	if size < int64(len(content)) {
		t.Errorf("size = %d, want >= %d", size, len(content))
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.bytes); got != tt.expected {
			t.Errorf("formatBytes(%d) = %s, want %s", tt.bytes, got, tt.expected)
		}
	}
}

func TestCheckpointsListCommandNoCheckpoints(t *testing.T) {
	tmpDir := t.TempDir()
	original := checkpointDataDir
	checkpointDataDir = tmpDir
	defer func() { checkpointDataDir = original }()

	if err := runListCheckpoints(nil, nil); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func testRenderConfig() store.RenderConfig {
	return store.RenderConfig{ScenePath: "test.toml", Width: 4, Height: 4, AAPasses: 2, SamplesPerPass: 1}
}

func TestCheckpointsListCommandWithCheckpoints(t *testing.T) {
	tmpDir := t.TempDir()

	checkpointStore, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	checkpoint := store.NewCheckpoint("test-job-id", "films/test-job-id.film", 1, 4, 0.01, 3, testRenderConfig())
	if err := checkpointStore.SaveCheckpoint("test-job-id", checkpoint); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	original := checkpointDataDir
	checkpointDataDir = tmpDir
	defer func() { checkpointDataDir = original }()

	if err := runListCheckpoints(nil, nil); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestCheckpointsCleanCommandNoFlags(t *testing.T) {
	tmpDir := t.TempDir()
	original := checkpointDataDir
	checkpointDataDir = tmpDir
	defer func() { checkpointDataDir = original }()

	keepLast = 0
	olderThanDays = 0

	if err := runCleanCheckpoints(nil, nil); err == nil {
		t.Error("expected error when no retention flags specified")
	}
}

func TestCheckpointsCleanCommandWithForce(t *testing.T) {
	tmpDir := t.TempDir()

	checkpointStore, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	checkpoint := store.NewCheckpoint("old-job", "films/old-job.film", 1, 4, 0.01, 3, testRenderConfig())
	checkpoint.Timestamp = time.Now().AddDate(0, 0, -30)
	if err := checkpointStore.SaveCheckpoint("old-job", checkpoint); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	original := checkpointDataDir
	checkpointDataDir = tmpDir
	defer func() { checkpointDataDir = original }()

	keepLast = 0
	olderThanDays = 7
	forceClean = true

	if err := runCleanCheckpoints(nil, nil); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if _, err := checkpointStore.LoadCheckpoint("old-job"); err == nil {
		t.Error("expected checkpoint to be deleted")
	}
}
