package progress

import (
	"bytes"
	"testing"
	"time"
)

func TestConsoleMonitorTracksProgress(t *testing.T) {
	var buf bytes.Buffer
	m := NewConsoleMonitor(&buf)

	m.SetTotalPasses(4)
	m.SetCurrentPass(1)
	m.InitProgress(100)
	m.UpdateProgress(40)
	m.UpdateProgress(10)

	_, total, done, stepsTotal, _ := m.snapshot()
	if total != 4 {
		t.Errorf("totalPasses = %d, want 4", total)
	}
	if done != 50 {
		t.Errorf("stepsDone = %d, want 50", done)
	}
	if stepsTotal != 100 {
		t.Errorf("stepsTotal = %d, want 100", stepsTotal)
	}
	m.Done()
}

func TestConsoleMonitorTagIsSet(t *testing.T) {
	var buf bytes.Buffer
	m := NewConsoleMonitor(&buf)
	m.InitProgress(10)
	m.SetTag("shading")

	_, _, _, _, tag := m.snapshot()
	if tag != "shading" {
		t.Errorf("tag = %q, want %q", tag, "shading")
	}
}

func TestTimerAccumulatesAcrossStartStop(t *testing.T) {
	var buf bytes.Buffer
	m := NewConsoleMonitor(&buf)

	m.StartTimer("pass")
	time.Sleep(2 * time.Millisecond)
	m.StopTimer("pass")
	first := m.GetTime("pass")
	if first <= 0 {
		t.Fatalf("expected positive elapsed time, got %v", first)
	}

	m.StartTimer("pass")
	time.Sleep(2 * time.Millisecond)
	m.StopTimer("pass")
	second := m.GetTime("pass")
	if second <= first {
		t.Fatalf("expected accumulated time to grow, first=%v second=%v", first, second)
	}
}

func TestGetTimeUnknownNameIsZero(t *testing.T) {
	var buf bytes.Buffer
	m := NewConsoleMonitor(&buf)
	if d := m.GetTime("never-started"); d != 0 {
		t.Errorf("GetTime on unknown timer = %v, want 0", d)
	}
}

func TestCallbackMonitorNotifiesOnEveryChange(t *testing.T) {
	var updates []Update
	m := NewCallbackMonitor(func(u Update) {
		updates = append(updates, u)
	})

	m.SetTotalPasses(2)
	m.SetCurrentPass(1)
	m.InitProgress(8)
	m.UpdateProgress(8)
	m.SetTag("done")
	m.Done()

	if len(updates) != 6 {
		t.Fatalf("expected 6 notifications, got %d", len(updates))
	}
	last := updates[len(updates)-1]
	if last.StepsDone != 8 || last.StepsTotal != 8 {
		t.Errorf("last update = %+v, want StepsDone=StepsTotal=8", last)
	}
	if last.Tag != "done" {
		t.Errorf("last update tag = %q, want %q", last.Tag, "done")
	}
}

func TestCallbackMonitorTimers(t *testing.T) {
	m := NewCallbackMonitor(func(Update) {})
	m.StartTimer("load")
	time.Sleep(time.Millisecond)
	m.StopTimer("load")
	if m.GetTime("load") <= 0 {
		t.Error("expected positive elapsed time for stopped timer")
	}
}
