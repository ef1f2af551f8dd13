package jobserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ProgressEvent is one SSE update for a job's progress stream.
type ProgressEvent struct {
	JobID           string    `json:"jobId"`
	State           JobState  `json:"state"`
	Pass            int       `json:"pass"`
	TotalPasses     int       `json:"totalPasses"`
	DirtyPixels     int       `json:"dirtyPixels"`
	Threshold       float64   `json:"threshold"`
	StepsDone       int       `json:"stepsDone"`
	StepsTotal      int       `json:"stepsTotal"`
	ElapsedSeconds  float64   `json:"elapsedSeconds"`
	Timestamp       time.Time `json:"timestamp"`
}

// EventBroadcaster fans progress events for a job out to every subscribed
// SSE client, dropping events to a full client's channel rather than ever
// blocking the render job on a slow reader.
type EventBroadcaster struct {
	mu        sync.RWMutex
	clients   map[string]map[chan ProgressEvent]bool
	lastEvent map[string]ProgressEvent
}

// NewEventBroadcaster creates an empty broadcaster.
func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{
		clients:   make(map[string]map[chan ProgressEvent]bool),
		lastEvent: make(map[string]ProgressEvent),
	}
}

// Subscribe registers a new client channel for jobID, replaying the last
// known event first so a reconnecting client isn't left blank.
func (eb *EventBroadcaster) Subscribe(jobID string) chan ProgressEvent {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan ProgressEvent, 10)
	if eb.clients[jobID] == nil {
		eb.clients[jobID] = make(map[chan ProgressEvent]bool)
	}
	eb.clients[jobID][ch] = true

	if last, ok := eb.lastEvent[jobID]; ok {
		select {
		case ch <- last:
		default:
		}
	}

	slog.Debug("sse client subscribed", "jobID", jobID, "clients", len(eb.clients[jobID]))
	return ch
}

// Unsubscribe removes and closes a client channel.
func (eb *EventBroadcaster) Unsubscribe(jobID string, ch chan ProgressEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if clients, ok := eb.clients[jobID]; ok {
		delete(clients, ch)
		close(ch)
		if len(clients) == 0 {
			delete(eb.clients, jobID)
		}
	}
}

// Broadcast pushes event to every subscriber of event.JobID and caches it
// as the job's last-known state for future subscribers.
func (eb *EventBroadcaster) Broadcast(event ProgressEvent) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	eb.lastEvent[event.JobID] = event
	clients, ok := eb.clients[event.JobID]
	if !ok {
		return
	}
	for ch := range clients {
		select {
		case ch <- event:
		default:
			slog.Warn("sse channel full, dropping event", "jobID", event.JobID)
		}
	}
}

// CleanupJob closes every subscriber channel and forgets the job's cached
// last event. Called once a job's terminal state has been recorded.
func (eb *EventBroadcaster) CleanupJob(jobID string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for ch := range eb.clients[jobID] {
		close(ch)
	}
	delete(eb.clients, jobID)
	delete(eb.lastEvent, jobID)
}

// handleJobStream serves GET /api/v1/jobs/:id/stream as an SSE connection.
func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request, jobID string) {
	job, ok := s.jobs.GetJob(jobID)
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	events := s.jobs.broadcaster.Subscribe(jobID)
	defer s.jobs.broadcaster.Unsubscribe(jobID, events)

	initial := ProgressEvent{
		JobID:       job.ID,
		State:       job.State,
		Pass:        job.PassesCompleted,
		TotalPasses: job.Config.AAPasses,
		DirtyPixels: job.DirtyPixels,
		Threshold:   job.Threshold,
		Timestamp:   time.Now(),
	}
	if err := writeSSEEvent(w, initial); err != nil {
		return
	}
	flusher.Flush()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, event); err != nil {
				return
			}
			flusher.Flush()
		case <-ping.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, event ProgressEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
