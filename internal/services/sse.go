package services

import (
	"sync"
)

const (
	EventCaseCreated      = "case_created"
	EventAdminAssessed    = "admin_assessed"
	EventScoresRecomputed = "scores_recomputed"
)

// EvaluationEvent is pushed to connected dashboards whenever stored scores change.
type EvaluationEvent struct {
	Type          string  `json:"type"`
	CaseID        uint    `json:"case_id"`
	CaseCode      string  `json:"case_code,omitempty"`
	UserSubtotal  int     `json:"user_subtotal"`
	AdminSubtotal int     `json:"admin_subtotal"`
	FinalScore    float64 `json:"final_score"`
	AdminReviewed bool    `json:"admin_reviewed"`
}

type SSEHub struct {
	clients map[string]chan EvaluationEvent
	mu      sync.RWMutex
}

func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]chan EvaluationEvent),
	}
}

// Subscribe registers a client. Resubscribing with the same id replaces the
// old channel and closes it.
func (h *SSEHub) Subscribe(clientID string) <-chan EvaluationEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.clients[clientID]; ok {
		close(old)
	}
	ch := make(chan EvaluationEvent, 100)
	h.clients[clientID] = ch
	return ch
}

func (h *SSEHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[clientID]; ok {
		close(ch)
		delete(h.clients, clientID)
	}
}

// Publish never blocks; a client whose buffer is full misses the event.
func (h *SSEHub) Publish(event EvaluationEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var globalSSEHub *SSEHub
var sseHubOnce sync.Once

func GetSSEHub() *SSEHub {
	sseHubOnce.Do(func() {
		globalSSEHub = NewSSEHub()
	})
	return globalSSEHub
}
