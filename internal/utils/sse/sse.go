package sse

import (
	"sync"

	"interviewassistant/api"
)

// Event types published by the runner.
const (
	EventPhase    = "phase"
	EventTick     = "tick"
	EventChat     = "chat"
	EventGate     = "gate"
	EventQuestion = "question"
	EventScore    = "score"
)

// Event is one runner notification fanned out to subscribers.
type Event struct {
	Type      string         `json:"type"`
	Phase     api.Phase      `json:"phase,omitempty"`
	Index     int            `json:"index"`
	Remaining int            `json:"remaining"`
	Entry     *api.ChatEntry `json:"entry,omitempty"`
}

// Hub fans events out to registered channels without blocking the sender.
type Hub struct {
	channels sync.Map // key: string, value: chan Event
}

func NewHub() *Hub {
	return &Hub{}
}

func (h *Hub) RegisterChannel(id string, ch chan Event) {
	h.channels.Store(id, ch)
}

// RegisterUniqueChannel registers ch only if id is free and reports whether it did.
func (h *Hub) RegisterUniqueChannel(id string, ch chan Event) bool {
	_, loaded := h.channels.LoadOrStore(id, ch)
	return !loaded
}

func (h *Hub) UnregisterChannel(id string) {
	h.channels.Delete(id)
}

// UnregisterChannelIf removes id only while it still maps to ch.
func (h *Hub) UnregisterChannelIf(id string, ch chan Event) bool {
	return h.channels.CompareAndDelete(id, ch)
}

// Send delivers to one subscriber; a full channel drops the event.
func (h *Hub) Send(id string, event Event) bool {
	if chVal, ok := h.channels.Load(id); ok {
		if ch, ok := chVal.(chan Event); ok {
			select {
			case ch <- event:
				return true
			default:
				return false
			}
		}
	}
	return false
}

// Broadcast delivers to every subscriber and returns how many accepted the event.
func (h *Hub) Broadcast(event Event) int {
	if h == nil {
		return 0
	}
	delivered := 0
	h.channels.Range(func(key, _ interface{}) bool {
		if h.Send(key.(string), event) {
			delivered++
		}
		return true
	})
	return delivered
}
