package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventInsert        EventType = "insert"
	EventRemove        EventType = "remove"
	EventRejected      EventType = "rejected"
	EventPersisted     EventType = "persisted"
	EventPersistFailed EventType = "persist_failed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	PageID    string    `json:"page_id"`
}

// MutationEvent describes a structural change applied to a page tree, or
// one that was rejected before any change happened.
type MutationEvent struct {
	EventBase
	Op   string   `json:"op"`
	Path string   `json:"path"`
	Keys []string `json:"keys,omitempty"`
	Kind string   `json:"kind,omitempty"`
	Err  string   `json:"error,omitempty"`
}

// PersistEvent reports the outcome of a persistence call.
type PersistEvent struct {
	EventBase
	Op       string        `json:"op"`
	Path     string        `json:"path"`
	Duration time.Duration `json:"duration"`
	Err      string        `json:"error,omitempty"`
}

// LifecycleHooks defines callbacks for designer observability.
type LifecycleHooks struct {
	OnMutation func(context.Context, *MutationEvent)
	OnPersist  func(context.Context, *PersistEvent)
}

// ChainHooks fans each callback out to every non-nil hook in order.
func ChainHooks(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnMutation: func(ctx context.Context, e *MutationEvent) {
			for _, h := range hooks {
				if h.OnMutation != nil {
					h.OnMutation(ctx, e)
				}
			}
		},
		OnPersist: func(ctx context.Context, e *PersistEvent) {
			for _, h := range hooks {
				if h.OnPersist != nil {
					h.OnPersist(ctx, e)
				}
			}
		},
	}
}
