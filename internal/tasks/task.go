// Package tasks runs deferred work outside the request path. Delivery is
// at-least-once, so handlers must be idempotent.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownTask is returned when no handler is registered for a task name.
var ErrUnknownTask = errors.New("unknown task")

type Task struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
	Attempt int             `json:"attempt"`
}

// NewTask encodes payload into a fresh task envelope.
func NewTask(name string, payload any) (Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Task{}, fmt.Errorf("encode %s payload: %w", name, err)
	}
	return Task{ID: uuid.NewString(), Name: name, Payload: raw}, nil
}

type Handler func(ctx context.Context, payload json.RawMessage) error

// Enqueuer accepts tasks for deferred execution.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, payload any) error
}

// Mux routes tasks to handlers by name.
type Mux struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewMux() *Mux {
	return &Mux{handlers: make(map[string]Handler)}
}

func (m *Mux) Handle(name string, h Handler) {
	m.mu.Lock()
	m.handlers[name] = h
	m.mu.Unlock()
}

func (m *Mux) Dispatch(ctx context.Context, t Task) error {
	m.mu.RLock()
	h, ok := m.handlers[t.Name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, t.Name)
	}
	return h(ctx, t.Payload)
}

// Decode is a helper for handlers taking a JSON payload.
func Decode[T any](fn func(ctx context.Context, v T) error) Handler {
	return func(ctx context.Context, payload json.RawMessage) error {
		var v T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &v); err != nil {
				return fmt.Errorf("decode payload: %w", err)
			}
		}
		return fn(ctx, v)
	}
}

func backoff(attempt int) time.Duration {
	if attempt > 8 {
		return 30 * time.Second
	}
	d := 200 * time.Millisecond << attempt
	if d > 30*time.Second {
		return 30 * time.Second
	}
	return d
}
