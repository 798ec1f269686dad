// Package server implements the task graph service: transport-agnostic
// service methods plus the HTTP JSON surface in front of them.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/quarryhill/taskgraph/internal/cache"
	"github.com/quarryhill/taskgraph/internal/events"
	"github.com/quarryhill/taskgraph/internal/model"
	"github.com/quarryhill/taskgraph/internal/store"
)

// orderCacheTTL bounds staleness of cached execution orders. Dependency
// edges change rarely relative to reads, and every graph mutation
// invalidates the cache anyway.
const orderCacheTTL = 30 * time.Second

// TaskGraphServer holds the service state shared by all transports.
type TaskGraphServer struct {
	store      store.Store
	publisher  events.Publisher
	orderCache *cache.Cache[*model.ExecutionOrder]
}

// NewTaskGraphServer returns a server backed by the given store and publisher.
func NewTaskGraphServer(s store.Store, p events.Publisher) *TaskGraphServer {
	return &TaskGraphServer{
		store:      s,
		publisher:  p,
		orderCache: cache.New[*model.ExecutionOrder](orderCacheTTL),
	}
}

// recordAndPublish persists an event to the store and publishes it to NATS.
// Both operations are best-effort; failures are logged but do not block the caller.
func (s *TaskGraphServer) recordAndPublish(ctx context.Context, topic, taskID, actor string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("failed to marshal event", "topic", topic, "task_id", taskID, "error", err)
		return
	}
	if err := s.store.RecordEvent(ctx, &model.Event{
		Topic:   topic,
		TaskID:  taskID,
		Actor:   actor,
		Payload: payload,
	}); err != nil {
		slog.Warn("failed to record event", "topic", topic, "task_id", taskID, "error", err)
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "task_id", taskID, "error", err)
	}
}

// invalidateOrders drops every cached execution order. Called by any
// mutation that can change subset membership or the edge set.
func (s *TaskGraphServer) invalidateOrders() {
	s.orderCache.Clear()
}

// inputError indicates invalid user input.
// Transport layers map this to HTTP 400.
type inputError string

func (e inputError) Error() string { return string(e) }
