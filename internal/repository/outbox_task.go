package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusCreated    TaskStatus = "CREATED"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusFailed     TaskStatus = "FAILED"
	TaskStatusDone       TaskStatus = "DONE"
)

type OutboxTask struct {
	ID          uuid.UUID       `db:"id"`
	Status      TaskStatus      `db:"status"`
	Payload     json.RawMessage `db:"payload"`
	Topic       string          `db:"topic"`
	EntityKey   string          `db:"entity_key"`
	Attempts    int             `db:"attempts"`
	LastError   *string         `db:"last_error"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
	CompletedAt *time.Time      `db:"completed_at"`
}

// LifecycleEvent is the payload written to the outbox for every package or
// delivery status change.
type LifecycleEvent struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	ActorID    string    `json:"actor_id"`
	PackageID  string    `json:"package_id"`
	DeliveryID string    `json:"delivery_id,omitempty"`
	OldStatus  string    `json:"old_status,omitempty"`
	NewStatus  string    `json:"new_status"`
	Earnings   *float64  `json:"earnings_credited,omitempty"`
}

var ErrMalformedEvent = errors.New("malformed lifecycle event")

// DecodeLifecycleEvent parses an outbox payload. Events without a type or
// package id are rejected.
func DecodeLifecycleEvent(raw []byte) (*LifecycleEvent, error) {
	var event LifecycleEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if event.Type == "" || event.PackageID == "" {
		return nil, fmt.Errorf("%w: type and package_id are required", ErrMalformedEvent)
	}
	return &event, nil
}
