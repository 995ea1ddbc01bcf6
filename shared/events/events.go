package events

import "time"

// Event types
const (
	AccountCreated = "account.created"
	AccountDeleted = "account.deleted"
)

// Stream names
const (
	AccountEventsStream = "account.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type AccountCreatedEvent struct {
	AccountID int64  `json:"accountId"`
	Username  string `json:"username"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type AccountDeletedEvent struct {
	AccountID int64  `json:"accountId"`
	Username  string `json:"username"`
}
