package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	MaxMessageLength = 2000
	MaxAuthorLength  = 200

	// HardLimitStoredRecords caps list-based stores (redis) so a check table never grows unbounded.
	HardLimitStoredRecords = 100
)

var validate = validator.New()

// Record is one row written to or read from a table backend.
type Record struct {
	ID        string    `json:"id,omitempty" dynamodbav:"id"`
	Message   string    `json:"message_text" dynamodbav:"message_text"`
	Author    string    `json:"author" dynamodbav:"author"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}

// WriteRequest is the user input for a write. Author is free text and may be empty.
type WriteRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
	Author  string `json:"author" validate:"max=200"`
}

func (r WriteRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return Err(ErrInvalidRecord, err, "")
	}
	return nil
}

// DocRef addresses a single Firestore document.
type DocRef struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

func (d DocRef) Path() string {
	return d.Collection + "/" + d.ID
}

// Document is the result of reading a DocRef. Exists=false is a valid result, not an error.
type Document struct {
	Path   string         `json:"path"`
	Exists bool           `json:"exists"`
	Data   map[string]any `json:"data,omitempty"`
}

// WriteResult echoes a document write back to the caller.
type WriteResult struct {
	Path       string    `json:"path"`
	Message    string    `json:"message"`
	UpdateTime time.Time `json:"update_time"`
}

// WriteEvent is published after a successful write when an event target is configured.
type WriteEvent struct {
	Backend string    `json:"backend"`
	Target  string    `json:"target"`
	Message string    `json:"message"`
	Author  string    `json:"author,omitempty"`
	At      time.Time `json:"at"`
}
