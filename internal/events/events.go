// Package events defines the payloads published on the event bus. Handlers
// receive the publishing request's context, which carries its request id.
package events

import (
	"net/http"
	"time"
)

// HTTPStart is published when the server accepts a request.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is published once the response has been written.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}

// GraphQLStart is published after a document passes validation and before
// the operation runs.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is published for every request, including those rejected by
// the parser or validator. OperationType is empty for rejected documents.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}

// Entity kinds carried by EntityCreated.
const (
	KindAuthor = "Author"
	KindBook   = "Book"
)

// EntityCreated is published after a mutation stores a new entity.
type EntityCreated struct {
	Kind string
	ID   int
	Name string
}
