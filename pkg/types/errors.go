package types

import (
	"errors"
	"fmt"
)

// ErrFeatureNotFound is returned when a feature id is not in the catalog
type ErrFeatureNotFound struct {
	Id int64
}

func (e *ErrFeatureNotFound) Error() string {
	return fmt.Sprintf("feature not found: %d", e.Id)
}

// From checks if the given error is an ErrFeatureNotFound
func (e *ErrFeatureNotFound) From(err error) bool {
	var notFound *ErrFeatureNotFound
	return errors.As(err, &notFound)
}

// ErrInvalidTopic is returned for an empty or malformed notification topic
type ErrInvalidTopic struct {
	Topic string
}

func (e *ErrInvalidTopic) Error() string {
	return fmt.Sprintf("invalid topic: %q", e.Topic)
}

// ErrNotificationsDenied is returned when the user blocked notifications.
var ErrNotificationsDenied = errors.New("notifications were previously denied")

// ErrUnauthenticated is returned when a call needs a session and has none.
var ErrUnauthenticated = errors.New("unauthenticated")
