package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when a job needs a credential that is not set
	ErrNotConfigured = errors.New("not configured")

	// ErrUnsupportedProvider is returned for population providers that have no integration
	ErrUnsupportedProvider = errors.New("population provider not supported")

	// ErrSyncLogSealed is returned when sealing a sync log entry that is no longer running
	ErrSyncLogSealed = errors.New("sync log entry already sealed")

	// ErrNoSets is returned when a job has no set to work on
	ErrNoSets = errors.New("no sets found to sync")

	// ErrUnknownAction is returned for a population action that does not exist
	ErrUnknownAction = errors.New("unknown action")
)

// SourceUnavailableError reports an upstream non-2xx response or transport failure.
// StatusCode is 0 when no response was received.
type SourceUnavailableError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *SourceUnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s unavailable: status %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("%s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// RecordError is a failure tied to one record of a batch
type RecordError struct {
	Key     string
	Message string
}

func (e RecordError) Error() string {
	return e.Key + ": " + e.Message
}

func newRecordError(key string, err error) RecordError {
	return RecordError{Key: key, Message: err.Error()}
}
