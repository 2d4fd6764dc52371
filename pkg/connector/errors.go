package connector

import "errors"

var (
	// ErrTargetRequired is returned when no connection target was supplied
	// and none could be resolved from the environment.
	ErrTargetRequired = errors.New("connector: connection target is required")

	// ErrValidation is returned when a target or its options fail security
	// policy. Nothing is dialed and no state is cached.
	ErrValidation = errors.New("connector: validation failed")

	// ErrEstablishment is returned when every connection attempt was
	// exhausted. The record is removed so a later call retries fresh.
	ErrEstablishment = errors.New("connector: connection establishment failed")

	// ErrTimeout is returned when a bounded wait exceeded its deadline.
	ErrTimeout = errors.New("connector: operation timed out")

	// ErrNotFound is returned when an operation references a connection
	// name with no cached record.
	ErrNotFound = errors.New("connector: connection not found")

	// ErrNotReady is returned when a cached connection exists but its
	// handle is not ready for use.
	ErrNotReady = errors.New("connector: connection is not ready")

	// ErrEmptyBatch is returned by ConnectMultiDB for an empty config list.
	ErrEmptyBatch = errors.New("connector: at least one database config is required")

	// ErrDuplicateName is returned by ConnectMultiDB when two entries share
	// a connection name.
	ErrDuplicateName = errors.New("connector: connection names must be unique")
)
