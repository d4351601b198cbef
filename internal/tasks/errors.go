package tasks

import (
	"github.com/tansive/tansive-pipedrive/internal/common/apperrors"
	"github.com/tansive/tansive-pipedrive/pkg/pipedrive"
)

// Error definitions for the package. Parameter and lookup failures derive
// from pipedrive.ErrConfiguration so callers can treat them alike.
var (
	// ErrInvalidParameters is returned when step parameters fail schema or
	// struct validation.
	ErrInvalidParameters = pipedrive.ErrConfiguration.New("invalid task parameters")

	// ErrUnknownTask is returned for a task type that is not registered.
	ErrUnknownTask = pipedrive.ErrConfiguration.New("unknown task type")

	// ErrIncompatibleVersion is returned when a step's version constraint
	// excludes this plugin.
	ErrIncompatibleVersion = pipedrive.ErrConfiguration.New("incompatible plugin version")

	// ErrStorage is returned when task output cannot be written.
	ErrStorage = apperrors.New("storage error")
)
