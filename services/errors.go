package services

import "errors"

// Error taxonomy shared by the domain services. Handlers map these to HTTP
// status codes with errors.Is.
var (
	// ErrNoData means a required sample, provider or history set is empty.
	ErrNoData = errors.New("no data available")

	// ErrProvider is a transport-level failure from an external traffic source.
	// One failing provider never fails a multi-provider fetch.
	ErrProvider = errors.New("provider request failed")

	// ErrInvalidArgument is malformed or out-of-domain caller input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPersistence is a failure to write a derived record.
	ErrPersistence = errors.New("persistence failed")
)
