package snapshot

import "errors"

var (
	ErrInvalidDestination = errors.New("invalid snapshot destination")
	ErrInvalidConfig      = errors.New("invalid snapshot storage configuration")
	ErrFailedToLoadConfig = errors.New("failed to load AWS config")
	ErrFailedToWrite      = errors.New("failed to write snapshot")

	ErrBucketNotFound     = errors.New("bucket not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
	ErrOperationTimeout   = errors.New("operation timed out")
	ErrOperationCanceled  = errors.New("operation canceled")
)
