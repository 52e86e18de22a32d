package mirror

import "errors"

var (
	ErrInvalidRemoteObject = errors.New("remote object cannot be mirrored")
	ErrMalformedFeatures   = errors.New("product features metadata is not valid JSON")
	ErrApplyFailed         = errors.New("failed to apply changes to local store")
	ErrEmptyDSN            = errors.New("mysql dsn is empty")
)
