package catalogsync

import "errors"

var (
	ErrUsage                = errors.New("usage error")
	ErrUnknownCommand       = errors.New("unknown command")
	ErrUnknownAdapter       = errors.New("unknown storage adapter")
	ErrConfirmationRequired = errors.New("destructive command needs -yes in production")
	ErrDrift                = errors.New("remote catalog drifted from plans")
)
