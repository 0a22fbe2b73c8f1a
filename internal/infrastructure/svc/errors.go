package svc

import "errors"

// ErrNoFeedsEnabled is returned when no configured exchange has an adapter.
var ErrNoFeedsEnabled = errors.New("no exchange feeds enabled")

// ErrStorageInitFailed wraps mirror connection failures.
var ErrStorageInitFailed = errors.New("storage initialization failed")
