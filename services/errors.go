package services

import "errors"

// ErrInvalidInput marks a request that is malformed before any lookup happens.
var ErrInvalidInput = errors.New("invalid input")
