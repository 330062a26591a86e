package model

import "errors"

// Failure conditions the evaluation core can return. Normal outcomes
// (filters off, drop too small, position flat) are expressed as signals,
// never as errors.
var (
	ErrInsufficientData     = errors.New("insufficient price history")
	ErrMalformedSeries      = errors.New("malformed price series")
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
