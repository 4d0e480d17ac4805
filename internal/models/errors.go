package models

import "errors"

var (
	ErrFetch             = errors.New("image fetch failed")
	ErrNetwork           = errors.New("classifier request failed")
	ErrMalformedResponse = errors.New("malformed classifier response")
	ErrTimeout           = errors.New("classification timed out")
)
