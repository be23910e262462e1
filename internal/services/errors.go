package services

import (
	"errors"
	"fmt"
)

var (
	ErrVisitNotFound      = errors.New("visit not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUpstream           = errors.New("upstream service failure")
	ErrInvalidInput       = errors.New("invalid input")
)

// UpstreamError reports a failed call to a geolocation service. It matches
// ErrUpstream with errors.Is.
type UpstreamError struct {
	Service string
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Service, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }
