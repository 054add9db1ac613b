package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrUpstream      = errors.New("upstream error")
	ErrRateLimited   = errors.New("rate limited")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidOrder  = errors.New("invalid order parameters")
	ErrSigningFailed = errors.New("signing failed")
)
