package adapter

import "errors"

var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("client unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrInternalServerError = errors.New("internal server error")
	ErrBadGateway          = errors.New("bad gateway")

	// ErrNotConfigured is returned when a client is asked to act without
	// the connection settings it needs (empty host, missing token).
	ErrNotConfigured = errors.New("integration not configured")

	// ErrInvalidShareURL is returned when a Quark share URL does not match
	// the expected https://pan.quark.cn/s/{id} shape.
	ErrInvalidShareURL = errors.New("invalid quark share url")
)
