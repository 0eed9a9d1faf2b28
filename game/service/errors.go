package service

import "errors"

// Errors shared by the service and its storage implementations.
// Transports map them to status codes with errors.Is.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrLevelNotFound   = errors.New("level not found")
	ErrInvalidLevel    = errors.New("invalid level")
	ErrInvalidMove     = errors.New("invalid move")
)
