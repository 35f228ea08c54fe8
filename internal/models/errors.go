package models

import "errors"

// Domain errors that can be returned by repositories
var (
	// ErrNotFound indicates the requested entity was not found
	ErrNotFound = errors.New("not found")

	// ErrTerminalStatus indicates a write was attempted against a
	// transaction whose status is already terminal
	ErrTerminalStatus = errors.New("transaction status is terminal")
)
