package domain

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid json")
	ErrRegistryFull    = errors.New("listener registry is full")
	ErrRegistryStopped = errors.New("listener registry is stopped")
)
