package repository

import "errors"

var (
	ErrRunNotFound       = errors.New("run not found")
	ErrSenderNotFound    = errors.New("sender not found")
	ErrWhitelistNotFound = errors.New("whitelist entry not found")
	ErrRunAlreadyActive  = errors.New("another run is already active")
	ErrInvalidInput      = errors.New("invalid input parameters")
)
