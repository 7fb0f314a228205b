package repository

import "errors"

var (
	ErrRequestNotFound    = errors.New("service request not found")
	ErrProviderNotFound   = errors.New("provider profile not found")
	ErrInvalidData        = errors.New("invalid data")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrAssignmentConflict = errors.New("request already assigned or no longer pending")
)
