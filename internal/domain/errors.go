package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTransient            = errors.New("transient remote failure")
	ErrConfigurationGap     = errors.New("configuration gap")
	ErrQueueFull            = errors.New("queue is full")
	ErrUnknownEntityKind    = errors.New("unknown entity kind")
	ErrMissingDonorIdentity = errors.New("event has no email and no crm account id")
)

// ConfigurationGapError names the setting missing for the current organization.
type ConfigurationGapError struct {
	Setting string
}

func (e *ConfigurationGapError) Error() string {
	return fmt.Sprintf("configuration gap: %s is not configured", e.Setting)
}

func (e *ConfigurationGapError) Is(target error) bool {
	return target == ErrConfigurationGap
}

// TransientError wraps a network, timeout or rate-limit failure from a remote system.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func (e *TransientError) Is(target error) bool {
	return target == ErrTransient
}

func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
