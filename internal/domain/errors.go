package domain

import "errors"

var ErrRecordNotFound = errors.New("Record not found")
var ErrAccountNotFound = errors.New("Account not found")
var ErrInsufficientBalance = errors.New("Insufficient balance")
var ErrInvalidAmount = errors.New("Transaction amount must be greater than zero")
var ErrInvalidIndicator = errors.New("Invalid transaction indicator")

// ErrStorageFailure wraps any persistence error surfaced to callers,
// including transient conflicts that exhausted their retries.
var ErrStorageFailure = errors.New("Storage failure")

// ErrDuplicateRequest reports that a request reference has already been
// reserved or committed; callers replay the recorded result instead.
var ErrDuplicateRequest = errors.New("Duplicate transfer request")
