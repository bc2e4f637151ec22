package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrNoLineItems is returned at submission time when no selected product has a
// variant identifier for the chosen channel. It is a blocking, user-correctable condition.
var ErrNoLineItems = errors.New("no products could be added to the order")

// ErrStepIncomplete is returned when advancing past a step that is not complete.
var ErrStepIncomplete = errors.New("step is incomplete")

// ErrFormInvalid is returned when a submission fails field validation.
var ErrFormInvalid = errors.New("form is invalid")

// ErrCacheMiss is returned by enrichment caches when a key is absent.
var ErrCacheMiss = errors.New("cache miss")
