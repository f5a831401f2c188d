package repository

import "errors"

var (
	ErrDBNotReady = errors.New("database not initialized")

	// ErrPostNotOpen is returned when a conditional write finds the post closed or gone.
	ErrPostNotOpen = errors.New("post is not open")
	// ErrQuoteNotPending is returned when a quote transition loses to another one.
	ErrQuoteNotPending = errors.New("quote is not pending")
	ErrDuplicateQuote  = errors.New("vendor already quoted on this post")
	ErrPostHasThreads  = errors.New("post has chat threads")
)
