package repository

import "errors"

var (
	// ErrNotFound reports an absent row. Repositories translate pgx.ErrNoRows
	// and zero-row updates into this sentinel so callers never import pgx.
	ErrNotFound = errors.New("record not found")

	// ErrPrefixTaken reports a unique-violation on the api_keys prefix column.
	// Prefix collisions are retryable: the issuer regenerates and tries again.
	ErrPrefixTaken = errors.New("key prefix already taken")

	// ErrStaleState reports that a compare-and-set ticket state update matched
	// no row, meaning the ticket changed (or vanished) underneath the caller.
	ErrStaleState = errors.New("ticket state changed concurrently")
)
