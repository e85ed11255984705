package domain

import "time"

// AttachmentBundle is the metadata row for a validated compressed bundle
// stored on disk. The row exists only after the archive passed validation and
// the bytes were persisted; bundles are never mutated afterwards.
type AttachmentBundle struct {
	ID           int64
	TicketID     int64
	StorageKey   string
	FileName     string
	OriginalSize int64
	EntryCount   int
	CreatedAt    time.Time
}
