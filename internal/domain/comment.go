package domain

import "time"

// Comment is a staff note on a ticket thread. Comments are append-only and
// immutable once created.
type Comment struct {
	ID        int64
	TicketID  int64
	AuthorID  int64
	Body      string
	CreatedAt time.Time
}
