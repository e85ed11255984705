package ticket

import (
	"context"
	"sync"
	"time"

	"github.com/curadesk/support-platform/internal/domain"
	"github.com/curadesk/support-platform/internal/repository"
)

type fakeTicketRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{byID: make(map[int64]domain.Ticket)}
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ticket.ID = f.nextID
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	f.byID[ticket.ID] = *ticket
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ticket, nil
}

func (f *fakeTicketRepo) ListByOwner(_ context.Context, ownerID int64, _, _ int) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for id := int64(1); id <= f.nextID; id++ {
		if ticket, ok := f.byID[id]; ok && ticket.OwnerID == ownerID {
			out = append(out, ticket)
		}
	}
	return out, nil
}

func (f *fakeTicketRepo) ListAll(_ context.Context, _, _ int) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for id := int64(1); id <= f.nextID; id++ {
		if ticket, ok := f.byID[id]; ok {
			out = append(out, ticket)
		}
	}
	return out, nil
}

func (f *fakeTicketRepo) UpdateState(_ context.Context, id int64, from, to domain.TicketState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.byID[id]
	if !ok || ticket.State != from {
		return repository.ErrStaleState
	}
	ticket.State = to
	ticket.UpdatedAt = time.Now()
	f.byID[id] = ticket
	return nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	nextID   int64
	byTicket map[int64][]domain.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{byTicket: make(map[int64][]domain.Comment)}
}

func (f *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	comment.ID = f.nextID
	comment.CreatedAt = time.Now()
	f.byTicket[comment.TicketID] = append(f.byTicket[comment.TicketID], *comment)
	return nil
}

func (f *fakeCommentRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Comment{}, f.byTicket[ticketID]...), nil
}

type fakeAttachmentRepo struct {
	mu        sync.Mutex
	nextID    int64
	byTicket  map[int64][]domain.AttachmentBundle
	createErr error
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{byTicket: make(map[int64][]domain.AttachmentBundle)}
}

func (f *fakeAttachmentRepo) Create(_ context.Context, bundle *domain.AttachmentBundle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	bundle.ID = f.nextID
	bundle.CreatedAt = time.Now()
	f.byTicket[bundle.TicketID] = append(f.byTicket[bundle.TicketID], *bundle)
	return nil
}

func (f *fakeAttachmentRepo) GetByTicket(_ context.Context, ticketID int64) (*domain.AttachmentBundle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bundles := f.byTicket[ticketID]
	if len(bundles) == 0 {
		return nil, repository.ErrNotFound
	}
	latest := bundles[len(bundles)-1]
	return &latest, nil
}

func (f *fakeAttachmentRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.AttachmentBundle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.AttachmentBundle{}, f.byTicket[ticketID]...), nil
}
