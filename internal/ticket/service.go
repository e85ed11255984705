package ticket

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/curadesk/support-platform/internal/archive"
	"github.com/curadesk/support-platform/internal/authz"
	"github.com/curadesk/support-platform/internal/domain"
	"github.com/curadesk/support-platform/internal/events"
	"github.com/curadesk/support-platform/internal/repository"
	"github.com/curadesk/support-platform/pkg/util/errorutil"
)

// Service coordinates ticket workflows on the resource side. Every operation
// runs the authorization gate before touching data, and read-level denials on
// foreign tickets surface as NotFound so customers cannot probe for ids.
type Service struct {
	tickets     repository.TicketRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	archiver    *archive.Archiver
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// Dependencies bundles collaborators for the ticket service.
type Dependencies struct {
	TicketRepo     repository.TicketRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	Archiver       *archive.Archiver
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewService constructs the service.
func NewService(deps Dependencies) *Service {
	return &Service{
		tickets:     deps.TicketRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		archiver:    deps.Archiver,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
	}
}

// Create opens a ticket for the caller, validating and storing the attachment
// bundle when present. The bundle is fully validated before any row or file
// is written, so a rejected submission leaves nothing behind.
func (s *Service) Create(ctx context.Context, principal authz.Principal, description string, bundle []byte, fileName string) (*domain.Ticket, *domain.AttachmentBundle, error) {
	if err := authz.Decide(principal, authz.ActionTicketCreate, principal.UserID); err != nil {
		return nil, nil, err
	}

	description = strings.TrimSpace(description)
	if description == "" {
		return nil, nil, errorutil.NewMalformed("description required", nil)
	}

	var info archive.Info
	if len(bundle) > 0 {
		var err error
		info, err = s.archiver.Inspect(bundle)
		if err != nil {
			return nil, nil, err
		}
	}

	ticket := &domain.Ticket{
		OwnerID:     principal.UserID,
		Description: description,
		State:       domain.TicketStateOpen,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, nil, err
	}

	var stored *domain.AttachmentBundle
	if len(bundle) > 0 {
		storageKey, err := s.archiver.Store(ticket.ID, bundle)
		if err != nil {
			return nil, nil, err
		}
		stored = &domain.AttachmentBundle{
			TicketID:     ticket.ID,
			StorageKey:   storageKey,
			FileName:     fileName,
			OriginalSize: info.UncompressedSize,
			EntryCount:   info.EntryCount,
		}
		if err := s.attachments.Create(ctx, stored); err != nil {
			// Roll the bytes back so no orphan bundle survives the failure.
			if removeErr := s.archiver.Remove(storageKey); removeErr != nil {
				s.logger.Error("orphan bundle cleanup failed",
					zap.String("storage_key", storageKey), zap.Error(removeErr))
			}
			return nil, nil, err
		}
		s.publish(ctx, events.Event{
			Type:        events.EventBundleStored,
			TicketID:    ticket.ID,
			ActorUserID: principal.UserID,
			ActorRole:   principal.Role,
			Payload: events.BundleStoredPayload{
				BundleID:     stored.ID,
				OriginalSize: stored.OriginalSize,
				EntryCount:   stored.EntryCount,
			},
		})
	}

	s.publish(ctx, events.Event{
		Type:        events.EventTicketCreated,
		TicketID:    ticket.ID,
		ActorUserID: principal.UserID,
		ActorRole:   principal.Role,
	})
	return ticket, stored, nil
}

// ListOwned returns the caller's tickets. Staff callers see every ticket.
func (s *Service) ListOwned(ctx context.Context, principal authz.Principal, limit, offset int) ([]domain.Ticket, error) {
	if err := authz.Decide(principal, authz.ActionTicketList, principal.UserID); err != nil {
		return nil, err
	}
	if principal.Staff() {
		return s.tickets.ListAll(ctx, limit, offset)
	}
	return s.tickets.ListByOwner(ctx, principal.UserID, limit, offset)
}

// ListAll returns every ticket, for staff.
func (s *Service) ListAll(ctx context.Context, principal authz.Principal, limit, offset int) ([]domain.Ticket, error) {
	if err := authz.Decide(principal, authz.ActionTicketListAll, 0); err != nil {
		return nil, err
	}
	return s.tickets.ListAll(ctx, limit, offset)
}

// Get returns a ticket with its comment thread.
func (s *Service) Get(ctx context.Context, principal authz.Principal, ticketID int64) (*domain.Ticket, []domain.Comment, error) {
	ticket, err := s.loadForRead(ctx, principal, ticketID)
	if err != nil {
		return nil, nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, comments, nil
}

// ChangeState transitions a ticket through the state machine. Only staff may
// change state; the transition table rejects anything the machine does not
// allow, including every transition out of closed.
func (s *Service) ChangeState(ctx context.Context, principal authz.Principal, ticketID int64, to domain.TicketState) (*domain.Ticket, error) {
	ticket, err := s.loadForAction(ctx, principal, ticketID, authz.ActionStateUpdate)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(ticket.State, to) {
		return nil, errorutil.NewConflict("invalid state transition", map[string]any{
			"from": ticket.State,
			"to":   to,
		})
	}

	if err := s.tickets.UpdateState(ctx, ticket.ID, ticket.State, to); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, errorutil.NewConflict("ticket state changed concurrently", nil)
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:        events.EventTicketStateChanged,
		TicketID:    ticket.ID,
		ActorUserID: principal.UserID,
		ActorRole:   principal.Role,
		Payload: events.TicketStateChangedPayload{
			OldState: ticket.State,
			NewState: to,
		},
	})

	ticket.State = to
	ticket.UpdatedAt = time.Now()
	return ticket, nil
}

// AddComment appends a staff comment to the ticket thread. Comments never
// change ticket state; state transitions are a separate, explicit call.
func (s *Service) AddComment(ctx context.Context, principal authz.Principal, ticketID int64, body string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, errorutil.NewMalformed("comment body required", nil)
	}

	ticket, err := s.loadForAction(ctx, principal, ticketID, authz.ActionCommentAdd)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: principal.UserID,
		Body:     body,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:        events.EventCommentAdded,
		TicketID:    ticket.ID,
		ActorUserID: principal.UserID,
		ActorRole:   principal.Role,
		Payload:     events.CommentAddedPayload{CommentID: comment.ID},
	})
	return comment, nil
}

// OpenBundle returns the stored bundle metadata and a reader over the
// original bytes. The gate runs before the file is touched.
func (s *Service) OpenBundle(ctx context.Context, principal authz.Principal, ticketID int64) (*domain.AttachmentBundle, *os.File, error) {
	ticket, err := s.loadForAction(ctx, principal, ticketID, authz.ActionBundleRead)
	if err != nil {
		return nil, nil, err
	}

	bundle, err := s.attachments.GetByTicket(ctx, ticket.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, errorutil.NewNotFound("attachment bundle")
		}
		return nil, nil, err
	}

	file, err := s.archiver.Open(bundle.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return bundle, file, nil
}

// loadForRead fetches a ticket and enforces read access. A denial and a
// missing ticket produce the same NotFound so callers cannot distinguish a
// foreign ticket from a nonexistent one.
func (s *Service) loadForRead(ctx context.Context, principal authz.Principal, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorutil.NewNotFound("ticket")
		}
		return nil, err
	}
	if err := authz.Decide(principal, authz.ActionTicketRead, ticket.OwnerID); err != nil {
		return nil, errorutil.NewNotFound("ticket")
	}
	return ticket, nil
}

// loadForAction enforces read access first (masking existence), then the
// requested action. A caller who can see the ticket but lacks the action
// gets Forbidden.
func (s *Service) loadForAction(ctx context.Context, principal authz.Principal, ticketID int64, action authz.Action) (*domain.Ticket, error) {
	ticket, err := s.loadForRead(ctx, principal, ticketID)
	if err != nil {
		return nil, err
	}
	if err := authz.Decide(principal, action, ticket.OwnerID); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.Timestamp = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}
