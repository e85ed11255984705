package ticket

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/curadesk/support-platform/internal/archive"
	"github.com/curadesk/support-platform/internal/authz"
	"github.com/curadesk/support-platform/internal/config"
	"github.com/curadesk/support-platform/internal/domain"
	"github.com/curadesk/support-platform/internal/events"
	"github.com/curadesk/support-platform/pkg/util/errorutil"
)

var (
	customerOne = authz.Principal{UserID: 1, Email: "one@example.com", Role: domain.RoleCustomer}
	customerTwo = authz.Principal{UserID: 2, Email: "two@example.com", Role: domain.RoleCustomer}
	supportRep  = authz.Principal{UserID: 3, Email: "rep@example.com", Role: domain.RoleSupport}
	adminUser   = authz.Principal{UserID: 4, Email: "admin@example.com", Role: domain.RoleAdmin}
)

type serviceFixture struct {
	svc         *Service
	tickets     *fakeTicketRepo
	comments    *fakeCommentRepo
	attachments *fakeAttachmentRepo
	bundleRoot  string
	dispatcher  events.Dispatcher
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	root := t.TempDir()
	tickets := newFakeTicketRepo()
	comments := newFakeCommentRepo()
	attachments := newFakeAttachmentRepo()
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewService(Dependencies{
		TicketRepo:     tickets,
		CommentRepo:    comments,
		AttachmentRepo: attachments,
		Archiver: archive.NewArchiver(config.ArchiveConfig{
			Root:                 root,
			MaxUncompressedBytes: 1 << 20,
			MaxEntries:           10,
			MaxCompressionRatio:  50,
		}),
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})
	return &serviceFixture{
		svc:         svc,
		tickets:     tickets,
		comments:    comments,
		attachments: attachments,
		bundleRoot:  root,
		dispatcher:  dispatcher,
	}
}

func zipBytes(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func filesUnder(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestCreate_WithBundle(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	data := zipBytes(t, map[string][]byte{"logs/app.log": []byte("panic at startup")})

	ticket, bundle, err := fx.svc.Create(context.Background(), customerOne, "app crashes on login", data, "diagnostics.zip")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStateOpen, ticket.State)
	assert.Equal(t, customerOne.UserID, ticket.OwnerID)
	require.NotNil(t, bundle)
	assert.Equal(t, "diagnostics.zip", bundle.FileName)
	assert.Equal(t, 1, bundle.EntryCount)
	assert.Len(t, filesUnder(t, fx.bundleRoot), 1)
}

func TestCreate_WithoutBundle(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ticket, bundle, err := fx.svc.Create(context.Background(), customerOne, "billing question", nil, "")
	require.NoError(t, err)
	assert.Nil(t, bundle)
	assert.Equal(t, domain.TicketStateOpen, ticket.State)
	assert.Empty(t, filesUnder(t, fx.bundleRoot))
}

func TestCreate_EmptyDescription(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	_, _, err := fx.svc.Create(context.Background(), customerOne, "   ", nil, "")
	assert.True(t, errorutil.HasCode(err, errorutil.CodeMalformed))
}

func TestCreate_RejectedBundleLeavesNothing(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	_, _, err := fx.svc.Create(context.Background(), customerOne, "broken upload", []byte("not a zip"), "junk.zip")
	assert.True(t, errorutil.HasCode(err, errorutil.CodeMalformed))

	// Neither a ticket row nor any file may survive a rejected bundle.
	_, getErr := fx.tickets.GetByID(context.Background(), 1)
	assert.Error(t, getErr)
	assert.Empty(t, filesUnder(t, fx.bundleRoot))
}

func TestCreate_MetadataFailureRemovesStoredBytes(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.attachments.createErr = errors.New("insert failed")
	data := zipBytes(t, map[string][]byte{"a.txt": []byte("hello")})

	_, _, err := fx.svc.Create(context.Background(), customerOne, "upload", data, "a.zip")
	require.Error(t, err)
	assert.Empty(t, filesUnder(t, fx.bundleRoot))
}

func TestGet_OwnerSeesOwnTicket(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	created, _, err := fx.svc.Create(context.Background(), customerOne, "cannot log in", nil, "")
	require.NoError(t, err)

	ticket, comments, err := fx.svc.Get(context.Background(), customerOne, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, ticket.ID)
	assert.Empty(t, comments)
}

func TestGet_ForeignTicketIndistinguishableFromMissing(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	created, _, err := fx.svc.Create(context.Background(), customerOne, "cannot log in", nil, "")
	require.NoError(t, err)

	_, _, foreignErr := fx.svc.Get(context.Background(), customerTwo, created.ID)
	_, _, missingErr := fx.svc.Get(context.Background(), customerTwo, created.ID+100)

	require.Error(t, foreignErr)
	require.Error(t, missingErr)
	assert.True(t, errorutil.HasCode(foreignErr, errorutil.CodeNotFound))
	// A foreign ticket and a nonexistent one must produce identical errors.
	assert.Equal(t, missingErr.Error(), foreignErr.Error())
}

func TestGet_StaffSeesAnyTicket(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	created, _, err := fx.svc.Create(context.Background(), customerOne, "cannot log in", nil, "")
	require.NoError(t, err)

	for _, staff := range []authz.Principal{supportRep, adminUser} {
		ticket, _, err := fx.svc.Get(context.Background(), staff, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, ticket.ID)
	}
}

func TestListOwned_ScopedToCaller(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	_, _, err := fx.svc.Create(context.Background(), customerOne, "first", nil, "")
	require.NoError(t, err)
	_, _, err = fx.svc.Create(context.Background(), customerTwo, "second", nil, "")
	require.NoError(t, err)

	mine, err := fx.svc.ListOwned(context.Background(), customerOne, 50, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, customerOne.UserID, mine[0].OwnerID)

	// Staff see everything through the same listing.
	all, err := fx.svc.ListOwned(context.Background(), adminUser, 50, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListAll_StaffOnly(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	_, _, err := fx.svc.Create(context.Background(), customerOne, "first", nil, "")
	require.NoError(t, err)
	_, _, err = fx.svc.Create(context.Background(), customerTwo, "second", nil, "")
	require.NoError(t, err)

	all, err := fx.svc.ListAll(context.Background(), adminUser, 50, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = fx.svc.ListAll(context.Background(), customerOne, 50, 0)
	assert.True(t, errorutil.HasCode(err, errorutil.CodeForbidden))
}

func TestChangeState_StaffHappyPath(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	created, _, err := fx.svc.Create(context.Background(), customerOne, "crash", nil, "")
	require.NoError(t, err)

	var seen []events.Event
	fx.dispatcher.Subscribe(events.EventTicketStateChanged, func(_ context.Context, event events.Event) error {
		seen = append(seen, event)
		return nil
	})

	ticket, err := fx.svc.ChangeState(context.Background(), supportRep, created.ID, domain.TicketStateInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStateInProgress, ticket.State)

	require.Len(t, seen, 1)
	payload, ok := seen[0].Payload.(events.TicketStateChangedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.TicketStateOpen, payload.OldState)
	assert.Equal(t, domain.TicketStateInProgress, payload.NewState)
}

func TestChangeState_CustomerForbiddenOnOwnTicket(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	created, _, err := fx.svc.Create(context.Background(), customerOne, "crash", nil, "")
	require.NoError(t, err)

	// The owner can see the ticket, so the denial is Forbidden, not NotFound.
	_, err = fx.svc.ChangeState(context.Background(), customerOne, created.ID, domain.TicketStateInProgress)
	assert.True(t, errorutil.HasCode(err, errorutil.CodeForbidden))
}

func TestChangeState_CustomerMaskedOnForeignTicket(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	created, _, err := fx.svc.Create(context.Background(), customerOne, "crash", nil, "")
	require.NoError(t, err)

	_, err = fx.svc.ChangeState(context.Background(), customerTwo, created.ID, domain.TicketStateInProgress)
	assert.True(t, errorutil.HasCode(err, errorutil.CodeNotFound))
}

func TestChangeState_IllegalTransitionConflicts(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	created, _, err := fx.svc.Create(context.Background(), customerOne, "crash", nil, "")
	require.NoError(t, err)

	_, err = fx.svc.ChangeState(context.Background(), adminUser, created.ID, domain.TicketStateClosed)
	assert.True(t, errorutil.HasCode(err, errorutil.CodeConflict))
}

func TestChangeState_ClosedIsTerminal(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	created, _, err := fx.svc.Create(context.Background(), customerOne, "crash", nil, "")
	require.NoError(t, err)

	for _, to := range []domain.TicketState{
		domain.TicketStateInProgress,
		domain.TicketStateResolved,
		domain.TicketStateClosed,
	} {
		_, err = fx.svc.ChangeState(context.Background(), adminUser, created.ID, to)
		require.NoError(t, err)
	}

	for _, to := range domain.TicketStates() {
		_, err = fx.svc.ChangeState(context.Background(), adminUser, created.ID, to)
		assert.True(t, errorutil.HasCode(err, errorutil.CodeConflict), "closed -> %s must conflict", to)
	}
}

func TestChangeState_ReopenFromResolved(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	created, _, err := fx.svc.Create(context.Background(), customerOne, "crash", nil, "")
	require.NoError(t, err)

	_, err = fx.svc.ChangeState(context.Background(), supportRep, created.ID, domain.TicketStateInProgress)
	require.NoError(t, err)
	_, err = fx.svc.ChangeState(context.Background(), supportRep, created.ID, domain.TicketStateResolved)
	require.NoError(t, err)

	ticket, err := fx.svc.ChangeState(context.Background(), supportRep, created.ID, domain.TicketStateInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStateInProgress, ticket.State)
}

func TestAddComment_StaffOnly(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	created, _, err := fx.svc.Create(context.Background(), customerOne, "crash", nil, "")
	require.NoError(t, err)

	comment, err := fx.svc.AddComment(context.Background(), supportRep, created.ID, "looking into it")
	require.NoError(t, err)
	assert.Equal(t, supportRep.UserID, comment.AuthorID)

	_, err = fx.svc.AddComment(context.Background(), customerOne, created.ID, "any update?")
	assert.True(t, errorutil.HasCode(err, errorutil.CodeForbidden))
}

func TestAddComment_DoesNotChangeState(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	created, _, err := fx.svc.Create(context.Background(), customerOne, "crash", nil, "")
	require.NoError(t, err)

	_, err = fx.svc.AddComment(context.Background(), supportRep, created.ID, "triaged")
	require.NoError(t, err)

	ticket, _, err := fx.svc.Get(context.Background(), supportRep, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStateOpen, ticket.State)
}

func TestOpenBundle_OwnerGetsOriginalBytes(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	data := zipBytes(t, map[string][]byte{"trace.log": []byte("goroutine dump")})
	created, _, err := fx.svc.Create(context.Background(), customerOne, "crash", data, "trace.zip")
	require.NoError(t, err)

	bundle, file, err := fx.svc.OpenBundle(context.Background(), customerOne, created.ID)
	require.NoError(t, err)
	defer file.Close()

	got, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, "trace.zip", bundle.FileName)
}

func TestOpenBundle_ForeignCustomerMasked(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	data := zipBytes(t, map[string][]byte{"trace.log": []byte("goroutine dump")})
	created, _, err := fx.svc.Create(context.Background(), customerOne, "crash", data, "trace.zip")
	require.NoError(t, err)

	_, _, err = fx.svc.OpenBundle(context.Background(), customerTwo, created.ID)
	assert.True(t, errorutil.HasCode(err, errorutil.CodeNotFound))
}

func TestOpenBundle_NoBundle(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	created, _, err := fx.svc.Create(context.Background(), customerOne, "no attachment", nil, "")
	require.NoError(t, err)

	_, _, err = fx.svc.OpenBundle(context.Background(), customerOne, created.ID)
	assert.True(t, errorutil.HasCode(err, errorutil.CodeNotFound))
}
