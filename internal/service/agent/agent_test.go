package agent

import (
	"context"
	"testing"

	"insurance-service/internal/domain/auth"
	xerrors "insurance-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fakeRepo struct {
	users map[int64]*auth.User
}

func (f *fakeRepo) Create(_ context.Context, u *auth.User) error {
	u.ID = int64(len(f.users) + 1)
	f.users[u.ID] = u
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id int64) (*auth.User, error) {
	if u, ok := f.users[id]; ok {
		dup := *u
		return &dup, nil
	}
	return nil, xerrors.ErrNotFound
}

func (f *fakeRepo) Update(_ context.Context, u *auth.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeRepo) ListAgents(context.Context) ([]auth.AgentSummary, error) {
	return nil, nil
}

type fakeSessions struct {
	open map[int64][]string
}

func (f *fakeSessions) InvalidateUserSessions(_ context.Context, userID int64) ([]string, error) {
	jtis := f.open[userID]
	delete(f.open, userID)
	return jtis, nil
}

type fakeNotifier struct {
	logouts []string
}

func (f *fakeNotifier) ForceLogout(_ int64, sessionID, _ string) {
	f.logouts = append(f.logouts, sessionID)
}

func newService(repo *fakeRepo) (*AgentService, *fakeSessions, *fakeNotifier) {
	sessions := &fakeSessions{open: map[int64][]string{}}
	notifier := &fakeNotifier{}
	return NewAgentService(repo, sessions, notifier, zap.NewNop()), sessions, notifier
}

func TestCreateHashesPassword(t *testing.T) {
	repo := &fakeRepo{users: map[int64]*auth.User{}}
	svc, _, _ := newService(repo)

	u, err := svc.Create(context.Background(), &auth.CreateAgentRequest{
		Email: "a@example.com", FullName: " Ann ", Password: "password1", Phone: "5551234567",
	})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAgent, u.Role)
	assert.Equal(t, "Ann", u.FullName)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password1")))

	_, err = svc.Create(context.Background(), &auth.CreateAgentRequest{
		Email: "b@example.com", FullName: "B", Password: "password1", Phone: "12ab",
	})
	var verr *xerrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "phone")
}

func TestUpdate(t *testing.T) {
	repo := &fakeRepo{users: map[int64]*auth.User{
		1: {ID: 1, Role: auth.RoleAdmin, FullName: "Root"},
		2: {ID: 2, Role: auth.RoleAgent, FullName: "Ann", Status: auth.StatusActive},
	}}
	svc, _, _ := newService(repo)
	ctx := context.Background()

	inactive := auth.StatusInactive
	name := "Ann Smith"
	u, err := svc.Update(ctx, 2, &auth.UpdateAgentRequest{FullName: &name, Status: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Ann Smith", u.FullName)
	assert.Equal(t, auth.StatusInactive, repo.users[2].Status)

	_, err = svc.Update(ctx, 1, &auth.UpdateAgentRequest{FullName: &name})
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	blank := "  "
	_, err = svc.Update(ctx, 2, &auth.UpdateAgentRequest{FullName: &blank})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestDeactivateEndsSessions(t *testing.T) {
	repo := &fakeRepo{users: map[int64]*auth.User{
		2: {ID: 2, Role: auth.RoleAgent, FullName: "Ann", Status: auth.StatusActive},
	}}
	svc, sessions, notifier := newService(repo)
	sessions.open[2] = []string{"jti-1", "jti-2"}
	ctx := context.Background()

	name := "Ann Smith"
	_, err := svc.Update(ctx, 2, &auth.UpdateAgentRequest{FullName: &name})
	require.NoError(t, err)
	assert.Len(t, sessions.open[2], 2)
	assert.Empty(t, notifier.logouts)

	inactive := auth.StatusInactive
	_, err = svc.Update(ctx, 2, &auth.UpdateAgentRequest{Status: &inactive})
	require.NoError(t, err)
	assert.Empty(t, sessions.open[2])
	assert.Equal(t, []string{"jti-1", "jti-2"}, notifier.logouts)

	// Already inactive: nothing left to end.
	sessions.open[2] = []string{"stale"}
	_, err = svc.Update(ctx, 2, &auth.UpdateAgentRequest{Status: &inactive})
	require.NoError(t, err)
	assert.Equal(t, []string{"stale"}, sessions.open[2])
}
