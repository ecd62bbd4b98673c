package jobs

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	log "github.com/Ptt-Alertor/logrus"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RxRoster/rxroster/models/account"
	"github.com/RxRoster/rxroster/models/profile"
	"github.com/RxRoster/rxroster/profiles"
	"github.com/RxRoster/rxroster/session"
	"github.com/RxRoster/rxroster/storage"
	"github.com/RxRoster/rxroster/workspace"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type stubProvider struct {
	mu      sync.Mutex
	current *session.Session
	err     error
}

func (p *stubProvider) GetCurrentSession(ctx context.Context) (*session.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.current, nil
}

func (p *stubProvider) SignInWithPassword(ctx context.Context, email, password string) (*session.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = &session.Session{AccessToken: "at", User: session.User{ID: "user-1", Email: email}}
	return p.current, nil
}

func (p *stubProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
	return nil
}

type stubRows struct {
	mu  sync.Mutex
	acc *account.Account
	err error
}

func (r *stubRows) FindOne(ctx context.Context, column, value string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if r.acc == nil || column != account.ColumnEmail {
		return nil, account.ErrAccountNotFound
	}
	out := *r.acc
	return &out, nil
}

func (r *stubRows) Update(ctx context.Context, column, value string, changes account.Changes) (*account.Account, error) {
	return nil, account.ErrAccountNotFound
}

func newRegistry(provider *stubProvider, rows *stubRows) *workspace.Registry {
	adapter := storage.NewAdapter(storage.NewMemoryKV(0))
	return workspace.NewRegistry(func(id string) *workspace.Workspace {
		return workspace.New(id, session.NewStore(provider, rows), profiles.NewStore(adapter))
	})
}

func TestSessionChecker_LinksLateAccount(t *testing.T) {
	provider, rows := &stubProvider{}, &stubRows{}
	registry := newRegistry(provider, rows)

	ws := registry.New(context.Background())
	_, err := ws.SignIn(context.Background(), "owner@example.com", "pw")
	require.NoError(t, err)
	require.Equal(t, "", ws.AccountID())

	rows.acc = &account.Account{ID: "acct-1", Email: "owner@example.com"}
	NewSessionChecker(registry).Run()

	assert.Equal(t, "acct-1", ws.AccountID())
	assert.Equal(t, "acct-1", ws.Profiles.LoadedAccountID())
}

func TestSessionChecker_DropsRevokedSession(t *testing.T) {
	provider, rows := &stubProvider{}, &stubRows{acc: &account.Account{ID: "acct-1", Email: "owner@example.com"}}
	registry := newRegistry(provider, rows)

	ws := registry.New(context.Background())
	_, err := ws.SignIn(context.Background(), "owner@example.com", "pw")
	require.NoError(t, err)
	require.Equal(t, "acct-1", ws.Profiles.LoadedAccountID())

	provider.current = nil
	NewSessionChecker(registry).Run()

	assert.False(t, ws.Session.State().IsAuthenticated)
	assert.Equal(t, "", ws.Profiles.LoadedAccountID())
}

func TestSessionChecker_SurvivesOutages(t *testing.T) {
	tests := []struct {
		name string
		down func(*stubProvider, *stubRows)
		up   func(*stubProvider, *stubRows)
	}{
		{
			name: "auth server down",
			down: func(p *stubProvider, _ *stubRows) { p.err = errors.New("auth server 503") },
			up:   func(p *stubProvider, _ *stubRows) { p.err = nil },
		},
		{
			name: "database down",
			down: func(_ *stubProvider, r *stubRows) { r.err = errors.New("dial tcp: connection refused") },
			up:   func(_ *stubProvider, r *stubRows) { r.err = nil },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, rows := &stubProvider{}, &stubRows{acc: &account.Account{ID: "acct-1", Email: "owner@example.com"}}
			registry := newRegistry(provider, rows)
			checker := NewSessionChecker(registry)

			ws := registry.New(context.Background())
			_, err := ws.SignIn(context.Background(), "owner@example.com", "pw")
			require.NoError(t, err)
			_, err = ws.Profiles.AddProfile("acct-1", profile.Draft{RoleType: profile.RolePharmacistPIC, FirstName: "Ada", LastName: "Byron"})
			require.NoError(t, err)

			tt.down(provider, rows)
			checker.Run()
			assert.True(t, ws.Session.State().IsAuthenticated)
			assert.Equal(t, "acct-1", ws.AccountID())
			assert.Len(t, ws.Profiles.Profiles(), 1)

			tt.up(provider, rows)
			checker.Run()
			assert.True(t, ws.Session.State().IsAuthenticated)
			assert.Equal(t, "acct-1", ws.AccountID())
			assert.Equal(t, "acct-1", ws.Profiles.LoadedAccountID())
			assert.Len(t, ws.Profiles.Profiles(), 1)
		})
	}
}

func TestWorkspaceSweeper(t *testing.T) {
	registry := newRegistry(&stubProvider{}, &stubRows{})
	registry.New(context.Background())
	require.Equal(t, 1, registry.Len())

	NewWorkspaceSweeper(registry, time.Hour).Run()
	assert.Equal(t, 1, registry.Len(), "fresh workspaces survive")

	NewWorkspaceSweeper(registry, -time.Second).Run()
	assert.Equal(t, 0, registry.Len())
}

func TestWorkspaceSweeper_Schedule(t *testing.T) {
	tests := []struct {
		idle time.Duration
		want string
	}{
		{2 * time.Hour, "@every 1h0m0s"},
		{30 * time.Second, "@every 1m0s"},
	}
	for _, tt := range tests {
		schedule := NewWorkspaceSweeper(nil, tt.idle).Schedule()
		assert.Equal(t, tt.want, schedule)
		_, err := cron.ParseStandard(schedule)
		assert.NoError(t, err)
	}
}
