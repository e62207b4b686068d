package identity

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/types"
	"github.com/cuemby/hexwarren/pkg/world"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func openTestWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := world.Open(filepath.Join(t.TempDir(), "world.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func newContext(w *world.World, caller types.Identity, now time.Time) *runtime.Context {
	return runtime.New(w, caller, now, 1, zerolog.Nop(), nil)
}

func player(b byte) types.Identity {
	var id types.Identity
	id[0] = b
	return id
}

func TestAccountBootstrapIsIdempotent(t *testing.T) {
	w := openTestWorld(t)
	now := time.Now().UTC()
	caller := player(1)

	ctx := newContext(w, caller, now)
	require.NoError(t, accountBootstrap(ctx, json.RawMessage(`{"display_name":"Finn"}`)))
	require.NoError(t, accountBootstrap(ctx, nil))

	profile, ok, err := w.AccountProfiles.Get(accountKey(caller))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Finn", profile.DisplayName)
}

func TestSignInRejectsBannedAccount(t *testing.T) {
	w := openTestWorld(t)
	now := time.Now().UTC()
	caller := player(2)

	require.NoError(t, w.Accounts.Insert(accountKey(caller), types.Account{
		Identity: caller, CreatedAt: now, Banned: true, BanReason: "cheating",
	}))

	ctx := newContext(w, caller, now)
	err := signIn(ctx, json.RawMessage(`{"session_id":"s1"}`))
	require.Error(t, err)
	require.Equal(t, runtime.KindBlocked, runtime.KindOf(err))
}

func TestSignOutRequiresOwningIdentity(t *testing.T) {
	w := openTestWorld(t)
	now := time.Now().UTC()
	owner := player(3)
	other := player(4)

	require.NoError(t, w.Sessions.Insert([]byte("s2"), types.SessionState{
		SessionID: "s2", Identity: owner, Status: types.SessionStatusActive, ConnectedAt: now,
	}))

	ctx := newContext(w, other, now)
	err := signOut(ctx, json.RawMessage(`{"session_id":"s2"}`))
	require.Error(t, err)
	require.Equal(t, runtime.KindUnauthorized, runtime.KindOf(err))
}

func TestRoleGrantRequiresAdmin(t *testing.T) {
	w := openTestWorld(t)
	now := time.Now().UTC()
	caller := player(5)

	ctx := newContext(w, caller, now)
	err := roleGrant(ctx, json.RawMessage(`{"role":"admin"}`))
	require.Error(t, err)
	require.Equal(t, runtime.KindUnauthorized, runtime.KindOf(err))
}
