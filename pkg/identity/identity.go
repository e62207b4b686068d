// Package identity implements the account and session lifecycle:
// bootstrap, sign-in, sign-out, session touch, and the administrative
// role-binding and moderation-flag reducers. Grounded on
// original_source/stitch-server/.../auth/{mod,sign_in,sign_out}.rs and
// reducers/auth/{account_bootstrap,session_touch}.rs.
package identity

import (
	"encoding/json"

	"github.com/cuemby/hexwarren/pkg/events"
	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/storage"
	"github.com/cuemby/hexwarren/pkg/types"
)

func init() {
	runtime.Register("account_bootstrap", accountBootstrap)
	runtime.Register("sign_in", signIn)
	runtime.Register("sign_out", signOut)
	runtime.Register("session_touch", sessionTouch)
	runtime.Register("role_grant", roleGrant)
	runtime.Register("role_revoke", roleRevoke)
	runtime.Register("moderation_flag_create", moderationFlagCreate)
	runtime.Register("moderation_flag_resolve", moderationFlagResolve)
}

func accountKey(id types.Identity) []byte { return id[:] }

// AccountBootstrapArgs carries the optional display name for the new
// profile; the account to create is the caller itself.
type AccountBootstrapArgs struct {
	DisplayName string `json:"display_name"`
}

// accountBootstrap creates the Account and AccountProfile rows for a
// caller that has never connected before. It is idempotent: bootstrapping
// an existing, non-banned account is a no-op rather than an error.
func accountBootstrap(ctx *runtime.Context, raw json.RawMessage) error {
	if ctx.Caller.IsZero() {
		return runtime.NewError(runtime.KindUnauthorized, "anonymous caller cannot bootstrap an account")
	}
	var args AccountBootstrapArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return runtime.Wrap(runtime.KindInvalidArgument, err, "decode account_bootstrap args")
		}
	}

	if acct, ok, err := ctx.World.Accounts.Get(accountKey(ctx.Caller)); err != nil {
		return err
	} else if ok {
		if acct.Banned {
			return runtime.NewError(runtime.KindBlocked, "account is banned: %s", acct.BanReason)
		}
		return nil
	}

	acct := types.Account{Identity: ctx.Caller, CreatedAt: ctx.Now}
	if err := ctx.World.Accounts.Insert(accountKey(ctx.Caller), acct); err != nil {
		return err
	}
	ctx.Publish("accounts", events.OpInsert, acct)

	name := args.DisplayName
	if name == "" {
		name = "Wanderer"
	}
	profile := types.AccountProfile{Identity: ctx.Caller, DisplayName: name, UpdatedAt: ctx.Now}
	if err := ctx.World.AccountProfiles.Insert(accountKey(ctx.Caller), profile); err != nil {
		return err
	}
	ctx.Publish("account_profiles", events.OpInsert, profile)
	return nil
}

// SignInArgs carries the connecting client's session identifier.
type SignInArgs struct {
	SessionID string `json:"session_id"`
}

// signIn opens a SessionState row for an already-bootstrapped, unbanned
// account.
func signIn(ctx *runtime.Context, raw json.RawMessage) error {
	var args SignInArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "decode sign_in args")
	}
	if args.SessionID == "" {
		return runtime.NewError(runtime.KindInvalidArgument, "session_id is required")
	}

	acct, ok, err := ctx.World.Accounts.Get(accountKey(ctx.Caller))
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindPrecondition, "account must be bootstrapped before sign_in")
	}
	if acct.Banned {
		return runtime.NewError(runtime.KindBlocked, "account is banned: %s", acct.BanReason)
	}

	session := types.SessionState{
		SessionID:      args.SessionID,
		Identity:       ctx.Caller,
		Status:         types.SessionStatusActive,
		ConnectedAt:    ctx.Now,
		LastActivityAt: ctx.Now,
	}
	if err := ctx.World.Sessions.Insert([]byte(args.SessionID), session); err != nil {
		return err
	}
	ctx.Publish("sessions", events.OpInsert, session)
	return nil
}

// SignOutArgs identifies which session to close.
type SignOutArgs struct {
	SessionID string `json:"session_id"`
}

func signOut(ctx *runtime.Context, raw json.RawMessage) error {
	var args SignOutArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "decode sign_out args")
	}

	session, ok, err := ctx.World.Sessions.Get([]byte(args.SessionID))
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindNotFound, "session %s not found", args.SessionID)
	}
	if session.Identity != ctx.Caller {
		return runtime.NewError(runtime.KindUnauthorized, "session belongs to a different identity")
	}

	session.Status = types.SessionStatusClosed
	session.ClosedAt = ctx.Now
	if err := ctx.World.Sessions.Update([]byte(args.SessionID), session); err != nil {
		return err
	}
	ctx.Publish("sessions", events.OpUpdate, session)
	return nil
}

// SessionTouchArgs identifies the session whose activity clock to bump.
type SessionTouchArgs struct {
	SessionID string `json:"session_id"`
}

// sessionTouch refreshes LastActivityAt, the heartbeat the auto_logout
// agent measures idleness against.
func sessionTouch(ctx *runtime.Context, raw json.RawMessage) error {
	var args SessionTouchArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "decode session_touch args")
	}

	session, ok, err := ctx.World.Sessions.Get([]byte(args.SessionID))
	if err != nil {
		return err
	}
	if !ok || session.Status != types.SessionStatusActive {
		return runtime.NewError(runtime.KindNotFound, "no active session %s", args.SessionID)
	}
	if session.Identity != ctx.Caller {
		return runtime.NewError(runtime.KindUnauthorized, "session belongs to a different identity")
	}

	session.LastActivityAt = ctx.Now
	if err := ctx.World.Sessions.Update([]byte(args.SessionID), session); err != nil {
		return err
	}
	ctx.Publish("sessions", events.OpUpdate, session)
	return nil
}

// RoleGrantArgs names the identity and role an admin is granting.
type RoleGrantArgs struct {
	Identity types.Identity `json:"identity"`
	Role     string         `json:"role"`
}

func roleGrant(ctx *runtime.Context, raw json.RawMessage) error {
	if !callerHasRole(ctx, "admin") {
		return runtime.NewError(runtime.KindUnauthorized, "role_grant requires the admin role")
	}
	var args RoleGrantArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "decode role_grant args")
	}
	if args.Role == "" {
		return runtime.NewError(runtime.KindInvalidArgument, "role is required")
	}

	id, err := ctx.World.Seq.Next("role_bindings")
	if err != nil {
		return err
	}
	binding := types.RoleBinding{Identity: args.Identity, Role: args.Role, GrantedBy: ctx.Caller, GrantedAt: ctx.Now}
	if err := ctx.World.RoleBindings.Insert(storage.EncodeUint64Key(id), binding); err != nil {
		return err
	}
	ctx.Publish("role_bindings", events.OpInsert, binding)
	return nil
}

// RoleRevokeArgs names the identity and role to remove.
type RoleRevokeArgs struct {
	Identity types.Identity `json:"identity"`
	Role     string         `json:"role"`
}

func roleRevoke(ctx *runtime.Context, raw json.RawMessage) error {
	if !callerHasRole(ctx, "admin") {
		return runtime.NewError(runtime.KindUnauthorized, "role_revoke requires the admin role")
	}
	var args RoleRevokeArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "decode role_revoke args")
	}

	var staleKeys [][]byte
	err := ctx.World.RoleBindings.ForEach(func(key []byte, b types.RoleBinding) error {
		if b.Identity == args.Identity && b.Role == args.Role {
			staleKeys = append(staleKeys, append([]byte(nil), key...))
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, key := range staleKeys {
		if err := ctx.World.RoleBindings.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// ModerationFlagCreateArgs opens a new moderation case.
type ModerationFlagCreateArgs struct {
	Identity types.Identity `json:"identity"`
	Reason   string         `json:"reason"`
}

func moderationFlagCreate(ctx *runtime.Context, raw json.RawMessage) error {
	if !callerHasRole(ctx, "moderator") && !callerHasRole(ctx, "admin") {
		return runtime.NewError(runtime.KindUnauthorized, "moderation_flag_create requires the moderator role")
	}
	var args ModerationFlagCreateArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "decode moderation_flag_create args")
	}
	if args.Reason == "" {
		return runtime.NewError(runtime.KindInvalidArgument, "reason is required")
	}

	id, err := ctx.World.Seq.Next("moderation_flags")
	if err != nil {
		return err
	}
	flag := types.ModerationFlag{FlagID: id, Identity: args.Identity, Reason: args.Reason, CreatedBy: ctx.Caller, CreatedAt: ctx.Now}
	if err := ctx.World.ModerationFlags.Insert(storage.EncodeUint64Key(id), flag); err != nil {
		return err
	}
	ctx.Publish("moderation_flags", events.OpInsert, flag)
	return nil
}

// ModerationFlagResolveArgs closes an open moderation case.
type ModerationFlagResolveArgs struct {
	FlagID uint64 `json:"flag_id"`
}

func moderationFlagResolve(ctx *runtime.Context, raw json.RawMessage) error {
	if !callerHasRole(ctx, "moderator") && !callerHasRole(ctx, "admin") {
		return runtime.NewError(runtime.KindUnauthorized, "moderation_flag_resolve requires the moderator role")
	}
	var args ModerationFlagResolveArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "decode moderation_flag_resolve args")
	}

	key := storage.EncodeUint64Key(args.FlagID)
	flag, ok, err := ctx.World.ModerationFlags.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindNotFound, "moderation flag %d not found", args.FlagID)
	}
	flag.Resolved = true
	flag.ResolvedAt = ctx.Now
	if err := ctx.World.ModerationFlags.Update(key, flag); err != nil {
		return err
	}
	ctx.Publish("moderation_flags", events.OpUpdate, flag)
	return nil
}

func callerHasRole(ctx *runtime.Context, role string) bool {
	rows, err := ctx.World.RoleBindings.Filter(func(b types.RoleBinding) bool {
		return b.Identity == ctx.Caller && b.Role == role
	})
	return err == nil && len(rows) > 0
}
