package permission

import (
	"testing"

	"github.com/cuemby/hexwarren/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestClaimOwnerBypassesGrants(t *testing.T) {
	l := &Lattice{
		Permissions: func() ([]types.PermissionState, error) { return nil, nil },
		ClaimOwner:  func(claimID uint64) (uint64, bool, error) { return 100, true, nil },
	}
	ok, err := l.CheckPermission(7, 100, 7, RankOwner)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestOverrideNoAccessDeniesDespiteOtherGrants(t *testing.T) {
	l := &Lattice{
		Permissions: func() ([]types.PermissionState, error) {
			return []types.PermissionState{
				{OrdainedEntityID: 7, Group: GroupPlayer, AllowedEntityID: 5, Rank: RankBuild},
				{OrdainedEntityID: 7, Group: GroupClaim, AllowedEntityID: 7, Rank: RankOverrideNoAccess},
			}, nil
		},
		ClaimOwner: func(claimID uint64) (uint64, bool, error) { return 0, false, nil },
	}
	ok, err := l.CheckPermission(7, 5, 7, RankVisitor)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBestRankAcrossGroupsWins(t *testing.T) {
	l := &Lattice{
		Permissions: func() ([]types.PermissionState, error) {
			return []types.PermissionState{
				{OrdainedEntityID: 3, Group: GroupEveryone, Rank: RankVisitor},
				{OrdainedEntityID: 3, Group: GroupClaim, AllowedEntityID: 3, Rank: RankInventory},
			}, nil
		},
		ClaimOwner: func(claimID uint64) (uint64, bool, error) { return 0, false, nil },
	}
	ok, err := l.CheckPermission(3, 9, 3, RankInventory)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.CheckPermission(3, 9, 3, RankBuild)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClaimMembershipIsAdditive(t *testing.T) {
	l := &Lattice{
		Permissions: func() ([]types.PermissionState, error) { return nil, nil },
		ClaimOwner:  func(claimID uint64) (uint64, bool, error) { return 1, true, nil },
		ClaimMembers: func(claimID uint64) ([]types.ClaimMemberState, error) {
			return []types.ClaimMemberState{
				{EntityID: 1, ClaimID: claimID, PlayerEntityID: 42, BuildPermission: true},
			}, nil
		},
	}
	// Subject 42 is not the owner (owner is 1) and has no PermissionState
	// row at all, but its ClaimMemberState.BuildPermission should still
	// satisfy a Build-rank check.
	ok, err := l.CheckPermission(7, 42, 7, RankBuild)
	require.NoError(t, err)
	require.True(t, ok)
}
