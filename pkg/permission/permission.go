// Package permission implements the permission lattice: groups, ranks,
// and the check_permission algorithm every claim-scoped reducer gates
// itself on. Grounded on
// original_source/stitch-server/.../services/permission_check.rs —
// constants and evaluation order carried exactly, renamed to Go idiom.
package permission

import (
	"github.com/cuemby/hexwarren/pkg/types"
)

// Group distinguishes which subject space a PermissionState row grants
// over.
const (
	GroupPlayer   uint8 = 0
	GroupClaim    uint8 = 1
	GroupEmpire   uint8 = 2
	GroupEveryone uint8 = 3
)

// Rank is the ordered permission level, from least to most privileged.
// OverrideNoAccess is a deny sentinel evaluated before any positive
// grant: a subject holding it is blocked regardless of any other rank it
// also holds.
const (
	RankPendingVisitor   uint8 = 0
	RankVisitor          uint8 = 1
	RankUsage            uint8 = 2
	RankInventory        uint8 = 3
	RankBuild            uint8 = 4
	RankCoOwner          uint8 = 5
	RankOverrideNoAccess uint8 = 6
	RankOwner            uint8 = 7
)

// Lattice evaluates permission grants against a world's PermissionState
// and ClaimState/ClaimMemberState tables.
type Lattice struct {
	Permissions  func() ([]types.PermissionState, error)
	ClaimOwner   func(claimID uint64) (ownerEntity uint64, ok bool, err error)
	ClaimMembers func(claimID uint64) ([]types.ClaimMemberState, error)
}

// IsClaimOwner reports whether subjectEntity owns claimID.
func (l *Lattice) IsClaimOwner(claimID, subjectEntity uint64) (bool, error) {
	owner, ok, err := l.ClaimOwner(claimID)
	if err != nil || !ok {
		return false, err
	}
	return owner == subjectEntity, nil
}

// HasOverrideNoAccess reports whether any grant on ordainedEntity matching
// subjectEntity (directly, or via claim/empire/everyone scope) carries
// the deny sentinel.
func (l *Lattice) HasOverrideNoAccess(ordainedEntity, subjectEntity, claimID uint64) (bool, error) {
	grants, err := l.Permissions()
	if err != nil {
		return false, err
	}
	for _, g := range grants {
		if g.OrdainedEntityID != ordainedEntity {
			continue
		}
		if g.Rank != RankOverrideNoAccess {
			continue
		}
		if isSubjectMatch(g, subjectEntity, claimID) {
			return true, nil
		}
	}
	return false, nil
}

// BestPermissionRank returns the highest rank any applicable grant on
// ordainedEntity gives subjectEntity within claimID, ignoring the
// override-deny sentinel (callers must check HasOverrideNoAccess first).
func (l *Lattice) BestPermissionRank(ordainedEntity, subjectEntity, claimID uint64) (uint8, error) {
	grants, err := l.Permissions()
	if err != nil {
		return RankPendingVisitor, err
	}
	best := RankPendingVisitor
	for _, g := range grants {
		if g.OrdainedEntityID != ordainedEntity {
			continue
		}
		if g.Rank == RankOverrideNoAccess {
			continue
		}
		if !isSubjectMatch(g, subjectEntity, claimID) {
			continue
		}
		if g.Rank > best {
			best = g.Rank
		}
	}
	return best, nil
}

func isSubjectMatch(g types.PermissionState, subjectEntity, claimID uint64) bool {
	switch g.Group {
	case GroupEveryone:
		return true
	case GroupPlayer:
		return g.AllowedEntityID == subjectEntity
	case GroupClaim:
		return claimID != 0 && g.AllowedEntityID == claimID
	case GroupEmpire:
		return false // reserved, never matches
	default:
		return false
	}
}

// foldClaimMembership raises best per subjectEntity's ClaimMemberState
// booleans for claimID — membership is additive to whatever
// PermissionState already grants, never a ceiling (Open Question #2).
func (l *Lattice) foldClaimMembership(best uint8, subjectEntity, claimID uint64) (uint8, error) {
	if claimID == 0 || l.ClaimMembers == nil {
		return best, nil
	}
	members, err := l.ClaimMembers(claimID)
	if err != nil {
		return best, err
	}
	for _, m := range members {
		if m.PlayerEntityID != subjectEntity {
			continue
		}
		if m.CoOwnerPermission && RankCoOwner > best {
			best = RankCoOwner
		}
		if m.BuildPermission && RankBuild > best {
			best = RankBuild
		}
		if m.InventoryPermission && RankInventory > best {
			best = RankInventory
		}
	}
	return best, nil
}

// CheckPermission is the single entry point every claim-scoped reducer
// calls. ordainedEntity is the object being accessed (a building, a
// chest, a claim accessed claim-wide); claimID is the claim scope used
// both for the owner-bypass and for folding in ClaimMemberState (0 if
// the check isn't claim-scoped at all).
func (l *Lattice) CheckPermission(ordainedEntity, subjectEntity, claimID uint64, requiredRank uint8) (bool, error) {
	if claimID != 0 {
		isOwner, err := l.IsClaimOwner(claimID, subjectEntity)
		if err != nil {
			return false, err
		}
		if isOwner {
			return true, nil
		}
	}

	denied, err := l.HasOverrideNoAccess(ordainedEntity, subjectEntity, claimID)
	if err != nil {
		return false, err
	}
	if denied {
		return false, nil
	}

	best, err := l.BestPermissionRank(ordainedEntity, subjectEntity, claimID)
	if err != nil {
		return false, err
	}
	best, err = l.foldClaimMembership(best, subjectEntity, claimID)
	if err != nil {
		return false, err
	}
	return best >= requiredRank, nil
}
