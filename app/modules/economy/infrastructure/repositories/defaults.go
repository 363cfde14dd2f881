package economydb

import (
	economydomain "github.com/copperkettle/pennybot/app/modules/economy/domain"
)

// SkeletonFactory produces the deterministic initial document for an
// identifier that has no stored record yet. It is a pure function: calling
// it never writes anything.
type SkeletonFactory func(id string) map[string]any

// DefaultSkeleton is the canonical skeleton for a fresh economy record.
func DefaultSkeleton(id string) map[string]any {
	return map[string]any{
		economydomain.FieldID:        id,
		economydomain.FieldCount:     int64(0),
		economydomain.FieldSpamCount: int64(0),
		economydomain.FieldPocket:    int64(0),
		economydomain.FieldBank:      int64(0),
		economydomain.FieldWon:       int64(0),
		economydomain.FieldLost:      int64(0),
		economydomain.FieldShared:    int64(0),
		economydomain.FieldStreak: map[string]any{
			economydomain.FieldStreakTime:  int64(0),
			economydomain.FieldStreakCount: int64(0),
		},
		economydomain.FieldLastCommand: map[string]any{
			economydomain.FieldCmdName: economydomain.DefaultCommandName,
			economydomain.FieldCmdTime: int64(0),
		},
		economydomain.FieldUpvoted:    false,
		economydomain.FieldVoteRemind: false,
	}
}
