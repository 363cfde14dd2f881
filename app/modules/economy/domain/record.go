package economydomain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Document field names. These are the keys of the stored Firestore document
// and of every raw document crossing the RecordStore boundary.
const (
	FieldID          = "id"
	FieldCount       = "count"
	FieldSpamCount   = "spamCount"
	FieldPocket      = "pocket"
	FieldBank        = "bank"
	FieldWon         = "won"
	FieldLost        = "lost"
	FieldShared      = "shared"
	FieldStreak      = "streak"
	FieldStreakTime  = "time"
	FieldStreakCount = "streak"
	FieldLastCommand = "lastCommand"
	FieldCmdName     = "name"
	FieldCmdTime     = "time"
	FieldUpvoted     = "upvoted"
	FieldVoteRemind  = "voteReminded"
)

// DefaultCommandName is recorded when a last-command entry is set without a
// command name.
const DefaultCommandName = "nothing"

// RecordStore is the persistence boundary the record model commits through.
// FetchOrDefault returns the stored document for id, or the default skeleton
// for that id without writing anything. UpsertMerge atomically materializes
// the skeleton if the document is absent, resolves the pending-operation
// tree against the document's current values, merges it on, writes, and
// returns the post-write document.
type RecordStore interface {
	FetchOrDefault(ctx context.Context, id string) (map[string]any, error)
	UpsertMerge(ctx context.Context, id string, changes map[string]any) (map[string]any, error)
}

// Streak tracks consecutive daily claims. Time is the last claim in unix
// milliseconds.
type Streak struct {
	Time  int64 `json:"time"`
	Count int64 `json:"streak"`
}

// LastCommand records the most recent command a user ran.
type LastCommand struct {
	Name string `json:"name"`
	Time int64  `json:"time"`
}

// RecordData holds the field values of one user's economy record. All
// counters are non-negative; Pocket and Bank are clamped at zero by the
// mutation methods rather than by a storage constraint.
type RecordData struct {
	ID           string      `json:"id"`
	Count        int64       `json:"count"`
	SpamCount    int64       `json:"spamCount"`
	Pocket       int64       `json:"pocket"`
	Bank         int64       `json:"bank"`
	Won          int64       `json:"won"`
	Lost         int64       `json:"lost"`
	Shared       int64       `json:"shared"`
	Streak       Streak      `json:"streak"`
	LastCommand  LastCommand `json:"lastCommand"`
	Upvoted      bool        `json:"upvoted"`
	VoteReminded bool        `json:"voteReminded"`
}

// Record is the in-memory mirror of one stored economy record: the current
// optimistic field values plus the tree of pending operations awaiting
// commit. The local fields are authoritative for reads immediately after a
// mutation; the ChangeSet is authoritative for what gets persisted. A Record
// is meant for exclusive use by one command invocation; it is not safe for
// concurrent mutation.
type Record struct {
	data    RecordData
	changes *ChangeSet
	store   RecordStore
	err     error
	now     func() time.Time
}

// NewRecord builds a Record from a raw fetched document. Missing or
// mistyped fields decode to their zero values.
func NewRecord(store RecordStore, doc map[string]any) *Record {
	streak := toMap(doc[FieldStreak])
	last := toMap(doc[FieldLastCommand])
	return &Record{
		data: RecordData{
			ID:        toString(doc[FieldID]),
			Count:     toInt64(doc[FieldCount]),
			SpamCount: toInt64(doc[FieldSpamCount]),
			Pocket:    toInt64(doc[FieldPocket]),
			Bank:      toInt64(doc[FieldBank]),
			Won:       toInt64(doc[FieldWon]),
			Lost:      toInt64(doc[FieldLost]),
			Shared:    toInt64(doc[FieldShared]),
			Streak: Streak{
				Time:  toInt64(streak[FieldStreakTime]),
				Count: toInt64(streak[FieldStreakCount]),
			},
			LastCommand: LastCommand{
				Name: toString(last[FieldCmdName]),
				Time: toInt64(last[FieldCmdTime]),
			},
			Upvoted:      toBool(doc[FieldUpvoted]),
			VoteReminded: toBool(doc[FieldVoteRemind]),
		},
		changes: NewChangeSet(),
		store:   store,
		now:     time.Now,
	}
}

// LoadRecord fetches the stored document for id — or its default skeleton if
// none exists — and wraps it in a Record. Nothing is written.
func LoadRecord(ctx context.Context, store RecordStore, id string) (*Record, error) {
	doc, err := store.FetchOrDefault(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load record %q: %w", id, err)
	}
	return NewRecord(store, doc), nil
}

// Data returns a copy of the current optimistic field values.
func (r *Record) Data() RecordData {
	return r.data
}

// Err reports the first validation error hit by a mutation chain, if any.
func (r *Record) Err() error {
	return r.err
}

// Pending returns a copy of the uncommitted operation tree.
func (r *Record) Pending() map[string]any {
	return r.changes.Changes()
}

func (r *Record) fail(err error) *Record {
	if r.err == nil {
		r.err = err
	}
	return r
}

func (r *Record) checkAmount(amount int64) error {
	if amount == 0 {
		return ErrMissingAmount
	}
	if amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// AddToPocket credits amount to the pocket balance and counts it toward the
// cumulative won total.
func (r *Record) AddToPocket(amount int64) *Record {
	if r.err != nil {
		return r
	}
	if err := r.checkAmount(amount); err != nil {
		return r.fail(fmt.Errorf("add to pocket: %w", err))
	}
	r.data.Pocket += amount
	r.data.Won += amount
	r.changes.Update(map[string]any{
		FieldPocket: Increment{amount},
		FieldWon:    Increment{amount},
	})
	return r
}

// RemoveFromPocket debits amount from the pocket balance, clamping at zero,
// and counts the full amount toward the cumulative lost total.
func (r *Record) RemoveFromPocket(amount int64) *Record {
	if r.err != nil {
		return r
	}
	if err := r.checkAmount(amount); err != nil {
		return r.fail(fmt.Errorf("remove from pocket: %w", err))
	}
	r.data.Pocket = floorZero(r.data.Pocket - amount)
	r.data.Lost += amount
	r.changes.Update(map[string]any{
		FieldPocket: DecrementFloor{amount},
		FieldLost:   Increment{amount},
	})
	return r
}

// AddToBank credits amount to the bank balance. When fromPocket is true the
// amount is withdrawn from the pocket as well, clamped at zero.
func (r *Record) AddToBank(amount int64, fromPocket bool) *Record {
	if r.err != nil {
		return r
	}
	if err := r.checkAmount(amount); err != nil {
		return r.fail(fmt.Errorf("add to bank: %w", err))
	}
	r.data.Bank += amount
	patch := map[string]any{FieldBank: Increment{amount}}
	if fromPocket {
		r.data.Pocket = floorZero(r.data.Pocket - amount)
		patch[FieldPocket] = DecrementFloor{amount}
	}
	r.changes.Update(patch)
	return r
}

// RemoveFromBank debits amount from the bank balance, clamping at zero. When
// toPocket is true the amount is credited to the pocket.
func (r *Record) RemoveFromBank(amount int64, toPocket bool) *Record {
	if r.err != nil {
		return r
	}
	if err := r.checkAmount(amount); err != nil {
		return r.fail(fmt.Errorf("remove from bank: %w", err))
	}
	r.data.Bank = floorZero(r.data.Bank - amount)
	patch := map[string]any{FieldBank: DecrementFloor{amount}}
	if toPocket {
		r.data.Pocket += amount
		patch[FieldPocket] = Increment{amount}
	}
	r.changes.Update(patch)
	return r
}

// ShareFromPocket debits amount from the pocket, clamping at zero, and
// counts it toward the cumulative shared total.
func (r *Record) ShareFromPocket(amount int64) *Record {
	if r.err != nil {
		return r
	}
	if err := r.checkAmount(amount); err != nil {
		return r.fail(fmt.Errorf("share from pocket: %w", err))
	}
	r.data.Pocket = floorZero(r.data.Pocket - amount)
	r.data.Shared += amount
	r.changes.Update(map[string]any{
		FieldPocket: DecrementFloor{amount},
		FieldShared: Increment{amount},
	})
	return r
}

// UpdateStreak advances the streak count by one and stamps the claim time.
// A zero time means now. Both fields are deferred as literals equal to the
// local values, so the committed document cannot diverge from what the
// caller observed.
func (r *Record) UpdateStreak(at time.Time) *Record {
	if r.err != nil {
		return r
	}
	if at.IsZero() {
		at = r.now()
	}
	r.data.Streak = Streak{Time: at.UnixMilli(), Count: r.data.Streak.Count + 1}
	r.changes.Update(map[string]any{
		FieldStreak: map[string]any{
			FieldStreakTime:  r.data.Streak.Time,
			FieldStreakCount: r.data.Streak.Count,
		},
	})
	return r
}

// ResetStreak zeroes the streak count. The claim time is left as is.
func (r *Record) ResetStreak() *Record {
	if r.err != nil {
		return r
	}
	r.data.Streak.Count = 0
	r.changes.Update(map[string]any{
		FieldStreak: map[string]any{FieldStreakCount: int64(0)},
	})
	return r
}

// IncrementCommandCount bumps the command-run counter. Amounts below one
// count as one.
func (r *Record) IncrementCommandCount(amount int64) *Record {
	if r.err != nil {
		return r
	}
	if amount < 1 {
		amount = 1
	}
	r.data.Count += amount
	r.changes.Update(map[string]any{FieldCount: Increment{amount}})
	return r
}

// IncrementSpamCount bumps the spam-detection counter. Amounts below one
// count as one.
func (r *Record) IncrementSpamCount(amount int64) *Record {
	if r.err != nil {
		return r
	}
	if amount < 1 {
		amount = 1
	}
	r.data.SpamCount += amount
	r.changes.Update(map[string]any{FieldSpamCount: Increment{amount}})
	return r
}

// SetLastCommand records the most recent command. An empty name records
// DefaultCommandName; a zero time means now.
func (r *Record) SetLastCommand(name string, at time.Time) *Record {
	if r.err != nil {
		return r
	}
	if name == "" {
		name = DefaultCommandName
	}
	if at.IsZero() {
		at = r.now()
	}
	r.data.LastCommand = LastCommand{Name: name, Time: at.UnixMilli()}
	r.changes.Update(map[string]any{
		FieldLastCommand: map[string]any{
			FieldCmdName: name,
			FieldCmdTime: r.data.LastCommand.Time,
		},
	})
	return r
}

// SetUpvoted records the external-vote acknowledgement flag.
func (r *Record) SetUpvoted(v bool) *Record {
	if r.err != nil {
		return r
	}
	r.data.Upvoted = v
	r.changes.Update(map[string]any{FieldUpvoted: v})
	return r
}

// SetVoteReminded records whether the user has been reminded to vote.
func (r *Record) SetVoteReminded(v bool) *Record {
	if r.err != nil {
		return r
	}
	r.data.VoteReminded = v
	r.changes.Update(map[string]any{FieldVoteRemind: v})
	return r
}

// Save commits the accumulated pending operations through the store's
// upsert-merge and returns a brand-new Record built from the post-commit
// document, with an empty ChangeSet. On failure the receiver and its
// ChangeSet are unchanged, so the same commit may be retried. A pending
// validation error from the mutation chain aborts the commit before any I/O.
func (r *Record) Save(ctx context.Context) (*Record, error) {
	if r.err != nil {
		return nil, r.err
	}
	doc, err := r.store.UpsertMerge(ctx, r.data.ID, r.changes.Changes())
	if err != nil {
		return nil, fmt.Errorf("save record %q: %w", r.data.ID, err)
	}
	return NewRecord(r.store, doc), nil
}

// PlainView projects the record's field values as a raw document, excluding
// the ChangeSet and the store reference.
func (r *Record) PlainView() map[string]any {
	return map[string]any{
		FieldID:        r.data.ID,
		FieldCount:     r.data.Count,
		FieldSpamCount: r.data.SpamCount,
		FieldPocket:    r.data.Pocket,
		FieldBank:      r.data.Bank,
		FieldWon:       r.data.Won,
		FieldLost:      r.data.Lost,
		FieldShared:    r.data.Shared,
		FieldStreak: map[string]any{
			FieldStreakTime:  r.data.Streak.Time,
			FieldStreakCount: r.data.Streak.Count,
		},
		FieldLastCommand: map[string]any{
			FieldCmdName: r.data.LastCommand.Name,
			FieldCmdTime: r.data.LastCommand.Time,
		},
		FieldUpvoted:    r.data.Upvoted,
		FieldVoteRemind: r.data.VoteReminded,
	}
}

// CanonicalJSON encodes the record's field values as JSON, excluding
// internal bookkeeping.
func (r *Record) CanonicalJSON() ([]byte, error) {
	b, err := json.Marshal(r.data)
	if err != nil {
		return nil, fmt.Errorf("encode record %q: %w", r.data.ID, err)
	}
	return b, nil
}

func floorZero(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
