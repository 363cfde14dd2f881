package economyservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"golang.org/x/time/rate"

	economydomain "github.com/copperkettle/pennybot/app/modules/economy/domain"
	economyevents "github.com/copperkettle/pennybot/app/modules/economy/events"
	"github.com/copperkettle/pennybot/observability"
)

// Daily reward tuning. A claim continues the streak when it lands within
// streakWindow of the previous one, and is refused inside dailyCooldown.
const (
	dailyCooldown = 20 * time.Hour
	streakWindow  = 48 * time.Hour
	dailyBase     = int64(100)
	streakBonus   = int64(10)
)

var (
	// ErrThrottled is returned when a user exceeds the per-user command
	// rate; the record's spam count has already been bumped and committed.
	ErrThrottled = errors.New("command rate limit exceeded")

	// ErrDailyCooldown is returned when the daily reward was already
	// claimed within the cooldown window.
	ErrDailyCooldown = errors.New("daily reward already claimed")
)

// EconomyService orchestrates fetch → mutate → commit for each economy
// command, publishes committed events, and throttles spammy users.
type EconomyService struct {
	store     economydomain.RecordStore
	publisher message.Publisher
	logger    *slog.Logger
	metrics   *observability.EconomyMetrics
	now       func() time.Time

	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewEconomyService(
	store economydomain.RecordStore,
	publisher message.Publisher,
	logger *slog.Logger,
	metrics *observability.EconomyMetrics,
	limit rate.Limit,
	burst int,
) *EconomyService {
	return &EconomyService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
		limit:     limit,
		burst:     burst,
		limiters:  map[string]*rate.Limiter{},
	}
}

func (s *EconomyService) limiter(userID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[userID]
	if !ok {
		l = rate.NewLimiter(s.limit, s.burst)
		s.limiters[userID] = l
	}
	return l
}

// checkThrottle rejects the command when the user is over their rate. The
// rejection itself is committed: the record's spam count goes up so repeat
// offenders are visible in the stored data.
func (s *EconomyService) checkThrottle(ctx context.Context, userID string) error {
	if s.limiter(userID).Allow() {
		return nil
	}
	s.metrics.ThrottledTotal.Inc()
	rec, err := economydomain.LoadRecord(ctx, s.store, userID)
	if err != nil {
		return fmt.Errorf("throttle %q: %w", userID, err)
	}
	if _, err := rec.IncrementSpamCount(1).Save(ctx); err != nil {
		s.logger.Error("failed to record spam strike",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
	return ErrThrottled
}

// Award credits amount to the user's pocket.
func (s *EconomyService) Award(ctx context.Context, userID string, amount int64, correlationID string) (*economydomain.Record, error) {
	return s.run(ctx, "award", userID, correlationID, func(rec *economydomain.Record) {
		rec.AddToPocket(amount)
	})
}

// Penalize debits amount from the user's pocket, clamped at zero.
func (s *EconomyService) Penalize(ctx context.Context, userID string, amount int64, correlationID string) (*economydomain.Record, error) {
	return s.run(ctx, "penalty", userID, correlationID, func(rec *economydomain.Record) {
		rec.RemoveFromPocket(amount)
	})
}

// Deposit moves amount into the bank, out of the pocket when fromPocket.
func (s *EconomyService) Deposit(ctx context.Context, userID string, amount int64, fromPocket bool, correlationID string) (*economydomain.Record, error) {
	return s.run(ctx, "deposit", userID, correlationID, func(rec *economydomain.Record) {
		rec.AddToBank(amount, fromPocket)
	})
}

// Withdraw moves amount out of the bank, into the pocket when toPocket.
func (s *EconomyService) Withdraw(ctx context.Context, userID string, amount int64, toPocket bool, correlationID string) (*economydomain.Record, error) {
	return s.run(ctx, "withdraw", userID, correlationID, func(rec *economydomain.Record) {
		rec.RemoveFromBank(amount, toPocket)
	})
}

// Transfer moves pocket funds from one user to another. The two commits are
// independent single-document writes: if the recipient's commit fails after
// the sender's landed, the sender keeps the debit and the error reports it.
func (s *EconomyService) Transfer(ctx context.Context, fromUserID, toUserID string, amount int64, correlationID string) (*economydomain.Record, error) {
	sender, err := s.run(ctx, "transfer", fromUserID, correlationID, func(rec *economydomain.Record) {
		rec.ShareFromPocket(amount)
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.run(ctx, "transfer", toUserID, correlationID, func(rec *economydomain.Record) {
		rec.AddToPocket(amount)
	}); err != nil {
		return nil, fmt.Errorf("transfer credited sender debit but failed on recipient %q: %w", toUserID, err)
	}
	return sender, nil
}

// ClaimDaily pays the daily reward and advances the streak. Claims within
// the cooldown are refused; claims past the continuation window reset the
// streak before advancing it.
func (s *EconomyService) ClaimDaily(ctx context.Context, userID string, correlationID string) (*economydomain.Record, error) {
	if err := s.checkThrottle(ctx, userID); err != nil {
		return nil, err
	}
	rec, err := economydomain.LoadRecord(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	last := time.UnixMilli(rec.Data().Streak.Time)
	since := now.Sub(last)
	if rec.Data().Streak.Time > 0 && since < dailyCooldown {
		return nil, fmt.Errorf("%w: next claim at %s", ErrDailyCooldown, last.Add(dailyCooldown).UTC().Format(time.RFC3339))
	}
	if rec.Data().Streak.Time > 0 && since > streakWindow {
		rec.ResetStreak()
	}
	rec.UpdateStreak(now)
	reward := dailyBase + streakBonus*(rec.Data().Streak.Count-1)
	rec.AddToPocket(reward).
		IncrementCommandCount(1).
		SetLastCommand("daily", now)

	return s.commit(ctx, "daily", userID, correlationID, rec)
}

// run is the shared fetch → mutate → commit path for simple commands.
func (s *EconomyService) run(ctx context.Context, command, userID, correlationID string, mutate func(*economydomain.Record)) (*economydomain.Record, error) {
	if err := s.checkThrottle(ctx, userID); err != nil {
		return nil, err
	}
	rec, err := economydomain.LoadRecord(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	mutate(rec)
	rec.IncrementCommandCount(1).SetLastCommand(command, s.now())
	return s.commit(ctx, command, userID, correlationID, rec)
}

func (s *EconomyService) commit(ctx context.Context, command, userID, correlationID string, rec *economydomain.Record) (*economydomain.Record, error) {
	s.metrics.CommandsTotal.WithLabelValues(command).Inc()
	committed, err := rec.Save(ctx)
	if err != nil {
		s.metrics.CommitsTotal.WithLabelValues("error").Inc()
		s.logger.Error("commit failed",
			slog.String("command", command),
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return nil, err
	}
	s.metrics.CommitsTotal.WithLabelValues("ok").Inc()

	payload := economyevents.RecordCommittedPayload{
		UserID:        userID,
		Command:       command,
		Record:        committed.PlainView(),
		CommittedAt:   s.now().UnixMilli(),
		CorrelationID: correlationID,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return committed, fmt.Errorf("encode committed event for %q: %w", userID, err)
	}
	if err := s.publisher.Publish(economyevents.TopicRecordCommitted, message.NewMessage(watermill.NewUUID(), data)); err != nil {
		// The commit itself landed; a lost notification is logged, not fatal.
		s.logger.Error("failed to publish committed event",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
	return committed, nil
}
