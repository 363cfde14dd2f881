package economyservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	economydomain "github.com/copperkettle/pennybot/app/modules/economy/domain"
	economyevents "github.com/copperkettle/pennybot/app/modules/economy/events"
	economydb "github.com/copperkettle/pennybot/app/modules/economy/infrastructure/repositories"
	"github.com/copperkettle/pennybot/observability"
)

// capturePublisher collects published messages per topic.
type capturePublisher struct {
	mu       sync.Mutex
	messages map[string][]*message.Message
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{messages: map[string][]*message.Message{}}
}

func (p *capturePublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages[topic] = append(p.messages[topic], msgs...)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) published(topic string) []*message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.messages[topic]
}

func newTestService(limit rate.Limit, burst int) (*EconomyService, *economydb.MemoryStore, *capturePublisher) {
	store := economydb.NewMemoryStore(economydb.DefaultSkeleton)
	publisher := newCapturePublisher()
	metrics := observability.NewEconomyMetrics(prometheus.NewRegistry())
	svc := NewEconomyService(store, publisher, slog.Default(), metrics, limit, burst)
	return svc, store, publisher
}

func TestAwardCommitsAndPublishes(t *testing.T) {
	svc, store, publisher := newTestService(rate.Inf, 1)

	rec, err := svc.Award(context.Background(), "u1", 250, "corr-1")
	require.NoError(t, err)
	assert.Equal(t, int64(250), rec.Data().Pocket)
	assert.Equal(t, int64(250), rec.Data().Won)
	assert.Equal(t, int64(1), rec.Data().Count)
	assert.Equal(t, "award", rec.Data().LastCommand.Name)

	doc, err := store.FetchOrDefault(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(250), doc[economydomain.FieldPocket])

	msgs := publisher.published(economyevents.TopicRecordCommitted)
	require.Len(t, msgs, 1)
	var payload economyevents.RecordCommittedPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &payload))
	assert.Equal(t, "u1", payload.UserID)
	assert.Equal(t, "award", payload.Command)
	assert.Equal(t, "corr-1", payload.CorrelationID)
}

func TestPenalizeClampsPocket(t *testing.T) {
	svc, _, _ := newTestService(rate.Inf, 1)
	ctx := context.Background()

	_, err := svc.Award(ctx, "u1", 30, "")
	require.NoError(t, err)

	rec, err := svc.Penalize(ctx, "u1", 100, "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.Data().Pocket)
	assert.Equal(t, int64(100), rec.Data().Lost)
}

func TestDepositMovesPocketFunds(t *testing.T) {
	svc, _, _ := newTestService(rate.Inf, 1)
	ctx := context.Background()

	_, err := svc.Award(ctx, "u1", 100, "")
	require.NoError(t, err)

	rec, err := svc.Deposit(ctx, "u1", 40, true, "")
	require.NoError(t, err)
	assert.Equal(t, int64(60), rec.Data().Pocket)
	assert.Equal(t, int64(40), rec.Data().Bank)
}

func TestTransferMovesFundsBetweenUsers(t *testing.T) {
	svc, store, _ := newTestService(rate.Inf, 1)
	ctx := context.Background()

	_, err := svc.Award(ctx, "alice", 100, "")
	require.NoError(t, err)

	sender, err := svc.Transfer(ctx, "alice", "bob", 60, "")
	require.NoError(t, err)
	assert.Equal(t, int64(40), sender.Data().Pocket)
	assert.Equal(t, int64(60), sender.Data().Shared)

	bob, err := store.FetchOrDefault(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(60), bob[economydomain.FieldPocket])
}

func TestClaimDailyStreakProgression(t *testing.T) {
	svc, _, _ := newTestService(rate.Inf, 1)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	rec, err := svc.ClaimDaily(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Data().Streak.Count)
	assert.Equal(t, dailyBase, rec.Data().Pocket)

	// A claim inside the cooldown is refused.
	svc.now = func() time.Time { return base.Add(time.Hour) }
	_, err = svc.ClaimDaily(ctx, "u1", "")
	require.ErrorIs(t, err, ErrDailyCooldown)

	// The next day continues the streak and pays the bonus.
	svc.now = func() time.Time { return base.Add(24 * time.Hour) }
	rec, err = svc.ClaimDaily(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Data().Streak.Count)
	assert.Equal(t, dailyBase+dailyBase+streakBonus, rec.Data().Pocket)

	// Missing the continuation window resets the streak.
	svc.now = func() time.Time { return base.Add(24*time.Hour + streakWindow + time.Hour) }
	rec, err = svc.ClaimDaily(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Data().Streak.Count)
}

func TestThrottleRejectsAndRecordsSpam(t *testing.T) {
	// Zero sustained rate with burst 1: the first command passes, the second
	// is throttled.
	svc, store, _ := newTestService(0, 1)
	ctx := context.Background()

	_, err := svc.Award(ctx, "u1", 10, "")
	require.NoError(t, err)

	_, err = svc.Award(ctx, "u1", 10, "")
	require.ErrorIs(t, err, ErrThrottled)

	doc, err := store.FetchOrDefault(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc[economydomain.FieldSpamCount])
	assert.Equal(t, int64(10), doc[economydomain.FieldPocket], "throttled command must not apply")
}

func TestValidationErrorDoesNotCommit(t *testing.T) {
	svc, store, publisher := newTestService(rate.Inf, 1)

	_, err := svc.Award(context.Background(), "u1", 0, "")
	require.ErrorIs(t, err, economydomain.ErrMissingAmount)

	assert.Equal(t, 0, store.Len(), "invalid command must not write")
	assert.Empty(t, publisher.published(economyevents.TopicRecordCommitted))
}
