package economyservice

import (
	"context"

	economydomain "github.com/copperkettle/pennybot/app/modules/economy/domain"
)

// Service is the command-facing surface of the economy module.
type Service interface {
	Award(ctx context.Context, userID string, amount int64, correlationID string) (*economydomain.Record, error)
	Penalize(ctx context.Context, userID string, amount int64, correlationID string) (*economydomain.Record, error)
	Deposit(ctx context.Context, userID string, amount int64, fromPocket bool, correlationID string) (*economydomain.Record, error)
	Withdraw(ctx context.Context, userID string, amount int64, toPocket bool, correlationID string) (*economydomain.Record, error)
	Transfer(ctx context.Context, fromUserID, toUserID string, amount int64, correlationID string) (*economydomain.Record, error)
	ClaimDaily(ctx context.Context, userID string, correlationID string) (*economydomain.Record, error)
}
