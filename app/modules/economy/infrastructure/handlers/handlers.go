package economyhandlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	economyservice "github.com/copperkettle/pennybot/app/modules/economy/application"
	economydomain "github.com/copperkettle/pennybot/app/modules/economy/domain"
	economyevents "github.com/copperkettle/pennybot/app/modules/economy/events"
)

const handlerTimeout = 5 * time.Second

// EconomyHandlers consumes economy command messages and publishes responses.
type EconomyHandlers struct {
	service   economyservice.Service
	publisher message.Publisher
	logger    *slog.Logger
}

func NewHandlers(service economyservice.Service, publisher message.Publisher, logger *slog.Logger) *EconomyHandlers {
	return &EconomyHandlers{
		service:   service,
		publisher: publisher,
		logger:    logger,
	}
}

// HandleAwardRequest credits a user's pocket.
func (h *EconomyHandlers) HandleAwardRequest(msg *message.Message) error {
	var req economyevents.AmountRequestPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("unmarshal award request: %w", err)
	}
	return h.amountCommand(msg, "award", req, h.service.Award)
}

// HandlePenaltyRequest debits a user's pocket.
func (h *EconomyHandlers) HandlePenaltyRequest(msg *message.Message) error {
	var req economyevents.AmountRequestPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("unmarshal penalty request: %w", err)
	}
	return h.amountCommand(msg, "penalty", req, h.service.Penalize)
}

// HandleDepositRequest moves funds into the bank.
func (h *EconomyHandlers) HandleDepositRequest(msg *message.Message) error {
	var req economyevents.BankRequestPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("unmarshal deposit request: %w", err)
	}
	return h.bankCommand(msg, "deposit", req, h.service.Deposit)
}

// HandleWithdrawRequest moves funds out of the bank.
func (h *EconomyHandlers) HandleWithdrawRequest(msg *message.Message) error {
	var req economyevents.BankRequestPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("unmarshal withdraw request: %w", err)
	}
	return h.bankCommand(msg, "withdraw", req, h.service.Withdraw)
}

// HandleTransferRequest moves pocket funds between two users.
func (h *EconomyHandlers) HandleTransferRequest(msg *message.Message) error {
	var req economyevents.TransferRequestPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("unmarshal transfer request: %w", err)
	}
	correlationID := orNewCorrelationID(req.CorrelationID)

	amount, err := economydomain.ParseAmount(req.Amount)
	if err != nil {
		return h.respond(req.FromUserID, "transfer", correlationID, nil, err)
	}

	ctx, cancel := context.WithTimeout(msg.Context(), handlerTimeout)
	defer cancel()

	rec, err := h.service.Transfer(ctx, req.FromUserID, req.ToUserID, amount, correlationID)
	return h.respond(req.FromUserID, "transfer", correlationID, rec, err)
}

// HandleDailyRequest claims the daily reward.
func (h *EconomyHandlers) HandleDailyRequest(msg *message.Message) error {
	var req economyevents.DailyRequestPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("unmarshal daily request: %w", err)
	}
	correlationID := orNewCorrelationID(req.CorrelationID)

	ctx, cancel := context.WithTimeout(msg.Context(), handlerTimeout)
	defer cancel()

	rec, err := h.service.ClaimDaily(ctx, req.UserID, correlationID)
	return h.respond(req.UserID, "daily", correlationID, rec, err)
}

func (h *EconomyHandlers) amountCommand(
	msg *message.Message,
	command string,
	req economyevents.AmountRequestPayload,
	op func(context.Context, string, int64, string) (*economydomain.Record, error),
) error {
	correlationID := orNewCorrelationID(req.CorrelationID)

	amount, err := economydomain.ParseAmount(req.Amount)
	if err != nil {
		return h.respond(req.UserID, command, correlationID, nil, err)
	}

	ctx, cancel := context.WithTimeout(msg.Context(), handlerTimeout)
	defer cancel()

	rec, err := op(ctx, req.UserID, amount, correlationID)
	return h.respond(req.UserID, command, correlationID, rec, err)
}

func (h *EconomyHandlers) bankCommand(
	msg *message.Message,
	command string,
	req economyevents.BankRequestPayload,
	op func(context.Context, string, int64, bool, string) (*economydomain.Record, error),
) error {
	correlationID := orNewCorrelationID(req.CorrelationID)

	amount, err := economydomain.ParseAmount(req.Amount)
	if err != nil {
		return h.respond(req.UserID, command, correlationID, nil, err)
	}

	transfer := true
	if req.Transfer != nil {
		transfer = *req.Transfer
	}

	ctx, cancel := context.WithTimeout(msg.Context(), handlerTimeout)
	defer cancel()

	rec, err := op(ctx, req.UserID, amount, transfer, correlationID)
	return h.respond(req.UserID, command, correlationID, rec, err)
}

// respond publishes the command response. Every consumed command gets an
// answer on the response topic, persistence failures included, so the
// requester is never left waiting on its correlation ID; only response
// transport failures (marshal, publish) propagate so the router can retry.
func (h *EconomyHandlers) respond(userID, command, correlationID string, rec *economydomain.Record, opErr error) error {
	resp := economyevents.CommandResponsePayload{
		UserID:        userID,
		Command:       command,
		Success:       opErr == nil,
		CorrelationID: correlationID,
	}
	if opErr != nil {
		resp.Error = opErr.Error()
		h.logger.Warn("command failed",
			slog.String("command", command),
			slog.String("user_id", userID),
			slog.String("correlation_id", correlationID),
			slog.Any("error", opErr),
		)
	} else {
		resp.Record = rec.PlainView()
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal command response: %w", err)
	}
	if err := h.publisher.Publish(economyevents.TopicCommandResponse, message.NewMessage(watermill.NewUUID(), data)); err != nil {
		return fmt.Errorf("publish command response: %w", err)
	}
	return nil
}

func orNewCorrelationID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
