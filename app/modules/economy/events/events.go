package economyevents

// Topics the economy module subscribes to and publishes on.
const (
	TopicAwardRequest    = "economy.award.request"
	TopicPenaltyRequest  = "economy.penalty.request"
	TopicDepositRequest  = "economy.deposit.request"
	TopicWithdrawRequest = "economy.withdraw.request"
	TopicTransferRequest = "economy.transfer.request"
	TopicDailyRequest    = "economy.daily.request"

	TopicCommandResponse = "economy.command.response"
	TopicRecordCommitted = "economy.record.committed"
)

// AmountRequestPayload is the shape of award, penalty and transfer-less
// balance commands. Amount arrives as the raw text the user typed; the
// service parses and validates it.
type AmountRequestPayload struct {
	UserID        string `json:"user_id"`
	Amount        string `json:"amount"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// BankRequestPayload covers deposit and withdraw commands. Transfer defaults
// to true when omitted: deposits come out of the pocket and withdrawals go
// back into it.
type BankRequestPayload struct {
	UserID        string `json:"user_id"`
	Amount        string `json:"amount"`
	Transfer      *bool  `json:"transfer,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// TransferRequestPayload moves pocket funds from one user to another.
type TransferRequestPayload struct {
	FromUserID    string `json:"from_user_id"`
	ToUserID      string `json:"to_user_id"`
	Amount        string `json:"amount"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// DailyRequestPayload claims the daily reward and advances the streak.
type DailyRequestPayload struct {
	UserID        string `json:"user_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// CommandResponsePayload is published for every handled command.
type CommandResponsePayload struct {
	UserID        string         `json:"user_id"`
	Command       string         `json:"command"`
	Success       bool           `json:"success"`
	Error         string         `json:"error,omitempty"`
	Record        map[string]any `json:"record,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
}

// RecordCommittedPayload announces a successful commit, carrying the
// post-commit view of the record.
type RecordCommittedPayload struct {
	UserID        string         `json:"user_id"`
	Command       string         `json:"command"`
	Record        map[string]any `json:"record"`
	CommittedAt   int64          `json:"committed_at"`
	CorrelationID string         `json:"correlation_id,omitempty"`
}
