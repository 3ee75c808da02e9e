// Package transactions is the client for campus-card balances and transfers.
package transactions

import (
	"context"
	"strings"

	"coursehub/internal/api"
)

const basePath = "/api/v1/transactions"

// Limits enforced by the backend on a single transfer.
const (
	MaxTransferAmount = 1000
)

type Transaction struct {
	TransactionID  int64   `json:"transaction_id"`
	SenderID       string  `json:"sender_id"`
	SenderName     string  `json:"sender_name,omitempty"`
	RecipientID    string  `json:"recipient_id"`
	RecipientName  string  `json:"recipient_name,omitempty"`
	Amount         float64 `json:"amount"`
	TransactionFee float64 `json:"transaction_fee"`
	Status         string  `json:"status"`
	Description    string  `json:"description,omitempty"`
	CreatedAt      string  `json:"created_at,omitempty"`
	CompletedAt    string  `json:"completed_at,omitempty"`
}

type Balance struct {
	StudentID    string  `json:"student_id"`
	Balance      float64 `json:"balance"`
	DailySpent   float64 `json:"daily_spent"`
	DailyLimit   float64 `json:"daily_limit"`
	MonthlySpent float64 `json:"monthly_spent"`
}

// Transfer moves money to another student.
type Transfer struct {
	RecipientID     string  `json:"recipient_id"`
	Amount          float64 `json:"amount"`
	Description     string  `json:"description,omitempty"`
	PaymentPassword string  `json:"payment_password"`
}

func (t Transfer) Validate() error {
	switch {
	case strings.TrimSpace(t.RecipientID) == "":
		return api.Invalid("recipient is required")
	case t.Amount <= 0:
		return api.Invalid("amount must be positive")
	case t.Amount > MaxTransferAmount:
		return api.Invalid("amount exceeds the single transfer limit")
	case len([]rune(t.Description)) > 200:
		return api.Invalid("description must be at most 200 characters")
	case t.PaymentPassword == "":
		return api.Invalid("payment password is required")
	}
	return nil
}

// HistoryFilter narrows the transaction history. Direction is sent or
// received.
type HistoryFilter struct {
	api.PageQuery
	Direction string
	Status    string
}

type recharge struct {
	StudentID string  `json:"student_id"`
	Amount    float64 `json:"amount"`
}

type Client struct {
	caller api.Caller
}

func New(caller api.Caller) *Client {
	return &Client{caller: caller}
}

func (c *Client) Transfer(ctx context.Context, t Transfer) (*Transaction, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return api.Post[*Transaction](ctx, c.caller, basePath+"/transfer", t)
}

func (c *Client) Balance(ctx context.Context) (*Balance, error) {
	return api.Get[*Balance](ctx, c.caller, basePath+"/balance", nil)
}

func (c *Client) History(ctx context.Context, f HistoryFilter) (api.Page[Transaction], error) {
	q := f.PageQuery.Values()
	api.SetIf(q, "transaction_type", f.Direction)
	api.SetIf(q, "status", f.Status)
	return api.Get[api.Page[Transaction]](ctx, c.caller, basePath+"/history", q)
}

func (c *Client) Get(ctx context.Context, transactionID int64) (*Transaction, error) {
	if transactionID <= 0 {
		return nil, api.Invalid("transaction id is required")
	}
	return api.Get[*Transaction](ctx, c.caller, basePath+"/"+api.PathID(transactionID), nil)
}

// Recharge credits a student's balance (admin).
func (c *Client) Recharge(ctx context.Context, studentID string, amount float64) (*Transaction, error) {
	switch {
	case strings.TrimSpace(studentID) == "":
		return nil, api.Invalid("student id is required")
	case amount <= 0:
		return nil, api.Invalid("amount must be positive")
	}
	return api.Post[*Transaction](ctx, c.caller, basePath+"/recharge", recharge{StudentID: studentID, Amount: amount})
}
