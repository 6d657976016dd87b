package server

import (
	"bytes"
	"crypto_dash/internal/domain"
	"crypto_dash/pkg/quant"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Command actions accepted on the websocket.
const (
	ActionSetSort            = "set_sort"
	ActionSetFilter          = "set_filter"
	ActionConnect            = "connect"
	ActionDisconnect         = "disconnect"
	ActionAddHolding         = "add_holding"
	ActionRemoveHolding      = "remove_holding"
	ActionUpdateHolding      = "update_holding_amount"
	ActionSetWalletConnected = "set_wallet_connected"
)

var (
	errRateLimited   = errors.New("rate limited")
	errUnknownAction = errors.New("unknown action")
)

// Command is a client request. Amount accepts a JSON number or a numeric
// string.
type Command struct {
	Action    string          `json:"action"`
	Column    string          `json:"column,omitempty"`
	Text      *string         `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Amount    json.RawMessage `json:"amount,omitempty"`
	Connected *bool           `json:"connected,omitempty"`
}

// Execute validates cmd and applies it. Nothing is mutated when an error is
// returned.
func (h *Hub) Execute(cmd Command) error {
	switch cmd.Action {
	case ActionSetSort:
		if cmd.Column == "" {
			return &domain.ValidationError{Field: "column", Reason: "required"}
		}
		h.ledger.SetSort(domain.SortColumn(cmd.Column))

	case ActionSetFilter:
		if cmd.Text == nil {
			return &domain.ValidationError{Field: "text", Reason: "required"}
		}
		h.ledger.SetFilter(*cmd.Text)

	case ActionConnect:
		return h.feed.Connect(h.context())

	case ActionDisconnect:
		h.feed.Disconnect()

	case ActionAddHolding:
		amount, err := holdingArgs(cmd)
		if err != nil {
			return err
		}
		h.portfolio.AddHolding(cmd.ID, amount)

	case ActionRemoveHolding:
		if err := domain.ValidateAssetID(cmd.ID); err != nil {
			return err
		}
		h.portfolio.RemoveHolding(cmd.ID)

	case ActionUpdateHolding:
		amount, err := holdingArgs(cmd)
		if err != nil {
			return err
		}
		h.portfolio.UpdateHoldingAmount(cmd.ID, amount)

	case ActionSetWalletConnected:
		if cmd.Connected == nil {
			return &domain.ValidationError{Field: "connected", Reason: "required"}
		}
		h.portfolio.SetWalletConnected(*cmd.Connected)

	default:
		return fmt.Errorf("%w: %q", errUnknownAction, cmd.Action)
	}
	return nil
}

func holdingArgs(cmd Command) (decimal.Decimal, error) {
	if err := domain.ValidateAssetID(cmd.ID); err != nil {
		return decimal.Zero, err
	}
	amount, err := parseAmount(cmd.Amount)
	if err != nil {
		return decimal.Zero, err
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	s := string(bytes.Trim(bytes.TrimSpace(raw), `"`))
	d, err := quant.ParseDecimal(s)
	if err != nil {
		return decimal.Zero, &domain.ValidationError{Field: "amount", Value: s, Reason: err.Error()}
	}
	return d, nil
}
