package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// UserID is the backend's opaque user identifier. The login endpoint may
// return it as a JSON number or a JSON string; whatever token arrives is
// echoed back verbatim on the withdraw request.
type UserID string

func (id *UserID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return fmt.Errorf("empty user id")
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = UserID(n.String())
	return nil
}

func (id UserID) MarshalJSON() ([]byte, error) {
	// Numeric tokens go back on the wire unquoted.
	var n json.Number
	if err := json.Unmarshal([]byte(id), &n); err == nil {
		return []byte(n), nil
	}
	return json.Marshal(string(id))
}

// Session is the authenticated identity for the life of one login.
// Balance is the only mutable field; it is overwritten with the
// server-reported balance after each successful withdrawal.
type Session struct {
	ID      UserID          `json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// Bill is one denomination/count pair of a withdrawal breakdown.
type Bill struct {
	Denomination decimal.Decimal `json:"denomination"`
	Count        int             `json:"count"`
}

// Subtotal returns count * denomination for display purposes.
func (b Bill) Subtotal() decimal.Decimal {
	return b.Denomination.Mul(decimal.NewFromInt(int64(b.Count)))
}

// WithdrawalResult is the server's description of a dispensed withdrawal.
// The breakdown is trusted as-is; the client never re-checks that the
// bills sum to the amount.
type WithdrawalResult struct {
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"newBalance"`
	Bills      []Bill          `json:"bills"`
}

// ReportRow is one user's aggregate withdrawal statistics, rendered
// verbatim. LastSuccessful is nil when the user has no successful
// withdrawal yet.
type ReportRow struct {
	UserName         string          `json:"userName"`
	TotalWithdrawals int             `json:"totalWithdrawals"`
	MaxSuccessful    decimal.Decimal `json:"maxSuccessful"`
	AvgSuccessful    decimal.Decimal `json:"avgSuccessful"`
	MaxRejected      decimal.Decimal `json:"maxRejected"`
	TotalSuccessful  decimal.Decimal `json:"totalSuccessful"`
	TotalRejected    decimal.Decimal `json:"totalRejected"`
	AvgRejected      decimal.Decimal `json:"avgRejected"`
	TotalAll         decimal.Decimal `json:"totalAll"`
	LastSuccessful   *string         `json:"lastSuccessful"`
}
