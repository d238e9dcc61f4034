// Package gateway is the thin HTTP adapter between the terminal and the
// backend that owns credentials, balances and statistics. Every call
// settles to either a decoded payload or an error; nothing is retried
// and no timeout is imposed beyond the caller's context.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cajero-dev/cajero/internal/model"
)

// maxReadBytes caps how much of a response body is read.
const maxReadBytes = 1 * 1024 * 1024

// ErrInvalidCredentials marks a login rejected by the backend, as
// opposed to the backend being unreachable.
var ErrInvalidCredentials = errors.New("credentials rejected")

// ConnectionError wraps a transport-level failure (connection refused,
// DNS, reset). The backend never saw or never answered the request.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// RejectionError is a withdrawal the backend refused (insufficient
// funds, no bills to make change). Message is the server's explanation
// when the response body carried one.
type RejectionError struct {
	StatusCode int
	Message    string
}

func (e *RejectionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("withdrawal rejected (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("withdrawal rejected (status %d)", e.StatusCode)
}

// Client is what the orchestrator sees of the backend.
type Client interface {
	Authenticate(ctx context.Context, username, password string) (*model.Session, error)
	Withdraw(ctx context.Context, userID model.UserID, amount decimal.Decimal) (*model.WithdrawalResult, error)
	FetchReport(ctx context.Context) ([]model.ReportRow, error)
}

type httpGateway struct {
	baseURL string
	client  *http.Client
	logger  log.Logger
}

// NewClient returns a Client that calls the backend rooted at baseURL.
// httpClient may be nil, in which case http.DefaultClient is used.
func NewClient(logger log.Logger, baseURL string, httpClient *http.Client) Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &httpGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		logger:  logger,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (g *httpGateway) Authenticate(ctx context.Context, username, password string) (*model.Session, error) {
	requestID := uuid.NewString()

	resp, err := g.post(ctx, requestID, "/auth/login", loginRequest{Username: username, Password: password})
	if err != nil {
		g.logger.Log("gateway", "login unreachable", "requestId", requestID, "error", err)
		return nil, &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	body, err := read(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.logger.Log("gateway", "login rejected", "requestId", requestID, "status", resp.StatusCode)
		return nil, fmt.Errorf("login got status %d: %w", resp.StatusCode, ErrInvalidCredentials)
	}

	var session model.Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("decoding login response: %w", err)
	}
	g.logger.Log("gateway", "login ok", "requestId", requestID, "userId", session.ID)
	return &session, nil
}

type withdrawRequest struct {
	UserID model.UserID `json:"userId"`
	Amount float64      `json:"amount"`
}

func (g *httpGateway) Withdraw(ctx context.Context, userID model.UserID, amount decimal.Decimal) (*model.WithdrawalResult, error) {
	requestID := uuid.NewString()

	resp, err := g.post(ctx, requestID, "/withdraw", withdrawRequest{UserID: userID, Amount: amount.InexactFloat64()})
	if err != nil {
		g.logger.Log("gateway", "withdraw unreachable", "requestId", requestID, "error", err)
		return nil, &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	body, err := read(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rej := &RejectionError{StatusCode: resp.StatusCode}
		var explanation struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &explanation); err == nil {
			rej.Message = explanation.Message
		}
		g.logger.Log("gateway", "withdraw rejected", "requestId", requestID, "status", resp.StatusCode, "message", rej.Message)
		return nil, rej
	}

	var result model.WithdrawalResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding withdraw response: %w", err)
	}
	g.logger.Log("gateway", "withdraw ok", "requestId", requestID, "amount", result.Amount, "newBalance", result.NewBalance)
	return &result, nil
}

func (g *httpGateway) FetchReport(ctx context.Context) ([]model.ReportRow, error) {
	requestID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/report", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-Id", requestID)

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Log("gateway", "report unreachable", "requestId", requestID, "error", err)
		return nil, &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	body, err := read(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("report got status %d", resp.StatusCode)
	}

	// A 2xx payload that is not a row list degrades to an empty report.
	// The terminal must never crash on an unexpected report shape.
	var rows []model.ReportRow
	if err := json.Unmarshal(body, &rows); err != nil {
		g.logger.Log("gateway", "report payload not a row list, rendering empty", "requestId", requestID, "error", err)
		return []model.ReportRow{}, nil
	}
	g.logger.Log("gateway", "report ok", "requestId", requestID, "rows", len(rows))
	return rows, nil
}

func (g *httpGateway) post(ctx context.Context, requestID, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	return g.client.Do(req)
}

func read(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxReadBytes))
}
