// Package terminal drives the transaction flow of one cash-dispensing
// session: which screen is active, what the user has typed, what the
// backend last answered. All state lives in a single-writer Machine;
// nothing here talks to the network except through the gateway.
package terminal

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-kit/kit/log"

	"github.com/cajero-dev/cajero/internal/gateway"
	"github.com/cajero-dev/cajero/internal/model"
	"github.com/cajero-dev/cajero/internal/validate"
)

// User-facing messages, verbatim from the terminal's display language.
const (
	MsgBadCredentials  = "Credenciales incorrectas"
	MsgConnectionError = "Error de conexión con el servidor"
	MsgAmountRange     = "El monto debe estar entre $1,000 y $2,000,000"
	MsgWithdrawFailed  = "Error en el retiro"
	MsgReportFailed    = "Error al cargar el reporte"
)

// ErrBusy is returned when a trigger fires while a gateway call for this
// machine is still in flight. The duplicate trigger changes nothing.
var ErrBusy = errors.New("an operation is already in flight")

// Machine is the session state machine. It owns the active view, the
// authenticated session, the transient form state and the last
// result/error, and is the only writer of all of them. It is not safe
// for concurrent use; the busy flag guards re-entry from a single
// driving loop, not parallel goroutines.
type Machine struct {
	gw     gateway.Client
	logger log.Logger

	view    model.View
	session *model.Session
	amount  string
	result  *model.WithdrawalResult
	report  []model.ReportRow
	errMsg  string
	pending bool
}

// New returns a Machine showing the login view.
func New(gw gateway.Client, logger log.Logger) *Machine {
	return &Machine{
		gw:     gw,
		logger: logger,
		view:   model.ViewLogin,
	}
}

// View reports the active screen.
func (m *Machine) View() model.View { return m.view }

// Session returns the authenticated session, nil when logged out.
func (m *Machine) Session() *model.Session { return m.session }

// Amount returns the withdrawal amount input buffer.
func (m *Machine) Amount() string { return m.amount }

// Result returns the last successful withdrawal, nil when absent.
func (m *Machine) Result() *model.WithdrawalResult { return m.result }

// Report returns the last loaded report rows.
func (m *Machine) Report() []model.ReportRow { return m.report }

// ErrorMessage returns the current inline error message, empty when none.
func (m *Machine) ErrorMessage() string { return m.errMsg }

// SubmitCredentials attempts a login. On success the session is
// populated and the view moves to the ATM screen with fresh transient
// state; on failure an error message is shown and the view stays put.
func (m *Machine) SubmitCredentials(ctx context.Context, username, password string) error {
	if err := m.begin(model.ViewLogin); err != nil {
		return err
	}
	defer m.settle()

	session, err := m.gw.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidCredentials) {
			m.errMsg = MsgBadCredentials
		} else {
			m.errMsg = MsgConnectionError
		}
		m.logger.Log("terminal", "login failed", "error", err)
		return nil
	}

	m.session = session
	m.view = model.ViewATM
	m.errMsg = ""
	m.result = nil
	m.amount = ""
	m.logger.Log("terminal", "login ok", "user", session.Name)
	return nil
}

// RequestWithdrawal validates the raw amount and, only if it is
// well-formed and in range, asks the backend to dispense it. The
// session balance is taken from the response, never computed locally.
func (m *Machine) RequestWithdrawal(ctx context.Context, raw string) error {
	if err := m.begin(model.ViewATM); err != nil {
		return err
	}
	defer m.settle()

	m.amount = raw
	m.errMsg = ""
	m.result = nil

	amount, err := validate.Amount(raw)
	if err != nil {
		m.errMsg = MsgAmountRange
		m.logger.Log("terminal", "withdrawal blocked by validation", "input", raw, "reason", err)
		return nil
	}

	result, err := m.gw.Withdraw(ctx, m.session.ID, amount)
	if err != nil {
		var rejection *gateway.RejectionError
		switch {
		case errors.As(err, &rejection) && rejection.Message != "":
			m.errMsg = rejection.Message
		case errors.As(err, &rejection):
			m.errMsg = MsgWithdrawFailed
		default:
			m.errMsg = MsgConnectionError
		}
		m.logger.Log("terminal", "withdrawal failed", "error", err)
		return nil
	}

	m.result = result
	m.session.Balance = result.NewBalance
	m.amount = ""
	m.logger.Log("terminal", "withdrawal ok", "amount", result.Amount, "newBalance", result.NewBalance)
	return nil
}

// LoadReport fetches the aggregate report and moves to the report view.
// On failure any previously shown rows are dropped so stale data never
// sits next to an error message.
func (m *Machine) LoadReport(ctx context.Context) error {
	if err := m.begin(model.ViewATM); err != nil {
		return err
	}
	defer m.settle()

	rows, err := m.gw.FetchReport(ctx)
	if err != nil {
		m.report = nil
		m.errMsg = MsgReportFailed
		m.logger.Log("terminal", "report failed", "error", err)
		return nil
	}

	m.report = rows
	m.view = model.ViewReport
	m.errMsg = ""
	return nil
}

// ReturnToTerminal leaves the report view. The last withdrawal result,
// if any, stays visible until the next attempt or a logout.
func (m *Machine) ReturnToTerminal() error {
	if m.view != model.ViewReport {
		return fmt.Errorf("cannot return to terminal from %s view", m.view)
	}
	m.view = model.ViewATM
	return nil
}

// Logout ends the session and resets every piece of transient state.
func (m *Machine) Logout() {
	m.session = nil
	m.view = model.ViewLogin
	m.amount = ""
	m.result = nil
	m.report = nil
	m.errMsg = ""
	m.pending = false
}

func (m *Machine) begin(from model.View) error {
	if m.pending {
		return ErrBusy
	}
	if m.view != from {
		return fmt.Errorf("action not available in %s view", m.view)
	}
	m.pending = true
	return nil
}

func (m *Machine) settle() {
	m.pending = false
}
