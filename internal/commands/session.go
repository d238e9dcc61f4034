package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/spf13/cobra"

	"github.com/cajero-dev/cajero/internal/audit"
	"github.com/cajero-dev/cajero/internal/config"
	"github.com/cajero-dev/cajero/internal/gateway"
	"github.com/cajero-dev/cajero/internal/model"
	"github.com/cajero-dev/cajero/internal/render"
	"github.com/cajero-dev/cajero/internal/terminal"
)

func newSessionCommand() *cobra.Command {
	var configPath string
	var apiURL string

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Start an interactive terminal session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.API.BaseURL = apiURL
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := log.NewLogfmtLogger(os.Stderr)
			logger = log.With(logger, "ts", log.DefaultTimestampUTC)

			formatter, err := render.NewFormatter(cfg.Display.Locale, cfg.Display.Symbol)
			if err != nil {
				return err
			}

			machine := terminal.New(gateway.NewClient(logger, cfg.API.BaseURL, nil), logger)

			var trail *auditTrail
			if cfg.Audit.Enabled {
				trail = &auditTrail{dir: cfg.Audit.Dir, logger: logger}
			}

			return runSession(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), machine, formatter, trail)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "cajero.yaml", "configuration file")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "backend base URL (overrides config and environment)")

	return cmd
}

// runSession drives the machine from line-oriented input until the user
// quits or the input ends. One action settles before the next prompt is
// shown, so at most one gateway call is ever in flight.
func runSession(ctx context.Context, in io.Reader, out io.Writer, m *terminal.Machine, f *render.Formatter, trail *auditTrail) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "Cajero Automático")

	for {
		switch m.View() {
		case model.ViewLogin:
			if msg := m.ErrorMessage(); msg != "" {
				fmt.Fprintf(out, "[!] %s\n", msg)
			}
			username, ok := prompt(scanner, out, "Usuario: ")
			if !ok {
				return nil
			}
			if username == "salir" {
				return nil
			}
			password, ok := prompt(scanner, out, "Contraseña: ")
			if !ok {
				return nil
			}
			if err := m.SubmitCredentials(ctx, username, password); err != nil {
				return err
			}
			if m.View() == model.ViewATM {
				trail.record(m.Session().Name, "login", "", "")
			}

		case model.ViewATM:
			session := m.Session()
			fmt.Fprintf(out, "\nBienvenido, %s\n", session.Name)
			fmt.Fprintf(out, "Saldo disponible: %s\n", f.Currency(session.Balance))
			if msg := m.ErrorMessage(); msg != "" {
				fmt.Fprintf(out, "[!] %s\n", msg)
			}
			if result := m.Result(); result != nil {
				fmt.Fprint(out, f.Breakdown(result))
			}

			input, ok := prompt(scanner, out, "Monto a retirar (Mín: $1,000 - Máx: $2,000,000), 'reporte' o 'salir': ")
			if !ok {
				return nil
			}
			switch input {
			case "salir":
				name := session.Name
				m.Logout()
				trail.record(name, "logout", "", "")
				fmt.Fprintln(out, "Sesión finalizada")
			case "reporte":
				if err := m.LoadReport(ctx); err != nil {
					return err
				}
				trail.record(session.Name, "report", "", "")
			default:
				if err := m.RequestWithdrawal(ctx, input); err != nil {
					return err
				}
				if result := m.Result(); result != nil {
					trail.record(session.Name, "withdraw", result.Amount.String(), "nuevo saldo "+result.NewBalance.String())
				} else {
					trail.record(session.Name, "withdraw_rejected", input, m.ErrorMessage())
				}
			}

		case model.ViewReport:
			fmt.Fprintln(out, "\nReporte de Retiros")
			fmt.Fprint(out, f.ReportTable(m.Report()))

			input, ok := prompt(scanner, out, "ENTER para volver al cajero, 'salir' para terminar: ")
			if !ok {
				return nil
			}
			if input == "salir" {
				name := m.Session().Name
				m.Logout()
				trail.record(name, "logout", "", "")
				fmt.Fprintln(out, "Sesión finalizada")
				continue
			}
			if err := m.ReturnToTerminal(); err != nil {
				return err
			}
		}
	}
}

func prompt(scanner *bufio.Scanner, out io.Writer, label string) (string, bool) {
	fmt.Fprint(out, label)
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}

// auditTrail appends settled actions to the local CSV log. A nil trail
// records nothing; append failures are logged and never interrupt the
// session.
type auditTrail struct {
	dir    string
	logger log.Logger
}

func (t *auditTrail) record(user, action, amount, detail string) {
	if t == nil {
		return
	}
	entry := audit.Entry{
		Timestamp: time.Now().UTC(),
		User:      user,
		Action:    action,
		Amount:    amount,
		Detail:    detail,
	}
	if err := audit.Append(t.dir, []audit.Entry{entry}); err != nil {
		t.logger.Log("audit", "append failed", "error", err)
	}
}
