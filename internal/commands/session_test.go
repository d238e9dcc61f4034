package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cajero-dev/cajero/internal/audit"
	"github.com/cajero-dev/cajero/internal/gateway"
	"github.com/cajero-dev/cajero/internal/render"
	"github.com/cajero-dev/cajero/internal/terminal"
)

func testBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Username != "usuario1" || req.Password != "pass123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":7,"name":"Ana","balance":200000}`))
	})

	mux.HandleFunc("/withdraw", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID json.Number `json:"userId"`
			Amount float64     `json:"amount"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		if req.Amount > 200000 {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"message":"Saldo insuficiente"}`))
			return
		}
		w.Write([]byte(`{"amount":50000,"newBalance":150000,"bills":[{"denomination":50000,"count":1}]}`))
	})

	mux.HandleFunc("/report", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"userName":"Ana","totalWithdrawals":1,"maxSuccessful":50000,
			"avgSuccessful":50000,"maxRejected":0,"totalSuccessful":50000,"totalRejected":0,
			"avgRejected":0,"totalAll":50000,"lastSuccessful":null}]`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newSessionFixture(t *testing.T, srv *httptest.Server) (*terminal.Machine, *render.Formatter) {
	t.Helper()
	machine := terminal.New(gateway.NewClient(log.NewNopLogger(), srv.URL, srv.Client()), log.NewNopLogger())
	formatter, err := render.NewFormatter("es-CO", "$")
	require.NoError(t, err)
	return machine, formatter
}

func TestRunSession_FullFlow(t *testing.T) {
	srv := testBackend(t)
	machine, formatter := newSessionFixture(t, srv)
	auditDir := t.TempDir()
	trail := &auditTrail{dir: auditDir, logger: log.NewNopLogger()}

	input := strings.Join([]string{
		"usuario1",
		"badpass",
		"usuario1",
		"pass123",
		"500",
		"999999",
		"50000",
		"reporte",
		"",
		"salir",
		"salir",
	}, "\n")

	var out bytes.Buffer
	err := runSession(context.Background(), strings.NewReader(input), &out, machine, formatter, trail)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Cajero Automático")
	assert.Contains(t, text, "Credenciales incorrectas")
	assert.Contains(t, text, "Bienvenido, Ana")
	assert.Contains(t, text, "Saldo disponible: $ 200.000")
	assert.Contains(t, text, "El monto debe estar entre $1,000 y $2,000,000")
	assert.Contains(t, text, "Saldo insuficiente")
	assert.Contains(t, text, "Retiro exitoso")
	assert.Contains(t, text, "1 billete(s) de $ 50.000")
	assert.Contains(t, text, "Saldo disponible: $ 150.000")
	assert.Contains(t, text, "Reporte de Retiros")
	assert.Contains(t, text, render.NoDataPlaceholder)
	assert.Contains(t, text, "Sesión finalizada")

	entries, err := audit.Read(auditDir)
	require.NoError(t, err)
	var actions []string
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{"login", "withdraw_rejected", "withdraw_rejected", "withdraw", "report", "logout"}, actions)
}

func TestRunSession_EOFDuringLogin(t *testing.T) {
	srv := testBackend(t)
	machine, formatter := newSessionFixture(t, srv)

	var out bytes.Buffer
	err := runSession(context.Background(), strings.NewReader("usuario1\n"), &out, machine, formatter, nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Contraseña: ")
}

func TestRunSession_QuitFromLogin(t *testing.T) {
	srv := testBackend(t)
	machine, formatter := newSessionFixture(t, srv)

	var out bytes.Buffer
	err := runSession(context.Background(), strings.NewReader("salir\n"), &out, machine, formatter, nil)
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "Bienvenido")
}

func TestRunSession_LogoutFromReport(t *testing.T) {
	srv := testBackend(t)
	machine, formatter := newSessionFixture(t, srv)

	input := strings.Join([]string{
		"usuario1",
		"pass123",
		"reporte",
		"salir",
	}, "\n")

	var out bytes.Buffer
	err := runSession(context.Background(), strings.NewReader(input), &out, machine, formatter, nil)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Reporte de Retiros")
	assert.Contains(t, out.String(), "Sesión finalizada")
	assert.Nil(t, machine.Session())
}
