// Package render turns machine state into display text. Everything here
// is a pure function of its inputs; the locale and currency symbol are
// fixed when the Formatter is built and never negotiated afterwards.
package render

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/cajero-dev/cajero/internal/model"
)

// NoDataPlaceholder is shown in place of an absent report value.
const NoDataPlaceholder = "N/A"

// Formatter renders currency values and report tables for one fixed
// locale.
type Formatter struct {
	printer *message.Printer
	symbol  string
}

// NewFormatter builds a Formatter for the given BCP 47 locale tag and
// currency symbol.
func NewFormatter(locale, symbol string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parsing locale %q: %w", locale, err)
	}
	return &Formatter{
		printer: message.NewPrinter(tag),
		symbol:  symbol,
	}, nil
}

// Currency renders a monetary value rounded to whole units with the
// locale's digit grouping, e.g. "$ 50.000" for 50000 under es-CO.
func (f *Formatter) Currency(v decimal.Decimal) string {
	return f.printer.Sprintf("%s %v", f.symbol, number.Decimal(v.Round(0).IntPart()))
}

// Breakdown renders the denomination breakdown of a successful
// withdrawal: one line per bill with its subtotal, then the total
// dispensed and the new balance as reported by the server.
func (f *Formatter) Breakdown(result *model.WithdrawalResult) string {
	var b strings.Builder
	b.WriteString("Retiro exitoso\n")
	b.WriteString("Billetes entregados:\n")

	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, bill := range result.Bills {
		fmt.Fprintf(w, "  %d billete(s) de %s\t%s\n", bill.Count, f.Currency(bill.Denomination), f.Currency(bill.Subtotal()))
	}
	fmt.Fprintf(w, "Total retirado:\t%s\n", f.Currency(result.Amount))
	fmt.Fprintf(w, "Nuevo saldo:\t%s\n", f.Currency(result.NewBalance))
	w.Flush()

	return b.String()
}

// ReportTable renders one row per user with the columns in their fixed
// order. An empty report renders the no-data notice instead of a table.
func (f *Formatter) ReportTable(rows []model.ReportRow) string {
	if len(rows) == 0 {
		return "No hay datos de retiros disponibles\nRealiza algunos retiros para ver estadísticas\n"
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Usuario\tTotal Retiros\tMáx. Exitoso\tProm. Exitosos\tMáx. Rechazado\tTotal Exitosos\tTotal Rechazados\tProm. Rechazados\tSuma Total\tÚltimo Exitoso")
	for _, row := range rows {
		last := NoDataPlaceholder
		if row.LastSuccessful != nil {
			last = *row.LastSuccessful
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.UserName,
			row.TotalWithdrawals,
			f.Currency(row.MaxSuccessful),
			f.Currency(row.AvgSuccessful),
			f.Currency(row.MaxRejected),
			f.Currency(row.TotalSuccessful),
			f.Currency(row.TotalRejected),
			f.Currency(row.AvgRejected),
			f.Currency(row.TotalAll),
			last,
		)
	}
	w.Flush()

	return b.String()
}
