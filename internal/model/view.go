package model

import "fmt"

// View identifies the active screen of the terminal. Exactly one view is
// active at any time.
type View string

const (
	ViewLogin  View = "login"
	ViewATM    View = "atm"
	ViewReport View = "report"
)

func (v View) Validate() error {
	switch v {
	case ViewLogin, ViewATM, ViewReport:
		return nil
	default:
		return fmt.Errorf("View(%s) is invalid", v)
	}
}
