// Package session keeps per-visitor form state between page renders.
//
// The entry form's typed values survive until a successful submit resets them,
// and a one-shot flash message carries the outcome of the last submit to the
// next render.
package session

import (
	"github.com/google/uuid"
)

// FlashKind selects how a flash message is styled.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

type Flash struct {
	Kind    FlashKind
	Message string
}

// Pending holds the entry form fields exactly as typed.
type Pending struct {
	Description string
	Debit       string
	Credit      string
}

// DefaultPending is the state of a fresh or reset form.
func DefaultPending() Pending {
	return Pending{Description: "", Debit: "0.00", Credit: "0.00"}
}

// State is everything stored for one session.
type State struct {
	Pending Pending
	Flash   *Flash
}

func newState() State {
	return State{Pending: DefaultPending()}
}

// NewID returns a fresh random session identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an identifier produced by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}
