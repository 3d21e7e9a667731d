package amqp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"journal/internal/core"
)

// EntryCreatedMessage announces a transaction appended to the journal.
// Amounts travel as decimal strings so no precision is lost on the wire.
type EntryCreatedMessage struct {
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Debit       string    `json:"debit"`
	Credit      string    `json:"credit"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewEntryCreatedMessage(t core.Transaction) *EntryCreatedMessage {
	return &EntryCreatedMessage{
		Date:        t.Date,
		Description: t.Description,
		Debit:       t.Debit.String(),
		Credit:      t.Credit.String(),
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EntryCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryCreatedMessageFromJSON decodes a message body. Messages whose amounts
// do not parse are refused here so that the consumer drops them.
func EntryCreatedMessageFromJSON(data []byte) (*EntryCreatedMessage, error) {
	var msg EntryCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Description == "" {
		return nil, fmt.Errorf("message has no description")
	}
	if _, err := msg.ToTransaction(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ToTransaction rebuilds the domain transaction carried by the message.
func (m *EntryCreatedMessage) ToTransaction() (core.Transaction, error) {
	debit, err := parseWireAmount(m.Debit)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("debit: %w", err)
	}
	credit, err := parseWireAmount(m.Credit)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("credit: %w", err)
	}
	return core.Transaction{
		Date:        m.Date,
		Description: m.Description,
		Debit:       debit,
		Credit:      credit,
	}, nil
}

func parseWireAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("exponent form %q", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if err := core.CheckAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}
