package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"payroll/internal/core"
	"payroll/internal/ledger"
)

// PeriodRef names a report month on the wire.
type PeriodRef struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// LedgerEventMessage is the wire form of a ledger.Event. It only carries ids
// and periods; the worker reads the records from the shared store.
type LedgerEventMessage struct {
	Kind         string      `json:"kind"`
	EmployeeID   string      `json:"employee_id,omitempty"`
	WithdrawalID string      `json:"withdrawal_id,omitempty"`
	Periods      []PeriodRef `json:"periods,omitempty"`
	Revision     uint64      `json:"revision"`
	Timestamp    time.Time   `json:"timestamp"`
}

// NewLedgerEventMessage converts a committed ledger event to its message form.
func NewLedgerEventMessage(e ledger.Event) *LedgerEventMessage {
	msg := &LedgerEventMessage{
		Kind:         string(e.Kind),
		EmployeeID:   e.EmployeeID,
		WithdrawalID: e.WithdrawalID,
		Revision:     e.Revision,
		Timestamp:    e.OccurredAt,
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	for _, p := range e.Periods {
		msg.Periods = append(msg.Periods, PeriodRef{Year: p.Year, Month: int(p.Month)})
	}
	return msg
}

// CorePeriods returns the message periods, rejecting invalid months.
func (m *LedgerEventMessage) CorePeriods() ([]core.Period, error) {
	out := make([]core.Period, 0, len(m.Periods))
	for _, ref := range m.Periods {
		p, err := core.NewPeriod(ref.Year, ref.Month)
		if err != nil {
			return nil, fmt.Errorf("period %d-%d: %w", ref.Year, ref.Month, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Kind == "" {
		return nil, fmt.Errorf("message without kind")
	}
	return &msg, nil
}
