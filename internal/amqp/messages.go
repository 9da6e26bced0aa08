package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"moneygr/internal/core"
)

// Kind tells the consumer which payload a message carries.
type Kind string

const (
	KindOutcome Kind = "outcome"
	KindIncome  Kind = "income"
)

var ErrInvalidMessage = errors.New("invalid record message")

// RecordMessage carries one submitted record. MessageID is a UUID used by the
// consumer to drop redeliveries.
type RecordMessage struct {
	MessageID string          `json:"messageId"`
	Kind      Kind            `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Outcome   *OutcomePayload `json:"outcome,omitempty"`
	Income    *IncomePayload  `json:"income,omitempty"`
}

type OutcomePayload struct {
	OutcomeName      string    `json:"outcomeName"`
	Amount           int       `json:"amount"`
	Quantity         int       `json:"quantity"`
	OutcomeDate      core.Date `json:"outcomeDate"`
	CategoryID       int       `json:"categoryId"`
	ParentCategoryID int       `json:"parentCategoryId"`
	OutcomeBy        string    `json:"outcomeBy"`
	CreditCard       bool      `json:"creditCard"`
}

type IncomePayload struct {
	IncomeName string    `json:"incomeName"`
	Amount     int       `json:"amount"`
	IncomeDate core.Date `json:"incomeDate"`
	CategoryID int       `json:"categoryId"`
	IncomeBy   string    `json:"incomeBy"`
}

func NewOutcomeMessage(o core.Outcome) *RecordMessage {
	return &RecordMessage{
		MessageID: uuid.NewString(),
		Kind:      KindOutcome,
		Timestamp: time.Now().UTC(),
		Outcome: &OutcomePayload{
			OutcomeName:      o.Name,
			Amount:           o.Amount,
			Quantity:         o.Quantity,
			OutcomeDate:      o.Date,
			CategoryID:       o.CategoryID,
			ParentCategoryID: o.ParentCategoryID,
			OutcomeBy:        o.OutcomeBy,
			CreditCard:       o.CreditCard,
		},
	}
}

func NewIncomeMessage(i core.Income) *RecordMessage {
	return &RecordMessage{
		MessageID: uuid.NewString(),
		Kind:      KindIncome,
		Timestamp: time.Now().UTC(),
		Income: &IncomePayload{
			IncomeName: i.Name,
			Amount:     i.Amount,
			IncomeDate: i.Date,
			CategoryID: i.CategoryID,
			IncomeBy:   i.IncomeBy,
		},
	}
}

// OutcomeRecord converts the payload back to a domain outcome.
func (m *RecordMessage) OutcomeRecord() core.Outcome {
	p := m.Outcome
	return core.Outcome{
		Date:             p.OutcomeDate,
		Name:             p.OutcomeName,
		Amount:           p.Amount,
		Quantity:         p.Quantity,
		CategoryID:       p.CategoryID,
		ParentCategoryID: p.ParentCategoryID,
		OutcomeBy:        p.OutcomeBy,
		CreditCard:       p.CreditCard,
	}
}

func (m *RecordMessage) IncomeRecord() core.Income {
	p := m.Income
	return core.Income{
		Date:       p.IncomeDate,
		Name:       p.IncomeName,
		Amount:     p.Amount,
		CategoryID: p.CategoryID,
		IncomeBy:   p.IncomeBy,
	}
}

// Validate checks the envelope, not the record itself.
func (m *RecordMessage) Validate() error {
	if _, err := uuid.Parse(m.MessageID); err != nil {
		return fmt.Errorf("%w: message id %q", ErrInvalidMessage, m.MessageID)
	}
	switch m.Kind {
	case KindOutcome:
		if m.Outcome == nil {
			return fmt.Errorf("%w: outcome payload missing", ErrInvalidMessage)
		}
	case KindIncome:
		if m.Income == nil {
			return fmt.Errorf("%w: income payload missing", ErrInvalidMessage)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidMessage, m.Kind)
	}
	return nil
}

func (m *RecordMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordMessageFromJSON decodes and validates a message body.
func RecordMessageFromJSON(data []byte) (*RecordMessage, error) {
	var msg RecordMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
