package amqp

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"moneygr/internal/core"
)

func sampleOutcome() core.Outcome {
	return core.Outcome{
		Date:       core.NewDate(2024, 1, 2),
		Name:       "milk",
		Amount:     198,
		Quantity:   2,
		CategoryID: 1,
		OutcomeBy:  "u1",
		CreditCard: true,
	}
}

func sampleIncome() core.Income {
	return core.Income{Date: core.NewDate(2024, 1, 25), Name: "salary", Amount: 300000, CategoryID: 1, IncomeBy: "u1"}
}

func TestNewOutcomeMessage(t *testing.T) {
	a := NewOutcomeMessage(sampleOutcome())
	b := NewOutcomeMessage(sampleOutcome())
	if _, err := uuid.Parse(a.MessageID); err != nil {
		t.Fatalf("message id is not a uuid: %v", err)
	}
	if a.MessageID == b.MessageID {
		t.Fatal("message ids must be unique")
	}
	if a.Kind != KindOutcome || a.Income != nil {
		t.Fatalf("unexpected envelope %+v", a)
	}
}

func TestRecordMessageRoundTrip(t *testing.T) {
	orig := NewOutcomeMessage(sampleOutcome())
	data, err := orig.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["outcome"].(map[string]any)["outcomeDate"] != "2024-01-02" {
		t.Fatalf("date must travel as ISO date: %s", data)
	}

	back, err := RecordMessageFromJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	got := back.OutcomeRecord()
	want := sampleOutcome()
	if got.Name != want.Name || got.LineTotal() != want.LineTotal() || !got.Date.Equal(want.Date.Time) || !got.CreditCard {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	inc, err := RecordMessageFromJSON(mustJSON(t, NewIncomeMessage(sampleIncome())))
	if err != nil {
		t.Fatal(err)
	}
	if inc.IncomeRecord().Amount != 300000 {
		t.Fatalf("unexpected income %+v", inc.IncomeRecord())
	}
}

func TestRecordMessageValidate(t *testing.T) {
	cases := map[string]*RecordMessage{
		"bad id":          {MessageID: "x", Kind: KindIncome, Income: &IncomePayload{}},
		"unknown kind":    {MessageID: uuid.NewString(), Kind: "transfer"},
		"missing payload": {MessageID: uuid.NewString(), Kind: KindOutcome},
	}
	for name, m := range cases {
		if err := m.Validate(); !errors.Is(err, ErrInvalidMessage) {
			t.Errorf("%s: expected ErrInvalidMessage, got %v", name, err)
		}
	}
	if _, err := RecordMessageFromJSON([]byte("{")); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("expected ErrInvalidMessage for broken json, got %v", err)
	}
}

func mustJSON(t *testing.T, m *RecordMessage) []byte {
	t.Helper()
	b, err := m.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	return b
}
