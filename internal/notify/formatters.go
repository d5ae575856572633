package notify

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mgallego/posada/internal/models"
)

// Notification types with dedicated formatters.
const (
	TypeGoalSummary        = "goal-summary"
	TypeLedgerEntryCreated = "ledger-entry-created"
	TypeLedgerEntryVoided  = "ledger-entry-voided"
	TypeStayCancelled      = "stay-cancelled"
)

// GoalSummaryFormatter renders periodic goal summaries from the metadata
// payload attached by the report job.
type GoalSummaryFormatter struct{}

func (GoalSummaryFormatter) Types() []string {
	return []string{TypeGoalSummary}
}

func (GoalSummaryFormatter) Format(n *models.Notification) (string, error) {
	var payload struct {
		Stays int    `json:"stays"`
		From  string `json:"from"`
		To    string `json:"to"`
	}
	if err := decodeMetadata(n, &payload); err != nil {
		return "", err
	}
	if payload.From == "" || payload.To == "" {
		return "", errors.New("goal summary metadata incomplete")
	}
	return fmt.Sprintf("%d stays recorded between %s and %s", payload.Stays, payload.From, payload.To), nil
}

// LedgerEntryFormatter renders ledger movements with their amount and concept.
type LedgerEntryFormatter struct{}

func (LedgerEntryFormatter) Types() []string {
	return []string{TypeLedgerEntryCreated, TypeLedgerEntryVoided}
}

func (LedgerEntryFormatter) Format(n *models.Notification) (string, error) {
	var payload struct {
		Amount  float64 `json:"amount"`
		Concept string  `json:"concept"`
	}
	if err := decodeMetadata(n, &payload); err != nil {
		return "", err
	}
	if payload.Concept == "" {
		return "", errors.New("ledger metadata incomplete")
	}
	if n.Type == TypeLedgerEntryVoided {
		return fmt.Sprintf("Voided %.2f: %s", payload.Amount, payload.Concept), nil
	}
	return fmt.Sprintf("%.2f: %s", payload.Amount, payload.Concept), nil
}

func decodeMetadata(n *models.Notification, out any) error {
	if n == nil || len(n.Metadata) == 0 {
		return errors.New("no metadata")
	}
	return json.Unmarshal(n.Metadata, out)
}
