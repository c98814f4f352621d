package server

import (
	"time"

	"github.com/at-ishikawa/aicalc/internal/history"
)

const (
	ServiceName = "aicalc.v1.CalculatorService"

	EvaluateProcedure     = "/" + ServiceName + "/Evaluate"
	ListHistoryProcedure  = "/" + ServiceName + "/ListHistory"
	ClearHistoryProcedure = "/" + ServiceName + "/ClearHistory"
	GetStatusProcedure    = "/" + ServiceName + "/GetStatus"
)

// Error reasons attached to responses and errors.
const (
	ReasonCalculationInProgress = "CALCULATION_IN_PROGRESS"
	ReasonCredentialMissing     = "CREDENTIAL_MISSING"
	ReasonAIRequestFailed       = "AI_REQUEST_FAILED"

	errorDomain = "aicalc"
)

type EvaluateRequest struct {
	Expression string `json:"expression"`
	ForceAI    bool   `json:"force_ai"`
}

type EvaluateResponse struct {
	Entry *HistoryEntry `json:"entry"`
	// Kind is one of number, text or error.
	Kind        string `json:"kind"`
	ErrorReason string `json:"error_reason,omitempty"`
	Busy        bool   `json:"busy"`
}

type HistoryEntry struct {
	ID         string    `json:"id"`
	Expression string    `json:"expression"`
	Result     string    `json:"result"`
	CreatedAt  time.Time `json:"created_at"`
	IsAI       bool      `json:"is_ai"`
}

type ListHistoryRequest struct{}

type ListHistoryResponse struct {
	Entries []*HistoryEntry `json:"entries"`
}

type ClearHistoryRequest struct{}

type ClearHistoryResponse struct{}

type GetStatusRequest struct{}

type GetStatusResponse struct {
	State        string `json:"state"`
	Busy         bool   `json:"busy"`
	AIConfigured bool   `json:"ai_configured"`
}

func toHistoryEntry(entry history.Entry) *HistoryEntry {
	return &HistoryEntry{
		ID:         entry.ID,
		Expression: entry.Expression,
		Result:     entry.Result,
		CreatedAt:  entry.CreatedAt,
		IsAI:       entry.IsAI,
	}
}
