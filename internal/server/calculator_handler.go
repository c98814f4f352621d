// Package server provides Connect RPC handlers for the calculator service.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/genproto/googleapis/rpc/errdetails"

	"github.com/at-ishikawa/aicalc/internal/history"
	"github.com/at-ishikawa/aicalc/internal/inference"
	"github.com/at-ishikawa/aicalc/internal/orchestrator"
)

// MaxRequestBytes caps the size of a request message.
const MaxRequestBytes = 64 << 10

// Calculator is the orchestrator surface the handler depends on.
type Calculator interface {
	Evaluate(ctx context.Context, expression string, forceAI bool) (orchestrator.Outcome, error)
	State() orchestrator.State
}

// CalculatorHandler implements the calculator service procedures.
type CalculatorHandler struct {
	calculator   Calculator
	store        history.Store
	aiConfigured bool
}

// NewCalculatorHandler creates a new CalculatorHandler.
func NewCalculatorHandler(calculator Calculator, store history.Store, aiConfigured bool) *CalculatorHandler {
	return &CalculatorHandler{
		calculator:   calculator,
		store:        store,
		aiConfigured: aiConfigured,
	}
}

// NewCalculatorServiceHandler returns the path prefix and the handler serving every procedure.
func NewCalculatorServiceHandler(h *CalculatorHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(JSONCodec{}),
		connect.WithReadMaxBytes(MaxRequestBytes),
	}, opts...)

	mux := http.NewServeMux()
	mux.Handle(EvaluateProcedure, connect.NewUnaryHandler(EvaluateProcedure, h.Evaluate, opts...))
	mux.Handle(ListHistoryProcedure, connect.NewUnaryHandler(ListHistoryProcedure, h.ListHistory, opts...))
	mux.Handle(ClearHistoryProcedure, connect.NewUnaryHandler(ClearHistoryProcedure, h.ClearHistory, opts...))
	mux.Handle(GetStatusProcedure, connect.NewUnaryHandler(GetStatusProcedure, h.GetStatus, opts...))
	return "/" + ServiceName + "/", mux
}

// Evaluate runs one calculation. It is rejected while another calculation is in flight.
func (h *CalculatorHandler) Evaluate(
	ctx context.Context,
	req *connect.Request[EvaluateRequest],
) (*connect.Response[EvaluateResponse], error) {
	if err := validateEvaluateRequest(req.Msg); err != nil {
		return nil, err
	}

	outcome, err := h.calculator.Evaluate(ctx, req.Msg.Expression, req.Msg.ForceAI)
	if errors.Is(err, orchestrator.ErrBusy) {
		return nil, newErrorWithInfo(connect.CodeUnavailable, err, ReasonCalculationInProgress)
	}
	if errors.Is(err, orchestrator.ErrEmptyExpression) {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("calculator.Evaluate() > %w", err))
	}

	return connect.NewResponse(&EvaluateResponse{
		Entry:       toHistoryEntry(outcome.Entry),
		Kind:        outcome.Result.Kind.String(),
		ErrorReason: errorReason(outcome.Result.Cause),
		Busy:        h.calculator.State().Busy(),
	}), nil
}

// ListHistory returns the history, most recent first.
func (h *CalculatorHandler) ListHistory(
	ctx context.Context,
	_ *connect.Request[ListHistoryRequest],
) (*connect.Response[ListHistoryResponse], error) {
	entries, err := h.store.List(ctx)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("store.List() > %w", err))
	}

	result := make([]*HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		result = append(result, toHistoryEntry(entry))
	}
	return connect.NewResponse(&ListHistoryResponse{
		Entries: result,
	}), nil
}

// ClearHistory removes every history entry.
func (h *CalculatorHandler) ClearHistory(
	ctx context.Context,
	_ *connect.Request[ClearHistoryRequest],
) (*connect.Response[ClearHistoryResponse], error) {
	if err := h.store.Clear(ctx); err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("store.Clear() > %w", err))
	}
	slog.Default().Info("history cleared")
	return connect.NewResponse(&ClearHistoryResponse{}), nil
}

// GetStatus reports whether a calculation is in flight.
func (h *CalculatorHandler) GetStatus(
	_ context.Context,
	_ *connect.Request[GetStatusRequest],
) (*connect.Response[GetStatusResponse], error) {
	state := h.calculator.State()
	return connect.NewResponse(&GetStatusResponse{
		State:        state.String(),
		Busy:         state.Busy(),
		AIConfigured: h.aiConfigured,
	}), nil
}

func validateEvaluateRequest(msg *EvaluateRequest) *connect.Error {
	if msg.Expression != "" {
		return nil
	}

	connectErr := connect.NewError(connect.CodeInvalidArgument, orchestrator.ErrEmptyExpression)
	if detail, detailErr := connect.NewErrorDetail(&errdetails.BadRequest{
		FieldViolations: []*errdetails.BadRequest_FieldViolation{
			{
				Field:       "expression",
				Description: "value is required",
			},
		},
	}); detailErr == nil {
		connectErr.AddDetail(detail)
	}
	return connectErr
}

func newErrorWithInfo(code connect.Code, err error, reason string) *connect.Error {
	connectErr := connect.NewError(code, err)
	if detail, detailErr := connect.NewErrorDetail(&errdetails.ErrorInfo{
		Reason: reason,
		Domain: errorDomain,
	}); detailErr == nil {
		connectErr.AddDetail(detail)
	}
	return connectErr
}

func errorReason(cause error) string {
	switch {
	case cause == nil:
		return ""
	case errors.Is(cause, inference.ErrMissingCredential):
		return ReasonCredentialMissing
	case errors.Is(cause, inference.ErrRemote):
		return ReasonAIRequestFailed
	default:
		return ""
	}
}
