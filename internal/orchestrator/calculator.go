// Package orchestrator runs one calculation at a time, choosing between local
// evaluation and the AI service, and records every resolved calculation.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/at-ishikawa/aicalc/internal/calculator"
	"github.com/at-ishikawa/aicalc/internal/history"
	"github.com/at-ishikawa/aicalc/internal/metrics"
)

var (
	// ErrEmptyExpression is returned for empty input. Nothing is evaluated or recorded.
	ErrEmptyExpression = errors.New("empty expression")
	// ErrBusy is returned while another calculation is in flight. The input is ignored.
	ErrBusy = errors.New("calculation in progress")
)

// Dispatcher resolves input that could not be evaluated locally.
type Dispatcher interface {
	Dispatch(ctx context.Context, input string) calculator.Result
}

// Outcome is the resolved result of one calculation.
type Outcome struct {
	Result calculator.Result
	IsAI   bool
	Entry  history.Entry
}

type Calculator struct {
	dispatcher Dispatcher
	store      history.Store
	recorder   *metrics.Recorder
	now        func() time.Time

	mu        sync.Mutex
	state     State
	listeners []func(StateChange)
}

type Option func(*Calculator)

func WithRecorder(recorder *metrics.Recorder) Option {
	return func(c *Calculator) {
		c.recorder = recorder
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		c.now = now
	}
}

func New(dispatcher Dispatcher, store history.Store, opts ...Option) *Calculator {
	c := &Calculator{
		dispatcher: dispatcher,
		store:      store,
		recorder:   metrics.NewNopRecorder(),
		now:        time.Now,
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Calculator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Calculator) Busy() bool {
	return c.State().Busy()
}

// Subscribe registers a listener called synchronously on every state transition.
// Listeners run outside the lock and may query the calculator.
func (c *Calculator) Subscribe(listener func(StateChange)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, listener)
}

// Evaluate resolves expression locally when possible and through the AI service
// otherwise, or always through the AI service when forceAI is set.
// A nil error means the calculation resolved and was recorded.
func (c *Calculator) Evaluate(ctx context.Context, expression string, forceAI bool) (Outcome, error) {
	if expression == "" {
		return Outcome{}, ErrEmptyExpression
	}

	initial := StateEvaluating
	if forceAI {
		initial = StateEvaluatingAI
	}
	if err := c.begin(expression, initial); err != nil {
		c.recorder.RecordBusyRejection()
		return Outcome{}, err
	}
	defer c.transition(expression, StateResolved)

	var result calculator.Result
	isAI := forceAI
	if !forceAI {
		result = calculator.Evaluate(expression)
		if result.IsError() {
			slog.Default().Debug("local evaluation failed, falling back to AI",
				"expression", expression,
				"error", result.Cause)
			isAI = true
			c.transition(expression, StateEvaluatingAI)
		}
	}

	path := metrics.PathLocal
	if isAI {
		path = metrics.PathAI
		startedAt := time.Now()
		result = c.dispatcher.Dispatch(ctx, expression)
		c.recorder.RecordAILatency(result.Kind.String(), time.Since(startedAt))
	}
	c.recorder.RecordEvaluation(path, result.Kind.String())

	outcome := Outcome{
		Result: result,
		IsAI:   isAI,
	}
	entry, err := history.NewEntry(expression, result.Value, isAI, c.now())
	if err != nil {
		slog.Default().Error("failed to create a history entry", "error", err)
	} else {
		outcome.Entry = entry
		if err := c.store.Append(ctx, entry); err != nil {
			slog.Default().Error("failed to append a history entry",
				"expression", expression,
				"error", err)
		}
	}

	return outcome, nil
}

func (c *Calculator) begin(expression string, to State) error {
	c.mu.Lock()
	if c.state.Busy() {
		c.mu.Unlock()
		slog.Default().Debug("calculation in progress, input ignored", "expression", expression)
		return ErrBusy
	}
	change, listeners := c.setState(expression, to)
	c.mu.Unlock()

	notify(listeners, change)
	return nil
}

func (c *Calculator) transition(expression string, to State) {
	c.mu.Lock()
	change, listeners := c.setState(expression, to)
	c.mu.Unlock()

	notify(listeners, change)
}

func (c *Calculator) setState(expression string, to State) (StateChange, []func(StateChange)) {
	change := StateChange{
		From:       c.state,
		To:         to,
		Expression: expression,
	}
	c.state = to
	return change, append([]func(StateChange){}, c.listeners...)
}

func notify(listeners []func(StateChange), change StateChange) {
	for _, listener := range listeners {
		listener(change)
	}
}
