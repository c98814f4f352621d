package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/at-ishikawa/aicalc/internal/calculator"
	"github.com/at-ishikawa/aicalc/internal/dispatcher"
	"github.com/at-ishikawa/aicalc/internal/history"
	"github.com/at-ishikawa/aicalc/internal/inference"
	mock_history "github.com/at-ishikawa/aicalc/internal/mocks/history"
	mock_inference "github.com/at-ishikawa/aicalc/internal/mocks/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var fixedTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func fixedClock() time.Time {
	return fixedTime
}

func TestCalculator_Evaluate(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		forceAI    bool
		setup      func(client *mock_inference.MockClient)
		want       calculator.Result
		wantAI     bool
		wantStates []State
	}{
		{
			name:       "simple addition is local",
			expression: "1 + 1",
			want:       calculator.Number("2"),
			wantStates: []State{StateEvaluating, StateResolved},
		},
		{
			name:       "floating point is rounded",
			expression: "0.1 + 0.2",
			want:       calculator.Number("0.3"),
			wantStates: []State{StateEvaluating, StateResolved},
		},
		{
			name:       "keypad glyphs are local",
			expression: "6 × 7 ÷ 2",
			want:       calculator.Number("21"),
			wantStates: []State{StateEvaluating, StateResolved},
		},
		{
			name:       "division by zero falls back to AI",
			expression: "5/0",
			setup: func(client *mock_inference.MockClient) {
				client.EXPECT().Generate(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req inference.GenerateRequest) (inference.GenerateResponse, error) {
						assert.Equal(t, "5/0", req.Input)
						return inference.GenerateResponse{Text: "Error"}, nil
					})
			},
			want:       calculator.Result{Value: "Error", Kind: calculator.KindError},
			wantAI:     true,
			wantStates: []State{StateEvaluating, StateEvaluatingAI, StateResolved},
		},
		{
			name:       "complex input goes to AI",
			expression: "2^3",
			setup: func(client *mock_inference.MockClient) {
				client.EXPECT().Generate(gomock.Any(), gomock.Any()).
					Return(inference.GenerateResponse{Text: "8"}, nil)
			},
			want:       calculator.Number("8"),
			wantAI:     true,
			wantStates: []State{StateEvaluating, StateEvaluatingAI, StateResolved},
		},
		{
			name:       "decrement token goes to AI",
			expression: "5--3",
			setup: func(client *mock_inference.MockClient) {
				client.EXPECT().Generate(gomock.Any(), gomock.Any()).
					Return(inference.GenerateResponse{Text: "2"}, nil)
			},
			want:       calculator.Number("2"),
			wantAI:     true,
			wantStates: []State{StateEvaluating, StateEvaluatingAI, StateResolved},
		},
		{
			name:       "forced AI skips local evaluation",
			expression: "1+1",
			forceAI:    true,
			setup: func(client *mock_inference.MockClient) {
				client.EXPECT().Generate(gomock.Any(), gomock.Any()).
					Return(inference.GenerateResponse{Text: "2"}, nil)
			},
			want:       calculator.Number("2"),
			wantAI:     true,
			wantStates: []State{StateEvaluatingAI, StateResolved},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mock_inference.NewMockClient(ctrl)
			if tt.setup != nil {
				tt.setup(client)
			}
			store := history.NewMemoryStore()
			c := New(dispatcher.New(client), store, WithClock(fixedClock))

			var states []State
			c.Subscribe(func(change StateChange) {
				assert.Equal(t, tt.expression, change.Expression)
				states = append(states, change.To)
			})

			got, err := c.Evaluate(context.Background(), tt.expression, tt.forceAI)
			require.NoError(t, err)

			assert.Equal(t, tt.want.Value, got.Result.Value)
			assert.Equal(t, tt.want.Kind, got.Result.Kind)
			assert.Equal(t, tt.wantAI, got.IsAI)
			assert.Equal(t, tt.wantStates, states)
			assert.Equal(t, StateResolved, c.State())
			assert.False(t, c.Busy())

			entries, err := store.List(context.Background())
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, got.Entry, entries[0])
			assert.Equal(t, tt.expression, entries[0].Expression)
			assert.Equal(t, tt.want.Value, entries[0].Result)
			assert.Equal(t, tt.wantAI, entries[0].IsAI)
			assert.Equal(t, fixedTime, entries[0].CreatedAt)
		})
	}
}

func TestCalculator_Evaluate_Deterministic(t *testing.T) {
	c := New(dispatcher.New(nil), history.NewMemoryStore())

	first, err := c.Evaluate(context.Background(), "(1.5 + 2) * 3 / 7", false)
	require.NoError(t, err)
	second, err := c.Evaluate(context.Background(), "(1.5 + 2) * 3 / 7", false)
	require.NoError(t, err)

	assert.Equal(t, "1.5", first.Result.Value)
	assert.Equal(t, first.Result, second.Result)
	assert.NotEqual(t, first.Entry.ID, second.Entry.ID)
}

func TestCalculator_Evaluate_EmptyExpression(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_history.NewMockStore(ctrl)
	c := New(dispatcher.New(mock_inference.NewMockClient(ctrl)), store)

	notified := false
	c.Subscribe(func(StateChange) {
		notified = true
	})

	_, err := c.Evaluate(context.Background(), "", false)
	assert.ErrorIs(t, err, ErrEmptyExpression)
	_, err = c.Evaluate(context.Background(), "", true)
	assert.ErrorIs(t, err, ErrEmptyExpression)

	assert.False(t, notified)
	assert.Equal(t, StateIdle, c.State())
}

func TestCalculator_Evaluate_MissingCredential(t *testing.T) {
	store := history.NewMemoryStore()
	c := New(dispatcher.New(nil), store)

	got, err := c.Evaluate(context.Background(), "square root of 16", false)
	require.NoError(t, err)

	assert.Equal(t, calculator.ErrorMarker, got.Result.Value)
	assert.ErrorIs(t, got.Result.Cause, inference.ErrMissingCredential)
	assert.True(t, got.IsAI)
	assert.Equal(t, StateResolved, c.State())

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, calculator.ErrorMarker, entries[0].Result)
}

func TestCalculator_Evaluate_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_history.NewMockStore(ctrl)
	store.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
	c := New(dispatcher.New(nil), store)

	got, err := c.Evaluate(context.Background(), "7*6", false)
	require.NoError(t, err)
	assert.Equal(t, "42", got.Result.Value)
	assert.Equal(t, StateResolved, c.State())
}

type panickingDispatcher struct{}

func (panickingDispatcher) Dispatch(_ context.Context, _ string) calculator.Result {
	panic("dispatch failed")
}

func TestCalculator_Evaluate_Panic(t *testing.T) {
	tests := []struct {
		name       string
		dispatcher Dispatcher
		store      func(ctrl *gomock.Controller) history.Store
	}{
		{
			name:       "dispatcher panics",
			dispatcher: panickingDispatcher{},
			store: func(_ *gomock.Controller) history.Store {
				return history.NewMemoryStore()
			},
		},
		{
			name:       "store panics",
			dispatcher: dispatcher.New(nil),
			store: func(ctrl *gomock.Controller) history.Store {
				store := mock_history.NewMockStore(ctrl)
				store.EXPECT().Append(gomock.Any(), gomock.Any()).Do(func(context.Context, history.Entry) {
					panic("append failed")
				})
				store.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
				return store
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := New(tt.dispatcher, tt.store(ctrl))

			assert.Panics(t, func() {
				_, _ = c.Evaluate(context.Background(), "2^3", false)
			})
			assert.Equal(t, StateResolved, c.State())
			assert.False(t, c.Busy())

			got, err := c.Evaluate(context.Background(), "1+1", false)
			require.NoError(t, err)
			assert.Equal(t, "2", got.Result.Value)
		})
	}
}

type blockingDispatcher struct {
	started chan struct{}
	release chan struct{}
}

func (d *blockingDispatcher) Dispatch(_ context.Context, _ string) calculator.Result {
	close(d.started)
	<-d.release
	return calculator.Number("8")
}

func TestCalculator_Evaluate_Busy(t *testing.T) {
	d := &blockingDispatcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	store := history.NewMemoryStore()
	c := New(d, store)

	var wg sync.WaitGroup
	var first Outcome
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		first, firstErr = c.Evaluate(context.Background(), "2^3", false)
	}()

	<-d.started
	assert.True(t, c.Busy())
	assert.Equal(t, StateEvaluatingAI, c.State())

	_, err := c.Evaluate(context.Background(), "1+1", false)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = c.Evaluate(context.Background(), "1+1", true)
	assert.ErrorIs(t, err, ErrBusy)

	close(d.release)
	wg.Wait()

	require.NoError(t, firstErr)
	assert.Equal(t, "8", first.Result.Value)
	assert.False(t, c.Busy())

	next, err := c.Evaluate(context.Background(), "1+1", false)
	require.NoError(t, err)
	assert.Equal(t, "2", next.Result.Value)

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "1+1", entries[0].Expression)
	assert.Equal(t, "2^3", entries[1].Expression)
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{state: StateIdle, want: "idle"},
		{state: StateEvaluating, want: "evaluating"},
		{state: StateEvaluatingAI, want: "evaluating_ai"},
		{state: StateResolved, want: "resolved"},
		{state: State(99), want: "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
		})
	}
}
