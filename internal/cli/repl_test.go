package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/at-ishikawa/aicalc/internal/dispatcher"
	"github.com/at-ishikawa/aicalc/internal/history"
	"github.com/at-ishikawa/aicalc/internal/inference"
	mock_history "github.com/at-ishikawa/aicalc/internal/mocks/history"
	mock_inference "github.com/at-ishikawa/aicalc/internal/mocks/inference"
	"github.com/at-ishikawa/aicalc/internal/orchestrator"
)

func init() {
	color.NoColor = true
}

func newTestREPL(t *testing.T, input string, client inference.Client, store history.Store) (*REPL, *bytes.Buffer) {
	t.Helper()
	var d *dispatcher.Dispatcher
	if client == nil {
		d = dispatcher.New(nil)
	} else {
		d = dispatcher.New(client)
	}
	calc := orchestrator.New(d, store, orchestrator.WithClock(func() time.Time {
		return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}))
	var stdout bytes.Buffer
	return NewREPL(calc, store, strings.NewReader(input), &stdout), &stdout
}

func TestREPL_Session(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		lastResult string
		setup      func(client *mock_inference.MockClient)
		want       string
		wantLast   string
		wantErr    error
	}{
		{
			name:     "local evaluation",
			input:    "0.1 + 0.2\n",
			want:     "> 0.1 + 0.2 = 0.3\n",
			wantLast: "0.3",
		},
		{
			name:       "continues from the last result",
			input:      "* 4\n",
			lastResult: "3",
			want:       "> 3* 4 = 12\n",
			wantLast:   "12",
		},
		{
			name:       "does not continue from a new number",
			input:      "4\n",
			lastResult: "3",
			want:       "> 4 = 4\n",
			wantLast:   "4",
		},
		{
			name:  "AI fallback",
			input: "2^3\n",
			setup: func(client *mock_inference.MockClient) {
				client.EXPECT().Generate(gomock.Any(), gomock.Any()).
					Return(inference.GenerateResponse{Text: "8"}, nil)
			},
			want:     "> Asking AI...\n[AI] 2^3 = 8\n",
			wantLast: "8",
		},
		{
			name:  "forced AI with a text reply",
			input: ":ai 10 km in miles\n",
			setup: func(client *mock_inference.MockClient) {
				client.EXPECT().Generate(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req inference.GenerateRequest) (inference.GenerateResponse, error) {
						assert.Equal(t, "10 km in miles", req.Input)
						return inference.GenerateResponse{Text: "6.21 miles"}, nil
					})
			},
			lastResult: "3",
			want:       "> Asking AI...\n[AI] 10 km in miles = 6.21 miles\n",
		},
		{
			name:  "AI error",
			input: "5/0\n",
			setup: func(client *mock_inference.MockClient) {
				client.EXPECT().Generate(gomock.Any(), gomock.Any()).
					Return(inference.GenerateResponse{Text: "Error"}, nil)
			},
			lastResult: "3",
			want:       "> Asking AI...\n[AI] Error\n",
		},
		{
			name:  "empty line is ignored",
			input: "\n",
			want:  "> ",
		},
		{
			name:  "help",
			input: ":help\n",
			want:  "> " + helpText,
		},
		{
			name:       "reset",
			input:      ":reset\n",
			lastResult: "3",
			want:       "> ",
		},
		{
			name:    "quit",
			input:   ":quit\n",
			want:    "> ",
			wantErr: errEnd,
		},
		{
			name:    "end of input",
			input:   "",
			want:    "> \n",
			wantErr: errEnd,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mock_inference.NewMockClient(ctrl)
			if tt.setup != nil {
				tt.setup(client)
			}
			repl, stdout := newTestREPL(t, tt.input, client, history.NewMemoryStore())
			repl.lastResult = tt.lastResult

			err := repl.Session(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, stdout.String())
			assert.Equal(t, tt.wantLast, repl.lastResult)
		})
	}
}

func TestREPL_Session_MissingCredential(t *testing.T) {
	repl, stdout := newTestREPL(t, "what is pi\n", nil, history.NewMemoryStore())

	require.NoError(t, repl.Session(context.Background()))
	assert.Equal(t, "> Asking AI...\n[AI] Error\nAI is not configured. Set API_KEY to enable AI evaluation.\n", stdout.String())
}

func TestREPL_Run(t *testing.T) {
	store := history.NewMemoryStore()
	repl, stdout := newTestREPL(t, "1+2\n*3\n:history\n:clear-history\n:history\n:quit\n", nil, store)

	require.NoError(t, repl.Run(context.Background()))

	output := stdout.String()
	assert.Contains(t, output, "Type :help for commands.\n")
	assert.Contains(t, output, "1+2 = 3\n")
	assert.Contains(t, output, "3*3 = 9\n")
	assert.Contains(t, output, "History cleared.\n")
	assert.Contains(t, output, "No calculations yet.\n")
	assert.Less(t, strings.Index(output, "  3*3 = 9"), strings.Index(output, "  1+2 = 3"), "history is most recent first")

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestREPL_Session_StoreErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		setup func(store *mock_history.MockStore)
	}{
		{
			name:  "history",
			input: ":history\n",
			setup: func(store *mock_history.MockStore) {
				store.EXPECT().List(gomock.Any()).Return(nil, errors.New("disk full"))
			},
		},
		{
			name:  "clear history",
			input: ":clear-history\n",
			setup: func(store *mock_history.MockStore) {
				store.EXPECT().Clear(gomock.Any()).Return(errors.New("disk full"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mock_history.NewMockStore(ctrl)
			tt.setup(store)
			repl, _ := newTestREPL(t, tt.input, nil, store)

			assert.Error(t, repl.Session(context.Background()))
		})
	}
}

func TestWriteHistory(t *testing.T) {
	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	timestamp := createdAt.Local().Format("2006-01-02 15:04:05")

	tests := []struct {
		name    string
		entries []history.Entry
		want    string
	}{
		{
			name: "no entries",
			want: "No calculations yet.\n",
		},
		{
			name: "local and AI entries",
			entries: []history.Entry{
				{Expression: "2^3", Result: "8", CreatedAt: createdAt, IsAI: true},
				{Expression: "1+1", Result: "2", CreatedAt: createdAt},
			},
			want: timestamp + "  2^3 = 8 [AI]\n" + timestamp + "  1+1 = 2\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteHistory(&buf, tt.entries))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
