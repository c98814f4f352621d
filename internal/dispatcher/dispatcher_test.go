package dispatcher

import (
	"context"
	"errors"
	"testing"

	"github.com/at-ishikawa/aicalc/internal/calculator"
	"github.com/at-ishikawa/aicalc/internal/inference"
	mock_inference "github.com/at-ishikawa/aicalc/internal/mocks/inference"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestDispatcher_Dispatch(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		setup     func(client *mock_inference.MockClient)
		want      calculator.Result
		wantCause error
	}{
		{
			name:  "numeric reply is trimmed",
			input: "2^3",
			setup: func(client *mock_inference.MockClient) {
				client.EXPECT().Generate(gomock.Any(), gomock.Any()).
					Return(inference.GenerateResponse{Text: "  8\n"}, nil)
			},
			want: calculator.Number("8"),
		},
		{
			name:  "scientific notation is numeric",
			input: "2^100",
			setup: func(client *mock_inference.MockClient) {
				client.EXPECT().Generate(gomock.Any(), gomock.Any()).
					Return(inference.GenerateResponse{Text: "1.2676506e30"}, nil)
			},
			want: calculator.Number("1.2676506e30"),
		},
		{
			name:  "reply with unit is text",
			input: "50 USD in EUR",
			setup: func(client *mock_inference.MockClient) {
				client.EXPECT().Generate(gomock.Any(), gomock.Any()).
					Return(inference.GenerateResponse{Text: "46.20 EUR"}, nil)
			},
			want: calculator.Text("46.20 EUR"),
		},
		{
			name:  "special float words are text",
			input: "1/0 in words",
			setup: func(client *mock_inference.MockClient) {
				client.EXPECT().Generate(gomock.Any(), gomock.Any()).
					Return(inference.GenerateResponse{Text: "Infinity"}, nil)
			},
			want: calculator.Text("Infinity"),
		},
		{
			name:  "error marker reply",
			input: "what is love",
			setup: func(client *mock_inference.MockClient) {
				client.EXPECT().Generate(gomock.Any(), gomock.Any()).
					Return(inference.GenerateResponse{Text: "Error\n"}, nil)
			},
			wantCause: inference.ErrRemote,
		},
		{
			name:  "empty reply",
			input: "2^3",
			setup: func(client *mock_inference.MockClient) {
				client.EXPECT().Generate(gomock.Any(), gomock.Any()).
					Return(inference.GenerateResponse{Text: " \n "}, nil)
			},
			wantCause: inference.ErrRemote,
		},
		{
			name:  "transport failure",
			input: "2^3",
			setup: func(client *mock_inference.MockClient) {
				client.EXPECT().Generate(gomock.Any(), gomock.Any()).
					Return(inference.GenerateResponse{}, errors.New("dial tcp: connection refused"))
			},
			wantCause: inference.ErrRemote,
		},
		{
			name:  "client without credential",
			input: "2^3",
			setup: func(client *mock_inference.MockClient) {
				client.EXPECT().Generate(gomock.Any(), gomock.Any()).
					Return(inference.GenerateResponse{}, inference.ErrMissingCredential)
			},
			wantCause: inference.ErrMissingCredential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mock_inference.NewMockClient(ctrl)
			tt.setup(client)

			got := New(client).Dispatch(context.Background(), tt.input)

			if tt.wantCause != nil {
				assert.Equal(t, calculator.KindError, got.Kind)
				assert.Equal(t, calculator.ErrorMarker, got.Value)
				assert.ErrorIs(t, got.Cause, tt.wantCause)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDispatcher_Dispatch_Request(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_inference.NewMockClient(ctrl)
	client.EXPECT().Generate(gomock.Any(), inference.GenerateRequest{
		Model:             "gemini-2.5-flash",
		Input:             "3 × 4 apples",
		SystemInstruction: SystemInstruction,
		Temperature:       0.2,
		MaxOutputTokens:   20,
	}).Return(inference.GenerateResponse{Text: "12 apples"}, nil)

	d := New(client,
		WithModel("gemini-2.5-flash"),
		WithTemperature(0.2),
		WithMaxOutputTokens(20),
	)

	assert.True(t, d.Configured())
	assert.Equal(t, calculator.Text("12 apples"), d.Dispatch(context.Background(), "3 × 4 apples"))
}

func TestDispatcher_Dispatch_NotConfigured(t *testing.T) {
	d := New(nil)

	got := d.Dispatch(context.Background(), "2^3")

	assert.False(t, d.Configured())
	assert.Equal(t, calculator.Failure(inference.ErrMissingCredential), got)
}
