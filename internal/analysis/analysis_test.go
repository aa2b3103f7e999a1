package analysis_test

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"civicdesk/backend/internal/analysis"
	"civicdesk/backend/internal/models"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockCompleter is a testify mock of analysis.Completer.
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}

type replyCompleter string

func (r replyCompleter) Complete(context.Context, string, string) (string, error) {
	return string(r), nil
}

func TestScore_Assessed(t *testing.T) {
	c := new(MockCompleter)
	c.On("Complete", mock.Anything, analysis.SystemPrompt, analysis.UserPrompt("water leaking on Main St")).
		Return("0.8", nil).Once()

	s := analysis.NewLLMScorer("test", c, 0, nil)
	got := s.Score(context.Background(), "water leaking on Main St")

	assert.InDelta(t, 0.8, got.Score, 1e-9)
	assert.Equal(t, models.OriginAssessed, got.Origin)
	assert.NoError(t, got.Err)
	assert.False(t, got.Fallback())
	c.AssertExpectations(t)
}

func TestScore_FallsBackOnServiceError(t *testing.T) {
	c := new(MockCompleter)
	c.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("connection refused")).Once()

	got := analysis.NewLLMScorer("test", c, 0, nil).Score(context.Background(), "pothole")

	assert.Equal(t, 0.5, got.Score)
	assert.True(t, got.Fallback())
	var se *analysis.ScoringError
	assert.ErrorAs(t, got.Err, &se)
	assert.Equal(t, "test", se.Backend)
	c.AssertNumberOfCalls(t, "Complete", 1)
}

func TestScore_FallsBackOnBadReplies(t *testing.T) {
	tests := []struct {
		reply string
		want  error
	}{
		{reply: "", want: analysis.ErrEmptyReply},
		{reply: "very urgent", want: analysis.ErrUnparseable},
		{reply: "7", want: analysis.ErrOutOfRange},
		{reply: "-0.3", want: analysis.ErrOutOfRange},
		{reply: "   ", want: analysis.ErrEmptyReply},
		{reply: "Urgency: 0.6", want: analysis.ErrUnparseable},
		{reply: "On a scale of 0 to 1, this is 0.9", want: analysis.ErrUnparseable},
		{reply: "Urgency (0-1): 0.95", want: analysis.ErrUnparseable},
		{reply: "1. Score: 0.2", want: analysis.ErrUnparseable},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			got := analysis.NewLLMScorer("test", replyCompleter(tt.reply), 0, nil).
				Score(context.Background(), "broken street light")

			assert.Equal(t, 0.5, got.Score)
			assert.Equal(t, models.OriginFallback, got.Origin)
			assert.ErrorIs(t, got.Err, tt.want)
		})
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		reply string
		want  float64
	}{
		{reply: "0.75", want: 0.75},
		{reply: "  1 ", want: 1},
		{reply: "0", want: 0},
		{reply: ".9", want: 0.9},
		{reply: "0.4 - moderate, affects one street", want: 0.4},
		{reply: "0.85.", want: 0.85},
		{reply: "1.", want: 1},
		{reply: "5e-1", want: 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			got, err := analysis.ParseScore(tt.reply)
			assert.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestBand(t *testing.T) {
	assert.Equal(t, "high", analysis.Band(0.7))
	assert.Equal(t, "high", analysis.Band(1))
	assert.Equal(t, "medium", analysis.Band(0.4))
	assert.Equal(t, "medium", analysis.Band(0.69))
	assert.Equal(t, "low", analysis.Band(0.39))
	assert.Equal(t, "low", analysis.Band(0))
}

func TestFixedCompleter_RoundTripsThroughScorer(t *testing.T) {
	got := analysis.NewLLMScorer("fixed", analysis.FixedCompleter{Value: 0.25}, 0, nil).
		Score(context.Background(), "anything")
	assert.InDelta(t, 0.25, got.Score, 1e-9)
	assert.Equal(t, models.OriginAssessed, got.Origin)
}

// TestScore_AlwaysInUnitRange checks that no reply text can push a score out of [0,1]
// and that every fallback is exactly 0.5.
func TestScore_AlwaysInUnitRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	check := func(reply string) bool {
		got := analysis.NewLLMScorer("prop", replyCompleter(reply), 0, nil).
			Score(context.Background(), "d")
		if got.Score < 0 || got.Score > 1 {
			return false
		}
		if got.Fallback() {
			return got.Score == 0.5 && got.Err != nil
		}
		return got.Err == nil
	}

	properties.Property("arbitrary replies stay in range", prop.ForAll(check, gen.AnyString()))
	properties.Property("numeric replies stay in range", prop.ForAll(
		func(v float64) bool {
			return check(strconv.FormatFloat(v, 'f', -1, 64))
		},
		gen.Float64Range(-10, 10),
	))
	properties.Property("replies opening with words fall back", prop.ForAll(
		func(words string, v float64) bool {
			reply := "x" + words + " " + strconv.FormatFloat(v, 'f', -1, 64)
			got := analysis.NewLLMScorer("prop", replyCompleter(reply), 0, nil).
				Score(context.Background(), "d")
			return got.Fallback() && errors.Is(got.Err, analysis.ErrUnparseable)
		},
		gen.AlphaString(),
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}
