// Package analysis scores the urgency of a complaint description.
//
// Scoring never fails a submission: when the scoring service is unreachable
// or its reply cannot be read, the neutral fallback score is returned together
// with Origin=fallback and the underlying ScoringError, so callers can tell a
// failed assessment from a genuine moderate one.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"civicdesk/backend/internal/config"
	"civicdesk/backend/internal/models"
	"civicdesk/backend/internal/obs"

	"go.uber.org/zap"
)

const (
	SystemPrompt  = "You are an AI that analyzes civic complaints and assigns an urgency score from 0 to 1, where 1 is most urgent."
	userPromptFmt = "Please analyze this civic complaint and return only a number between 0 and 1 representing its urgency: %q"
)

var (
	// ErrUnparseable means the reply held no number.
	ErrUnparseable = errors.New("analysis: reply is not a number")
	// ErrOutOfRange means the reply held a number outside [0,1].
	ErrOutOfRange = errors.New("analysis: score outside [0,1]")
	// ErrEmptyReply means the service answered without any text.
	ErrEmptyReply = errors.New("analysis: empty reply")
)

// ScoringError describes why an assessment fell back.
type ScoringError struct {
	Backend string
	Reply   string
	Err     error
}

func (e *ScoringError) Error() string {
	if e.Reply != "" {
		return fmt.Sprintf("analysis: %s scoring failed (reply %q): %v", e.Backend, e.Reply, e.Err)
	}
	return fmt.Sprintf("analysis: %s scoring failed: %v", e.Backend, e.Err)
}

func (e *ScoringError) Unwrap() error { return e.Err }

// Assessment is the outcome of scoring one description.
type Assessment struct {
	Score  float64
	Origin models.UrgencyOrigin
	// Err is set only when Origin is fallback.
	Err error
}

// Fallback reports whether the score is the neutral fallback.
func (a Assessment) Fallback() bool { return a.Origin == models.OriginFallback }

// Scorer turns a description into an assessment. Implementations must not
// block past ctx and must always return a score in [0,1].
type Scorer interface {
	Score(ctx context.Context, description string) Assessment
}

// Completer is a single-turn text completion backend.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMScorer scores descriptions with one completion call each. It does not
// retry and does not cache.
type LLMScorer struct {
	backend   string
	completer Completer
	timeout   time.Duration
	logger    *zap.Logger
}

// NewLLMScorer wraps a completion backend. A zero timeout leaves the deadline
// to the caller's context.
func NewLLMScorer(backend string, c Completer, timeout time.Duration, logger *zap.Logger) *LLMScorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMScorer{backend: backend, completer: c, timeout: timeout, logger: logger}
}

// UserPrompt is the prompt sent for a description. The description is passed
// through as-is.
func UserPrompt(description string) string {
	return fmt.Sprintf(userPromptFmt, description)
}

// Score implements Scorer.
func (s *LLMScorer) Score(ctx context.Context, description string) Assessment {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := s.completer.Complete(ctx, SystemPrompt, UserPrompt(description))
	if err != nil {
		return s.fallback(&ScoringError{Backend: s.backend, Err: err})
	}

	score, err := ParseScore(reply)
	if err != nil {
		return s.fallback(&ScoringError{Backend: s.backend, Reply: reply, Err: err})
	}

	obs.UrgencyAssessments.WithLabelValues(s.backend, string(models.OriginAssessed)).Inc()
	s.logger.Debug("urgency assessed",
		zap.String("backend", s.backend),
		zap.Float64("score", score),
		zap.Duration("took", time.Since(start)),
	)
	return Assessment{Score: score, Origin: models.OriginAssessed}
}

func (s *LLMScorer) fallback(err *ScoringError) Assessment {
	obs.UrgencyAssessments.WithLabelValues(s.backend, string(models.OriginFallback)).Inc()
	s.logger.Warn("urgency scoring fell back", zap.String("backend", s.backend), zap.Error(err))
	return Assessment{Score: config.FallbackUrgencyScore, Origin: models.OriginFallback, Err: err}
}

var leadingNumber = regexp.MustCompile(`^[-+]?(?:\d+(?:\.\d+)?|\.\d+)(?:[eE][-+]?\d+)?`)

// ParseScore reads the number the reply starts with and checks it lies in
// [0,1]. A reply that opens with prose, or with a list marker such as
// "1. ...", is unparseable.
func ParseScore(reply string) (float64, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return 0, ErrEmptyReply
	}
	tok := leadingNumber.FindString(reply)
	if tok == "" {
		return 0, ErrUnparseable
	}
	if rest := reply[len(tok):]; strings.HasPrefix(rest, ".") && strings.TrimSpace(rest[1:]) != "" {
		return 0, fmt.Errorf("%w: list marker %q", ErrUnparseable, tok+".")
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if v < config.MinUrgencyScore || v > config.MaxUrgencyScore {
		return 0, fmt.Errorf("%w: %v", ErrOutOfRange, v)
	}
	return v, nil
}

// Band names the urgency band a score falls into: high, medium or low.
func Band(score float64) string {
	switch {
	case score >= config.HighUrgencyThreshold:
		return "high"
	case score >= config.MediumUrgencyThreshold:
		return "medium"
	default:
		return "low"
	}
}
