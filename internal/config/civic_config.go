package config

import "time"

const (
	// Urgency
	FallbackUrgencyScore   = 0.5
	MinUrgencyScore        = 0.0
	MaxUrgencyScore        = 1.0
	HighUrgencyThreshold   = 0.7
	MediumUrgencyThreshold = 0.4

	// Presence
	PresenceWindow       = 5 * time.Minute
	PresencePollInterval = 30 * time.Second

	// Submission
	SubmissionsPerHour = 10
	SubmissionBurst    = 3

	// Sessions
	DefaultTokenTTL = 72 * time.Hour

	// Telegram
	TelegramLinkCodeTTL = 10 * time.Minute

	// Scoring
	DefaultScorerTimeout = 15 * time.Second
	DefaultMistralModel  = "mistral-tiny"
	DefaultMistralURL    = "https://api.mistral.ai/v1/chat/completions"
	DefaultGeminiModel   = "gemini-2.0-flash"
)
