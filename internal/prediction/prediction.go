// Package prediction asks a language model for lottery number ideas and
// pulls candidate numbers out of its free-text answer. It is a pass-through:
// suggestions never influence result synthesis.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

// MaxSuggestions caps each suggestion list.
const MaxSuggestions = 3

// ErrEmptyAnswer is returned when the model reply carries no text.
var ErrEmptyAnswer = errors.New("prediction: model returned no text")

var (
	twoDigit   = regexp.MustCompile(`\b\d{2}\b`)
	threeDigit = regexp.MustCompile(`\b\d{3}\b`)
)

// Prediction is one model answer plus the numbers extracted from it.
type Prediction struct {
	Text        string    `json:"prediction"`
	TwoDigit    []string  `json:"suggestedTwoDigit"`
	ThreeDigit  []string  `json:"suggestedThreeDigit"`
	GeneratedAt time.Time `json:"timestamp"`
}

// Config holds client settings.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64
	Timeout   time.Duration
}

// Client calls the Anthropic Messages API.
type Client struct {
	api       anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewClient builds a Client.
//
// Precondition: cfg.APIKey and cfg.Model are non-empty; logger is non-nil.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(1),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		api:       anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		logger:    logger,
		now:       time.Now,
	}
}

// Predict sends userInput to the model and extracts suggestions from the reply.
//
// Postcondition: on success Text is non-empty and each suggestion list holds at
// most MaxSuggestions distinct numbers in order of first appearance.
func (c *Client) Predict(ctx context.Context, userInput string) (Prediction, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(Prompt(userInput))),
		},
	})
	if err != nil {
		return Prediction{}, fmt.Errorf("prediction: calling model: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := b.String()
	if strings.TrimSpace(text) == "" {
		return Prediction{}, ErrEmptyAnswer
	}

	two, three := ExtractSuggestions(text)
	c.logger.Info("prediction generated",
		zap.String("model", c.model),
		zap.Strings("two_digit", two),
		zap.Strings("three_digit", three),
	)
	return Prediction{
		Text:        text,
		TwoDigit:    two,
		ThreeDigit:  three,
		GeneratedAt: c.now(),
	}, nil
}

// Prompt renders the analysis request sent to the model.
func Prompt(userInput string) string {
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		userInput = "no additional information"
	}
	return `You are an expert in analysing lottery numbers using data and statistical patterns.

Information from the user: ` + userInput + `

Please analyse and suggest lottery numbers:
1. Suggest last 2 digits (2-3 sets)
2. Suggest first 3 digits (2-3 sets)
3. Suggest last 3 digits (2-3 sets)
4. Describe number patterns that may appear, with reasons

Note: this prediction is statistical analysis only and its accuracy is not guaranteed.`
}

// ExtractSuggestions returns the first MaxSuggestions distinct standalone
// 2-digit and 3-digit numbers found in text.
func ExtractSuggestions(text string) (two, three []string) {
	return firstDistinct(twoDigit.FindAllString(text, -1)), firstDistinct(threeDigit.FindAllString(text, -1))
}

func firstDistinct(matches []string) []string {
	out := make([]string, 0, MaxSuggestions)
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}
