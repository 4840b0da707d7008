// Package narrator produces short flavor text for game events through an
// OpenAI compatible chat completions API.
package narrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/user/life-rpg/config"
	"github.com/user/life-rpg/internal/interfaces"
	"github.com/user/life-rpg/internal/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Fallback is returned whenever the oracle cannot be reached or says nothing.
const Fallback = "The path continues. Every step forges your legend."

var errEmptyReply = errors.New("empty completion")

var tracer = otel.Tracer("github.com/user/life-rpg/internal/narrator")

// Static is a narrator that always answers with Fallback
type Static struct{}

var _ interfaces.Narrator = Static{}

// Generate returns Fallback
func (Static) Generate(context.Context, types.PromptContext) string {
	return Fallback
}

// OpenAINarrator asks a chat model for flavor text
type OpenAINarrator struct {
	client  openai.Client
	model   string
	timeout time.Duration
	enabled bool
	Logger  *zap.Logger
}

var _ interfaces.Narrator = (*OpenAINarrator)(nil)

// NewOpenAINarrator creates a narrator from config. Without an API key every
// call returns the fallback.
func NewOpenAINarrator(cfg config.NarratorConfig, logger *zap.Logger) *OpenAINarrator {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(withTrailingSlash(cfg.BaseURL)))
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAINarrator{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		timeout: timeout,
		enabled: cfg.APIKey != "" && cfg.Model != "",
		Logger:  logger,
	}
}

// Generate returns flavor text for the prompt, or Fallback on any failure
func (n *OpenAINarrator) Generate(ctx context.Context, prompt types.PromptContext) string {
	if !n.enabled {
		return Fallback
	}

	text, err := n.complete(ctx, SystemPrompt(prompt), UserPrompt(prompt))
	if err != nil {
		n.Logger.Warn("Narrator unavailable, using fallback",
			zap.String("trigger", string(prompt.Trigger)),
			zap.Error(err))
		return Fallback
	}
	return text
}

// SuggestTitle asks for a flavorful variant of the archetype label. The
// label itself is the fallback.
func (n *OpenAINarrator) SuggestTitle(ctx context.Context, archetype types.Archetype, level int) string {
	if !n.enabled {
		return string(archetype)
	}

	system := "You name characters in a fantasy self-improvement game. " +
		"Reply with a title of at most four words and nothing else."
	user := fmt.Sprintf("Suggest a title for a level %d %s.", level, archetype)

	text, err := n.complete(ctx, system, user)
	if err != nil {
		n.Logger.Warn("Title suggestion failed", zap.Error(err))
		return string(archetype)
	}
	return strings.Trim(text, "\"'")
}

func (n *OpenAINarrator) complete(ctx context.Context, system, user string) (string, error) {
	ctx, span := tracer.Start(ctx, "narrator.complete", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("narrator.model", n.model))

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	resp, err := n.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model: openai.ChatModel(n.model),
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to create completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyReply
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errEmptyReply
	}
	return text, nil
}

// SystemPrompt sets the narrator's voice for a trigger
func SystemPrompt(p types.PromptContext) string {
	var b strings.Builder
	b.WriteString("You are the narrator of a role-playing game where real-life habits earn experience. ")
	b.WriteString("Answer with one or two vivid sentences in second person. Never mention numbers other than the level.")
	switch p.Trigger {
	case types.TriggerLogin:
		b.WriteString(" Greet the hero returning to their journey.")
	case types.TriggerLevelUp:
		b.WriteString(" Celebrate the hero reaching a new level.")
	default:
		b.WriteString(" React to the deed the hero just completed.")
	}
	return b.String()
}

// UserPrompt describes the hero and the event
func UserPrompt(p types.PromptContext) string {
	name := p.ProfileName
	if name == "" {
		name = "the hero"
	}
	msg := fmt.Sprintf("Hero: %s. Class: %s. Level: %d. Event: %s.", name, p.Archetype, p.Level, p.Trigger)
	if p.Note != "" {
		msg += " Context: " + p.Note + "."
	}
	return msg
}

func withTrailingSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}
