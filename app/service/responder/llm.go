package responder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vetbuddy/app/service/conversation"

	_ "embed"

	"vetbuddy/app/config"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

//go:embed system_prompt.txt
var systemPrompt string

const (
	maxReasonDuration = 30 * time.Second
	maxHistoryReplay  = 20
	maxResponseTokens = 500
)

// LLM is the model-backed responder. It replays recent history to an
// OpenAI-compatible endpoint and returns plain text with no actions.
type LLM struct {
	model llms.Model
}

func NewLLM(cfg config.ModelConfig) (*LLM, error) {
	model, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(cfg.Token),
		openai.WithModel(cfg.Model),
		openai.WithCallback(LogCallbackHandler{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	return &LLM{
		model: model,
	}, nil
}

func (l *LLM) Generate(ctx context.Context, history []conversation.Message) (*Response, error) {
	if len(history) > maxHistoryReplay {
		history = history[len(history)-maxHistoryReplay:]
	}

	messages := make([]llms.MessageContent, 0, len(history)+1)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))

	for _, msg := range history {
		messages = append(messages, llms.TextParts(chatMessageType(msg.Role), msg.Content))
	}

	ctx, cancel := context.WithTimeout(ctx, maxReasonDuration)
	defer cancel()

	result, err := l.model.GenerateContent(ctx, messages,
		llms.WithMaxTokens(maxResponseTokens),
		llms.WithTemperature(0.7),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("no chat completion found")
	}

	return &Response{
		Text: strings.TrimSpace(result.Choices[0].Content),
	}, nil
}

func chatMessageType(role conversation.Role) llms.ChatMessageType {
	switch role {
	case conversation.RoleAssistant:
		return llms.ChatMessageTypeAI
	case conversation.RoleSystem:
		return llms.ChatMessageTypeSystem
	default:
		return llms.ChatMessageTypeHuman
	}
}
