package ai

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/inboxpurge/inboxpurge/dto"
	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/config"
	"github.com/inboxpurge/inboxpurge/internal/logger"
	"github.com/inboxpurge/inboxpurge/internal/tracing"
)

const systemPrompt = `You are an email cleanup assistant. Classify a bulk sender's messages as KEEP or DELETE for mailbox cleanup.

ALWAYS KEEP: receipts, invoices, orders, payments, bank or tax mail, verification codes, password resets, security alerts, medical or legal mail, government mail, travel bookings, anything the user engaged with (starred, replied).

USUALLY DELETE: marketing, promotions, newsletters the user never opens, social notifications, referral offers, automated digests.

Respond with JSON only: {"classification": "KEEP"|"DELETE", "confidence": 0.0-1.0, "reasoning": "...", "email_types": [...], "importance_signals": [...]}`

var ErrUnavailable = errors.New("llm classifier is not configured")

type openAIService struct {
	client    openai.Client
	model     string
	log       logger.Logger
	available bool

	mu    sync.Mutex
	cache map[string]*dto.SenderClassificationResponse
}

func NewOpenAIService(cfg *config.OpenAIConfig, log logger.Logger) interfaces.AIService {
	service := &openAIService{
		model:     cfg.Model,
		log:       log,
		available: cfg.APIKey != "",
		cache:     make(map[string]*dto.SenderClassificationResponse),
	}
	if service.available {
		service.client = openai.NewClient(option.WithAPIKey(cfg.APIKey))
	}

	return service
}

// ClassifySender asks the model for a per-sender verdict. Results are
// cached by sender address for the lifetime of the service.
func (s *openAIService) ClassifySender(ctx context.Context, request dto.SenderClassificationRequest) (*dto.SenderClassificationResponse, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "openAIService.ClassifySender")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagSender(span, request.SenderEmail)

	if !s.available {
		return nil, ErrUnavailable
	}

	s.mu.Lock()
	if cached, ok := s.cache[request.SenderEmail]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	userPrompt, err := json.Marshal(request)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "marshal classification request")
	}

	completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(string(userPrompt)),
		},
		Temperature: openai.Float(0.3),
		MaxTokens:   openai.Int(500),
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "chat completion")
	}
	if len(completion.Choices) == 0 {
		err := errors.New("empty completion")
		tracing.TraceErr(span, err)
		return nil, err
	}

	var response dto.SenderClassificationResponse
	content := stripCodeFences(completion.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &response); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "unmarshal classification response")
	}

	response.Classification = strings.ToUpper(strings.TrimSpace(response.Classification))
	if response.Classification != "KEEP" && response.Classification != "DELETE" {
		return nil, errors.Errorf("unexpected classification %q", response.Classification)
	}

	s.mu.Lock()
	s.cache[request.SenderEmail] = &response
	s.mu.Unlock()

	tracing.LogObjectAsJson(span, "response", response)
	return &response, nil
}

func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
