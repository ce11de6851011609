package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/russross/blackfriday/v2"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const (
	historyWindow  = 10
	requestTimeout = 60 * time.Second
)

var (
	// ErrMissingAPIKey is returned when a question is sent before a key is configured
	ErrMissingAPIKey = errors.New("OpenAI API key is not configured")
	// ErrInvalidSettings wraps every settings validation failure
	ErrInvalidSettings = errors.New("invalid AI settings")
	// ErrEmptyQuestion is returned for blank questions
	ErrEmptyQuestion = errors.New("question must not be empty")
)

// Message is one turn of the conversation
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	HTML      string    `json:"html,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// State is a read of the conversation for the presentation layer
type State struct {
	Messages  []Message `json:"messages"`
	Loading   bool      `json:"loading"`
	Error     string    `json:"error,omitempty"`
	Settings  Settings  `json:"settings"`
	HasAPIKey bool      `json:"hasApiKey"`
}

// Service holds the assistant conversation and talks to the completion API
type Service struct {
	settingsFile string
	httpClient   *http.Client

	mu        sync.Mutex
	settings  Settings
	messages  []Message
	loading   bool
	lastError string
}

// NewService creates an assistant. Settings updates are persisted to
// settingsFile when it is not empty.
func NewService(settings Settings, settingsFile string) *Service {
	return &Service{
		settingsFile: settingsFile,
		httpClient:   &http.Client{Timeout: requestTimeout},
		settings:     settings,
		messages:     []Message{},
	}
}

// Send asks the assistant a question with the dashboard context attached and
// records both turns of the exchange.
func (s *Service) Send(ctx context.Context, question string, dashCtx *DashboardContext) (Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Message{}, ErrEmptyQuestion
	}

	s.mu.Lock()
	settings := s.settings
	if settings.APIKey == "" {
		s.lastError = ErrMissingAPIKey.Error()
		s.mu.Unlock()
		return Message{}, ErrMissingAPIKey
	}
	history := s.messages
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	request, err := buildRequest(settings, history, question, dashCtx)
	if err != nil {
		s.mu.Unlock()
		return Message{}, err
	}
	s.messages = append(s.messages, newMessage(openai.ChatMessageRoleUser, question))
	s.loading = true
	s.lastError = ""
	s.mu.Unlock()

	start := time.Now()
	resp, err := s.client(settings).CreateChatCompletion(ctx, request)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err == nil && len(resp.Choices) == 0 {
		err = fmt.Errorf("completion returned no choices")
	}
	if err != nil {
		s.lastError = err.Error()
		logrus.Errorf("Assistant request failed: %v", err)
		return Message{}, fmt.Errorf("assistant request failed: %w", err)
	}

	reply := newMessage(openai.ChatMessageRoleAssistant, resp.Choices[0].Message.Content)
	s.messages = append(s.messages, reply)

	logrus.WithFields(logrus.Fields{
		"model":             settings.Model,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"duration":          time.Since(start).String(),
	}).Info("Assistant answered question")

	return reply, nil
}

func buildRequest(settings Settings, history []Message, question string, dashCtx *DashboardContext) (openai.ChatCompletionRequest, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: settings.SystemPrompt},
	}

	if dashCtx != nil {
		data, err := json.MarshalIndent(dashCtx, "", "  ")
		if err != nil {
			return openai.ChatCompletionRequest{}, fmt.Errorf("failed to encode dashboard context: %w", err)
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: "Current dashboard data: " + string(data),
		})
	}

	for _, msg := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: question})

	return openai.ChatCompletionRequest{
		Model:       settings.Model,
		Messages:    messages,
		Temperature: float32(settings.Temperature),
		MaxTokens:   settings.MaxTokens,
	}, nil
}

func (s *Service) client(settings Settings) *openai.Client {
	cfg := openai.DefaultConfig(settings.APIKey)
	if settings.BaseURL != "" {
		cfg.BaseURL = settings.BaseURL
	}
	cfg.HTTPClient = s.httpClient
	return openai.NewClientWithConfig(cfg)
}

// History returns a copy of the conversation
func (s *Service) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message{}, s.messages...)
}

// Clear drops the conversation and any recorded error
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = []Message{}
	s.lastError = ""
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Messages:  append([]Message{}, s.messages...),
		Loading:   s.loading,
		Error:     s.lastError,
		Settings:  s.settings,
		HasAPIKey: s.settings.APIKey != "",
	}
}

// UpdateSettings applies a partial update and persists it when a settings file
// is configured.
func (s *Service) UpdateSettings(patch SettingsPatch) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := s.settings.Apply(patch)
	if err != nil {
		return s.settings, err
	}
	s.settings = updated

	if s.settingsFile != "" {
		if err := SaveSettings(s.settingsFile, updated); err != nil {
			logrus.Warnf("AI settings applied but not persisted: %v", err)
		}
	}
	return updated, nil
}

func newMessage(role, content string) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	if role == openai.ChatMessageRoleAssistant {
		msg.HTML = RenderMarkdown(content)
	}
	return msg
}

// RenderMarkdown converts an assistant reply to HTML. Raw HTML in the reply is
// dropped.
func RenderMarkdown(content string) string {
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags | blackfriday.SkipHTML,
	})
	return string(blackfriday.Run([]byte(content), blackfriday.WithRenderer(renderer)))
}
