package tutor

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nalibo/nalibopath/internal/curriculum"
	"github.com/nalibo/nalibopath/internal/llm"
	"github.com/nalibo/nalibopath/internal/store"
)

// ChatModel is the OpenAI model behind the premium assistant.
const ChatModel = "gpt-4o"

// Fixed assistant texts.
const (
	ChatGreeting        = "Hello. I am your Nalibo Linguistic Assistant. I can help you practice conversation or explain the grammatical structure of this conlang. What would you like to focus on?"
	ChatConnectionError = "Connection error. Please check your API key in settings."
	ChatUnavailable     = "Service unavailable. Please try again."
)

const chatSystem = `You are a professional Linguistic Assistant for the constructed language 'Nalibo'.
Nalibo is a conlang, not a natural language. Use the provided rules to assist the user.
Nalibo Rules:
` + curriculum.Phonetics + "\n" + curriculum.GrammarSummary + `
Tone: Academic, helpful, and precise. Correct mistakes by referencing the specific conlang rules.`

const chatMaxTokens = 800

// ErrNoAPIKey is returned when the chat is opened without a key.
var ErrNoAPIKey = errors.New("tutor chat requires an API key")

// ChatMessage is one line of the transcript.
type ChatMessage struct {
	Role llm.Role
	Text string
}

// Chat is a conversation with the premium assistant, billed to the
// learner's own OpenAI key.
type Chat struct {
	provider llm.Provider
	logger   *zap.Logger

	mu       sync.Mutex
	messages []ChatMessage
	pending  bool
}

// ChatOption configures a Chat.
type ChatOption func(*chatOptions)

type chatOptions struct {
	provider  llm.Provider
	eventRepo store.EventRepo
	logger    *zap.Logger
}

// WithChatProvider replaces the OpenAI client, for tests.
func WithChatProvider(p llm.Provider) ChatOption {
	return func(o *chatOptions) { o.provider = p }
}

// WithChatEvents records chat requests in the event log.
func WithChatEvents(repo store.EventRepo) ChatOption {
	return func(o *chatOptions) { o.eventRepo = repo }
}

// WithChatLogger sets the logger.
func WithChatLogger(l *zap.Logger) ChatOption {
	return func(o *chatOptions) { o.logger = l }
}

// NewChat opens a conversation seeded with the greeting.
func NewChat(apiKey string, opts ...ChatOption) (*Chat, error) {
	o := chatOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	p := o.provider
	if p == nil {
		if strings.TrimSpace(apiKey) == "" {
			return nil, ErrNoAPIKey
		}
		oai, err := llm.NewOpenAIProvider(llm.OpenAIConfig{APIKey: apiKey, Model: ChatModel})
		if err != nil {
			return nil, err
		}
		p = llm.WithLogging(oai, "openai", o.eventRepo, o.logger)
	}

	return &Chat{
		provider: p,
		logger:   o.logger,
		messages: []ChatMessage{{Role: llm.RoleAssistant, Text: ChatGreeting}},
	}, nil
}

// Messages returns a copy of the transcript.
func (c *Chat) Messages() []ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ChatMessage(nil), c.messages...)
}

// Pending reports whether a reply is being generated.
func (c *Chat) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Send appends the learner's text and the assistant's reply. Blank text
// and sends while a reply is pending are ignored and return ok == false.
// Provider failures become one of the fixed assistant texts.
func (c *Chat) Send(ctx context.Context, text string) (reply ChatMessage, ok bool) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if text == "" || c.pending {
		c.mu.Unlock()
		return ChatMessage{}, false
	}
	c.messages = append(c.messages, ChatMessage{Role: llm.RoleUser, Text: text})
	history := make([]llm.Message, 0, len(c.messages))
	for _, m := range c.messages {
		history = append(history, llm.Message{Role: m.Role, Content: m.Text})
	}
	c.pending = true
	c.mu.Unlock()

	ctx = llm.WithPurpose(ctx, PurposeChat)
	resp, err := c.provider.Generate(ctx, llm.Request{
		System:    chatSystem,
		Messages:  history,
		MaxTokens: chatMaxTokens,
	})

	reply = ChatMessage{Role: llm.RoleAssistant}
	var authErr *llm.ErrAuthentication
	switch {
	case errors.As(err, &authErr):
		c.logger.Info("tutor chat key rejected", zap.Error(err))
		reply.Text = ChatConnectionError
	case err != nil:
		c.logger.Warn("tutor chat failed", zap.Error(err))
		reply.Text = ChatConnectionError
	default:
		reply.Text = textContent(resp.Content)
		if reply.Text == "" {
			reply.Text = ChatUnavailable
		}
	}

	c.mu.Lock()
	c.messages = append(c.messages, reply)
	c.pending = false
	c.mu.Unlock()
	return reply, true
}
