package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/harrmos/quran-api/internal/domain"
	"github.com/harrmos/quran-api/internal/llm"
	"github.com/harrmos/quran-api/internal/repo"
)

// systemPrompt frames every completion request. The assistant answers
// questions about Islam in French, cites its sources, and declines
// everything else.
const systemPrompt = "Tu es un assistant islamique bienveillant et savant. " +
	"Tu réponds en français aux questions sur l'Islam, le Coran, les hadiths et la spiritualité. " +
	"Cite tes sources (versets du Coran, hadiths authentiques, avis de savants reconnus) quand c'est pertinent. " +
	"Si une question ne concerne pas l'Islam, décline poliment et invite l'utilisateur à poser une question sur l'Islam."

// ChatReply is the outcome of one successful chat turn.
type ChatReply struct {
	ConversationID string `json:"conversationId"`
	Reply          string `json:"reply"`
}

// ChatService orchestrates one chatbot turn: quota gate, conversation
// resolution, context window assembly, model completion, and persistence.
type ChatService struct {
	DB            *gorm.DB
	Users         *UserService
	Completer     llm.Completer
	ContextWindow int
	MaxMessageLen int

	getConversation    func(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error)
	createConversation func(ctx context.Context, db *gorm.DB, userID, title string) (*domain.Conversation, error)
	renameConversation func(ctx context.Context, db *gorm.DB, id, userID, title string) error
	recentMessages     func(ctx context.Context, db *gorm.DB, userID, conversationID string, limit int) ([]domain.Message, error)
	createMessage      func(ctx context.Context, db *gorm.DB, userID, conversationID, sender, text, contextNote string) (*domain.Message, error)
}

// NewChatService wires the orchestrator to the real repository functions.
func NewChatService(db *gorm.DB, users *UserService, completer llm.Completer, contextWindow, maxMessageLen int) *ChatService {
	if contextWindow <= 0 {
		contextWindow = 10
	}
	return &ChatService{
		DB:                 db,
		Users:              users,
		Completer:          completer,
		ContextWindow:      contextWindow,
		MaxMessageLen:      maxMessageLen,
		getConversation:    repo.GetConversation,
		createConversation: repo.CreateConversation,
		renameConversation: repo.UpdateConversationTitle,
		recentMessages:     repo.RecentMessages,
		createMessage:      repo.CreateMessage,
	}
}

// SendMessage runs one chat turn for userID. conversationID may be empty or
// stale; a fresh conversation is created in that case. A non-empty title on
// an existing conversation renames it as a side effect.
//
// Nothing is persisted and no quota is consumed unless the model call
// succeeds. On success exactly two messages are appended (user then bot) and
// the user's counter advances by one.
func (s *ChatService) SendMessage(ctx context.Context, userID, conversationID, title, text string) (*ChatReply, error) {
	tracer := otel.Tracer("services.chat")
	ctx, span := tracer.Start(ctx, "ChatService.SendMessage",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxMessageLen > 0 && len([]rune(text)) > s.MaxMessageLen {
		return nil, ErrMessageTooLong
	}

	status, err := s.Users.CheckQuota(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "quota check failed")
		return nil, err
	}
	if !status.CanSend {
		span.SetAttributes(attribute.Bool("quota.exceeded", true))
		return nil, ErrQuotaExceeded
	}

	conv, err := s.resolveConversation(ctx, userID, conversationID, title)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "conversation resolution failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("conversation.id", conv.ID))

	history, err := s.recentMessages(ctx, s.DB, userID, conv.ID, s.ContextWindow)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	prompt := make([]llm.ChatMessage, 0, len(history)+2)
	prompt = append(prompt, llm.ChatMessage{Role: llm.RoleSystem, Content: systemPrompt})
	for _, m := range history {
		role := llm.RoleUser
		if m.Sender == domain.SenderBot {
			role = llm.RoleAssistant
		}
		prompt = append(prompt, llm.ChatMessage{Role: role, Content: m.Text})
	}
	prompt = append(prompt, llm.ChatMessage{Role: llm.RoleUser, Content: text})

	reply, err := s.Completer.Complete(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		log.Error().Err(err).Str("conversation_id", conv.ID).Msg("model completion failed")
		return nil, fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}

	if _, err := s.createMessage(ctx, s.DB, userID, conv.ID, domain.SenderUser, text, ""); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if _, err := s.createMessage(ctx, s.DB, userID, conv.ID, domain.SenderBot, reply, ""); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.Users.ConsumeQuota(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to advance quota counter")
	}

	return &ChatReply{ConversationID: conv.ID, Reply: reply}, nil
}

// resolveConversation maps the caller-supplied id to a conversation owned by
// userID. Absent or stale ids start a fresh conversation; a caller-supplied
// title on an existing conversation renames it.
func (s *ChatService) resolveConversation(ctx context.Context, userID, conversationID, title string) (*domain.Conversation, error) {
	if conversationID != "" {
		conv, err := s.getConversation(ctx, s.DB, conversationID, userID)
		if err == nil {
			if t := strings.TrimSpace(title); t != "" && t != conv.Title {
				t = normalizeTitle(t)
				if err := s.renameConversation(ctx, s.DB, conv.ID, userID, t); err != nil {
					return nil, err
				}
				conv.Title = t
			}
			return conv, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}
	return s.createConversation(ctx, s.DB, userID, normalizeTitle(title))
}
