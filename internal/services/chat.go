package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/vulval/vulval-backend/internal/config"
	"github.com/vulval/vulval-backend/internal/llm"
	"github.com/vulval/vulval-backend/internal/metrics"
	"github.com/vulval/vulval-backend/internal/models"
	"github.com/vulval/vulval-backend/internal/repository"
)

// Input bounds, matching the Mini-App client.
const (
	maxMessageLen = 250
	maxChatID     = 999999
)

var hexIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]{20}$`)

// ExchangeResult is what one successful exchange returns: the persisted
// message pair and, on the first exchange only, the generated title.
type ExchangeResult struct {
	Title        *string         `json:"title,omitempty"`
	UserMessage  *models.Message `json:"user"`
	ModelMessage *models.Message `json:"model"`
}

// ChatService owns the conversation lifecycle and the per-exchange state
// machine.
type ChatService struct {
	chats     repository.ChatRepository
	messages  repository.MessageRepository
	contexts  repository.ContextRepository
	exchanges repository.ExchangeRepository
	provider  llm.Provider
	llmCfg    config.LLMConfig
	metrics   *metrics.Collector
	log       *logrus.Logger

	// chatLocks serializes exchanges per chat so a concurrent second
	// exchange cannot read a stale context or re-trigger title
	// generation. The store transaction handles durability; this handles
	// the read-compute-write window above it.
	mu        sync.Mutex
	chatLocks map[int64]*sync.Mutex
}

func NewChatService(
	chats repository.ChatRepository,
	messages repository.MessageRepository,
	contexts repository.ContextRepository,
	exchanges repository.ExchangeRepository,
	provider llm.Provider,
	llmCfg config.LLMConfig,
	collector *metrics.Collector,
	log *logrus.Logger,
) *ChatService {
	return &ChatService{
		chats:     chats,
		messages:  messages,
		contexts:  contexts,
		exchanges: exchanges,
		provider:  provider,
		llmCfg:    llmCfg,
		metrics:   collector,
		log:       log,
		chatLocks: make(map[int64]*sync.Mutex),
	}
}

// ListChats returns all chats of the user, most recently updated first.
func (s *ChatService) ListChats(ctx context.Context, user *models.User) ([]models.Chat, error) {
	return s.chats.ListByUser(ctx, user.ID)
}

// CreateChat creates a chat with an optional title. The empty context row
// is created alongside it.
func (s *ChatService) CreateChat(ctx context.Context, user *models.User, title string) (*models.Chat, error) {
	title = strings.TrimSpace(title)
	if len(title) > models.MaxChatTitleLen {
		return nil, fmt.Errorf("%w: title exceeds %d characters", ErrValidation, models.MaxChatTitleLen)
	}

	return s.chats.Create(ctx, user.ID, title)
}

// GetChat loads a chat by its public hex id with all messages oldest
// first. The token shape is checked before any store lookup.
func (s *ChatService) GetChat(ctx context.Context, user *models.User, hexID string) (*models.ChatDetail, error) {
	if !hexIDPattern.MatchString(hexID) {
		return nil, fmt.Errorf("%w: invalid conversation id format", ErrValidation)
	}

	chat, err := s.chats.GetByHexID(ctx, hexID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.authorize(chat, user); err != nil {
		return nil, err
	}

	messages, err := s.messages.ListByChat(ctx, chat.ID)
	if err != nil {
		return nil, err
	}

	return &models.ChatDetail{Chat: *chat, Messages: messages}, nil
}

// DeleteChat removes a chat after an ownership check and returns its title.
func (s *ChatService) DeleteChat(ctx context.Context, user *models.User, chatID int64) (string, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	if err := s.authorize(chat, user); err != nil {
		return "", err
	}

	if err := s.chats.Delete(ctx, chat.ID); err != nil {
		return "", err
	}

	s.releaseChatLock(chat.ID)

	return chat.Title, nil
}

// SubmitMessage runs one full exchange: validate, load context, complete,
// parse, persist. Nothing is written unless every step before the commit
// succeeds, and the commit itself is a single transaction.
func (s *ChatService) SubmitMessage(ctx context.Context, user *models.User, chatID int64, content string) (*ExchangeResult, error) {
	// The bound is in characters, not bytes, so multibyte input gets the
	// same allowance the client enforces.
	if content == "" || utf8.RuneCountInString(content) > maxMessageLen {
		return nil, fmt.Errorf("%w: message must be 1 to %d characters", ErrValidation, maxMessageLen)
	}
	if chatID <= 0 || chatID > maxChatID {
		return nil, fmt.Errorf("%w: chat id out of range", ErrValidation)
	}

	chat, err := s.chats.GetByID(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		s.metrics.RecordExchange("not_found")
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.authorize(chat, user); err != nil {
		s.metrics.RecordExchange("forbidden")
		return nil, err
	}

	unlock := s.lockChat(chat.ID)
	defer unlock()

	chatCtx, err := s.contexts.Get(ctx, chat.ID)
	if err != nil {
		return nil, err
	}

	raw, err := s.provider.Complete(ctx, llm.CompletionRequest{
		System:      llm.SystemInstruction,
		Turns:       buildHistory(chatCtx.ContextData, content),
		MaxTokens:   s.llmCfg.MaxTokens,
		Temperature: s.llmCfg.Temperature,
	})
	if err != nil {
		s.metrics.RecordExchange("upstream_error")
		s.log.WithError(err).WithFields(logrus.Fields{
			"telegram_id": user.TelegramID,
			"chat_id":     chat.ID,
		}).Error("model completion failed")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	reply, newSummary, err := extractModelOutput(raw)
	if err != nil {
		s.metrics.RecordExchange("parse_error")
		s.log.WithError(err).WithFields(logrus.Fields{
			"telegram_id": user.TelegramID,
			"chat_id":     chat.ID,
		}).Error("model output rejected")
		return nil, err
	}

	// First exchange: the title still carries the creation sentinel, so
	// generate one. A failed generation keeps the sentinel; it must not
	// sink the exchange.
	var newTitle *string
	if chat.Title == models.DefaultChatTitle {
		if title, err := s.generateTitle(ctx, content, reply); err != nil {
			s.log.WithError(err).WithField("chat_id", chat.ID).Warn("title generation failed, keeping default")
		} else {
			newTitle = &title
		}
	}

	userMsg, modelMsg, err := s.exchanges.CommitExchange(ctx, repository.ExchangeWrite{
		ChatID:       chat.ID,
		UserContent:  content,
		ModelContent: reply,
		ContextData:  newSummary,
		NewTitle:     newTitle,
	})
	if err != nil {
		s.metrics.RecordExchange("store_error")
		return nil, err
	}

	s.metrics.RecordExchange("ok")

	return &ExchangeResult{
		Title:        newTitle,
		UserMessage:  userMsg,
		ModelMessage: modelMsg,
	}, nil
}

// generateTitle asks the provider for a 3-5 word title and bounds it to the
// title column width.
func (s *ChatService) generateTitle(ctx context.Context, userText, modelReply string) (string, error) {
	raw, err := s.provider.Complete(ctx, llm.CompletionRequest{
		System: llm.TitleInstruction,
		Turns: []llm.Turn{{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf("user_input: %s, model_response: %s", userText, modelReply),
		}},
		MaxTokens:   20,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}

	title := strings.Trim(strings.TrimSpace(raw), `"'`)
	title = strings.ReplaceAll(title, "\n", " ")
	if title == "" {
		return "", errors.New("empty title from model")
	}
	if runes := []rune(title); len(runes) > models.MaxChatTitleLen {
		title = string(runes[:models.MaxChatTitleLen])
	}

	return title, nil
}

// authorize enforces the single ownership rule: only the chat's owner may
// touch it. Both identities are logged for audit.
func (s *ChatService) authorize(chat *models.Chat, user *models.User) error {
	if chat.UserID != user.ID {
		s.log.WithFields(logrus.Fields{
			"chat_id":           chat.ID,
			"owner_user_id":     chat.UserID,
			"requester_user_id": user.ID,
			"telegram_id":       user.TelegramID,
		}).Error("chat access denied")
		return ErrForbidden
	}
	return nil
}

func (s *ChatService) lockChat(chatID int64) func() {
	s.mu.Lock()
	lock, ok := s.chatLocks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		s.chatLocks[chatID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// releaseChatLock drops the per-chat lock entry once the chat is gone so the
// map does not accumulate entries for deleted chats. An exchange already
// holding the mutex keeps its own reference; a later exchange on the same id
// fails the existence check before it ever locks.
func (s *ChatService) releaseChatLock(chatID int64) {
	s.mu.Lock()
	delete(s.chatLocks, chatID)
	s.mu.Unlock()
}
