package services

import (
	"context"
	"fmt"

	"registration-assistant/internal/domain"
)

// RegistryService keeps the set of chats that ever talked to the bot, so
// the notifier knows where to broadcast.
type RegistryService struct {
	registry domain.ChatRegistry
	logger   domain.Logger
}

// NewRegistryService creates a new registry service instance
func NewRegistryService(registry domain.ChatRegistry, logger domain.Logger) *RegistryService {
	return &RegistryService{
		registry: registry,
		logger:   logger,
	}
}

// Remember records a chat id. Registration is best-effort: a failure is
// logged, never surfaced to the conversation.
func (s *RegistryService) Remember(ctx context.Context, chatID int64) {
	if err := s.registry.RegisterChat(ctx, chatID); err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Warn("Чат не зареєструвався")
	}
}

// Chats lists every registered chat id.
func (s *RegistryService) Chats(ctx context.Context) ([]int64, error) {
	chats, err := s.registry.ListChats(ctx)
	if err != nil {
		return nil, fmt.Errorf("список чатів: %w", err)
	}
	return chats, nil
}
