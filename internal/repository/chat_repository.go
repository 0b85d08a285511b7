package repository

import (
	"context"

	"registration-assistant/internal/database"
)

const createChatsTable = `
CREATE TABLE IF NOT EXISTS chats (
    chat_id    BIGINT PRIMARY KEY,
    first_seen TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const upsertChatQuery = `
INSERT INTO chats (chat_id)
VALUES ($1)
ON CONFLICT (chat_id) DO NOTHING;`

const listChatsQuery = `
SELECT chat_id
  FROM chats
 ORDER BY chat_id;`

type ChatRepository struct {
	db database.DB
}

// NewChatRepository creates the chat registry repository and ensures its
// table exists.
func NewChatRepository(ctx context.Context, db database.DB) (*ChatRepository, error) {
	if db == nil {
		panic("база даних не може бути порожньою")
	}

	if err := db.Exec(ctx, createChatsTable); err != nil {
		return nil, err
	}

	return &ChatRepository{db: db}, nil
}

// RegisterChat records a chat id, idempotently.
func (rpt *ChatRepository) RegisterChat(ctx context.Context, chatID int64) error {
	return rpt.db.Exec(ctx, upsertChatQuery, chatID)
}

// ListChats returns every registered chat id.
func (rpt *ChatRepository) ListChats(ctx context.Context) ([]int64, error) {
	var chats []int64
	if err := rpt.db.QueryStruct(ctx, &chats, listChatsQuery); err != nil {
		return nil, err
	}
	return chats, nil
}
