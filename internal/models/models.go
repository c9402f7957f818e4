package models

import "time"

// Message sender values. "model" is kept over "assistant" because that is
// what the Mini-App client renders on.
const (
	SenderUser  = "user"
	SenderModel = "model"
)

// DefaultChatTitle is the sentinel a chat is created with. The first
// successful exchange replaces it with a generated title.
const DefaultChatTitle = "New Chat"

// MaxChatTitleLen matches the chats.title column width.
const MaxChatTitleLen = 35

// User is an authenticated Telegram end-user. Created on first successful
// init-data validation, never deleted.
type User struct {
	ID         int64     `json:"-" db:"id"`
	TelegramID int64     `json:"telegram_id" db:"telegram_id"`
	Username   string    `json:"username" db:"username"`
	Joined     time.Time `json:"joined" db:"joined"`
}

// Chat is a single conversation owned by one user. HexID is the opaque
// public identifier handed to the client; the numeric ID never leaves the
// list/detail payloads.
type Chat struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"-" db:"user_id"`
	HexID     string    `json:"unique_hex_id" db:"hex_id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ChatContext is the rolling free-text summary that stands in for the full
// message history on every LLM call. Exactly one row per chat.
type ChatContext struct {
	ChatID      int64  `json:"-" db:"chat_id"`
	ContextData string `json:"context_data" db:"context_data"`
}

// Message is one turn in a chat. Immutable once written.
type Message struct {
	ID        int64     `json:"id" db:"id"`
	ChatID    int64     `json:"-" db:"chat_id"`
	Sender    string    `json:"sender" db:"sender"`
	Content   string    `json:"content" db:"content"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// ChatDetail is a chat with its messages, oldest first.
type ChatDetail struct {
	Chat
	Messages []Message `json:"messages"`
}
