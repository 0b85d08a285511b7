package handler

import (
	"registration-assistant/internal/domain"

	"github.com/gookit/event"
)

// Messenger handles sending messages to users
type Messenger struct {
	eventManager *event.Manager
}

// NewMessenger creates a new messenger instance
func NewMessenger(eventManager *event.Manager) *Messenger {
	return &Messenger{
		eventManager: eventManager,
	}
}

// SendMessage sends a text message to a chat
func (m *Messenger) SendMessage(chatID int64, text string) error {
	response := &domain.MessageResponse{
		ChatID: chatID,
		Text:   text,
	}

	m.eventManager.MustFire("telegram.send.message", event.M{
		"response": response,
	})

	return nil
}

// SendMessageWithKeyboard sends a message with an inline keyboard
func (m *Messenger) SendMessageWithKeyboard(chatID int64, text string, keyboard *domain.Keyboard) error {
	response := &domain.MessageResponse{
		ChatID:   chatID,
		Text:     text,
		Keyboard: keyboard,
	}

	m.eventManager.MustFire("telegram.send.message", event.M{
		"response": response,
	})

	return nil
}

// SendPhoto sends an image with a caption and optional keyboard
func (m *Messenger) SendPhoto(chatID int64, imageRef, caption string, keyboard *domain.Keyboard) error {
	response := &domain.PhotoResponse{
		ChatID:   chatID,
		ImageRef: imageRef,
		Caption:  caption,
		Keyboard: keyboard,
	}

	m.eventManager.MustFire("telegram.send.photo", event.M{
		"response": response,
	})

	return nil
}

// EditKeyboard replaces the control surface of an already-sent message,
// keeping the transcript compact across repeated toggles.
func (m *Messenger) EditKeyboard(chatID int64, messageID int, keyboard *domain.Keyboard) error {
	edit := &domain.KeyboardEdit{
		ChatID:    chatID,
		MessageID: messageID,
		Keyboard:  keyboard,
	}

	m.eventManager.MustFire("telegram.edit.keyboard", event.M{
		"edit": edit,
	})

	return nil
}

// SendTypingIndicator sends a typing action to show bot is processing
func (m *Messenger) SendTypingIndicator(chatID int64) {
	m.eventManager.MustFire("telegram.send.typing", event.M{
		"chatID": chatID,
	})
}

// AnswerCallbackQuery sends a toast response to a callback query
func (m *Messenger) AnswerCallbackQuery(callbackID string, text string, showAlert bool) error {
	m.eventManager.MustFire("telegram.answer.callback", event.M{
		"callbackID": callbackID,
		"text":       text,
		"showAlert":  showAlert,
	})

	return nil
}
