package telegram

import (
	"context"
	"fmt"
	"strings"

	"registration-assistant/internal/domain"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/gookit/event"
)

// Telegram bridges the bot API and the in-process event bus: inbound
// updates become bus events, outbound bus events become API calls.
type Telegram struct {
	bot          *bot.Bot
	eventManager *event.Manager
	logger       domain.Logger
}

func NewTelegram(token string, eventManager *event.Manager, logger domain.Logger) (*Telegram, error) {
	opts := []bot.Option{
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {}),
	}

	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, err
	}

	adapter := &Telegram{
		bot:          b,
		eventManager: eventManager,
		logger:       logger,
	}

	adapter.registerHandlers()
	adapter.registerEventListeners()

	return adapter, nil
}

func (t *Telegram) Start(ctx context.Context) {
	t.bot.Start(ctx)
}

// SendToChat sends plain text directly, bypassing the bus. The notifier
// uses it for broadcasts that do not belong to any conversation.
func (t *Telegram) SendToChat(ctx context.Context, chatID int64, text string) error {
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	return err
}

func (t *Telegram) registerHandlers() {
	t.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, t.handleMessage)
	t.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, t.handleCallback)
}

// handleMessage classifies the update as a command or free text and fires
// the matching bus event.
func (t *Telegram) handleMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	text := update.Message.Text

	if strings.HasPrefix(text, "/") {
		command := strings.Fields(text)[0]
		// /register@SomeBot and /register are the same command
		if at := strings.Index(command, "@"); at != -1 {
			command = command[:at]
		}

		t.logger.WithField("user_id", userID).WithField("command", command).Debug("Отримано команду")

		t.eventManager.MustFire("telegram.command.received", event.M{
			"event": &domain.CommandEvent{
				UserID:  userID,
				ChatID:  chatID,
				Command: command,
			},
		})
		return
	}

	t.logger.WithField("user_id", userID).Debug("Отримано повідомлення")

	t.eventManager.MustFire("telegram.message.received", event.M{
		"event": &domain.MessageEvent{
			UserID:  userID,
			ChatID:  chatID,
			Message: text,
		},
	})
}

func (t *Telegram) handleCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	userID := update.CallbackQuery.From.ID
	chatID := update.CallbackQuery.Message.Message.Chat.ID
	messageID := update.CallbackQuery.Message.Message.ID
	data := update.CallbackQuery.Data

	t.logger.WithField("user_id", userID).WithField("data", data).Debug("Отримано callback")

	// MustFire runs listeners synchronously, so a handler that wants a
	// toast answers the query during this call.
	t.eventManager.MustFire("telegram.callback.received", event.M{
		"event": &domain.CallbackEvent{
			UserID:     userID,
			ChatID:     chatID,
			MessageID:  messageID,
			CallbackID: update.CallbackQuery.ID,
			Data:       data,
		},
	})

	// Clear the loading state for handlers that did not answer. Fails
	// harmlessly when a toast already consumed the query.
	_, _ = b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})
}

func (t *Telegram) registerEventListeners() {
	t.eventManager.On("telegram.send.message", event.ListenerFunc(func(e event.Event) error {
		data, ok := e.Get("response").(*domain.MessageResponse)
		if !ok {
			return fmt.Errorf("невірний тип відповіді повідомлення")
		}

		params := &bot.SendMessageParams{
			ChatID: data.ChatID,
			Text:   data.Text,
		}
		if data.Keyboard != nil {
			params.ReplyMarkup = t.buildKeyboard(data.Keyboard)
		}

		if _, err := t.bot.SendMessage(context.Background(), params); err != nil {
			t.logger.WithError(err).WithField("chat_id", data.ChatID).Error("Повідомлення не надіслалося")
			return err
		}
		return nil
	}))

	t.eventManager.On("telegram.send.photo", event.ListenerFunc(func(e event.Event) error {
		data, ok := e.Get("response").(*domain.PhotoResponse)
		if !ok {
			return fmt.Errorf("невірний тип відповіді фото")
		}

		params := &bot.SendPhotoParams{
			ChatID:  data.ChatID,
			Photo:   &models.InputFileString{Data: data.ImageRef},
			Caption: data.Caption,
		}
		if data.Keyboard != nil {
			params.ReplyMarkup = t.buildKeyboard(data.Keyboard)
		}

		if _, err := t.bot.SendPhoto(context.Background(), params); err != nil {
			t.logger.WithError(err).WithField("chat_id", data.ChatID).Error("Фото не надіслалося")
			return err
		}
		return nil
	}))

	t.eventManager.On("telegram.edit.keyboard", event.ListenerFunc(func(e event.Event) error {
		data, ok := e.Get("edit").(*domain.KeyboardEdit)
		if !ok {
			return fmt.Errorf("невірний тип редагування клавіатури")
		}

		_, err := t.bot.EditMessageReplyMarkup(context.Background(), &bot.EditMessageReplyMarkupParams{
			ChatID:      data.ChatID,
			MessageID:   data.MessageID,
			ReplyMarkup: t.buildKeyboard(data.Keyboard),
		})
		if err != nil {
			t.logger.WithError(err).WithField("chat_id", data.ChatID).Error("Клавіатура не оновилася")
			return err
		}
		return nil
	}))

	t.eventManager.On("telegram.send.typing", event.ListenerFunc(func(e event.Event) error {
		chatID, ok := e.Get("chatID").(int64)
		if !ok {
			return fmt.Errorf("невірний тип chatID")
		}

		_, err := t.bot.SendChatAction(context.Background(), &bot.SendChatActionParams{
			ChatID: chatID,
			Action: models.ChatActionTyping,
		})
		if err != nil {
			t.logger.WithError(err).Warn("Індикатор набору не надіслався")
		}
		return nil
	}))

	t.eventManager.On("telegram.answer.callback", event.ListenerFunc(func(e event.Event) error {
		callbackID, ok := e.Get("callbackID").(string)
		if !ok {
			return fmt.Errorf("невірний тип callbackID")
		}
		text, _ := e.Get("text").(string)
		showAlert, _ := e.Get("showAlert").(bool)

		_, err := t.bot.AnswerCallbackQuery(context.Background(), &bot.AnswerCallbackQueryParams{
			CallbackQueryID: callbackID,
			Text:            text,
			ShowAlert:       showAlert,
		})
		if err != nil {
			t.logger.WithError(err).Warn("Callback не відповівся")
		}
		return nil
	}))
}

func (t *Telegram) buildKeyboard(keyboard *domain.Keyboard) models.ReplyMarkup {
	if keyboard.Inline {
		var rows [][]models.InlineKeyboardButton
		for _, row := range keyboard.Buttons {
			var buttons []models.InlineKeyboardButton
			for _, btn := range row {
				buttons = append(buttons, models.InlineKeyboardButton{
					Text:         btn.Text,
					CallbackData: btn.Data,
				})
			}
			rows = append(rows, buttons)
		}
		return &models.InlineKeyboardMarkup{
			InlineKeyboard: rows,
		}
	}

	var rows [][]models.KeyboardButton
	for _, row := range keyboard.Buttons {
		var buttons []models.KeyboardButton
		for _, btn := range row {
			buttons = append(buttons, models.KeyboardButton{
				Text: btn.Text,
			})
		}
		rows = append(rows, buttons)
	}
	return &models.ReplyKeyboardMarkup{
		Keyboard:       rows,
		ResizeKeyboard: true,
	}
}
