package handler

import (
	"context"
	"fmt"
	"strings"

	"registration-assistant/internal/domain"
	"registration-assistant/internal/services"

	"github.com/gookit/event"
)

// MessageHandler is the top-level router. It owns the sub-handlers and
// decides, per update, whether the registration wizard or the cart
// conversation gets the input.
type MessageHandler struct {
	eventManager    *event.Manager
	sessionService  *services.SessionService
	registryService *services.RegistryService
	logger          domain.Logger

	registrationHandler *RegistrationHandler
	cartHandler         *CartHandler
	messenger           *Messenger
}

// NewMessageHandler creates a new message handler instance with sub-handlers
func NewMessageHandler(
	eventManager *event.Manager,
	eventService *services.EventService,
	catalogService *services.CatalogService,
	sessionService *services.SessionService,
	registryService *services.RegistryService,
	logger domain.Logger,
) *MessageHandler {
	messenger := NewMessenger(eventManager)

	return &MessageHandler{
		eventManager:        eventManager,
		sessionService:      sessionService,
		registryService:     registryService,
		logger:              logger,
		registrationHandler: NewRegistrationHandler(eventService, sessionService, messenger, logger),
		cartHandler:         NewCartHandler(catalogService, sessionService, messenger, logger),
		messenger:           messenger,
	}
}

// RegisterEventListeners registers event listeners for commands, messages
// and callbacks
func (h *MessageHandler) RegisterEventListeners() {
	h.eventManager.On("telegram.command.received", event.ListenerFunc(func(e event.Event) error {
		cmdEvent, ok := e.Get("event").(*domain.CommandEvent)
		if !ok {
			return fmt.Errorf("невірний тип події команди")
		}
		return h.safe(cmdEvent.ChatID, func() error {
			return h.handleCommand(cmdEvent)
		})
	}))

	h.eventManager.On("telegram.message.received", event.ListenerFunc(func(e event.Event) error {
		msgEvent, ok := e.Get("event").(*domain.MessageEvent)
		if !ok {
			return fmt.Errorf("невірний тип події повідомлення")
		}
		return h.safe(msgEvent.ChatID, func() error {
			return h.handleMessage(msgEvent)
		})
	}))

	h.eventManager.On("telegram.callback.received", event.ListenerFunc(func(e event.Event) error {
		callbackEvent, ok := e.Get("event").(*domain.CallbackEvent)
		if !ok {
			return fmt.Errorf("невірний тип події callback")
		}
		return h.safe(callbackEvent.ChatID, func() error {
			return h.handleCallback(callbackEvent)
		})
	}))
}

// safe keeps one misbehaving update from taking the listener down. The
// panic is logged and the user gets a generic retry message.
func (h *MessageHandler) safe(chatID int64, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.WithField("panic", r).WithField("chat_id", chatID).Error("Обробник впав на оновленні")
			err = h.messenger.SendMessage(chatID, MSG_TRY_LATER)
		}
	}()
	return fn()
}

func (h *MessageHandler) handleCommand(cmd *domain.CommandEvent) error {
	switch cmd.Command {
	case "/start":
		ctx, cancel := context.WithTimeout(context.Background(), TIMEOUT_STORE_WRITE)
		defer cancel()
		h.registryService.Remember(ctx, cmd.ChatID)
		return h.messenger.SendMessage(cmd.ChatID, MSG_START)
	case "/help":
		return h.messenger.SendMessage(cmd.ChatID, MSG_HELP)
	case "/info":
		return h.messenger.SendMessage(cmd.ChatID, MSG_INFO)
	case "/events":
		return h.registrationHandler.HandleEventsCommand(cmd.ChatID)
	case "/register":
		return h.registrationHandler.HandleRegisterCommand(cmd.ChatID)
	case "/shop":
		return h.cartHandler.HandleShopCommand(cmd.UserID, cmd.ChatID)
	case "/cart":
		return h.cartHandler.HandleCartCommand(cmd.UserID, cmd.ChatID)
	default:
		return h.messenger.SendMessage(cmd.ChatID, MSG_HELP)
	}
}

// handleMessage routes free text. The checkout questions win over the
// wizard; text that matches neither is dropped without a reply.
func (h *MessageHandler) handleMessage(msg *domain.MessageEvent) error {
	session := h.sessionService.GetSession(msg.ChatID)
	if session == nil {
		return nil
	}

	if cart := session.Cart; cart != nil &&
		(cart.State == domain.CartCollectingName || cart.State == domain.CartCollectingPhone) {
		return h.cartHandler.HandleText(session, msg)
	}

	return h.registrationHandler.HandleText(session, msg)
}

// handleCallback routes callback queries by their data prefix.
func (h *MessageHandler) handleCallback(callback *domain.CallbackEvent) error {
	parts := strings.SplitN(callback.Data, ":", 3)
	if len(parts) < 2 {
		return nil
	}

	scope := parts[0]
	action := parts[1]
	arg := ""
	if len(parts) == 3 {
		arg = parts[2]
	}

	switch scope {
	case "event":
		// event:<id> — action carries the id
		return h.registrationHandler.HandleEventSelected(callback.UserID, callback.ChatID, action)
	case "reg":
		session := h.sessionService.GetSession(callback.ChatID)
		return h.registrationHandler.HandleCallback(session, callback, action, arg)
	case "shop":
		session := h.sessionService.GetSession(callback.ChatID)
		return h.cartHandler.HandleCallback(session, callback, action, arg)
	default:
		return nil
	}
}
