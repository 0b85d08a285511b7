package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"registration-assistant/internal/domain"
	"registration-assistant/internal/services"

	"github.com/google/uuid"
)

const orderTimestampLayout = "02.01.2006 15:04:05"

// CartHandler drives the shop conversation: category and product browsing,
// the cart itself, and the two-question checkout.
type CartHandler struct {
	catalogService *services.CatalogService
	sessionService *services.SessionService
	messenger      *Messenger
	logger         domain.Logger
	now            func() time.Time
}

// NewCartHandler creates a new cart handler instance
func NewCartHandler(
	catalogService *services.CatalogService,
	sessionService *services.SessionService,
	messenger *Messenger,
	logger domain.Logger,
) *CartHandler {
	return &CartHandler{
		catalogService: catalogService,
		sessionService: sessionService,
		messenger:      messenger,
		logger:         logger,
		now:            time.Now,
	}
}

// HandleShopCommand opens (or re-opens) the shop. The catalog snapshot is
// taken here and pinned to the session; cart lines survive re-entry.
func (h *CartHandler) HandleShopCommand(userID, chatID int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), TIMEOUT_STORE_READ)
	defer cancel()

	catalog, err := h.catalogService.Catalog(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoItems) {
			return h.messenger.SendMessage(chatID, MSG_SHOP_EMPTY)
		}
		return h.messenger.SendMessage(chatID, MSG_TRY_LATER)
	}

	banners, err := h.catalogService.Banners(ctx)
	if err != nil {
		h.logger.WithError(err).Warn("Банери недоступні, продовжуємо без них")
		banners = map[string]string{}
	}

	session := h.sessionService.GetOrCreateSession(userID, chatID)
	if session.Cart == nil {
		session.Cart = &domain.CartSession{}
	}
	session.Cart.Catalog = catalog
	session.Cart.Banners = banners
	session.Cart.State = domain.CartBrowsingCategories
	h.sessionService.UpdateSession(session)

	return h.showCategories(session)
}

// HandleCartCommand shows the current cart contents.
func (h *CartHandler) HandleCartCommand(userID, chatID int64) error {
	session := h.sessionService.GetOrCreateSession(userID, chatID)
	if session.Cart == nil || len(session.Cart.Items) == 0 {
		return h.messenger.SendMessage(chatID, MSG_CART_EMPTY)
	}
	return h.showCart(session)
}

// HandleCallback routes shop:* callback data for the current session.
func (h *CartHandler) HandleCallback(session *domain.Session, callback *domain.CallbackEvent, action, arg string) error {
	if session == nil || session.Cart == nil {
		return nil
	}

	switch action {
	case "cats":
		session.Cart.State = domain.CartBrowsingCategories
		h.sessionService.UpdateSession(session)
		return h.showCategories(session)
	case "cat":
		return h.handleCategorySelected(session, arg)
	case "prod":
		return h.handleProductSelected(session, arg)
	case "add":
		return h.handleAdd(session, callback, arg)
	case "inc":
		return h.handleQuantity(session, callback, arg, +1)
	case "dec":
		return h.handleQuantity(session, callback, arg, -1)
	case "cart":
		session.Cart.State = domain.CartViewing
		h.sessionService.UpdateSession(session)
		return h.showCart(session)
	case "checkout":
		return h.handleCheckout(session, callback)
	case "confirm":
		return h.handleConfirm(session, callback)
	case "cancelconfirm":
		return h.handleCancelConfirm(session)
	case "close":
		return h.handleClose(session)
	default:
		return nil
	}
}

// HandleText consumes checkout answers. The caller routes text here only
// while the cart is collecting the name or the phone.
func (h *CartHandler) HandleText(session *domain.Session, msg *domain.MessageEvent) error {
	cart := session.Cart
	text := strings.TrimSpace(msg.Message)
	if text == "" {
		return nil
	}

	switch cart.State {
	case domain.CartCollectingName:
		cart.CheckoutName = text
		cart.State = domain.CartCollectingPhone
		h.sessionService.UpdateSession(session)
		return h.messenger.SendMessage(session.ChatID, MSG_PHONE_PROMPT)

	case domain.CartCollectingPhone:
		cart.CheckoutPhone = text
		cart.State = domain.CartConfirmingOrder
		h.sessionService.UpdateSession(session)
		return h.sendOrderSummary(session)

	default:
		return nil
	}
}

func (h *CartHandler) showCategories(session *domain.Session) error {
	cart := session.Cart
	categories := categoriesOf(cart.Catalog)
	if len(categories) == 0 {
		return h.messenger.SendMessage(session.ChatID, MSG_SHOP_EMPTY)
	}

	var buttons [][]domain.Button
	for _, category := range categories {
		buttons = append(buttons, []domain.Button{
			{Text: category, Data: "shop:cat:" + category},
		})
	}
	buttons = append(buttons, []domain.Button{
		{Text: MSG_BTN_CART, Data: "shop:cart"},
		{Text: MSG_BTN_CLOSE, Data: "shop:close"},
	})

	keyboard := &domain.Keyboard{Inline: true, Buttons: buttons}
	return h.messenger.SendMessageWithKeyboard(session.ChatID, MSG_SHOP_CATEGORIES, keyboard)
}

// handleCategorySelected lists the category's products, under the category
// banner when the shop sheet provides one.
func (h *CartHandler) handleCategorySelected(session *domain.Session, category string) error {
	cart := session.Cart
	cart.Category = category
	cart.State = domain.CartBrowsingProducts
	h.sessionService.UpdateSession(session)

	var buttons [][]domain.Button
	for _, product := range cart.Catalog {
		if product.Category != category {
			continue
		}
		buttons = append(buttons, []domain.Button{
			{Text: fmt.Sprintf("%s — %.0f грн", product.Name, product.Price), Data: "shop:prod:" + product.ID},
		})
	}
	if len(buttons) == 0 {
		return h.messenger.SendMessage(session.ChatID, MSG_SHOP_EMPTY)
	}
	buttons = append(buttons, []domain.Button{
		{Text: MSG_BTN_BACK, Data: "shop:cats"},
		{Text: MSG_BTN_CART, Data: "shop:cart"},
	})
	keyboard := &domain.Keyboard{Inline: true, Buttons: buttons}

	if banner := cart.Banners[category]; banner != "" {
		return h.messenger.SendPhoto(session.ChatID, banner, category, keyboard)
	}
	return h.messenger.SendMessageWithKeyboard(session.ChatID, category, keyboard)
}

func (h *CartHandler) handleProductSelected(session *domain.Session, productID string) error {
	cart := session.Cart
	product := findProduct(cart.Catalog, productID)
	if product == nil {
		return nil
	}

	cart.ProductID = productID
	cart.State = domain.CartViewingProduct
	h.sessionService.UpdateSession(session)

	var sb strings.Builder
	sb.WriteString(product.Name)
	if product.Color != "" {
		sb.WriteString(" (" + product.Color + ")")
	}
	if product.Description != "" {
		sb.WriteString("\n" + product.Description)
	}
	sb.WriteString(fmt.Sprintf("\n\n💰 %.0f грн", product.Price))
	sb.WriteString(fmt.Sprintf("\n📦 В наявності: %d", product.Stock))

	keyboard := &domain.Keyboard{
		Inline: true,
		Buttons: [][]domain.Button{
			{{Text: MSG_BTN_ADD, Data: "shop:add:" + product.ID}},
			{
				{Text: MSG_BTN_BACK, Data: "shop:cat:" + product.Category},
				{Text: MSG_BTN_CART, Data: "shop:cart"},
			},
		},
	}

	if product.ImageRef != "" {
		return h.messenger.SendPhoto(session.ChatID, product.ImageRef, sb.String(), keyboard)
	}
	return h.messenger.SendMessageWithKeyboard(session.ChatID, sb.String(), keyboard)
}

// handleAdd puts one unit in the cart, incrementing an existing line for
// the same product. The reply is a toast, not a message, so repeated adds
// do not flood the chat.
func (h *CartHandler) handleAdd(session *domain.Session, callback *domain.CallbackEvent, productID string) error {
	cart := session.Cart
	product := findProduct(cart.Catalog, productID)
	if product == nil {
		return nil
	}

	if item := cart.Item(productID); item != nil {
		item.Quantity++
	} else {
		cart.Items = append(cart.Items, &domain.CartItem{
			ID:       product.ID,
			Name:     product.Name,
			Price:    product.Price,
			Quantity: 1,
			Color:    product.Color,
		})
	}
	h.sessionService.UpdateSession(session)

	return h.messenger.AnswerCallbackQuery(callback.CallbackID, MSG_ADDED_TO_CART, false)
}

// handleQuantity adjusts one cart line and re-renders the cart keyboard of
// the same message. Decrementing the last unit removes the line.
func (h *CartHandler) handleQuantity(session *domain.Session, callback *domain.CallbackEvent, productID string, delta int) error {
	cart := session.Cart
	item := cart.Item(productID)
	if item == nil {
		return nil
	}

	item.Quantity += delta
	if item.Quantity <= 0 {
		cart.Items = removeItem(cart.Items, productID)
	}
	h.sessionService.UpdateSession(session)

	if len(cart.Items) == 0 {
		return h.messenger.SendMessage(session.ChatID, MSG_CART_EMPTY)
	}
	return h.messenger.EditKeyboard(callback.ChatID, callback.MessageID, h.cartKeyboard(cart))
}

func (h *CartHandler) showCart(session *domain.Session) error {
	cart := session.Cart
	if len(cart.Items) == 0 {
		return h.messenger.SendMessage(session.ChatID, MSG_CART_EMPTY)
	}

	var sb strings.Builder
	sb.WriteString(MSG_CART_HEADER)
	for _, item := range cart.Items {
		sb.WriteString("\n" + cartLine(item))
	}
	sb.WriteString(fmt.Sprintf("\n\nРазом: %.0f грн", cart.Total()))

	return h.messenger.SendMessageWithKeyboard(session.ChatID, sb.String(), h.cartKeyboard(cart))
}

// cartKeyboard renders one −/label/+ row per line plus the checkout
// controls. Quantities live in the button text so an in-place keyboard
// edit is enough after inc/dec.
func (h *CartHandler) cartKeyboard(cart *domain.CartSession) *domain.Keyboard {
	var buttons [][]domain.Button
	for _, item := range cart.Items {
		buttons = append(buttons, []domain.Button{
			{Text: "➖", Data: "shop:dec:" + item.ID},
			{Text: fmt.Sprintf("%s ×%d", item.Name, item.Quantity), Data: "shop:prod:" + item.ID},
			{Text: "➕", Data: "shop:inc:" + item.ID},
		})
	}
	buttons = append(buttons,
		[]domain.Button{{Text: MSG_BTN_CHECKOUT, Data: "shop:checkout"}},
		[]domain.Button{
			{Text: MSG_BTN_CONTINUE, Data: "shop:cats"},
			{Text: MSG_BTN_CLOSE, Data: "shop:close"},
		},
	)
	return &domain.Keyboard{Inline: true, Buttons: buttons}
}

func (h *CartHandler) handleCheckout(session *domain.Session, callback *domain.CallbackEvent) error {
	cart := session.Cart
	if len(cart.Items) == 0 {
		return h.messenger.AnswerCallbackQuery(callback.CallbackID, MSG_CART_EMPTY, true)
	}

	cart.State = domain.CartCollectingName
	h.sessionService.UpdateSession(session)
	return h.messenger.SendMessage(session.ChatID, MSG_NAME_PROMPT)
}

func (h *CartHandler) sendOrderSummary(session *domain.Session) error {
	cart := session.Cart

	var sb strings.Builder
	sb.WriteString(MSG_ORDER_SUMMARY)
	for _, item := range cart.Items {
		sb.WriteString("\n" + cartLine(item))
	}
	sb.WriteString(fmt.Sprintf("\n\nРазом: %.0f грн", cart.Total()))
	sb.WriteString("\n👤 " + cart.CheckoutName)
	sb.WriteString("\n📞 " + cart.CheckoutPhone)

	keyboard := &domain.Keyboard{
		Inline: true,
		Buttons: [][]domain.Button{
			{{Text: MSG_CONFIRM, Data: "shop:confirm"}},
			{{Text: MSG_CANCEL, Data: "shop:cancelconfirm"}},
		},
	}
	return h.messenger.SendMessageWithKeyboard(session.ChatID, sb.String(), keyboard)
}

// handleConfirm places the order. A confirmation inside the debounce
// window is acknowledged but writes nothing; after a write attempt the
// cart is cleared whether the write succeeded or not, so a retry starts
// from an empty cart instead of double-ordering.
func (h *CartHandler) handleConfirm(session *domain.Session, callback *domain.CallbackEvent) error {
	cart := session.Cart
	if cart.State != domain.CartConfirmingOrder {
		return nil
	}

	now := h.now()
	if !cart.LastConfirmAt.IsZero() && now.Sub(cart.LastConfirmAt) < ORDER_DEBOUNCE_WINDOW {
		h.logger.WithError(domain.ErrDuplicateConfirmation).WithField("chat_id", session.ChatID).Debug("Повторне підтвердження проігноровано")
		return h.messenger.AnswerCallbackQuery(callback.CallbackID, MSG_ORDER_PROCESSING, false)
	}
	cart.LastConfirmAt = now
	h.sessionService.UpdateSession(session)

	h.messenger.SendTypingIndicator(session.ChatID)

	placedAt := now.Format(orderTimestampLayout)
	rows := make([]domain.OrderRow, 0, len(cart.Items))
	for _, item := range cart.Items {
		rows = append(rows, domain.OrderRow{
			ID:           uuid.NewString(),
			PlacedAt:     placedAt,
			ProductName:  item.Name,
			Color:        item.Color,
			Quantity:     item.Quantity,
			UnitPrice:    item.Price,
			CustomerName: cart.CheckoutName,
			Phone:        cart.CheckoutPhone,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), TIMEOUT_STORE_WRITE)
	defer cancel()
	err := h.catalogService.PlaceOrder(ctx, rows)

	h.sessionService.ClearCart(session.ChatID)

	if err != nil {
		return h.messenger.SendMessage(session.ChatID, MSG_ORDER_FAILED)
	}
	return h.messenger.SendMessage(session.ChatID, MSG_ORDER_PLACED)
}

// handleCancelConfirm abandons the checkout questions but keeps the cart.
func (h *CartHandler) handleCancelConfirm(session *domain.Session) error {
	cart := session.Cart
	cart.State = domain.CartViewing
	cart.CheckoutName = ""
	cart.CheckoutPhone = ""
	h.sessionService.UpdateSession(session)
	return h.showCart(session)
}

// handleClose leaves the shop; cart lines stay for the next /shop.
func (h *CartHandler) handleClose(session *domain.Session) error {
	session.Cart.State = domain.CartBrowsingCategories
	h.sessionService.UpdateSession(session)
	return h.messenger.SendMessage(session.ChatID, MSG_SHOP_CLOSED)
}

func categoriesOf(catalog []domain.Product) []string {
	var categories []string
	seen := make(map[string]bool)
	for _, product := range catalog {
		if product.Category == "" || seen[product.Category] {
			continue
		}
		seen[product.Category] = true
		categories = append(categories, product.Category)
	}
	return categories
}

func findProduct(catalog []domain.Product, id string) *domain.Product {
	for i := range catalog {
		if catalog[i].ID == id {
			return &catalog[i]
		}
	}
	return nil
}

func removeItem(items []*domain.CartItem, id string) []*domain.CartItem {
	for i, item := range items {
		if item.ID == id {
			return append(items[:i], items[i+1:]...)
		}
	}
	return items
}

func cartLine(item *domain.CartItem) string {
	name := item.Name
	if item.Color != "" {
		name += " (" + item.Color + ")"
	}
	return fmt.Sprintf("• %s ×%d — %.0f грн", name, item.Quantity, item.Price*float64(item.Quantity))
}
