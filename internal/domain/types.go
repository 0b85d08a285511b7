package domain

import "time"

// Inbound transport events
type MessageEvent struct {
	UserID  int64
	ChatID  int64
	Message string
}

type CommandEvent struct {
	UserID  int64
	ChatID  int64
	Command string
}

type CallbackEvent struct {
	UserID     int64
	ChatID     int64
	MessageID  int
	CallbackID string
	Data       string
}

// Outbound effects
type MessageResponse struct {
	ChatID   int64
	Text     string
	Keyboard *Keyboard
}

type PhotoResponse struct {
	ChatID   int64
	ImageRef string
	Caption  string
	Keyboard *Keyboard
}

type KeyboardEdit struct {
	ChatID    int64
	MessageID int
	Keyboard  *Keyboard
}

type Keyboard struct {
	Inline  bool
	Buttons [][]Button
}

type Button struct {
	Text string
	Data string
}

// StepKind is resolved once at schema-resolution time and never
// re-inspected textually downstream.
type StepKind int

const (
	StepFreeText StepKind = iota
	StepSingleSelect
	StepMultiSelect
)

// Option is one selectable answer of a select step. Value is what travels
// in callback data, Label is what the user sees and what gets stored.
type Option struct {
	Label string
	Value string
}

// StepDefinition is immutable once generated for a session.
type StepDefinition struct {
	Title       string
	Key         string
	Prompt      string
	Kind        StepKind
	Options     []Option
	Conditional bool
}

// Answer holds a committed step value: a scalar for free-text and
// single-select steps, an ordered set for multi-select steps.
type Answer struct {
	Text   string
	Values []string
	Multi  bool
}

// Joined returns the storable form of the answer, multi values joined
// with ", ".
func (a *Answer) Joined() string {
	if a == nil {
		return ""
	}
	if !a.Multi {
		return a.Text
	}
	out := ""
	for i, v := range a.Values {
		if i > 0 {
			out += ", "
		}
		out += v
	}
	return out
}

// Event is one row of the competitions sheet.
type Event struct {
	ID          string
	Name        string
	Date        string
	Deadline    string
	PaymentInfo string
	Info        string
}

type Coach struct {
	ID   string
	Name string
}

// RegistrationSession exists only while a wizard is in progress.
// CurrentStep == len(Steps) means the session awaits confirmation.
type RegistrationSession struct {
	EventID     string
	EventName   string
	Steps       []StepDefinition
	CurrentStep int
	Answers     map[string]*Answer
}

// AwaitingConfirmation reports whether every step has been answered and the
// session is parked at the confirm/cancel/restart prompt.
func (r *RegistrationSession) AwaitingConfirmation() bool {
	return r.CurrentStep >= len(r.Steps)
}

// RegistrationRecord is the submission handed to the storage boundary.
// Values are keyed by step key and already coerced to scalars.
type RegistrationRecord struct {
	EventID         string
	EventName       string
	Steps           []StepDefinition
	Values          map[string]string
	PaymentDateTime string
}

// Product is one row of the shop catalog sheet.
type Product struct {
	ID          string
	Name        string
	Category    string
	Description string
	Color       string
	Price       float64
	Stock       int
	ImageRef    string
}

// CartItem is one line of a cart, keyed by product id.
type CartItem struct {
	ID       string
	Name     string
	Price    float64
	Quantity int
	Color    string
}

// CartState names the stage of the shop conversation.
type CartState int

const (
	CartBrowsingCategories CartState = iota
	CartBrowsingProducts
	CartViewingProduct
	CartViewing
	CartCollectingName
	CartCollectingPhone
	CartConfirmingOrder
)

// CartSession carries the shop conversation. Catalog and Banners are the
// snapshot taken at conversation entry and are not refreshed mid-session.
type CartSession struct {
	State         CartState
	Items         []*CartItem
	Category      string
	ProductID     string
	CheckoutName  string
	CheckoutPhone string
	LastConfirmAt time.Time
	Catalog       []Product
	Banners       map[string]string
}

// Total recomputes the cart total from the remaining lines.
func (c *CartSession) Total() float64 {
	var total float64
	for _, it := range c.Items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// Item returns the cart line for a product id, or nil.
func (c *CartSession) Item(id string) *CartItem {
	for _, it := range c.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// OrderRow is one persisted line of a confirmed order.
type OrderRow struct {
	ID           string
	PlacedAt     string
	ProductName  string
	Color        string
	Quantity     int
	UnitPrice    float64
	CustomerName string
	Phone        string
}

// Notification is one row of the notifications sheet, broadcast once when
// its send time is due.
type Notification struct {
	ID           string
	Message      string
	SendDateTime string
}

// Session is the per-chat tagged union: at most one registration wizard and
// one cart conversation at a time. Either arm may be nil.
type Session struct {
	UserID       int64
	ChatID       int64
	Registration *RegistrationSession
	Cart         *CartSession
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
