package handler

import (
	"context"

	"registration-assistant/internal/domain"

	"github.com/gookit/event"
)

// capture records every outbound effect fired on the bus during a test.
type capture struct {
	messages []*domain.MessageResponse
	photos   []*domain.PhotoResponse
	edits    []*domain.KeyboardEdit
	toasts   []string
	typing   int
}

func newCaptureBus(c *capture) *event.Manager {
	bus := event.NewManager("test")

	bus.On("telegram.send.message", event.ListenerFunc(func(e event.Event) error {
		c.messages = append(c.messages, e.Get("response").(*domain.MessageResponse))
		return nil
	}))
	bus.On("telegram.send.photo", event.ListenerFunc(func(e event.Event) error {
		c.photos = append(c.photos, e.Get("response").(*domain.PhotoResponse))
		return nil
	}))
	bus.On("telegram.edit.keyboard", event.ListenerFunc(func(e event.Event) error {
		c.edits = append(c.edits, e.Get("edit").(*domain.KeyboardEdit))
		return nil
	}))
	bus.On("telegram.send.typing", event.ListenerFunc(func(e event.Event) error {
		c.typing++
		return nil
	}))
	bus.On("telegram.answer.callback", event.ListenerFunc(func(e event.Event) error {
		text, _ := e.Get("text").(string)
		c.toasts = append(c.toasts, text)
		return nil
	}))

	return bus
}

func (c *capture) lastMessage() *domain.MessageResponse {
	if len(c.messages) == 0 {
		return nil
	}
	return c.messages[len(c.messages)-1]
}

// buttonData flattens the keyboard into its callback payloads.
func buttonData(k *domain.Keyboard) []string {
	var data []string
	for _, row := range k.Buttons {
		for _, btn := range row {
			data = append(data, btn.Data)
		}
	}
	return data
}

type stubEventStore struct {
	events     []domain.Event
	columns    []string
	columnsErr error
	ageGroups  []string
	coaches    []domain.Coach
	saved      []*domain.RegistrationRecord
	saveErr    error
}

func (s *stubEventStore) FetchEvents(ctx context.Context) ([]domain.Event, error) {
	return s.events, nil
}

func (s *stubEventStore) FetchEventByID(ctx context.Context, id string) (*domain.Event, error) {
	for i := range s.events {
		if s.events[i].ID == id {
			return &s.events[i], nil
		}
	}
	return nil, nil
}

func (s *stubEventStore) FetchEventColumns(ctx context.Context, event *domain.Event) ([]string, error) {
	return s.columns, s.columnsErr
}

func (s *stubEventStore) FetchAgeGroups(ctx context.Context, eventID string) ([]string, error) {
	return s.ageGroups, nil
}

func (s *stubEventStore) FetchCoaches(ctx context.Context, eventID string) ([]domain.Coach, error) {
	return s.coaches, nil
}

func (s *stubEventStore) SaveRegistration(ctx context.Context, rec *domain.RegistrationRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, rec)
	return nil
}

type stubShopStore struct {
	catalog  []domain.Product
	banners  map[string]string
	orders   [][]domain.OrderRow
	saveErr  error
	fetchErr error
}

func (s *stubShopStore) FetchCatalog(ctx context.Context) ([]domain.Product, error) {
	return s.catalog, s.fetchErr
}

func (s *stubShopStore) FetchCategoryBanners(ctx context.Context) (map[string]string, error) {
	return s.banners, nil
}

func (s *stubShopStore) SaveOrderRows(ctx context.Context, rows []domain.OrderRow) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.orders = append(s.orders, rows)
	return nil
}

// nopLogger keeps test output quiet.
type nopLogger struct{}

func (nopLogger) WithField(string, any) domain.Logger  { return nopLogger{} }
func (nopLogger) WithFields(map[string]any) domain.Logger { return nopLogger{} }
func (nopLogger) WithError(error) domain.Logger        { return nopLogger{} }
func (nopLogger) Print(...any)                         {}
func (nopLogger) Debug(...any)                         {}
func (nopLogger) Info(...any)                          {}
func (nopLogger) Warn(...any)                          {}
func (nopLogger) Error(...any)                         {}
func (nopLogger) Fatal(...any)                         {}
func (nopLogger) Panic(...any)                         {}
func (nopLogger) Printf(string, ...any)                {}
func (nopLogger) Debugf(string, ...any)                {}
func (nopLogger) Infof(string, ...any)                 {}
func (nopLogger) Warnf(string, ...any)                 {}
func (nopLogger) Errorf(string, ...any)                {}
func (nopLogger) Fatalf(string, ...any)                {}
func (nopLogger) Panicf(string, ...any)                {}
func (nopLogger) Success(string)                       {}
func (nopLogger) Failure(string)                       {}
