package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"registration-assistant/internal/domain"
	"registration-assistant/internal/schema"
)

// Sheet dates come in as "DD.MM.YYYY", optionally with a time part.
const (
	sheetDateLayout     = "02.01.2006"
	sheetDateTimeLayout = "02.01.2006 15:04:05"
)

type EventService struct {
	store  domain.EventStore
	logger domain.Logger
	now    func() time.Time
}

// NewEventService creates a new event service instance
func NewEventService(store domain.EventStore, logger domain.Logger) *EventService {
	return &EventService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// UpcomingEvents lists events whose date is in the future and whose
// registration deadline, when present, has not passed. An empty result is
// reported as domain.ErrNoItems so callers can abort before any prompt.
func (s *EventService) UpcomingEvents(ctx context.Context) ([]domain.Event, error) {
	events, err := s.store.FetchEvents(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Не вдалося отримати список подій")
		return nil, fmt.Errorf("отримання подій: %w", err)
	}

	now := s.now()
	upcoming := make([]domain.Event, 0, len(events))
	for _, event := range events {
		date, err := ParseSheetDate(event.Date)
		if err != nil {
			s.logger.WithField("event_id", event.ID).WithField("date", event.Date).
				Warn("Подія з нечитабельною датою пропущена")
			continue
		}
		if !date.After(now) {
			continue
		}
		if event.Deadline != "" {
			deadline, err := ParseSheetDate(event.Deadline)
			if err != nil || deadline.Before(now) {
				continue
			}
		}
		upcoming = append(upcoming, event)
	}

	if len(upcoming) == 0 {
		return nil, domain.ErrNoItems
	}
	return upcoming, nil
}

// EventByID loads one event row from the backing sheet.
func (s *EventService) EventByID(ctx context.Context, id string) (*domain.Event, error) {
	event, err := s.store.FetchEventByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("отримання події %s: %w", id, err)
	}
	return event, nil
}

// ResolveSteps builds the wizard step list for an event from its sheet
// columns plus the event-scoped age group and coach lists. A missing or
// empty schema is domain.ErrSchemaUnavailable: the wizard must not start.
func (s *EventService) ResolveSteps(ctx context.Context, event *domain.Event) ([]domain.StepDefinition, error) {
	columns, err := s.store.FetchEventColumns(ctx, event)
	if err != nil {
		s.logger.WithError(err).WithField("event", event.Name).Error("Не вдалося отримати колонки події")
		return nil, domain.ErrSchemaUnavailable
	}
	if len(columns) == 0 {
		return nil, domain.ErrSchemaUnavailable
	}

	var ageGroups []string
	var coaches []domain.Coach
	if containsTag(columns, schema.TagAgeGroups) {
		if ageGroups, err = s.store.FetchAgeGroups(ctx, event.ID); err != nil {
			s.logger.WithError(err).WithField("event_id", event.ID).Error("Не вдалося отримати вікові категорії")
			return nil, domain.ErrSchemaUnavailable
		}
	}
	if containsTag(columns, schema.TagCoaches) {
		if coaches, err = s.store.FetchCoaches(ctx, event.ID); err != nil {
			s.logger.WithError(err).WithField("event_id", event.ID).Error("Не вдалося отримати тренерів")
			return nil, domain.ErrSchemaUnavailable
		}
	}

	steps, err := schema.Resolve(columns, ageGroups, coaches)
	if err != nil {
		s.logger.WithError(err).WithField("event", event.Name).Error("Схема події не розібралась")
		return nil, domain.ErrSchemaUnavailable
	}
	if len(steps) == 0 {
		return nil, domain.ErrSchemaUnavailable
	}
	return steps, nil
}

// Submit hands a completed registration to the backing store.
func (s *EventService) Submit(ctx context.Context, rec *domain.RegistrationRecord) error {
	if err := s.store.SaveRegistration(ctx, rec); err != nil {
		s.logger.WithError(err).WithField("event_id", rec.EventID).Error("Запис реєстрації не зберігся")
		return fmt.Errorf("збереження реєстрації: %w", err)
	}

	s.logger.WithFields(map[string]any{
		"event_id": rec.EventID,
		"fields":   len(rec.Values),
	}).Success("Реєстрацію збережено")
	return nil
}

// ParseSheetDate parses "DD.MM.YYYY" with an optional "HH:MM:SS" part.
func ParseSheetDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("порожня дата")
	}
	if strings.Contains(raw, " ") {
		return time.ParseInLocation(sheetDateTimeLayout, raw, time.Local)
	}
	return time.ParseInLocation(sheetDateLayout, raw, time.Local)
}

func containsTag(columns []string, tag string) bool {
	for _, column := range columns {
		if strings.Contains(column, tag) {
			return true
		}
	}
	return false
}
