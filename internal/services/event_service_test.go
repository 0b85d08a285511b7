package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"registration-assistant/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventStore struct {
	events     []domain.Event
	fetchErr   error
	columns    []string
	columnsErr error
	ageGroups  []string
	coaches    []domain.Coach
}

func (f *fakeEventStore) FetchEvents(ctx context.Context) ([]domain.Event, error) {
	return f.events, f.fetchErr
}

func (f *fakeEventStore) FetchEventByID(ctx context.Context, id string) (*domain.Event, error) {
	for i := range f.events {
		if f.events[i].ID == id {
			return &f.events[i], nil
		}
	}
	return nil, nil
}

func (f *fakeEventStore) FetchEventColumns(ctx context.Context, event *domain.Event) ([]string, error) {
	return f.columns, f.columnsErr
}

func (f *fakeEventStore) FetchAgeGroups(ctx context.Context, eventID string) ([]string, error) {
	return f.ageGroups, nil
}

func (f *fakeEventStore) FetchCoaches(ctx context.Context, eventID string) ([]domain.Coach, error) {
	return f.coaches, nil
}

func (f *fakeEventStore) SaveRegistration(ctx context.Context, rec *domain.RegistrationRecord) error {
	return nil
}

type quietLogger struct{}

func (quietLogger) WithField(string, any) domain.Logger     { return quietLogger{} }
func (quietLogger) WithFields(map[string]any) domain.Logger { return quietLogger{} }
func (quietLogger) WithError(error) domain.Logger           { return quietLogger{} }
func (quietLogger) Print(...any)                            {}
func (quietLogger) Debug(...any)                            {}
func (quietLogger) Info(...any)                             {}
func (quietLogger) Warn(...any)                             {}
func (quietLogger) Error(...any)                            {}
func (quietLogger) Fatal(...any)                            {}
func (quietLogger) Panic(...any)                            {}
func (quietLogger) Printf(string, ...any)                   {}
func (quietLogger) Debugf(string, ...any)                   {}
func (quietLogger) Infof(string, ...any)                    {}
func (quietLogger) Warnf(string, ...any)                    {}
func (quietLogger) Errorf(string, ...any)                   {}
func (quietLogger) Fatalf(string, ...any)                   {}
func (quietLogger) Panicf(string, ...any)                   {}
func (quietLogger) Success(string)                          {}
func (quietLogger) Failure(string)                          {}

func fixedTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("02.01.2006 15:04:05", value, time.Local)
	require.NoError(t, err)
	return ts
}

func TestUpcomingEventsFiltersByDateAndDeadline(t *testing.T) {
	t.Parallel()

	store := &fakeEventStore{events: []domain.Event{
		{ID: "1", Name: "Минуле", Date: "01.05.2026"},
		{ID: "2", Name: "Майбутнє", Date: "01.07.2026"},
		{ID: "3", Name: "Дедлайн минув", Date: "01.08.2026", Deadline: "20.05.2026"},
		{ID: "4", Name: "Дедлайн відкритий", Date: "01.08.2026", Deadline: "20.07.2026"},
		{ID: "5", Name: "Зламана дата", Date: "колись"},
	}}

	s := NewEventService(store, quietLogger{})
	s.now = func() time.Time { return fixedTime(t, "01.06.2026 12:00:00") }

	events, err := s.UpcomingEvents(context.Background())
	require.NoError(t, err)

	var ids []string
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"2", "4"}, ids)
}

func TestUpcomingEventsEmptyIsNoItems(t *testing.T) {
	t.Parallel()

	store := &fakeEventStore{events: []domain.Event{
		{ID: "1", Date: "01.01.2020"},
	}}
	s := NewEventService(store, quietLogger{})

	_, err := s.UpcomingEvents(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoItems)
}

func TestResolveStepsFetchesReferenceSheetsOnDemand(t *testing.T) {
	t.Parallel()

	store := &fakeEventStore{
		columns:   []string{"ПІБ", "Вік [age_groups]", "Тренер [coaches]"},
		ageGroups: []string{"U12"},
		coaches:   []domain.Coach{{ID: "c1", Name: "Шевченко"}},
	}
	s := NewEventService(store, quietLogger{})

	steps, err := s.ResolveSteps(context.Background(), &domain.Event{ID: "1", Name: "Кубок"})
	require.NoError(t, err)

	require.Len(t, steps, 3)
	assert.Equal(t, domain.StepFreeText, steps[0].Kind)
	assert.Equal(t, domain.StepSingleSelect, steps[1].Kind)
	assert.Equal(t, domain.StepMultiSelect, steps[2].Kind)
	assert.Equal(t, "Шевченко", steps[2].Options[0].Label)
}

func TestResolveStepsUnreadableSchema(t *testing.T) {
	t.Parallel()

	s := NewEventService(&fakeEventStore{columnsErr: errors.New("read failed")}, quietLogger{})
	_, err := s.ResolveSteps(context.Background(), &domain.Event{ID: "1"})
	assert.ErrorIs(t, err, domain.ErrSchemaUnavailable)

	s = NewEventService(&fakeEventStore{columns: nil}, quietLogger{})
	_, err = s.ResolveSteps(context.Background(), &domain.Event{ID: "1"})
	assert.ErrorIs(t, err, domain.ErrSchemaUnavailable)
}

func TestResolveStepsPaymentOnlySchemaUnavailable(t *testing.T) {
	t.Parallel()

	s := NewEventService(&fakeEventStore{columns: []string{"Оплата [payment]"}}, quietLogger{})
	_, err := s.ResolveSteps(context.Background(), &domain.Event{ID: "1"})
	assert.ErrorIs(t, err, domain.ErrSchemaUnavailable)
}

func TestParseSheetDate(t *testing.T) {
	t.Parallel()

	date, err := ParseSheetDate("12.10.2026")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.Local), date)

	dateTime, err := ParseSheetDate(" 12.10.2026 18:30:00 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 12, 18, 30, 0, 0, time.Local), dateTime)

	_, err = ParseSheetDate("")
	assert.Error(t, err)

	_, err = ParseSheetDate("2026-10-12")
	assert.Error(t, err)
}
