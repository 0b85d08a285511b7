package handler

import (
	"errors"
	"testing"

	"registration-assistant/internal/domain"
	"registration-assistant/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUserID = int64(7)
	testChatID = int64(42)
)

func newRegistrationFixture(store *stubEventStore) (*RegistrationHandler, *services.SessionService, *capture) {
	c := &capture{}
	bus := newCaptureBus(c)
	sessions := services.NewSessionService()
	events := services.NewEventService(store, nopLogger{})

	h := NewRegistrationHandler(events, sessions, NewMessenger(bus), nopLogger{})
	return h, sessions, c
}

func upcomingEventStore() *stubEventStore {
	return &stubEventStore{
		events: []domain.Event{
			{ID: "1", Name: "Кубок міста", Date: "31.12.2099"},
		},
		columns:   []string{"ПІБ", "Вік [age_groups]", "Оплата [payment]"},
		ageGroups: []string{"U12", "U16"},
	}
}

func TestRegisterCommandListsUpcomingEvents(t *testing.T) {
	t.Parallel()

	store := upcomingEventStore()
	store.events = append(store.events, domain.Event{ID: "2", Name: "Минуле", Date: "01.01.2020"})
	h, _, c := newRegistrationFixture(store)

	require.NoError(t, h.HandleRegisterCommand(testChatID))

	msg := c.lastMessage()
	require.NotNil(t, msg)
	assert.Equal(t, MSG_CHOOSE_EVENT, msg.Text)
	require.NotNil(t, msg.Keyboard)
	assert.Equal(t, []string{"event:1"}, buttonData(msg.Keyboard))
}

func TestRegisterCommandNoEvents(t *testing.T) {
	t.Parallel()

	h, _, c := newRegistrationFixture(&stubEventStore{})

	require.NoError(t, h.HandleRegisterCommand(testChatID))
	assert.Equal(t, MSG_NO_EVENTS, c.lastMessage().Text)
}

func TestEventSelectedStartsWizard(t *testing.T) {
	t.Parallel()

	h, sessions, c := newRegistrationFixture(upcomingEventStore())

	require.NoError(t, h.HandleEventSelected(testUserID, testChatID, "1"))

	session := sessions.GetSession(testChatID)
	require.NotNil(t, session)
	require.NotNil(t, session.Registration)
	assert.Equal(t, "1", session.Registration.EventID)
	require.Len(t, session.Registration.Steps, 2)
	assert.Equal(t, 0, session.Registration.CurrentStep)

	// First prompt goes out immediately.
	assert.Equal(t, "ПІБ", c.lastMessage().Text)
}

func TestEventSelectedSchemaUnavailable(t *testing.T) {
	t.Parallel()

	store := upcomingEventStore()
	store.columnsErr = errors.New("read failed")
	h, sessions, c := newRegistrationFixture(store)

	require.NoError(t, h.HandleEventSelected(testUserID, testChatID, "1"))

	assert.Equal(t, MSG_TRY_LATER, c.lastMessage().Text)
	assert.Nil(t, sessions.GetSession(testChatID))
}

func TestNewEventSelectionOverwritesWizard(t *testing.T) {
	t.Parallel()

	store := upcomingEventStore()
	store.events = append(store.events, domain.Event{ID: "3", Name: "Інший кубок", Date: "30.12.2099"})
	h, sessions, _ := newRegistrationFixture(store)

	require.NoError(t, h.HandleEventSelected(testUserID, testChatID, "1"))
	session := sessions.GetSession(testChatID)
	require.NoError(t, h.HandleText(session, &domain.MessageEvent{ChatID: testChatID, Message: "Іван"}))

	require.NoError(t, h.HandleEventSelected(testUserID, testChatID, "3"))

	reg := sessions.GetSession(testChatID).Registration
	require.NotNil(t, reg)
	assert.Equal(t, "3", reg.EventID)
	assert.Equal(t, 0, reg.CurrentStep)
	assert.Empty(t, reg.Answers)
}

func TestFreeTextCommitsAndAdvances(t *testing.T) {
	t.Parallel()

	h, sessions, c := newRegistrationFixture(upcomingEventStore())
	require.NoError(t, h.HandleEventSelected(testUserID, testChatID, "1"))

	session := sessions.GetSession(testChatID)
	require.NoError(t, h.HandleText(session, &domain.MessageEvent{ChatID: testChatID, Message: "  Іван Петренко  "}))

	reg := session.Registration
	assert.Equal(t, 1, reg.CurrentStep)
	assert.Equal(t, "Іван Петренко", reg.Answers["ПІБ"].Joined())

	// Next step is the age group keyboard.
	msg := c.lastMessage()
	require.NotNil(t, msg.Keyboard)
	assert.Equal(t, []string{"reg:opt:U12", "reg:opt:U16"}, buttonData(msg.Keyboard))
}

func TestTextIgnoredDuringSelectStep(t *testing.T) {
	t.Parallel()

	h, sessions, c := newRegistrationFixture(upcomingEventStore())
	require.NoError(t, h.HandleEventSelected(testUserID, testChatID, "1"))
	session := sessions.GetSession(testChatID)
	require.NoError(t, h.HandleText(session, &domain.MessageEvent{ChatID: testChatID, Message: "Іван"}))

	sent := len(c.messages)
	require.NoError(t, h.HandleText(session, &domain.MessageEvent{ChatID: testChatID, Message: "U12"}))

	// Silent drop: no state change, no reply.
	assert.Equal(t, 1, session.Registration.CurrentStep)
	assert.Len(t, c.messages, sent)
}

func TestSingleSelectCommitsValue(t *testing.T) {
	t.Parallel()

	h, sessions, c := newRegistrationFixture(upcomingEventStore())
	require.NoError(t, h.HandleEventSelected(testUserID, testChatID, "1"))
	session := sessions.GetSession(testChatID)
	require.NoError(t, h.HandleText(session, &domain.MessageEvent{ChatID: testChatID, Message: "Іван"}))

	cb := &domain.CallbackEvent{ChatID: testChatID, MessageID: 10}
	require.NoError(t, h.HandleCallback(session, cb, "opt", "U16"))

	reg := session.Registration
	assert.True(t, reg.AwaitingConfirmation())
	assert.Equal(t, "U16", reg.Answers["Вік_[age_groups]"].Joined())
	assert.Contains(t, c.lastMessage().Text, MSG_SUMMARY_HEADER)
}

func multiSelectStore() *stubEventStore {
	return &stubEventStore{
		events:  []domain.Event{{ID: "1", Name: "Кубок", Date: "31.12.2099"}},
		columns: []string{"Тренери [coaches]"},
		coaches: []domain.Coach{
			{ID: "c1", Name: "Шевченко"},
			{ID: "c2", Name: "Коваль"},
		},
	}
}

func TestMultiSelectToggleAccumulates(t *testing.T) {
	t.Parallel()

	h, sessions, c := newRegistrationFixture(multiSelectStore())
	require.NoError(t, h.HandleEventSelected(testUserID, testChatID, "1"))
	session := sessions.GetSession(testChatID)

	cb := &domain.CallbackEvent{ChatID: testChatID, MessageID: 10}
	require.NoError(t, h.HandleCallback(session, cb, "toggle", "c1"))
	require.NoError(t, h.HandleCallback(session, cb, "toggle", "c2"))

	reg := session.Registration
	assert.Equal(t, 0, reg.CurrentStep)
	assert.Equal(t, []string{"Шевченко", "Коваль"}, reg.Answers["Тренери_[coaches]"].Values)

	// Each toggle edits the keyboard of the same message in place.
	require.Len(t, c.edits, 2)
	assert.Equal(t, 10, c.edits[1].MessageID)
	assert.Equal(t, MSG_CHECK_GLYPH+" Шевченко", c.edits[1].Keyboard.Buttons[0][0].Text)
	assert.Equal(t, MSG_CHECK_GLYPH+" Коваль", c.edits[1].Keyboard.Buttons[1][0].Text)
}

func TestMultiSelectToggleTwiceRemoves(t *testing.T) {
	t.Parallel()

	h, sessions, c := newRegistrationFixture(multiSelectStore())
	require.NoError(t, h.HandleEventSelected(testUserID, testChatID, "1"))
	session := sessions.GetSession(testChatID)

	cb := &domain.CallbackEvent{ChatID: testChatID, MessageID: 10}
	require.NoError(t, h.HandleCallback(session, cb, "toggle", "c1"))
	require.NoError(t, h.HandleCallback(session, cb, "toggle", "c1"))

	assert.Empty(t, session.Registration.Answers["Тренери_[coaches]"].Values)
	require.Len(t, c.edits, 2)
	assert.Equal(t, MSG_UNCHECK_GLYPH+" Шевченко", c.edits[1].Keyboard.Buttons[0][0].Text)
}

func TestMultiSelectDoneCommitsJoinedSet(t *testing.T) {
	t.Parallel()

	h, sessions, _ := newRegistrationFixture(multiSelectStore())
	require.NoError(t, h.HandleEventSelected(testUserID, testChatID, "1"))
	session := sessions.GetSession(testChatID)

	cb := &domain.CallbackEvent{ChatID: testChatID, MessageID: 10}
	require.NoError(t, h.HandleCallback(session, cb, "toggle", "c1"))
	require.NoError(t, h.HandleCallback(session, cb, "toggle", "c2"))
	require.NoError(t, h.HandleCallback(session, cb, "done", ""))

	reg := session.Registration
	assert.True(t, reg.AwaitingConfirmation())
	assert.Equal(t, "Шевченко, Коваль", reg.Answers["Тренери_[coaches]"].Joined())
}

func TestMultiSelectDoneWithEmptySetAllowed(t *testing.T) {
	t.Parallel()

	h, sessions, _ := newRegistrationFixture(multiSelectStore())
	require.NoError(t, h.HandleEventSelected(testUserID, testChatID, "1"))
	session := sessions.GetSession(testChatID)

	cb := &domain.CallbackEvent{ChatID: testChatID, MessageID: 10}
	require.NoError(t, h.HandleCallback(session, cb, "done", ""))

	reg := session.Registration
	assert.True(t, reg.AwaitingConfirmation())
	assert.Equal(t, "", reg.Answers["Тренери_[coaches]"].Joined())
}

func TestMultiSelectDoneTwiceIsIdempotent(t *testing.T) {
	t.Parallel()

	h, sessions, c := newRegistrationFixture(multiSelectStore())
	require.NoError(t, h.HandleEventSelected(testUserID, testChatID, "1"))
	session := sessions.GetSession(testChatID)

	cb := &domain.CallbackEvent{ChatID: testChatID, MessageID: 10}
	require.NoError(t, h.HandleCallback(session, cb, "done", ""))
	sent := len(c.messages)

	// A stale Done from the already-answered keyboard changes nothing.
	require.NoError(t, h.HandleCallback(session, cb, "done", ""))
	assert.Equal(t, len(session.Registration.Steps), session.Registration.CurrentStep)
	assert.Len(t, c.messages, sent)
}

func TestConfirmSubmitsAndClearsWizard(t *testing.T) {
	t.Parallel()

	store := upcomingEventStore()
	h, sessions, c := newRegistrationFixture(store)
	require.NoError(t, h.HandleEventSelected(testUserID, testChatID, "1"))
	session := sessions.GetSession(testChatID)
	require.NoError(t, h.HandleText(session, &domain.MessageEvent{ChatID: testChatID, Message: "Іван"}))

	cb := &domain.CallbackEvent{ChatID: testChatID, MessageID: 10}
	require.NoError(t, h.HandleCallback(session, cb, "opt", "U12"))
	require.NoError(t, h.HandleCallback(session, cb, "confirm", ""))

	require.Len(t, store.saved, 1)
	rec := store.saved[0]
	assert.Equal(t, "1", rec.EventID)
	assert.Equal(t, "Іван", rec.Values["ПІБ"])
	assert.Equal(t, "U12", rec.Values["Вік_[age_groups]"])

	assert.Nil(t, sessions.GetSession(testChatID).Registration)
	assert.Equal(t, MSG_REG_SAVED, c.lastMessage().Text)
}

func TestConfirmFailureRetainsWizard(t *testing.T) {
	t.Parallel()

	store := upcomingEventStore()
	store.saveErr = errors.New("write failed")
	h, sessions, c := newRegistrationFixture(store)
	require.NoError(t, h.HandleEventSelected(testUserID, testChatID, "1"))
	session := sessions.GetSession(testChatID)
	require.NoError(t, h.HandleText(session, &domain.MessageEvent{ChatID: testChatID, Message: "Іван"}))

	cb := &domain.CallbackEvent{ChatID: testChatID, MessageID: 10}
	require.NoError(t, h.HandleCallback(session, cb, "opt", "U12"))
	require.NoError(t, h.HandleCallback(session, cb, "confirm", ""))

	assert.Equal(t, MSG_REG_FAILED, c.lastMessage().Text)
	require.NotNil(t, sessions.GetSession(testChatID).Registration)

	// The store recovers; the same confirm now goes through.
	store.saveErr = nil
	require.NoError(t, h.HandleCallback(session, cb, "confirm", ""))

	require.Len(t, store.saved, 1)
	assert.Nil(t, sessions.GetSession(testChatID).Registration)
	assert.Equal(t, MSG_REG_SAVED, c.lastMessage().Text)
}

func TestCancelDropsWizard(t *testing.T) {
	t.Parallel()

	h, sessions, c := newRegistrationFixture(upcomingEventStore())
	require.NoError(t, h.HandleEventSelected(testUserID, testChatID, "1"))
	session := sessions.GetSession(testChatID)

	cb := &domain.CallbackEvent{ChatID: testChatID, MessageID: 10}
	require.NoError(t, h.HandleCallback(session, cb, "cancel", ""))

	assert.Nil(t, sessions.GetSession(testChatID).Registration)
	assert.Equal(t, MSG_REG_CANCELLED, c.lastMessage().Text)
}

func TestRestartResetsAnswers(t *testing.T) {
	t.Parallel()

	h, sessions, c := newRegistrationFixture(upcomingEventStore())
	require.NoError(t, h.HandleEventSelected(testUserID, testChatID, "1"))
	session := sessions.GetSession(testChatID)
	require.NoError(t, h.HandleText(session, &domain.MessageEvent{ChatID: testChatID, Message: "Іван"}))

	cb := &domain.CallbackEvent{ChatID: testChatID, MessageID: 10}
	require.NoError(t, h.HandleCallback(session, cb, "restart", ""))

	reg := session.Registration
	assert.Equal(t, 0, reg.CurrentStep)
	assert.Empty(t, reg.Answers)
	assert.Equal(t, "ПІБ", c.lastMessage().Text)
}

func TestTextWithoutWizardIsDropped(t *testing.T) {
	t.Parallel()

	h, _, c := newRegistrationFixture(upcomingEventStore())

	require.NoError(t, h.HandleText(nil, &domain.MessageEvent{ChatID: testChatID, Message: "привіт"}))
	assert.Empty(t, c.messages)
}
