package services

import (
	"testing"

	"registration-assistant/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateSessionReusesExisting(t *testing.T) {
	t.Parallel()

	s := NewSessionService()
	first := s.GetOrCreateSession(7, 42)
	second := s.GetOrCreateSession(7, 42)

	assert.Same(t, first, second)
}

func TestStartRegistrationOverwritesInProgressWizard(t *testing.T) {
	t.Parallel()

	s := NewSessionService()
	s.StartRegistration(7, 42, &domain.RegistrationSession{
		EventID:     "1",
		CurrentStep: 2,
		Answers:     map[string]*domain.Answer{"ПІБ": {Text: "Іван"}},
	})

	session := s.StartRegistration(7, 42, &domain.RegistrationSession{
		EventID: "2",
		Answers: map[string]*domain.Answer{},
	})

	require.NotNil(t, session.Registration)
	assert.Equal(t, "2", session.Registration.EventID)
	assert.Equal(t, 0, session.Registration.CurrentStep)
	assert.Empty(t, session.Registration.Answers)
}

func TestClearRegistrationKeepsCart(t *testing.T) {
	t.Parallel()

	s := NewSessionService()
	session := s.StartRegistration(7, 42, &domain.RegistrationSession{EventID: "1"})
	session.Cart = &domain.CartSession{Items: []*domain.CartItem{{ID: "p1", Quantity: 1}}}
	s.UpdateSession(session)

	s.ClearRegistration(42)

	got := s.GetSession(42)
	assert.Nil(t, got.Registration)
	require.NotNil(t, got.Cart)
	assert.Len(t, got.Cart.Items, 1)
}

func TestClearCartKeepsRegistration(t *testing.T) {
	t.Parallel()

	s := NewSessionService()
	session := s.StartRegistration(7, 42, &domain.RegistrationSession{EventID: "1"})
	session.Cart = &domain.CartSession{}
	s.UpdateSession(session)

	s.ClearCart(42)

	got := s.GetSession(42)
	assert.Nil(t, got.Cart)
	assert.NotNil(t, got.Registration)
}

func TestSessionsAreKeyedByChat(t *testing.T) {
	t.Parallel()

	s := NewSessionService()
	s.StartRegistration(7, 42, &domain.RegistrationSession{EventID: "1"})
	s.StartRegistration(7, 43, &domain.RegistrationSession{EventID: "2"})

	assert.Equal(t, "1", s.GetSession(42).Registration.EventID)
	assert.Equal(t, "2", s.GetSession(43).Registration.EventID)

	s.DeleteSession(42)
	assert.Nil(t, s.GetSession(42))
	assert.NotNil(t, s.GetSession(43))
}
