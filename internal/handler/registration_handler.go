package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"registration-assistant/internal/domain"
	"registration-assistant/internal/services"
)

// RegistrationHandler drives the step wizard: event selection, one prompt
// per resolved step, the multi-select accumulator, and the final
// confirm/cancel/restart stage.
type RegistrationHandler struct {
	eventService   *services.EventService
	sessionService *services.SessionService
	messenger      *Messenger
	logger         domain.Logger
}

// NewRegistrationHandler creates a new registration handler instance
func NewRegistrationHandler(
	eventService *services.EventService,
	sessionService *services.SessionService,
	messenger *Messenger,
	logger domain.Logger,
) *RegistrationHandler {
	return &RegistrationHandler{
		eventService:   eventService,
		sessionService: sessionService,
		messenger:      messenger,
		logger:         logger,
	}
}

// HandleEventsCommand sends the plain upcoming-events listing.
func (h *RegistrationHandler) HandleEventsCommand(chatID int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), TIMEOUT_STORE_READ)
	defer cancel()

	events, err := h.eventService.UpcomingEvents(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoItems) {
			return h.messenger.SendMessage(chatID, MSG_NO_EVENTS)
		}
		return h.messenger.SendMessage(chatID, MSG_TRY_LATER)
	}

	var sb strings.Builder
	sb.WriteString(MSG_EVENTS_HEADER)
	for _, event := range events {
		sb.WriteString(fmt.Sprintf("\n%s — %s (%s)", event.ID, event.Name, event.Date))
		if event.Info != "" {
			sb.WriteString("\n" + event.Info)
		}
	}
	return h.messenger.SendMessage(chatID, sb.String())
}

// HandleRegisterCommand sends the event selection keyboard.
func (h *RegistrationHandler) HandleRegisterCommand(chatID int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), TIMEOUT_STORE_READ)
	defer cancel()

	events, err := h.eventService.UpcomingEvents(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoItems) {
			return h.messenger.SendMessage(chatID, MSG_NO_EVENTS)
		}
		return h.messenger.SendMessage(chatID, MSG_TRY_LATER)
	}

	var buttons [][]domain.Button
	for _, event := range events {
		buttons = append(buttons, []domain.Button{
			{Text: fmt.Sprintf("%s (%s)", event.Name, event.Date), Data: "event:" + event.ID},
		})
	}

	keyboard := &domain.Keyboard{Inline: true, Buttons: buttons}
	return h.messenger.SendMessageWithKeyboard(chatID, MSG_CHOOSE_EVENT, keyboard)
}

// HandleEventSelected builds a fresh wizard session for the chosen event.
// An in-progress wizard is overwritten wholesale: last selection wins.
func (h *RegistrationHandler) HandleEventSelected(userID, chatID int64, eventID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), TIMEOUT_STORE_READ)
	defer cancel()

	event, err := h.eventService.EventByID(ctx, eventID)
	if err != nil || event == nil {
		h.logger.WithError(err).WithField("event_id", eventID).Warn("Вибрана подія не знайшлась")
		return h.messenger.SendMessage(chatID, MSG_TRY_LATER)
	}

	steps, err := h.eventService.ResolveSteps(ctx, event)
	if err != nil {
		// No session is created when the schema is unavailable.
		return h.messenger.SendMessage(chatID, MSG_TRY_LATER)
	}

	reg := &domain.RegistrationSession{
		EventID:   event.ID,
		EventName: event.Name,
		Steps:     steps,
		Answers:   make(map[string]*domain.Answer),
	}
	session := h.sessionService.StartRegistration(userID, chatID, reg)

	return h.sendStepPrompt(session.ChatID, reg)
}

// HandleText commits free-text input into the current step. Text that
// arrives with no wizard, past the last step, or while a selection is
// pending is silently ignored: no state change, no reply.
func (h *RegistrationHandler) HandleText(session *domain.Session, msg *domain.MessageEvent) error {
	if session == nil || session.Registration == nil {
		return nil
	}
	reg := session.Registration
	if reg.AwaitingConfirmation() {
		return nil
	}

	step := reg.Steps[reg.CurrentStep]
	if step.Kind != domain.StepFreeText {
		return nil
	}

	text := strings.TrimSpace(msg.Message)
	if text == "" {
		return nil
	}

	reg.Answers[step.Key] = &domain.Answer{Text: text}
	return h.advance(session)
}

// HandleCallback routes reg:* callback data for the current session.
func (h *RegistrationHandler) HandleCallback(session *domain.Session, callback *domain.CallbackEvent, action, arg string) error {
	if session == nil || session.Registration == nil {
		return nil
	}

	switch action {
	case "opt":
		return h.handleOptionSelected(session, arg)
	case "toggle":
		return h.handleToggle(session, callback, arg)
	case "done":
		return h.handleMultiDone(session)
	case "confirm":
		return h.handleConfirm(session)
	case "cancel":
		return h.handleCancel(session)
	case "restart":
		return h.handleRestart(session)
	default:
		return nil
	}
}

// handleOptionSelected commits a single-select answer. Callbacks that do
// not match the current step's shape are dropped.
func (h *RegistrationHandler) handleOptionSelected(session *domain.Session, value string) error {
	reg := session.Registration
	if reg.AwaitingConfirmation() {
		return nil
	}

	step := reg.Steps[reg.CurrentStep]
	if step.Kind != domain.StepSingleSelect {
		return nil
	}

	option := findOption(step.Options, value)
	if option == nil {
		return nil
	}

	reg.Answers[step.Key] = &domain.Answer{Text: option.Value}
	return h.advance(session)
}

// handleToggle flips one option of the multi-select set and re-renders the
// keyboard of the same message in place.
func (h *RegistrationHandler) handleToggle(session *domain.Session, callback *domain.CallbackEvent, value string) error {
	reg := session.Registration
	if reg.AwaitingConfirmation() {
		return nil
	}

	step := reg.Steps[reg.CurrentStep]
	if step.Kind != domain.StepMultiSelect {
		return nil
	}

	option := findOption(step.Options, value)
	if option == nil {
		return nil
	}

	answer := reg.Answers[step.Key]
	if answer == nil {
		answer = &domain.Answer{Multi: true}
		reg.Answers[step.Key] = answer
	}
	answer.Values = toggleLabel(answer.Values, option.Label)
	h.sessionService.UpdateSession(session)

	return h.messenger.EditKeyboard(
		callback.ChatID,
		callback.MessageID,
		h.multiSelectKeyboard(step, answer.Values),
	)
}

// handleMultiDone freezes the accumulated set, empty included, and
// proceeds as a normal step advance.
func (h *RegistrationHandler) handleMultiDone(session *domain.Session) error {
	reg := session.Registration
	if reg.AwaitingConfirmation() {
		return nil
	}

	step := reg.Steps[reg.CurrentStep]
	if step.Kind != domain.StepMultiSelect {
		return nil
	}

	if reg.Answers[step.Key] == nil {
		reg.Answers[step.Key] = &domain.Answer{Multi: true}
	}
	return h.advance(session)
}

func (h *RegistrationHandler) handleConfirm(session *domain.Session) error {
	reg := session.Registration
	if !reg.AwaitingConfirmation() {
		return nil
	}

	h.messenger.SendTypingIndicator(session.ChatID)

	record := buildRecord(reg)

	ctx, cancel := context.WithTimeout(context.Background(), TIMEOUT_STORE_WRITE)
	defer cancel()

	if err := h.eventService.Submit(ctx, record); err != nil {
		// The session stays at the confirmation stage so the user can
		// retry without re-answering.
		return h.messenger.SendMessage(session.ChatID, MSG_REG_FAILED)
	}

	h.sessionService.ClearRegistration(session.ChatID)
	return h.messenger.SendMessage(session.ChatID, MSG_REG_SAVED)
}

func (h *RegistrationHandler) handleCancel(session *domain.Session) error {
	h.sessionService.ClearRegistration(session.ChatID)
	return h.messenger.SendMessage(session.ChatID, MSG_REG_CANCELLED)
}

func (h *RegistrationHandler) handleRestart(session *domain.Session) error {
	reg := session.Registration
	reg.CurrentStep = 0
	reg.Answers = make(map[string]*domain.Answer)
	h.sessionService.UpdateSession(session)

	return h.sendStepPrompt(session.ChatID, reg)
}

// advance moves the wizard forward by exactly one step; running off the
// end parks the session at the confirmation stage.
func (h *RegistrationHandler) advance(session *domain.Session) error {
	reg := session.Registration
	reg.CurrentStep++
	h.sessionService.UpdateSession(session)

	if reg.AwaitingConfirmation() {
		return h.sendSummary(session.ChatID, reg)
	}
	return h.sendStepPrompt(session.ChatID, reg)
}

func (h *RegistrationHandler) sendStepPrompt(chatID int64, reg *domain.RegistrationSession) error {
	step := reg.Steps[reg.CurrentStep]

	switch step.Kind {
	case domain.StepSingleSelect:
		var buttons [][]domain.Button
		for _, option := range step.Options {
			buttons = append(buttons, []domain.Button{
				{Text: option.Label, Data: "reg:opt:" + option.Value},
			})
		}
		keyboard := &domain.Keyboard{Inline: true, Buttons: buttons}
		return h.messenger.SendMessageWithKeyboard(chatID, step.Prompt, keyboard)

	case domain.StepMultiSelect:
		var selected []string
		if answer := reg.Answers[step.Key]; answer != nil {
			selected = answer.Values
		}
		return h.messenger.SendMessageWithKeyboard(chatID, step.Prompt, h.multiSelectKeyboard(step, selected))

	default:
		return h.messenger.SendMessage(chatID, step.Prompt)
	}
}

// sendSummary renders the collected answers in step-definition order with
// the confirm/cancel/restart controls.
func (h *RegistrationHandler) sendSummary(chatID int64, reg *domain.RegistrationSession) error {
	var sb strings.Builder
	sb.WriteString(MSG_SUMMARY_HEADER)
	sb.WriteString("\n\n🏆 " + reg.EventName)
	for _, step := range reg.Steps {
		sb.WriteString(fmt.Sprintf("\n%s: %s", step.Prompt, reg.Answers[step.Key].Joined()))
	}

	keyboard := &domain.Keyboard{
		Inline: true,
		Buttons: [][]domain.Button{
			{{Text: MSG_CONFIRM, Data: "reg:confirm"}},
			{{Text: MSG_RESTART, Data: "reg:restart"}},
			{{Text: MSG_CANCEL, Data: "reg:cancel"}},
		},
	}
	return h.messenger.SendMessageWithKeyboard(chatID, sb.String(), keyboard)
}

func (h *RegistrationHandler) multiSelectKeyboard(step domain.StepDefinition, selected []string) *domain.Keyboard {
	var buttons [][]domain.Button
	for _, option := range step.Options {
		glyph := MSG_UNCHECK_GLYPH
		if containsLabel(selected, option.Label) {
			glyph = MSG_CHECK_GLYPH
		}
		buttons = append(buttons, []domain.Button{
			{Text: glyph + " " + option.Label, Data: "reg:toggle:" + option.Value},
		})
	}
	buttons = append(buttons, []domain.Button{{Text: MSG_MULTI_DONE, Data: "reg:done"}})

	return &domain.Keyboard{Inline: true, Buttons: buttons}
}

// buildRecord merges event identity with the answers, coercing multi
// values to their comma-joined form.
func buildRecord(reg *domain.RegistrationSession) *domain.RegistrationRecord {
	values := make(map[string]string, len(reg.Steps))
	for _, step := range reg.Steps {
		values[step.Key] = reg.Answers[step.Key].Joined()
	}

	return &domain.RegistrationRecord{
		EventID:   reg.EventID,
		EventName: reg.EventName,
		Steps:     reg.Steps,
		Values:    values,
	}
}

func findOption(options []domain.Option, value string) *domain.Option {
	for i := range options {
		if options[i].Value == value {
			return &options[i]
		}
	}
	return nil
}

func toggleLabel(values []string, label string) []string {
	for i, v := range values {
		if v == label {
			return append(values[:i], values[i+1:]...)
		}
	}
	return append(values, label)
}

func containsLabel(values []string, label string) bool {
	for _, v := range values {
		if v == label {
			return true
		}
	}
	return false
}
