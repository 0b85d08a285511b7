package domain

import "errors"

var (
	// ErrSchemaUnavailable means the event schema could not be loaded or
	// resolved to no steps; the wizard must not start.
	ErrSchemaUnavailable = errors.New("схема події недоступна")

	// ErrNoItems means a filtered event or catalog listing came back empty.
	ErrNoItems = errors.New("немає доступних позицій")

	// ErrDuplicateConfirmation is returned when a confirm lands inside the
	// debounce window of the previous one.
	ErrDuplicateConfirmation = errors.New("замовлення вже обробляється")

	// ErrDuplicateStepKey marks a schema whose columns normalize to
	// colliding answer keys.
	ErrDuplicateStepKey = errors.New("дубльований ключ кроку в схемі")
)
