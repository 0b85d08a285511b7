// Package schema turns raw spreadsheet column labels into the typed step
// definitions the registration wizard walks through. Column labels carry
// bracketed tags ("Вік [age_groups]") that decide the step kind; resolution
// happens once per session, downstream code never re-inspects titles.
package schema

import (
	"fmt"
	"regexp"
	"strings"

	"registration-assistant/internal/domain"
)

const (
	TagAgeGroups   = "[age_groups]"
	TagCoaches     = "[coaches]"
	TagGender      = "[gender]"
	TagBoolean     = "[boolean]"
	TagConditional = "[conditional]"
	TagPayment     = "[payment]"
)

const (
	BooleanTrueValue  = "boolean_true"
	BooleanFalseValue = "boolean_false"
)

var genderOptions = []domain.Option{
	{Label: "Хлопець", Value: "Хлопець"},
	{Label: "Дівчина", Value: "Дівчина"},
}

var booleanOptions = []domain.Option{
	{Label: "Так", Value: BooleanTrueValue},
	{Label: "Ні", Value: BooleanFalseValue},
}

var tagPattern = regexp.MustCompile(`\[[^\[\]]*\]`)
var spacePattern = regexp.MustCompile(`\s+`)

// Resolve maps raw column labels to an ordered step list. Columns tagged
// [payment] are excluded entirely, the rest keep their input order. Tags are
// inspected in a fixed priority order and the first match wins; a column
// with no recognized tag becomes a free-text step.
func Resolve(rawColumns []string, ageGroups []string, coaches []domain.Coach) ([]domain.StepDefinition, error) {
	steps := make([]domain.StepDefinition, 0, len(rawColumns))
	seen := make(map[string]struct{}, len(rawColumns))

	for _, column := range rawColumns {
		if strings.Contains(column, TagPayment) {
			continue
		}

		step := domain.StepDefinition{
			Title:       column,
			Key:         Key(column),
			Prompt:      StripTags(column),
			Conditional: strings.Contains(column, TagConditional),
		}

		switch {
		case strings.Contains(column, TagAgeGroups):
			step.Kind = domain.StepSingleSelect
			step.Options = labelOptions(ageGroups)
		case strings.Contains(column, TagCoaches):
			step.Kind = domain.StepMultiSelect
			step.Options = coachOptions(coaches)
		case strings.Contains(column, TagGender):
			step.Kind = domain.StepSingleSelect
			step.Options = genderOptions
		case strings.Contains(column, TagBoolean):
			step.Kind = domain.StepSingleSelect
			step.Options = booleanOptions
		default:
			step.Kind = domain.StepFreeText
		}

		if _, dup := seen[step.Key]; dup {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateStepKey, step.Key)
		}
		seen[step.Key] = struct{}{}

		steps = append(steps, step)
	}

	return steps, nil
}

// Key derives the answer-map key from a raw column label: whitespace runs
// collapse to a single underscore. Deterministic, so the same column always
// maps to the same key.
func Key(title string) string {
	return spacePattern.ReplaceAllString(strings.TrimSpace(title), "_")
}

// StripTags removes every bracketed tag from a column label and tidies the
// leftover whitespace, producing the human-readable prompt.
func StripTags(title string) string {
	stripped := tagPattern.ReplaceAllString(title, "")
	return strings.TrimSpace(spacePattern.ReplaceAllString(stripped, " "))
}

// PaymentColumn returns the first [payment]-tagged header, if any. The step
// list never contains it; the submission writer fills it out-of-band.
func PaymentColumn(rawColumns []string) (string, bool) {
	for _, column := range rawColumns {
		if strings.Contains(column, TagPayment) {
			return column, true
		}
	}
	return "", false
}

func labelOptions(labels []string) []domain.Option {
	options := make([]domain.Option, 0, len(labels))
	for _, label := range labels {
		options = append(options, domain.Option{Label: label, Value: label})
	}
	return options
}

func coachOptions(coaches []domain.Coach) []domain.Option {
	options := make([]domain.Option, 0, len(coaches))
	for _, coach := range coaches {
		options = append(options, domain.Option{Label: coach.Name, Value: coach.ID})
	}
	return options
}
