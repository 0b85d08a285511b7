package schema

import (
	"testing"

	"registration-assistant/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFiltersPaymentColumns(t *testing.T) {
	t.Parallel()

	columns := []string{"ПІБ", "Вік [age_groups]", "Оплата [payment]"}
	steps, err := Resolve(columns, []string{"U12", "U16"}, nil)
	require.NoError(t, err)

	require.Len(t, steps, 2)
	assert.Equal(t, "ПІБ", steps[0].Prompt)
	assert.Equal(t, domain.StepFreeText, steps[0].Kind)
	assert.Equal(t, "Вік", steps[1].Prompt)
	assert.Equal(t, domain.StepSingleSelect, steps[1].Kind)
	require.Len(t, steps[1].Options, 2)
	assert.Equal(t, "U12", steps[1].Options[0].Label)
	assert.Equal(t, "U16", steps[1].Options[1].Label)
}

func TestResolveKeepsFilteredInputOrder(t *testing.T) {
	t.Parallel()

	columns := []string{"A", "B [payment]", "C", "D [gender]", "E"}
	steps, err := Resolve(columns, nil, nil)
	require.NoError(t, err)

	var prompts []string
	for _, s := range steps {
		prompts = append(prompts, s.Prompt)
	}
	assert.Equal(t, []string{"A", "C", "D", "E"}, prompts)
}

func TestResolveTagPriorityIsFixed(t *testing.T) {
	t.Parallel()

	// A column carrying both tags resolves by the higher-priority one.
	steps, err := Resolve([]string{"Стать [gender] [boolean]"}, nil, nil)
	require.NoError(t, err)

	require.Len(t, steps, 1)
	assert.Equal(t, domain.StepSingleSelect, steps[0].Kind)
	assert.Equal(t, genderOptions, steps[0].Options)

	steps, err = Resolve([]string{"Вік [boolean] [age_groups]"}, []string{"U10"}, nil)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	require.Len(t, steps[0].Options, 1)
	assert.Equal(t, "U10", steps[0].Options[0].Label)
}

func TestResolveCoachesBecomeMultiSelect(t *testing.T) {
	t.Parallel()

	coaches := []domain.Coach{{ID: "7", Name: "Іваненко"}, {ID: "9", Name: "Петренко"}}
	steps, err := Resolve([]string{"Тренер [coaches]"}, nil, coaches)
	require.NoError(t, err)

	require.Len(t, steps, 1)
	assert.Equal(t, domain.StepMultiSelect, steps[0].Kind)
	require.Len(t, steps[0].Options, 2)
	assert.Equal(t, "Іваненко", steps[0].Options[0].Label)
	assert.Equal(t, "7", steps[0].Options[0].Value)
}

func TestResolveBooleanSentinelValues(t *testing.T) {
	t.Parallel()

	steps, err := Resolve([]string{"Потрібен трансфер [boolean]"}, nil, nil)
	require.NoError(t, err)

	require.Len(t, steps, 1)
	assert.Equal(t, BooleanTrueValue, steps[0].Options[0].Value)
	assert.Equal(t, BooleanFalseValue, steps[0].Options[1].Value)
}

func TestResolveConditionalIsInertMetadata(t *testing.T) {
	t.Parallel()

	steps, err := Resolve([]string{"Розряд [conditional]"}, nil, nil)
	require.NoError(t, err)

	require.Len(t, steps, 1)
	assert.True(t, steps[0].Conditional)
	assert.Equal(t, domain.StepFreeText, steps[0].Kind)
	assert.Equal(t, "Розряд", steps[0].Prompt)
}

func TestResolveRejectsDuplicateKeys(t *testing.T) {
	t.Parallel()

	_, err := Resolve([]string{"Ім'я  учасника", "Ім'я учасника"}, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateStepKey)
}

func TestKeyCollapsesWhitespace(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Вік_[age_groups]", Key("Вік [age_groups]"))
	assert.Equal(t, "Повне_ім'я", Key("  Повне   ім'я "))
}

func TestPaymentColumn(t *testing.T) {
	t.Parallel()

	col, ok := PaymentColumn([]string{"ПІБ", "Оплата [payment]"})
	assert.True(t, ok)
	assert.Equal(t, "Оплата [payment]", col)

	_, ok = PaymentColumn([]string{"ПІБ"})
	assert.False(t, ok)
}
