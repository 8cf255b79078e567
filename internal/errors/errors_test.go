package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilder(t *testing.T) {
	t.Parallel()

	base := stderrors.New("device activation failed")
	err := New(base).
		Component("capture").
		Category(CategoryDevice).
		Context("operation", "init_device").
		Build()

	assert.Equal(t, "device activation failed", err.Error())
	assert.Equal(t, "capture", err.Component)
	assert.Equal(t, string(CategoryDevice), err.GetCategory())
	assert.Equal(t, "init_device", err.GetContext()["operation"])
	require.ErrorIs(t, err, base)
}

func TestErrorBuilderNilBase(t *testing.T) {
	t.Parallel()

	err := New(nil).
		Component("audiocore").
		Category(CategoryState).
		Context("error", "engine already capturing").
		Build()

	assert.Equal(t, "engine already capturing", err.Error())
	assert.Equal(t, "audiocore", err.Component)
}

func TestErrorBuilderDefaults(t *testing.T) {
	t.Parallel()

	err := New(nil).Build()
	assert.Equal(t, ComponentUnknown, err.Component)
	assert.Equal(t, string(CategoryGeneric), err.GetCategory())
	assert.NotEmpty(t, err.Error())
}

func TestEnhancedErrorIsMatchesCategory(t *testing.T) {
	t.Parallel()

	a := New(nil).Category(CategoryValidation).Context("error", "bad format").Build()
	b := New(nil).Category(CategoryValidation).Context("error", "bad channels").Build()
	c := New(nil).Category(CategoryDevice).Context("error", "no device").Build()

	assert.ErrorIs(t, a, b)
	assert.NotErrorIs(t, a, c)
}

func TestLogAttrsIncludesContext(t *testing.T) {
	t.Parallel()

	err := New(nil).
		Component("capture").
		Category(CategoryResource).
		Context("queue_depth", 8).
		Build()

	attrs := err.LogAttrs()
	assert.Contains(t, attrs, "component")
	assert.Contains(t, attrs, "capture")
	assert.Contains(t, attrs, "queue_depth")
}
