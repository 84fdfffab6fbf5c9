package common

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator(t *testing.T) {
	err := NewValidator().
		Field("checklist_id", "CL-0001", Required, ChecklistID).
		Field("sr_no", 12, IntRange(1, 88)).
		Field("value", "23°C", MaxLength(4)).
		Err()
	assert.NoError(t, err)

	err = NewValidator().
		Field("checklist_id", " ", Required).
		Field("sr_no", 89, IntRange(1, 88)).
		Field("value", strings.Repeat("x", 5), MaxLength(4)).
		Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, CodeValidation, Code(err))
	for _, field := range []string{"checklist_id", "sr_no", "value"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestChecklistIDRule(t *testing.T) {
	for _, ok := range []string{"CL-0001", "line3.night_2", "7"} {
		assert.Nil(t, ChecklistID("id", ok), ok)
	}
	for _, bad := range []string{"", "-CL", "../etc", "a b", strings.Repeat("a", 65)} {
		assert.NotNil(t, ChecklistID("id", bad), bad)
	}
	assert.NotNil(t, ChecklistID("id", 42))
}

func TestAppErrorHelpers(t *testing.T) {
	nf := NotFoundf("form %s", "CL-0001")
	assert.True(t, errors.Is(nf, ErrNotFound))
	assert.Equal(t, CodeNotFound, Code(nf))
	assert.Equal(t, CodeTimeout, Code(TimeoutError("slow")))
	assert.Empty(t, Code(errors.New("plain")))
}

func TestContextHelpers(t *testing.T) {
	ctx := WithChecklistID(WithRequestID(context.Background(), "req-1"), "CL-0001")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "CL-0001", ChecklistIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))

	c, cancel := WithTimeout(context.Background(), 0)
	defer cancel()
	_, hasDeadline := c.Deadline()
	assert.False(t, hasDeadline)

	c2, cancel2 := WithTimeout(context.Background(), time.Minute)
	defer cancel2()
	_, hasDeadline = c2.Deadline()
	assert.True(t, hasDeadline)
}
