package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesOutermostCode(t *testing.T) {
	err := Wrap(errors.New("connection refused"), CodeInternal, "failed to load member")

	assert.True(t, Is(err, CodeInternal))
	assert.False(t, Is(err, CodeNotFound))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHasCodeWalksNestedDomainErrors(t *testing.T) {
	inner := New(CodeNotFound, "member not found")
	outer := Wrap(fmt.Errorf("lookup: %w", inner), CodeInternal, "adjudication failed")

	assert.True(t, HasCode(outer, CodeInternal))
	assert.True(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(outer, CodeConflict))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestWrapPreservesCauseForErrorsIs(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, CodeTimeout, "judge timed out")

	assert.ErrorIs(t, err, cause)
}
