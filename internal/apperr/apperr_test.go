package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesKind(t *testing.T) {
	err := Validation("accounts.Create", "name is required")
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrConflict)

	wrapped := fmt.Errorf("handler: %w", err)
	assert.ErrorIs(t, wrapped, ErrValidation)
	assert.Equal(t, KindValidation, KindOf(wrapped))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestErrorMessage(t *testing.T) {
	err := Conflict("accounts.Delete", "account %s has %d entries", "a1", 3)
	assert.Equal(t, "accounts.Delete: account a1 has 3 entries", err.Error())

	cause := errors.New("disk full")
	w := Wrap(KindConflict, "ledger.RecordTransfer", cause, "transfer rolled back")
	assert.Equal(t, "ledger.RecordTransfer: transfer rolled back: disk full", w.Error())
	assert.ErrorIs(t, w, cause)
	assert.ErrorIs(t, w, ErrConflict)
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(KindNotFound, "op", nil, "ignored"))
}
