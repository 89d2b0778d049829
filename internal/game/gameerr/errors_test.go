package gameerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfUnwraps(t *testing.T) {
	base := New(PreconditionFailed, "slot occupied")
	wrapped := fmt.Errorf("equip: %w", base)
	assert.Equal(t, PreconditionFailed, KindOf(wrapped))
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("plain error")))
}

func TestUserVisible(t *testing.T) {
	assert.True(t, PreconditionFailed.UserVisible())
	assert.True(t, AuthFailed.UserVisible())
	assert.False(t, ContentLoad.UserVisible())
	assert.False(t, Internal.UserVisible())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(StorageCorrupt, "saving character", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, StorageCorrupt, KindOf(err))
}
