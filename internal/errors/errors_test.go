package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryMissingReference, CategoryOf(NewMissingMarketError("ETH-A")))
	assert.Equal(t, CategoryMissingReference, CategoryOf(NewMissingCollateralClassError("ETH-A")))
	assert.Equal(t, CategoryInvariant, CategoryOf(NewInvariantError("NEGATIVE_AMOUNT", "negative", nil)))
	assert.Equal(t, CategoryStore, CategoryOf(NewStoreError("save", errors.New("down"))))
	assert.Equal(t, CategoryProvider, CategoryOf(NewProviderError("erc20", errors.New("revert"))))

	assert.Equal(t, CategoryStore, CategoryOf(errors.New("anything")),
		"uncategorized errors fail loud")
}

func TestCategoryOfWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("while applying event: %w", NewMissingMarketError("ETH-A"))
	assert.Equal(t, CategoryMissingReference, CategoryOf(wrapped))
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(NewMissingMarketError("ETH-A")))
	assert.False(t, IsFatal(NewInvariantError("X", "x", nil)))
	assert.True(t, IsFatal(NewStoreError("save", errors.New("down"))))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(NewMissingMarketError("ETH-A")))
	assert.True(t, IsRetryable(NewStoreError("save", errors.New("down"))))
	assert.True(t, IsRetryable(NewProviderError("erc20", errors.New("timeout"))))
}

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewStoreError("save market", cause)

	assert.Contains(t, err.Error(), "STORE_ERROR")
	assert.Contains(t, err.Error(), "connection reset")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "save market", err.Details["operation"])
}
