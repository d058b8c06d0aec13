// Package errors provides the categorized error taxonomy for the indexing
// pipeline. Missing references and invariant-violating input are non-fatal:
// the affected computation is skipped and ingestion continues. Store failures
// are fatal and propagate to the ingestion boundary.
package errors

import (
	"errors"
	"fmt"
)

// Category classifies an indexing error by how the pipeline must react
type Category string

const (
	// CategoryMissingReference marks an absent Market/Token/Account reference;
	// log a warning, skip the dependent computation, continue
	CategoryMissingReference Category = "missing_reference"
	// CategoryInvariant marks invariant-violating input local to one event;
	// the affected sub-update is skipped, independent updates still apply
	CategoryInvariant Category = "invariant"
	// CategoryStore marks a persistence-layer failure; fatal, surfaced to the
	// caller, retryable from the ingestion boundary
	CategoryStore Category = "store"
	// CategoryProvider marks a price/decimals provider failure
	CategoryProvider Category = "provider"
)

// IndexingError is an error with a pipeline reaction category
type IndexingError struct {
	Category Category
	Code     string
	Message  string
	Details  map[string]interface{}
	Cause    error
}

func (e *IndexingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *IndexingError) Unwrap() error {
	return e.Cause
}

// NewMissingMarketError reports a market id that could not be resolved
func NewMissingMarketError(marketID string) *IndexingError {
	return &IndexingError{
		Category: CategoryMissingReference,
		Code:     "MISSING_MARKET",
		Message:  fmt.Sprintf("market not found: %s", marketID),
		Details:  map[string]interface{}{"marketId": marketID},
	}
}

// NewMissingCollateralClassError reports an unmapped collateral class
func NewMissingCollateralClassError(class string) *IndexingError {
	return &IndexingError{
		Category: CategoryMissingReference,
		Code:     "MISSING_COLLATERAL_CLASS",
		Message:  fmt.Sprintf("collateral class not mapped to a market: %s", class),
		Details:  map[string]interface{}{"collateralClass": class},
	}
}

// NewInvariantError reports invariant-violating input for one event
func NewInvariantError(code, message string, details map[string]interface{}) *IndexingError {
	return &IndexingError{
		Category: CategoryInvariant,
		Code:     code,
		Message:  message,
		Details:  details,
	}
}

// NewStoreError wraps a persistence-layer failure
func NewStoreError(operation string, cause error) *IndexingError {
	return &IndexingError{
		Category: CategoryStore,
		Code:     "STORE_ERROR",
		Message:  fmt.Sprintf("store error during %s", operation),
		Details:  map[string]interface{}{"operation": operation},
		Cause:    cause,
	}
}

// NewProviderError wraps a price/decimals provider failure
func NewProviderError(provider string, cause error) *IndexingError {
	return &IndexingError{
		Category: CategoryProvider,
		Code:     "PROVIDER_ERROR",
		Message:  fmt.Sprintf("provider error: %s", provider),
		Details:  map[string]interface{}{"provider": provider},
		Cause:    cause,
	}
}

// CategoryOf returns the category of err, or CategoryStore for uncategorized
// errors so unknown failures fail loud rather than being silently skipped
func CategoryOf(err error) Category {
	var ie *IndexingError
	if errors.As(err, &ie) {
		return ie.Category
	}
	return CategoryStore
}

// IsFatal reports whether err must halt processing of the event stream
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	c := CategoryOf(err)
	return c == CategoryStore
}

// IsRetryable reports whether re-applying the same event may succeed
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch CategoryOf(err) {
	case CategoryStore, CategoryProvider:
		return true
	}
	return false
}
