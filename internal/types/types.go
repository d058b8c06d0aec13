// Package types provides common type definitions for the lending indexer system.
package types

// EventType classifies a protocol event by the state change it causes
type EventType string

const (
	// EventDeposit represents collateral added to a market
	EventDeposit EventType = "deposit"
	// EventWithdraw represents collateral removed from a market
	EventWithdraw EventType = "withdraw"
	// EventBorrow represents debt drawn against a market
	EventBorrow EventType = "borrow"
	// EventRepay represents debt paid back to a market
	EventRepay EventType = "repay"
	// EventLiquidate represents a collateral seizure
	EventLiquidate EventType = "liquidate"
	// EventPriceUpdate represents an oracle price refresh for a market's input token
	EventPriceUpdate EventType = "price_update"
)

// Granularity identifies the time bucket width of a snapshot or activity marker
type Granularity string

const (
	// GranularityDaily represents UTC-day buckets
	GranularityDaily Granularity = "daily"
	// GranularityHourly represents hourly buckets (globally unique across days)
	GranularityHourly Granularity = "hourly"
)

// RevenueSource identifies which protocol mechanism produced protocol-side revenue.
// Per-source counters are informational breakdowns; the protocol-side total is
// always derived as total minus supply-side, never as the sum of sources.
type RevenueSource int

const (
	// RevenueSourceStabilityFee is interest charged on outstanding debt
	RevenueSourceStabilityFee RevenueSource = iota
	// RevenueSourceLiquidation is penalty income from collateral auctions
	RevenueSourceLiquidation
	// RevenueSourceStabilizationModule is swap-fee income from the peg stabilization module
	RevenueSourceStabilizationModule
)

// String returns the human-readable name of the revenue source
func (s RevenueSource) String() string {
	switch s {
	case RevenueSourceStabilityFee:
		return "stability_fee"
	case RevenueSourceLiquidation:
		return "liquidation"
	case RevenueSourceStabilizationModule:
		return "stabilization_module"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the closed set of revenue sources
func (s RevenueSource) Valid() bool {
	switch s {
	case RevenueSourceStabilityFee, RevenueSourceLiquidation, RevenueSourceStabilizationModule:
		return true
	}
	return false
}

// ChainID represents supported blockchain networks
type ChainID string

const (
	// ChainEthereum represents the Ethereum mainnet
	ChainEthereum ChainID = "ethereum"
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
