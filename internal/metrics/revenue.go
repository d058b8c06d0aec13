package metrics

import (
	"github.com/shopspring/decimal"

	"github.com/lending-indexer/internal/models"
	"github.com/lending-indexer/internal/types"
)

// ProtocolSideRevenue derives the protocol-retained share of one event's
// revenue: total minus what is paid out to capital suppliers
func ProtocolSideRevenue(totalUSD, supplySideUSD decimal.Decimal) decimal.Decimal {
	return totalUSD.Sub(supplySideUSD)
}

// AccrueProtocolRevenue folds one event's revenue into the protocol's
// cumulative counters. The protocol-side total is recomputed as cumulative
// total minus cumulative supply-side (never summed independently, so the
// decomposition identity holds exactly); the per-source counter is an
// informational breakdown on top.
func AccrueProtocolRevenue(p *models.Protocol, totalUSD, supplySideUSD decimal.Decimal, source types.RevenueSource) {
	if totalUSD.IsPositive() {
		p.CumulativeTotalRevenueUSD = p.CumulativeTotalRevenueUSD.Add(totalUSD)
	}
	if supplySideUSD.IsPositive() {
		p.CumulativeSupplySideRevenueUSD = p.CumulativeSupplySideRevenueUSD.Add(supplySideUSD)
	}
	// always recomputed so the decomposition identity holds at every save
	p.CumulativeProtocolSideRevenueUSD = p.CumulativeTotalRevenueUSD.Sub(p.CumulativeSupplySideRevenueUSD)

	protocolSide := ProtocolSideRevenue(totalUSD, supplySideUSD)
	if !protocolSide.IsPositive() {
		return
	}
	switch source {
	case types.RevenueSourceStabilityFee:
		p.CumulativeStabilityFeeRevenueUSD = p.CumulativeStabilityFeeRevenueUSD.Add(protocolSide)
	case types.RevenueSourceLiquidation:
		p.CumulativeLiquidationRevenueUSD = p.CumulativeLiquidationRevenueUSD.Add(protocolSide)
	case types.RevenueSourceStabilizationModule:
		p.CumulativeStabilizationRevenueUSD = p.CumulativeStabilizationRevenueUSD.Add(protocolSide)
	}
}

// AccrueDailyRevenue folds one event's revenue into a financials snapshot's
// period-local counters, with the same derived protocol-side identity at
// daily granularity
func AccrueDailyRevenue(s *models.FinancialsSnapshot, totalUSD, supplySideUSD decimal.Decimal, source types.RevenueSource) {
	if totalUSD.IsPositive() {
		s.DailyTotalRevenueUSD = s.DailyTotalRevenueUSD.Add(totalUSD)
	}
	if supplySideUSD.IsPositive() {
		s.DailySupplySideRevenueUSD = s.DailySupplySideRevenueUSD.Add(supplySideUSD)
	}
	s.DailyProtocolSideRevenueUSD = s.DailyTotalRevenueUSD.Sub(s.DailySupplySideRevenueUSD)

	protocolSide := ProtocolSideRevenue(totalUSD, supplySideUSD)
	if !protocolSide.IsPositive() {
		return
	}
	switch source {
	case types.RevenueSourceStabilityFee:
		s.DailyStabilityFeeRevenueUSD = s.DailyStabilityFeeRevenueUSD.Add(protocolSide)
	case types.RevenueSourceLiquidation:
		s.DailyLiquidationRevenueUSD = s.DailyLiquidationRevenueUSD.Add(protocolSide)
	case types.RevenueSourceStabilizationModule:
		s.DailyStabilizationRevenueUSD = s.DailyStabilizationRevenueUSD.Add(protocolSide)
	}
}
