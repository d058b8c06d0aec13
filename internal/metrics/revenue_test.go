package metrics

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/lending-indexer/internal/models"
	"github.com/lending-indexer/internal/types"
)

func TestProtocolSideRevenue(t *testing.T) {
	got := ProtocolSideRevenue(decimal.NewFromInt(10), decimal.NewFromInt(4))
	assertDecimal(t, "6", got)

	got = ProtocolSideRevenue(decimal.Zero, decimal.NewFromInt(4))
	assertDecimal(t, "-4", got, "supply-only events derive a negative protocol-side share")
}

func TestAccrueProtocolRevenueAttribution(t *testing.T) {
	tests := []struct {
		name   string
		source types.RevenueSource
		check  func(t *testing.T, p *models.Protocol)
	}{
		{
			name:   "stability fee",
			source: types.RevenueSourceStabilityFee,
			check: func(t *testing.T, p *models.Protocol) {
				assertDecimal(t, "6", p.CumulativeStabilityFeeRevenueUSD)
			},
		},
		{
			name:   "liquidation penalty",
			source: types.RevenueSourceLiquidation,
			check: func(t *testing.T, p *models.Protocol) {
				assertDecimal(t, "6", p.CumulativeLiquidationRevenueUSD)
			},
		},
		{
			name:   "stabilization module",
			source: types.RevenueSourceStabilizationModule,
			check: func(t *testing.T, p *models.Protocol) {
				assertDecimal(t, "6", p.CumulativeStabilizationRevenueUSD)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.Protocol{}
			AccrueProtocolRevenue(p, decimal.NewFromInt(10), decimal.NewFromInt(4), tt.source)

			assertDecimal(t, "10", p.CumulativeTotalRevenueUSD)
			assertDecimal(t, "4", p.CumulativeSupplySideRevenueUSD)
			assertDecimal(t, "6", p.CumulativeProtocolSideRevenueUSD)
			tt.check(t, p)
		})
	}
}

func TestAccrueProtocolRevenueSupplyOnly(t *testing.T) {
	p := &models.Protocol{}
	AccrueProtocolRevenue(p, decimal.NewFromInt(10), decimal.Zero, types.RevenueSourceStabilityFee)
	AccrueProtocolRevenue(p, decimal.Zero, decimal.NewFromInt(4), types.RevenueSourceStabilityFee)

	assertDecimal(t, "6", p.CumulativeProtocolSideRevenueUSD)
	assertDecimal(t, "10", p.CumulativeStabilityFeeRevenueUSD,
		"a non-positive protocol-side share is never attributed to a source")
}

func TestAccrueDailyRevenue(t *testing.T) {
	s := &models.FinancialsSnapshot{}
	AccrueDailyRevenue(s, decimal.NewFromInt(10), decimal.NewFromInt(4), types.RevenueSourceLiquidation)
	AccrueDailyRevenue(s, decimal.NewFromInt(3), decimal.Zero, types.RevenueSourceStabilityFee)

	assertDecimal(t, "13", s.DailyTotalRevenueUSD)
	assertDecimal(t, "4", s.DailySupplySideRevenueUSD)
	assertDecimal(t, "9", s.DailyProtocolSideRevenueUSD)
	assertDecimal(t, "6", s.DailyLiquidationRevenueUSD)
	assertDecimal(t, "3", s.DailyStabilityFeeRevenueUSD)
}

func TestRevenueDecompositionProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// cents, so amounts stay exact under decimal arithmetic
	amountGen := gen.SliceOf(gen.IntRange(0, 1_000_000))
	sourceGen := gen.IntRange(0, 2)

	properties.Property("cumulative protocol-side always equals total minus supply-side", prop.ForAll(
		func(totals []int, supplies []int, source int) bool {
			p := &models.Protocol{}
			n := len(totals)
			if len(supplies) < n {
				n = len(supplies)
			}
			for i := 0; i < n; i++ {
				AccrueProtocolRevenue(p,
					decimal.New(int64(totals[i]), -2),
					decimal.New(int64(supplies[i]), -2),
					types.RevenueSource(source),
				)
			}
			return p.CumulativeProtocolSideRevenueUSD.Equal(
				p.CumulativeTotalRevenueUSD.Sub(p.CumulativeSupplySideRevenueUSD))
		},
		amountGen, amountGen, sourceGen,
	))

	properties.Property("cumulative counters never decrease", prop.ForAll(
		func(totals []int, supplies []int) bool {
			p := &models.Protocol{}
			prevTotal := decimal.Zero
			prevSupply := decimal.Zero
			n := len(totals)
			if len(supplies) < n {
				n = len(supplies)
			}
			for i := 0; i < n; i++ {
				AccrueProtocolRevenue(p,
					decimal.New(int64(totals[i]), -2),
					decimal.New(int64(supplies[i]), -2),
					types.RevenueSourceStabilityFee,
				)
				if p.CumulativeTotalRevenueUSD.LessThan(prevTotal) ||
					p.CumulativeSupplySideRevenueUSD.LessThan(prevSupply) {
					return false
				}
				prevTotal = p.CumulativeTotalRevenueUSD
				prevSupply = p.CumulativeSupplySideRevenueUSD
			}
			return true
		},
		amountGen, amountGen,
	))

	properties.TestingRun(t)
}

func TestRevenueSourceValidity(t *testing.T) {
	assert.True(t, types.RevenueSourceStabilityFee.Valid())
	assert.True(t, types.RevenueSourceLiquidation.Valid())
	assert.True(t, types.RevenueSourceStabilizationModule.Valid())
	assert.False(t, types.RevenueSource(99).Valid())
}
