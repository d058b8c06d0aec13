package storage

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"

	"github.com/lending-indexer/internal/models"
	"github.com/lending-indexer/internal/types"
)

// EntityStore is the Postgres-backed entity store. One row per entity; saves
// upsert on the primary key so re-saving within an event is idempotent.
type EntityStore struct {
	db *PostgresDB
}

// NewEntityStore creates a new Postgres entity store
func NewEntityStore(db *PostgresDB) *EntityStore {
	return &EntityStore{db: db}
}

// GetProtocol retrieves the protocol singleton, or nil when absent
func (s *EntityStore) GetProtocol(ctx context.Context, id string) (*models.Protocol, error) {
	query := `
		SELECT id, name, slug, network, cumulative_unique_users, total_pool_count,
		       total_value_locked_usd, total_deposit_balance_usd, total_borrow_balance_usd,
		       cumulative_deposit_usd, cumulative_borrow_usd, cumulative_liquidate_usd,
		       cumulative_supply_side_revenue_usd, cumulative_protocol_side_revenue_usd, cumulative_total_revenue_usd,
		       cumulative_stability_fee_revenue_usd, cumulative_liquidation_revenue_usd, cumulative_stabilization_revenue_usd,
		       market_id_list
		FROM protocols WHERE id = $1
	`
	var p models.Protocol
	var network string
	err := s.db.Pool().QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Slug, &network, &p.CumulativeUniqueUsers, &p.TotalPoolCount,
		&p.TotalValueLockedUSD, &p.TotalDepositBalanceUSD, &p.TotalBorrowBalanceUSD,
		&p.CumulativeDepositUSD, &p.CumulativeBorrowUSD, &p.CumulativeLiquidateUSD,
		&p.CumulativeSupplySideRevenueUSD, &p.CumulativeProtocolSideRevenueUSD, &p.CumulativeTotalRevenueUSD,
		&p.CumulativeStabilityFeeRevenueUSD, &p.CumulativeLiquidationRevenueUSD, &p.CumulativeStabilizationRevenueUSD,
		&p.MarketIDList,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get protocol: %w", err)
	}
	p.Network = types.ChainID(network)
	return &p, nil
}

// SaveProtocol upserts the protocol singleton
func (s *EntityStore) SaveProtocol(ctx context.Context, p *models.Protocol) error {
	query := `
		INSERT INTO protocols (
			id, name, slug, network, cumulative_unique_users, total_pool_count,
			total_value_locked_usd, total_deposit_balance_usd, total_borrow_balance_usd,
			cumulative_deposit_usd, cumulative_borrow_usd, cumulative_liquidate_usd,
			cumulative_supply_side_revenue_usd, cumulative_protocol_side_revenue_usd, cumulative_total_revenue_usd,
			cumulative_stability_fee_revenue_usd, cumulative_liquidation_revenue_usd, cumulative_stabilization_revenue_usd,
			market_id_list
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		ON CONFLICT (id) DO UPDATE SET
			cumulative_unique_users = EXCLUDED.cumulative_unique_users,
			total_pool_count = EXCLUDED.total_pool_count,
			total_value_locked_usd = EXCLUDED.total_value_locked_usd,
			total_deposit_balance_usd = EXCLUDED.total_deposit_balance_usd,
			total_borrow_balance_usd = EXCLUDED.total_borrow_balance_usd,
			cumulative_deposit_usd = EXCLUDED.cumulative_deposit_usd,
			cumulative_borrow_usd = EXCLUDED.cumulative_borrow_usd,
			cumulative_liquidate_usd = EXCLUDED.cumulative_liquidate_usd,
			cumulative_supply_side_revenue_usd = EXCLUDED.cumulative_supply_side_revenue_usd,
			cumulative_protocol_side_revenue_usd = EXCLUDED.cumulative_protocol_side_revenue_usd,
			cumulative_total_revenue_usd = EXCLUDED.cumulative_total_revenue_usd,
			cumulative_stability_fee_revenue_usd = EXCLUDED.cumulative_stability_fee_revenue_usd,
			cumulative_liquidation_revenue_usd = EXCLUDED.cumulative_liquidation_revenue_usd,
			cumulative_stabilization_revenue_usd = EXCLUDED.cumulative_stabilization_revenue_usd,
			market_id_list = EXCLUDED.market_id_list
	`
	_, err := s.db.Pool().Exec(ctx, query,
		p.ID, p.Name, p.Slug, string(p.Network), p.CumulativeUniqueUsers, p.TotalPoolCount,
		p.TotalValueLockedUSD, p.TotalDepositBalanceUSD, p.TotalBorrowBalanceUSD,
		p.CumulativeDepositUSD, p.CumulativeBorrowUSD, p.CumulativeLiquidateUSD,
		p.CumulativeSupplySideRevenueUSD, p.CumulativeProtocolSideRevenueUSD, p.CumulativeTotalRevenueUSD,
		p.CumulativeStabilityFeeRevenueUSD, p.CumulativeLiquidationRevenueUSD, p.CumulativeStabilizationRevenueUSD,
		p.MarketIDList,
	)
	if err != nil {
		return fmt.Errorf("failed to save protocol: %w", err)
	}
	return nil
}

// GetMarket retrieves a market by id, or nil when absent
func (s *EntityStore) GetMarket(ctx context.Context, id string) (*models.Market, error) {
	query := `
		SELECT id, name, input_token, input_token_balance, input_token_price_usd,
		       total_value_locked_usd, total_deposit_balance_usd, total_borrow_balance_usd,
		       cumulative_deposit_usd, cumulative_borrow_usd, cumulative_liquidate_usd,
		       cumulative_supply_side_revenue_usd, cumulative_protocol_side_revenue_usd, cumulative_total_revenue_usd,
		       maximum_ltv, liquidation_threshold, liquidation_penalty,
		       created_block_number, created_timestamp
		FROM markets WHERE id = $1
	`
	var m models.Market
	var balance string
	err := s.db.Pool().QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Name, &m.InputToken, &balance, &m.InputTokenPriceUSD,
		&m.TotalValueLockedUSD, &m.TotalDepositBalanceUSD, &m.TotalBorrowBalanceUSD,
		&m.CumulativeDepositUSD, &m.CumulativeBorrowUSD, &m.CumulativeLiquidateUSD,
		&m.CumulativeSupplySideRevenueUSD, &m.CumulativeProtocolSideRevenueUSD, &m.CumulativeTotalRevenueUSD,
		&m.RiskParameters.MaximumLTV, &m.RiskParameters.LiquidationThreshold, &m.RiskParameters.LiquidationPenalty,
		&m.CreatedBlockNumber, &m.CreatedTimestamp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	m.InputTokenBalance, err = parseBigInt(balance)
	if err != nil {
		return nil, fmt.Errorf("failed to parse market balance: %w", err)
	}
	return &m, nil
}

// SaveMarket upserts a market
func (s *EntityStore) SaveMarket(ctx context.Context, m *models.Market) error {
	balance := "0"
	if m.InputTokenBalance != nil {
		balance = m.InputTokenBalance.String()
	}
	query := `
		INSERT INTO markets (
			id, name, input_token, input_token_balance, input_token_price_usd,
			total_value_locked_usd, total_deposit_balance_usd, total_borrow_balance_usd,
			cumulative_deposit_usd, cumulative_borrow_usd, cumulative_liquidate_usd,
			cumulative_supply_side_revenue_usd, cumulative_protocol_side_revenue_usd, cumulative_total_revenue_usd,
			maximum_ltv, liquidation_threshold, liquidation_penalty,
			created_block_number, created_timestamp
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			input_token = EXCLUDED.input_token,
			input_token_balance = EXCLUDED.input_token_balance,
			input_token_price_usd = EXCLUDED.input_token_price_usd,
			total_value_locked_usd = EXCLUDED.total_value_locked_usd,
			total_deposit_balance_usd = EXCLUDED.total_deposit_balance_usd,
			total_borrow_balance_usd = EXCLUDED.total_borrow_balance_usd,
			cumulative_deposit_usd = EXCLUDED.cumulative_deposit_usd,
			cumulative_borrow_usd = EXCLUDED.cumulative_borrow_usd,
			cumulative_liquidate_usd = EXCLUDED.cumulative_liquidate_usd,
			cumulative_supply_side_revenue_usd = EXCLUDED.cumulative_supply_side_revenue_usd,
			cumulative_protocol_side_revenue_usd = EXCLUDED.cumulative_protocol_side_revenue_usd,
			cumulative_total_revenue_usd = EXCLUDED.cumulative_total_revenue_usd,
			maximum_ltv = EXCLUDED.maximum_ltv,
			liquidation_threshold = EXCLUDED.liquidation_threshold,
			liquidation_penalty = EXCLUDED.liquidation_penalty
	`
	_, err := s.db.Pool().Exec(ctx, query,
		m.ID, m.Name, m.InputToken, balance, m.InputTokenPriceUSD,
		m.TotalValueLockedUSD, m.TotalDepositBalanceUSD, m.TotalBorrowBalanceUSD,
		m.CumulativeDepositUSD, m.CumulativeBorrowUSD, m.CumulativeLiquidateUSD,
		m.CumulativeSupplySideRevenueUSD, m.CumulativeProtocolSideRevenueUSD, m.CumulativeTotalRevenueUSD,
		m.RiskParameters.MaximumLTV, m.RiskParameters.LiquidationThreshold, m.RiskParameters.LiquidationPenalty,
		m.CreatedBlockNumber, m.CreatedTimestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save market: %w", err)
	}
	return nil
}

// GetToken retrieves a token by id, or nil when absent
func (s *EntityStore) GetToken(ctx context.Context, id string) (*models.Token, error) {
	query := `SELECT id, name, symbol, decimals, last_price_usd FROM tokens WHERE id = $1`
	var t models.Token
	err := s.db.Pool().QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.Symbol, &t.Decimals, &t.LastPriceUSD)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &t, nil
}

// SaveToken upserts a token
func (s *EntityStore) SaveToken(ctx context.Context, t *models.Token) error {
	query := `
		INSERT INTO tokens (id, name, symbol, decimals, last_price_usd)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			decimals = EXCLUDED.decimals,
			last_price_usd = EXCLUDED.last_price_usd
	`
	_, err := s.db.Pool().Exec(ctx, query, t.ID, t.Name, t.Symbol, t.Decimals, t.LastPriceUSD)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// GetCollateralClass retrieves a collateral class mapping, or nil when absent
func (s *EntityStore) GetCollateralClass(ctx context.Context, id string) (*models.CollateralClass, error) {
	query := `SELECT id, market_id FROM collateral_classes WHERE id = $1`
	var c models.CollateralClass
	err := s.db.Pool().QueryRow(ctx, query, id).Scan(&c.ID, &c.MarketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get collateral class: %w", err)
	}
	return &c, nil
}

// SaveCollateralClass inserts a collateral class mapping; an existing
// mapping is left unchanged
func (s *EntityStore) SaveCollateralClass(ctx context.Context, c *models.CollateralClass) error {
	query := `
		INSERT INTO collateral_classes (id, market_id) VALUES ($1,$2)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.Pool().Exec(ctx, query, c.ID, c.MarketID)
	if err != nil {
		return fmt.Errorf("failed to save collateral class: %w", err)
	}
	return nil
}

// GetAccount retrieves an account marker, or nil when absent
func (s *EntityStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT id FROM accounts WHERE id = $1`
	var a models.Account
	err := s.db.Pool().QueryRow(ctx, query, id).Scan(&a.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &a, nil
}

// SaveAccount inserts an account marker; markers are immutable
func (s *EntityStore) SaveAccount(ctx context.Context, a *models.Account) error {
	query := `INSERT INTO accounts (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`
	_, err := s.db.Pool().Exec(ctx, query, a.ID)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// GetActiveAccount retrieves a per-bucket activity marker, or nil when absent
func (s *EntityStore) GetActiveAccount(ctx context.Context, id string) (*models.ActiveAccount, error) {
	query := `SELECT id, account_id, granularity, bucket_index FROM active_accounts WHERE id = $1`
	var a models.ActiveAccount
	var granularity string
	err := s.db.Pool().QueryRow(ctx, query, id).Scan(&a.ID, &a.AccountID, &granularity, &a.BucketIndex)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active account: %w", err)
	}
	a.Granularity = types.Granularity(granularity)
	return &a, nil
}

// SaveActiveAccount inserts a per-bucket activity marker; markers are immutable
func (s *EntityStore) SaveActiveAccount(ctx context.Context, a *models.ActiveAccount) error {
	query := `
		INSERT INTO active_accounts (id, account_id, granularity, bucket_index)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.Pool().Exec(ctx, query, a.ID, a.AccountID, string(a.Granularity), a.BucketIndex)
	if err != nil {
		return fmt.Errorf("failed to save active account: %w", err)
	}
	return nil
}

// GetUsageSnapshot retrieves a usage snapshot by granularity and bucket id,
// or nil when the bucket has not been touched
func (s *EntityStore) GetUsageSnapshot(ctx context.Context, granularity types.Granularity, id string) (*models.UsageSnapshot, error) {
	query := `
		SELECT id, granularity, active_users, cumulative_unique_users, total_pool_count,
		       transaction_count, deposit_count, withdraw_count, borrow_count, repay_count, liquidate_count,
		       block_number, timestamp
		FROM usage_snapshots WHERE granularity = $1 AND id = $2
	`
	var snap models.UsageSnapshot
	var gran string
	err := s.db.Pool().QueryRow(ctx, query, string(granularity), id).Scan(
		&snap.ID, &gran, &snap.ActiveUsers, &snap.CumulativeUniqueUsers, &snap.TotalPoolCount,
		&snap.TransactionCount, &snap.DepositCount, &snap.WithdrawCount, &snap.BorrowCount, &snap.RepayCount, &snap.LiquidateCount,
		&snap.BlockNumber, &snap.Timestamp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get usage snapshot: %w", err)
	}
	snap.Granularity = types.Granularity(gran)
	return &snap, nil
}

// SaveUsageSnapshot upserts a usage snapshot
func (s *EntityStore) SaveUsageSnapshot(ctx context.Context, snap *models.UsageSnapshot) error {
	query := `
		INSERT INTO usage_snapshots (
			id, granularity, active_users, cumulative_unique_users, total_pool_count,
			transaction_count, deposit_count, withdraw_count, borrow_count, repay_count, liquidate_count,
			block_number, timestamp
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id, granularity) DO UPDATE SET
			active_users = EXCLUDED.active_users,
			cumulative_unique_users = EXCLUDED.cumulative_unique_users,
			total_pool_count = EXCLUDED.total_pool_count,
			transaction_count = EXCLUDED.transaction_count,
			deposit_count = EXCLUDED.deposit_count,
			withdraw_count = EXCLUDED.withdraw_count,
			borrow_count = EXCLUDED.borrow_count,
			repay_count = EXCLUDED.repay_count,
			liquidate_count = EXCLUDED.liquidate_count,
			block_number = EXCLUDED.block_number,
			timestamp = EXCLUDED.timestamp
	`
	_, err := s.db.Pool().Exec(ctx, query,
		snap.ID, string(snap.Granularity), snap.ActiveUsers, snap.CumulativeUniqueUsers, snap.TotalPoolCount,
		snap.TransactionCount, snap.DepositCount, snap.WithdrawCount, snap.BorrowCount, snap.RepayCount, snap.LiquidateCount,
		snap.BlockNumber, snap.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save usage snapshot: %w", err)
	}
	return nil
}

// GetFinancialsSnapshot retrieves a daily financials snapshot, or nil when
// the bucket has not been touched
func (s *EntityStore) GetFinancialsSnapshot(ctx context.Context, id string) (*models.FinancialsSnapshot, error) {
	query := `
		SELECT id, total_value_locked_usd, total_deposit_balance_usd, total_borrow_balance_usd,
		       cumulative_deposit_usd, cumulative_borrow_usd, cumulative_liquidate_usd,
		       cumulative_supply_side_revenue_usd, cumulative_protocol_side_revenue_usd, cumulative_total_revenue_usd,
		       cumulative_stability_fee_revenue_usd, cumulative_liquidation_revenue_usd, cumulative_stabilization_revenue_usd,
		       daily_deposit_usd, daily_withdraw_usd, daily_borrow_usd, daily_repay_usd, daily_liquidate_usd,
		       daily_supply_side_revenue_usd, daily_protocol_side_revenue_usd, daily_total_revenue_usd,
		       daily_stability_fee_revenue_usd, daily_liquidation_revenue_usd, daily_stabilization_revenue_usd,
		       block_number, timestamp
		FROM financials_snapshots WHERE id = $1
	`
	var snap models.FinancialsSnapshot
	err := s.db.Pool().QueryRow(ctx, query, id).Scan(
		&snap.ID, &snap.TotalValueLockedUSD, &snap.TotalDepositBalanceUSD, &snap.TotalBorrowBalanceUSD,
		&snap.CumulativeDepositUSD, &snap.CumulativeBorrowUSD, &snap.CumulativeLiquidateUSD,
		&snap.CumulativeSupplySideRevenueUSD, &snap.CumulativeProtocolSideRevenueUSD, &snap.CumulativeTotalRevenueUSD,
		&snap.CumulativeStabilityFeeRevenueUSD, &snap.CumulativeLiquidationRevenueUSD, &snap.CumulativeStabilizationRevenueUSD,
		&snap.DailyDepositUSD, &snap.DailyWithdrawUSD, &snap.DailyBorrowUSD, &snap.DailyRepayUSD, &snap.DailyLiquidateUSD,
		&snap.DailySupplySideRevenueUSD, &snap.DailyProtocolSideRevenueUSD, &snap.DailyTotalRevenueUSD,
		&snap.DailyStabilityFeeRevenueUSD, &snap.DailyLiquidationRevenueUSD, &snap.DailyStabilizationRevenueUSD,
		&snap.BlockNumber, &snap.Timestamp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get financials snapshot: %w", err)
	}
	return &snap, nil
}

// SaveFinancialsSnapshot upserts a daily financials snapshot
func (s *EntityStore) SaveFinancialsSnapshot(ctx context.Context, snap *models.FinancialsSnapshot) error {
	query := `
		INSERT INTO financials_snapshots (
			id, total_value_locked_usd, total_deposit_balance_usd, total_borrow_balance_usd,
			cumulative_deposit_usd, cumulative_borrow_usd, cumulative_liquidate_usd,
			cumulative_supply_side_revenue_usd, cumulative_protocol_side_revenue_usd, cumulative_total_revenue_usd,
			cumulative_stability_fee_revenue_usd, cumulative_liquidation_revenue_usd, cumulative_stabilization_revenue_usd,
			daily_deposit_usd, daily_withdraw_usd, daily_borrow_usd, daily_repay_usd, daily_liquidate_usd,
			daily_supply_side_revenue_usd, daily_protocol_side_revenue_usd, daily_total_revenue_usd,
			daily_stability_fee_revenue_usd, daily_liquidation_revenue_usd, daily_stabilization_revenue_usd,
			block_number, timestamp
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)
		ON CONFLICT (id) DO UPDATE SET
			total_value_locked_usd = EXCLUDED.total_value_locked_usd,
			total_deposit_balance_usd = EXCLUDED.total_deposit_balance_usd,
			total_borrow_balance_usd = EXCLUDED.total_borrow_balance_usd,
			cumulative_deposit_usd = EXCLUDED.cumulative_deposit_usd,
			cumulative_borrow_usd = EXCLUDED.cumulative_borrow_usd,
			cumulative_liquidate_usd = EXCLUDED.cumulative_liquidate_usd,
			cumulative_supply_side_revenue_usd = EXCLUDED.cumulative_supply_side_revenue_usd,
			cumulative_protocol_side_revenue_usd = EXCLUDED.cumulative_protocol_side_revenue_usd,
			cumulative_total_revenue_usd = EXCLUDED.cumulative_total_revenue_usd,
			cumulative_stability_fee_revenue_usd = EXCLUDED.cumulative_stability_fee_revenue_usd,
			cumulative_liquidation_revenue_usd = EXCLUDED.cumulative_liquidation_revenue_usd,
			cumulative_stabilization_revenue_usd = EXCLUDED.cumulative_stabilization_revenue_usd,
			daily_deposit_usd = EXCLUDED.daily_deposit_usd,
			daily_withdraw_usd = EXCLUDED.daily_withdraw_usd,
			daily_borrow_usd = EXCLUDED.daily_borrow_usd,
			daily_repay_usd = EXCLUDED.daily_repay_usd,
			daily_liquidate_usd = EXCLUDED.daily_liquidate_usd,
			daily_supply_side_revenue_usd = EXCLUDED.daily_supply_side_revenue_usd,
			daily_protocol_side_revenue_usd = EXCLUDED.daily_protocol_side_revenue_usd,
			daily_total_revenue_usd = EXCLUDED.daily_total_revenue_usd,
			daily_stability_fee_revenue_usd = EXCLUDED.daily_stability_fee_revenue_usd,
			daily_liquidation_revenue_usd = EXCLUDED.daily_liquidation_revenue_usd,
			daily_stabilization_revenue_usd = EXCLUDED.daily_stabilization_revenue_usd,
			block_number = EXCLUDED.block_number,
			timestamp = EXCLUDED.timestamp
	`
	_, err := s.db.Pool().Exec(ctx, query,
		snap.ID, snap.TotalValueLockedUSD, snap.TotalDepositBalanceUSD, snap.TotalBorrowBalanceUSD,
		snap.CumulativeDepositUSD, snap.CumulativeBorrowUSD, snap.CumulativeLiquidateUSD,
		snap.CumulativeSupplySideRevenueUSD, snap.CumulativeProtocolSideRevenueUSD, snap.CumulativeTotalRevenueUSD,
		snap.CumulativeStabilityFeeRevenueUSD, snap.CumulativeLiquidationRevenueUSD, snap.CumulativeStabilizationRevenueUSD,
		snap.DailyDepositUSD, snap.DailyWithdrawUSD, snap.DailyBorrowUSD, snap.DailyRepayUSD, snap.DailyLiquidateUSD,
		snap.DailySupplySideRevenueUSD, snap.DailyProtocolSideRevenueUSD, snap.DailyTotalRevenueUSD,
		snap.DailyStabilityFeeRevenueUSD, snap.DailyLiquidationRevenueUSD, snap.DailyStabilizationRevenueUSD,
		snap.BlockNumber, snap.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save financials snapshot: %w", err)
	}
	return nil
}

// parseBigInt parses a numeric column value into a big.Int
func parseBigInt(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer value %q", s)
	}
	return v, nil
}
