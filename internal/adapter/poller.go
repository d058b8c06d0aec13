package adapter

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/redis/go-redis/v9"

	"github.com/lending-indexer/internal/events"
	"github.com/lending-indexer/internal/logging"
	"github.com/lending-indexer/internal/storage"
)

const cursorKey = "indexer:last_block"

// Poller scans the chain for protocol logs in bounded block ranges and emits
// decoded events in block order, log order within a block. The scan cursor
// lives in Redis so a restart resumes where the previous run stopped.
type Poller struct {
	client  *ChainClient
	decoder *Decoder
	cache   *storage.RedisCache
	logger  *logging.Logger

	startBlock    uint64
	maxBlockRange uint64
	pollInterval  time.Duration
}

// PollerConfig holds poller configuration
type PollerConfig struct {
	// StartBlock is the first block to scan when no cursor exists
	StartBlock uint64
	// MaxBlockRange caps the number of blocks fetched per poll
	MaxBlockRange int
	// PollInterval is how long to wait at the chain head before re-polling
	PollInterval time.Duration
}

// NewPoller creates a new log poller
func NewPoller(client *ChainClient, decoder *Decoder, cache *storage.RedisCache, cfg *PollerConfig, logger *logging.Logger) *Poller {
	maxRange := cfg.MaxBlockRange
	if maxRange <= 0 {
		maxRange = 30
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	return &Poller{
		client:        client,
		decoder:       decoder,
		cache:         cache,
		logger:        logger,
		startBlock:    cfg.StartBlock,
		maxBlockRange: uint64(maxRange),
		pollInterval:  interval,
	}
}

// Run polls until the context is cancelled, delivering each decoded event to
// handle. The cursor only advances after handle returns nil for every event
// in the range, so a failed range is re-scanned on the next poll.
func (p *Poller) Run(ctx context.Context, handle func(context.Context, *events.Event) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		advanced, err := p.pollOnce(ctx, handle)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			p.logger.WithError(err).Error("Poll failed, backing off")
			advanced = false
		}

		if !advanced {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.pollInterval):
			}
		}
	}
}

// pollOnce scans one block range. Returns true when the cursor advanced and
// another range may be immediately available.
func (p *Poller) pollOnce(ctx context.Context, handle func(context.Context, *events.Event) error) (bool, error) {
	from, err := p.cursor(ctx)
	if err != nil {
		return false, err
	}

	head, err := p.client.BlockNumber(ctx)
	if err != nil {
		return false, err
	}
	if from > head {
		return false, nil
	}

	to := from + p.maxBlockRange - 1
	if to > head {
		to = head
	}

	evts, err := p.scanRange(ctx, from, to)
	if err != nil {
		return false, err
	}

	for _, ev := range evts {
		if err := handle(ctx, ev); err != nil {
			return false, err
		}
	}

	if err := p.setCursor(ctx, to+1); err != nil {
		return false, err
	}

	p.logger.WithFields(map[string]interface{}{
		"from":   from,
		"to":     to,
		"events": len(evts),
	}).Debug("Scanned block range")

	return to < head, nil
}

// scanRange fetches and decodes logs for [from, to], ordered by block number
// then log index
func (p *Poller) scanRange(ctx context.Context, from, to uint64) ([]*events.Event, error) {
	logs, err := p.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: p.decoder.Addresses(),
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})

	// one header fetch per distinct block for timestamps
	blockTimes := make(map[uint64]int64)
	var evts []*events.Event
	for i := range logs {
		log := &logs[i]
		if log.Removed {
			continue
		}

		ts, ok := blockTimes[log.BlockNumber]
		if !ok {
			header, err := p.client.HeaderByNumber(ctx, log.BlockNumber)
			if err != nil {
				return nil, err
			}
			ts = int64(header.Time)
			blockTimes[log.BlockNumber] = ts
		}

		if ev := p.decoder.Decode(log, ts); ev != nil {
			evts = append(evts, ev)
		}
	}

	return evts, nil
}

func (p *Poller) cursor(ctx context.Context) (uint64, error) {
	val, err := p.cache.Get(ctx, cursorKey)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return p.startBlock, nil
		}
		return 0, err
	}
	block, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return p.startBlock, nil
	}
	return block, nil
}

func (p *Poller) setCursor(ctx context.Context, block uint64) error {
	return p.cache.Set(ctx, cursorKey, strconv.FormatUint(block, 10), 0)
}
