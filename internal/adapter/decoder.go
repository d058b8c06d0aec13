package adapter

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	"github.com/lending-indexer/internal/events"
	apptypes "github.com/lending-indexer/internal/types"
)

// The core contract logs position changes through a note modifier: topic0 is
// the 4-byte function selector left-aligned in 32 bytes, topic1 the caller,
// topic2 and topic3 the first two call arguments, and the log data carries
// the full calldata. Oracle pokes are regular events on the spotter.
var (
	// adjust(bytes32,address,address,address,int256,int256) - position change
	selectorAdjust = crypto.Keccak256([]byte("frob(bytes32,address,address,address,int256,int256)"))[:4]
	// grab(bytes32,address,address,address,int256,int256) - seizure during liquidation
	selectorSeize = crypto.Keccak256([]byte("grab(bytes32,address,address,address,int256,int256)"))[:4]
	// fold(bytes32,address,int256) - debt rate accrual, the stability fee
	selectorAccrue = crypto.Keccak256([]byte("fold(bytes32,address,int256)"))[:4]

	// Poke(bytes32 ilk, bytes32 val, uint256 spot) on the price spotter
	topicPoke = crypto.Keccak256Hash([]byte("Poke(bytes32,bytes32,uint256)"))
)

// calldata word offsets inside note-style log data: 4-byte selector, then one
// 32-byte word per argument
const (
	wordSize    = 32
	offsetArg0  = 4
	offsetArg1  = offsetArg0 + wordSize
	offsetArg2  = offsetArg1 + wordSize
	offsetArg3  = offsetArg2 + wordSize
	offsetArg4  = offsetArg3 + wordSize
	offsetArg5  = offsetArg4 + wordSize
	minNoteSize = offsetArg3 // shortest decoded call (accrue)
)

// token amounts are 18-decimal fixed point, rates 27-decimal
const (
	amountDecimals = 18
	rateDecimals   = 27
)

// Decoder turns raw chain logs into protocol events. Unrecognized logs decode
// to nil; block timestamps are supplied by the poller.
type Decoder struct {
	core    common.Address
	spotter common.Address
}

// NewDecoder creates a decoder for the given core and spotter contracts
func NewDecoder(core, spotter common.Address) *Decoder {
	return &Decoder{core: core, spotter: spotter}
}

// Addresses returns the set of contract addresses the poller should filter on
func (d *Decoder) Addresses() []common.Address {
	return []common.Address{d.core, d.spotter}
}

// Decode converts one log into a protocol event. Returns nil for logs that
// carry no metric-relevant information.
func (d *Decoder) Decode(log *types.Log, blockTime int64) *events.Event {
	switch log.Address {
	case d.core:
		return d.decodeNote(log, blockTime)
	case d.spotter:
		return d.decodePoke(log, blockTime)
	}
	return nil
}

func (d *Decoder) decodeNote(log *types.Log, blockTime int64) *events.Event {
	if len(log.Topics) < 2 {
		return nil
	}
	selector := log.Topics[0].Bytes()[:4]
	data := noteCalldata(log.Data)
	if data == nil {
		return nil
	}

	switch {
	case bytes.Equal(selector, selectorAdjust):
		return d.decodeAdjust(log, data, blockTime)
	case bytes.Equal(selector, selectorSeize):
		return d.decodeSeize(log, data, blockTime)
	case bytes.Equal(selector, selectorAccrue):
		return d.decodeAccrue(log, data, blockTime)
	}
	return nil
}

// decodeAdjust handles a position change: collateral delta and debt delta,
// either of which may be zero or negative
func (d *Decoder) decodeAdjust(log *types.Log, data []byte, blockTime int64) *events.Event {
	if len(data) < offsetArg5+wordSize {
		return nil
	}

	collateralClass := string(bytes.TrimRight(data[offsetArg0:offsetArg0+wordSize], "\x00"))
	borrower := wordToAddress(data[offsetArg1 : offsetArg1+wordSize])
	lender := wordToAddress(data[offsetArg2 : offsetArg2+wordSize])
	deltaCollateral := wordToSigned(data[offsetArg4 : offsetArg4+wordSize])
	deltaDebt := wordToSigned(data[offsetArg5 : offsetArg5+wordSize])

	return &events.Event{
		BlockNumber:     log.BlockNumber,
		Timestamp:       blockTime,
		TxHash:          log.TxHash,
		LogIndex:        log.Index,
		CollateralClass: collateralClass,
		Lender:          &lender,
		Borrower:        &borrower,
		DeltaCollateral: deltaCollateral,
		DeltaDebt:       deltaDebt,
	}
}

// decodeSeize handles collateral seizure during liquidation. Deltas are
// negative; the liquidated amount is the seized collateral.
func (d *Decoder) decodeSeize(log *types.Log, data []byte, blockTime int64) *events.Event {
	if len(data) < offsetArg5+wordSize {
		return nil
	}

	collateralClass := string(bytes.TrimRight(data[offsetArg0:offsetArg0+wordSize], "\x00"))
	liquidatee := wordToAddress(data[offsetArg1 : offsetArg1+wordSize])
	liquidator := common.BytesToAddress(log.Topics[1].Bytes())
	deltaCollateral := wordToSigned(data[offsetArg4 : offsetArg4+wordSize])
	deltaDebt := wordToSigned(data[offsetArg5 : offsetArg5+wordSize])

	seized := new(big.Int).Neg(deltaCollateral)

	return &events.Event{
		BlockNumber:     log.BlockNumber,
		Timestamp:       blockTime,
		TxHash:          log.TxHash,
		LogIndex:        log.Index,
		CollateralClass: collateralClass,
		Liquidator:      &liquidator,
		Liquidatee:      &liquidatee,
		DeltaCollateral: deltaCollateral,
		DeltaDebt:       deltaDebt,
		LiquidateAmount: seized,
	}
}

// decodeAccrue handles a debt rate accrual. Only the raw rate is decoded
// here; enrichment converts it to USD revenue against the market's
// outstanding debt.
func (d *Decoder) decodeAccrue(log *types.Log, data []byte, blockTime int64) *events.Event {
	if len(data) < offsetArg2+wordSize {
		return nil
	}

	collateralClass := string(bytes.TrimRight(data[offsetArg0:offsetArg0+wordSize], "\x00"))
	rate := wordToSigned(data[offsetArg2 : offsetArg2+wordSize])
	if rate.Sign() <= 0 {
		// negative accrual carries no revenue
		return nil
	}

	return &events.Event{
		BlockNumber:     log.BlockNumber,
		Timestamp:       blockTime,
		TxHash:          log.TxHash,
		LogIndex:        log.Index,
		CollateralClass: collateralClass,
		RevenueSource:   apptypes.RevenueSourceStabilityFee,
		AccruedRate:     decimal.NewFromBigInt(rate, -rateDecimals),
	}
}

func (d *Decoder) decodePoke(log *types.Log, blockTime int64) *events.Event {
	if len(log.Topics) == 0 || log.Topics[0] != topicPoke || len(log.Data) < 2*wordSize {
		return nil
	}

	collateralClass := string(bytes.TrimRight(log.Data[:wordSize], "\x00"))
	// val is a 18-decimal fixed point USD price
	price := new(big.Int).SetBytes(log.Data[wordSize : 2*wordSize])

	return &events.Event{
		BlockNumber:     log.BlockNumber,
		Timestamp:       blockTime,
		TxHash:          log.TxHash,
		LogIndex:        log.Index,
		CollateralClass: collateralClass,
		PriceUpdate:     true,
		NewPriceUSD:     decimal.NewFromBigInt(price, -amountDecimals),
	}
}

// noteCalldata extracts the raw calldata from note-style log data. The data
// is either raw calldata or an ABI-encoded bytes value wrapping it.
func noteCalldata(data []byte) []byte {
	if len(data) < minNoteSize {
		return nil
	}
	// ABI-encoded bytes: offset word, length word, then payload
	if len(data) >= 2*wordSize {
		offset := new(big.Int).SetBytes(data[:wordSize])
		if offset.IsUint64() && offset.Uint64() == wordSize {
			length := new(big.Int).SetBytes(data[wordSize : 2*wordSize])
			if length.IsUint64() {
				start := uint64(2 * wordSize)
				end := start + length.Uint64()
				if end <= uint64(len(data)) {
					return data[start:end]
				}
			}
		}
	}
	return data
}

func wordToAddress(word []byte) common.Address {
	return common.BytesToAddress(word)
}

// wordToSigned interprets a 32-byte word as a two's-complement signed integer
func wordToSigned(word []byte) *big.Int {
	v := new(big.Int).SetBytes(word)
	if word[0]&0x80 != 0 {
		max := new(big.Int).Lsh(big.NewInt(1), 256)
		v.Sub(v, max)
	}
	return v
}
