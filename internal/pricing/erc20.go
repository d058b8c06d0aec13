package pricing

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	apperrors "github.com/lending-indexer/internal/errors"
)

// ERC-20 function selectors
var (
	selectorName     = common.Hex2Bytes("06fdde03")
	selectorSymbol   = common.Hex2Bytes("95d89b41")
	selectorDecimals = common.Hex2Bytes("313ce567")
)

// ERC20Provider resolves token metadata from the chain via eth_call
type ERC20Provider struct {
	client *ethclient.Client
}

// NewERC20Provider creates a new on-chain metadata provider
func NewERC20Provider(client *ethclient.Client) *ERC20Provider {
	return &ERC20Provider{client: client}
}

// TokenMetadata reads name, symbol and decimals from the token contract.
// Tokens that revert on any of the calls get the field's zero value; some
// early contracts return bytes32 instead of string and are handled.
func (p *ERC20Provider) TokenMetadata(ctx context.Context, token string) (*TokenMetadata, error) {
	addr := common.HexToAddress(token)
	meta := &TokenMetadata{Decimals: 18}

	if raw, err := p.call(ctx, addr, selectorName); err == nil {
		meta.Name = unpackString(raw)
	}
	if raw, err := p.call(ctx, addr, selectorSymbol); err == nil {
		meta.Symbol = unpackString(raw)
	}

	raw, err := p.call(ctx, addr, selectorDecimals)
	if err != nil {
		return nil, apperrors.NewProviderError(
			fmt.Sprintf("failed to read decimals for token %s", token), err)
	}
	if len(raw) >= 32 {
		meta.Decimals = raw[31]
	}

	return meta, nil
}

func (p *ERC20Provider) call(ctx context.Context, addr common.Address, selector []byte) ([]byte, error) {
	return p.client.CallContract(ctx, ethereum.CallMsg{
		To:   &addr,
		Data: selector,
	}, nil)
}

// unpackString decodes an ABI string return value, falling back to a raw
// bytes32 read for non-conforming tokens (MKR, SAI)
func unpackString(raw []byte) string {
	if len(raw) == 32 {
		return strings.TrimFunc(string(raw), func(r rune) bool {
			return r == 0 || !unicode.IsPrint(r)
		})
	}
	if len(raw) < 64 {
		return ""
	}
	offset := int(raw[31])
	if offset+32 > len(raw) {
		return ""
	}
	length := int(raw[offset+31])
	start := offset + 32
	if start+length > len(raw) {
		return ""
	}
	return string(raw[start : start+length])
}
