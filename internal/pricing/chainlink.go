package pricing

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/sommelier-labs/cellars-indexer/internal/adapter"
)

// FeedRegistryAddress is the Chainlink feed registry on mainnet
const FeedRegistryAddress = "0x47Fb2585D2C56Fe188D0E6ec628a38b74fCeeeDf"

// usdDenomination is the registry's pseudo address for USD quotes
const usdDenomination = "0x0000000000000000000000000000000000000348"

const feedRegistryABIJSON = `[
	{"constant":true,"inputs":[{"name":"base","type":"address"},{"name":"quote","type":"address"}],"name":"latestRoundData","outputs":[{"name":"roundId","type":"uint80"},{"name":"answer","type":"int256"},{"name":"startedAt","type":"uint256"},{"name":"updatedAt","type":"uint256"},{"name":"answeredInRound","type":"uint80"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"base","type":"address"},{"name":"quote","type":"address"}],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"payable":false,"stateMutability":"view","type":"function"}
]`

type chainlinkSource struct {
	client   adapter.EthClient
	registry common.Address
	abi      abi.ABI
}

// NewChainlinkSource quotes USD prices from the Chainlink feed registry
func NewChainlinkSource(client adapter.EthClient) (Source, error) {
	parsed, err := abi.JSON(strings.NewReader(feedRegistryABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed registry ABI: %w", err)
	}

	return &chainlinkSource{
		client:   client,
		registry: common.HexToAddress(FeedRegistryAddress),
		abi:      parsed,
	}, nil
}

func (s *chainlinkSource) UsdPrice(ctx context.Context, token string) (decimal.Decimal, error) {
	base := common.HexToAddress(token)
	quote := common.HexToAddress(usdDenomination)

	var round struct {
		RoundId         *big.Int
		Answer          *big.Int
		StartedAt       *big.Int
		UpdatedAt       *big.Int
		AnsweredInRound *big.Int
	}
	if err := s.view(ctx, &round, "latestRoundData", base, quote); err != nil {
		return decimal.Zero, err
	}
	if round.Answer == nil || round.Answer.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("feed registry returned non-positive answer for %s", token)
	}

	var feedDecimals uint8
	if err := s.view(ctx, &feedDecimals, "decimals", base, quote); err != nil {
		return decimal.Zero, err
	}

	return decimal.NewFromBigInt(round.Answer, -int32(feedDecimals)), nil
}

func (s *chainlinkSource) view(ctx context.Context, out interface{}, method string, args ...interface{}) error {
	data, err := s.abi.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	result, err := s.client.CallContract(ctx, ethereum.CallMsg{
		To:   &s.registry,
		Data: data,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}

	if err := s.abi.UnpackIntoInterface(out, method, result); err != nil {
		return fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return nil
}
