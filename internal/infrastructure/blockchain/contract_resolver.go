package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/InNinoWeTrust/covalent/internal/app/port"
	"github.com/InNinoWeTrust/covalent/internal/domain/entity"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// ERC721 ABI minimal part for resolution and metadata lookup
const erc721ABI = `[{"constant":true,"inputs":[{"name":"interfaceId","type":"bytes4"}],"name":"supportsInterface","outputs":[{"name":"","type":"bool"}],"payable":false,"stateMutability":"view","type":"function"},{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"tokenURI","outputs":[{"name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"},{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"}]`

// erc721InterfaceID is the ERC-165 identifier of the ERC-721 interface.
var erc721InterfaceID = [4]byte{0x80, 0xac, 0x58, 0xcd}

var (
	parsedERC721ABI  abi.ABI
	parsedERC721Once sync.Once
)

func initParsedERC721ABI() {
	parsedERC721Once.Do(func() {
		var err error
		parsedERC721ABI, err = abi.JSON(strings.NewReader(erc721ABI))
		if err != nil {
			// This is a critical error during initialization, panic is appropriate
			panic(fmt.Sprintf("failed to parse ERC721 ABI: %v", err))
		}
	})
}

// erc721Resolver implements port.ContractResolver against one RPC endpoint.
// The RPC connection is shared process-wide; resolved handles are not.
type erc721Resolver struct {
	ethClient   *ethclient.Client
	callTimeout time.Duration
	logger      *zap.Logger
}

// NewERC721Resolver dials the RPC endpoint and returns a resolver bound to it.
func NewERC721Resolver(rpcURL string, connectionTimeout, callTimeout time.Duration, logger *zap.Logger) (port.ContractResolver, error) {
	initParsedERC721ABI()

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}

	return &erc721Resolver{
		ethClient:   client,
		callTimeout: callTimeout,
		logger:      logger.Named("ERC721Resolver"),
	}, nil
}

// Resolve implements the port.ContractResolver interface.
func (r *erc721Resolver) Resolve(ctx context.Context, contractAddress string) (port.ContractHandle, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, &entity.ContractResolutionError{ContractAddress: contractAddress, Reason: "not a valid hex address"}
	}
	addr := common.HexToAddress(contractAddress)

	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	code, err := r.ethClient.CodeAt(callCtx, addr, nil)
	if err != nil {
		return nil, &entity.ContractResolutionError{ContractAddress: contractAddress, Reason: "code lookup failed", Err: err}
	}
	if len(code) == 0 {
		return nil, &entity.ContractResolutionError{ContractAddress: contractAddress, Reason: "no contract code at address"}
	}

	supported, err := r.supportsERC721(callCtx, addr)
	if err != nil {
		return nil, &entity.ContractResolutionError{ContractAddress: contractAddress, Reason: "supportsInterface call failed", Err: err}
	}
	if !supported {
		return nil, &entity.ContractResolutionError{ContractAddress: contractAddress, Reason: "contract does not support erc721"}
	}

	name := r.contractName(callCtx, addr)
	r.logger.Debug("Resolved ERC721 contract", zap.String("address", addr.Hex()), zap.String("name", name))

	return &erc721Contract{
		addr:        addr,
		name:        name,
		ethClient:   r.ethClient,
		callTimeout: r.callTimeout,
	}, nil
}

func (r *erc721Resolver) supportsERC721(ctx context.Context, addr common.Address) (bool, error) {
	callData, err := parsedERC721ABI.Pack("supportsInterface", erc721InterfaceID)
	if err != nil {
		return false, fmt.Errorf("failed to pack supportsInterface call: %w", err)
	}

	out, err := r.ethClient.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: callData}, nil)
	if err != nil {
		return false, err
	}

	unpacked, err := parsedERC721ABI.Unpack("supportsInterface", out)
	if err != nil {
		return false, fmt.Errorf("failed to unpack supportsInterface result: %w", err)
	}
	if len(unpacked) == 0 {
		return false, fmt.Errorf("supportsInterface unpack returned no data")
	}
	supported, ok := unpacked[0].(bool)
	if !ok {
		return false, fmt.Errorf("failed to assert supportsInterface result to bool, got: %T", unpacked[0])
	}
	return supported, nil
}

// contractName is best effort: not every deployment exposes name().
func (r *erc721Resolver) contractName(ctx context.Context, addr common.Address) string {
	callData, err := parsedERC721ABI.Pack("name")
	if err != nil {
		return ""
	}
	out, err := r.ethClient.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: callData}, nil)
	if err != nil || len(out) == 0 {
		return ""
	}
	unpacked, err := parsedERC721ABI.Unpack("name", out)
	if err != nil || len(unpacked) == 0 {
		return ""
	}
	name, _ := unpacked[0].(string)
	return name
}

// erc721Contract implements port.ContractHandle.
type erc721Contract struct {
	addr        common.Address
	name        string
	ethClient   *ethclient.Client
	callTimeout time.Duration
}

// Address returns the contract address the handle was resolved for.
func (c *erc721Contract) Address() string {
	return c.addr.Hex()
}

// Name returns the on-chain collection name, if any.
func (c *erc721Contract) Name() string {
	return c.name
}

// TokenURI resolves the metadata URI for the given token identifier.
func (c *erc721Contract) TokenURI(ctx context.Context, tokenID string) (string, error) {
	id, ok := new(big.Int).SetString(tokenID, 10)
	if !ok {
		return "", fmt.Errorf("invalid token id %q for contract %s", tokenID, c.addr.Hex())
	}

	callData, err := parsedERC721ABI.Pack("tokenURI", id)
	if err != nil {
		return "", fmt.Errorf("failed to pack tokenURI call: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	addr := c.addr
	out, err := c.ethClient.CallContract(callCtx, ethereum.CallMsg{To: &addr, Data: callData}, nil)
	if err != nil {
		return "", fmt.Errorf("tokenURI call failed for %s token %s: %w", c.addr.Hex(), tokenID, err)
	}

	unpacked, err := parsedERC721ABI.Unpack("tokenURI", out)
	if err != nil {
		return "", fmt.Errorf("failed to unpack tokenURI result for %s token %s: %w", c.addr.Hex(), tokenID, err)
	}
	if len(unpacked) == 0 {
		return "", fmt.Errorf("tokenURI unpack returned no data for %s token %s", c.addr.Hex(), tokenID)
	}
	uri, ok := unpacked[0].(string)
	if !ok {
		return "", fmt.Errorf("failed to assert tokenURI result to string for %s token %s, got: %T", c.addr.Hex(), tokenID, unpacked[0])
	}
	return uri, nil
}
