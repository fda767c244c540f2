package blockchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/apex/log"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const gasLimit = uint64(0)

// landRegistryABI covers the single contract method the service calls.
const landRegistryABI = `[{"inputs":[{"internalType":"uint256","name":"tokenId","type":"uint256"},{"internalType":"address","name":"newOwner","type":"address"}],"name":"transferLand","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

// Transferor records a completed ownership transfer on chain and returns
// the transaction hash.
type Transferor interface {
	Transfer(ctx context.Context, tokenId uint64, newOwner string) (string, error)
}

// LandTransferor submits transferLand transactions to the land registry
// contract.
type LandTransferor struct {
	client          *ethclient.Client
	chainID         *big.Int
	privateKey      *ecdsa.PrivateKey
	fromAddress     ethcommon.Address
	contractAddress ethcommon.Address
	contract        *bind.BoundContract
}

// NewLandTransferor connects to the network and binds the registry
// contract. All three parameters are required; callers that cannot supply
// them should run without a transferor and rely on synthesized hashes.
func NewLandTransferor(rpcURL, privateKey, contractAddress string) (*LandTransferor, error) {
	t := &LandTransferor{}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("error creating ethclient with the network url %s: %w", rpcURL, err)
	}
	t.client = client

	chainID, err := client.NetworkID(context.Background())
	if err != nil {
		return nil, fmt.Errorf("error getting network ID: %w", err)
	}
	t.chainID = chainID

	if len(privateKey) == 0 {
		return nil, fmt.Errorf("the eth private key isn't specified")
	}
	t.privateKey, err = crypto.HexToECDSA(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("error converting private key: %w", err)
	}

	publicKey := t.privateKey.Public()
	publicKeyECDSA, ok := publicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("error creating ECDSA public key from %v", publicKey)
	}
	t.fromAddress = crypto.PubkeyToAddress(*publicKeyECDSA)

	if !ethcommon.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("invalid contract address %s", contractAddress)
	}
	t.contractAddress = ethcommon.HexToAddress(contractAddress)

	parsed, err := abi.JSON(strings.NewReader(landRegistryABI))
	if err != nil {
		return nil, fmt.Errorf("error parsing the registry ABI: %w", err)
	}
	t.contract = bind.NewBoundContract(t.contractAddress, parsed, client, client, client)

	log.Infof("Land transferor initialized, chain ID: %v, contract address: %v, signer: %v",
		t.chainID, t.contractAddress, t.fromAddress)

	return t, nil
}

// Transfer calls transferLand(tokenId, newOwner) and returns the
// transaction hash. It does not wait for the transaction to be mined; the
// record store is the source of truth and the hash is stored as metadata.
func (t *LandTransferor) Transfer(ctx context.Context, tokenId uint64, newOwner string) (string, error) {
	if !ethcommon.IsHexAddress(newOwner) {
		return "", fmt.Errorf("invalid new owner address %s", newOwner)
	}

	nonce, err := t.client.PendingNonceAt(ctx, t.fromAddress)
	if err != nil {
		return "", fmt.Errorf("error getting pending nonce: %w", err)
	}

	gasPrice, err := t.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting gas price: %w", err)
	}

	auth, err := bind.NewKeyedTransactorWithChainID(t.privateKey, t.chainID)
	if err != nil {
		return "", fmt.Errorf("error creating transactor: %w", err)
	}
	auth.Nonce = big.NewInt(int64(nonce))
	auth.Value = big.NewInt(0) // in wei
	auth.GasLimit = gasLimit   // in units
	auth.GasPrice = gasPrice
	auth.Context = ctx

	tx, err := t.contract.Transact(auth, "transferLand",
		new(big.Int).SetUint64(tokenId), ethcommon.HexToAddress(newOwner))
	if err != nil {
		return "", fmt.Errorf("call contract transferLand: %w", err)
	}

	log.Infof("Submitted land transfer for token %d to %s, tx %s", tokenId, newOwner, tx.Hash().String())
	return tx.Hash().String(), nil
}

// IsValidAddress reports whether s is a well-formed chain address.
func IsValidAddress(s string) bool {
	return ethcommon.IsHexAddress(s)
}
