package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/certchain/credential-service/internal/config"
	"github.com/certchain/credential-service/internal/models"
)

// registryClient talks to the certificate registry contract over RPC.
// Transacting calls are serialized so concurrent issuances don't race
// on the issuer account nonce.
type registryClient struct {
	cfg      config.ChainConfig
	eth      *ethclient.Client
	contract *bind.BoundContract
	abi      abi.ABI
	address  common.Address
	key      *ecdsa.PrivateKey
	chainID  *big.Int
	logger   *slog.Logger

	txMu sync.Mutex
}

// NewRegistryClient dials the configured RPC node, verifies it serves
// the expected chain and binds the registry contract. The issuer key is
// optional; without it the client is read-only.
func NewRegistryClient(ctx context.Context, cfg config.ChainConfig, logger *slog.Logger) (Registry, error) {
	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChainUnavailable, err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("%w: %v", ErrChainUnavailable, err)
	}
	if chainID.Int64() != cfg.ChainID {
		eth.Close()
		return nil, fmt.Errorf("%w: got chain %d, want %d", ErrWrongNetwork, chainID.Int64(), cfg.ChainID)
	}

	parsed, err := abi.JSON(strings.NewReader(certificateRegistryABI))
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}

	address := common.HexToAddress(cfg.ContractAddress)
	contract := bind.NewBoundContract(address, parsed, eth, eth, eth)

	client := &registryClient{
		cfg:      cfg,
		eth:      eth,
		contract: contract,
		abi:      parsed,
		address:  address,
		chainID:  chainID,
		logger:   logger,
	}

	if cfg.IssuerKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.IssuerKey, "0x"))
		if err != nil {
			eth.Close()
			return nil, fmt.Errorf("failed to parse issuer key: %w", err)
		}
		client.key = key
		logger.Info("Chain client initialized with signer",
			"issuer", crypto.PubkeyToAddress(key.PublicKey).Hex(),
			"contract", address.Hex(),
			"chain_id", chainID.Int64())
	} else {
		logger.Info("Chain client initialized read-only",
			"contract", address.Hex(),
			"chain_id", chainID.Int64())
	}

	return client, nil
}

// ===== READ OPERATIONS =====

func (c *registryClient) GetCertificate(ctx context.Context, certID string) (*models.ChainCertificate, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getCertificate", certID)
	if err != nil {
		if isRevert(err) {
			return nil, ErrCertificateNotFound
		}
		return nil, fmt.Errorf("%w: getCertificate: %v", ErrChainUnavailable, err)
	}
	if len(out) != 7 {
		return nil, fmt.Errorf("unexpected getCertificate output length %d", len(out))
	}

	cert := &models.ChainCertificate{
		CertID:      out[0].(string),
		ContentHash: out[1].(string),
		Timestamp:   out[2].(*big.Int),
		StudentName: out[3].(string),
		StudentID:   out[4].(string),
		Recipient:   out[5].(common.Address).Hex(),
		Revoked:     out[6].(bool),
	}

	// The contract returns an empty slot instead of reverting for
	// unknown IDs in some deployments.
	if cert.CertID == "" {
		return nil, ErrCertificateNotFound
	}

	return cert, nil
}

func (c *registryClient) GetCertificatesByStudentID(ctx context.Context, studentID string) ([]string, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getCertificatesByStudentId", studentID)
	if err != nil {
		if isRevert(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: getCertificatesByStudentId: %v", ErrChainUnavailable, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("unexpected getCertificatesByStudentId output length %d", len(out))
	}

	return out[0].([]string), nil
}

func (c *registryClient) IssuanceEvents(ctx context.Context) ([]models.IssuanceEvent, error) {
	query := ethereum.FilterQuery{
		FromBlock: big.NewInt(0),
		Addresses: []common.Address{c.address},
		Topics:    [][]common.Hash{{c.abi.Events["CertificateIssued"].ID}},
	}

	logs, err := c.eth.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: filter logs: %v", ErrChainUnavailable, err)
	}

	events := make([]models.IssuanceEvent, 0, len(logs))
	for _, lg := range logs {
		values, err := c.abi.Unpack("CertificateIssued", lg.Data)
		if err != nil {
			c.logger.Warn("Skipping undecodable issuance log",
				"tx", lg.TxHash.Hex(), "error", err)
			continue
		}
		if len(values) != 2 {
			continue
		}
		events = append(events, models.IssuanceEvent{
			StudentID:   values[0].(string),
			StudentName: values[1].(string),
		})
	}

	return events, nil
}

// ===== WRITE OPERATIONS =====

func (c *registryClient) IssueCertificate(ctx context.Context, certID, contentHash, studentName, studentID, recipient string) (string, error) {
	return c.transact(ctx, "issueCertificate",
		certID, contentHash, studentName, studentID, parseRecipient(recipient))
}

func (c *registryClient) IssueBatch(ctx context.Context, rows []models.BatchIssueRow, contentHash string) (string, error) {
	ids := make([]string, len(rows))
	hashes := make([]string, len(rows))
	names := make([]string, len(rows))
	studentIDs := make([]string, len(rows))
	recipients := make([]common.Address, len(rows))

	for i, row := range rows {
		ids[i] = row.CertID
		hashes[i] = contentHash
		names[i] = row.StudentName
		studentIDs[i] = row.StudentID
		recipients[i] = parseRecipient(row.Recipient)
	}

	return c.transact(ctx, "issueBatch", ids, hashes, names, studentIDs, recipients)
}

func (c *registryClient) RevokeCertificate(ctx context.Context, certID string) (string, error) {
	return c.transact(ctx, "revokeCertificate", certID)
}

func (c *registryClient) transact(ctx context.Context, method string, args ...interface{}) (string, error) {
	if c.key == nil {
		return "", ErrNoSigner
	}

	c.txMu.Lock()
	defer c.txMu.Unlock()

	auth, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return "", fmt.Errorf("failed to build transactor: %w", err)
	}
	auth.Context = ctx

	tx, err := c.contract.Transact(auth, method, args...)
	if err != nil {
		if isRevert(err) {
			return "", fmt.Errorf("%s rejected by contract: %w", method, err)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrChainUnavailable, method, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.ReceiptTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, c.eth, tx)
	if err != nil {
		return "", fmt.Errorf("%w: waiting for %s receipt: %v", ErrChainUnavailable, method, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("%s transaction %s reverted", method, tx.Hash().Hex())
	}

	c.logger.Info("Transaction confirmed",
		"method", method,
		"tx", tx.Hash().Hex(),
		"block", receipt.BlockNumber)

	return tx.Hash().Hex(), nil
}

func (c *registryClient) Close() {
	c.eth.Close()
}

// parseRecipient follows the registry convention: anything that is not
// a 0x-prefixed address becomes the zero address (student has no wallet).
func parseRecipient(recipient string) common.Address {
	recipient = strings.TrimSpace(recipient)
	if !strings.HasPrefix(recipient, "0x") || !common.IsHexAddress(recipient) {
		return common.Address{}
	}
	return common.HexToAddress(recipient)
}

func isRevert(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "execution reverted") ||
		strings.Contains(err.Error(), "revert")
}
