package chain

import (
	"context"
	"errors"

	"github.com/certchain/credential-service/internal/models"
)

// certificateRegistryABI mirrors the deployed certificate registry
// contract. Certificate IDs are indexed strings in events, so log
// topics carry only their keccak hash.
const certificateRegistryABI = `[
	{"type":"function","name":"issueCertificate","stateMutability":"nonpayable","inputs":[{"name":"id","type":"string"},{"name":"ipfsHash","type":"string"},{"name":"studentName","type":"string"},{"name":"studentId","type":"string"},{"name":"recipient","type":"address"}],"outputs":[]},
	{"type":"function","name":"issueBatch","stateMutability":"nonpayable","inputs":[{"name":"ids","type":"string[]"},{"name":"ipfsHashes","type":"string[]"},{"name":"studentNames","type":"string[]"},{"name":"studentIds","type":"string[]"},{"name":"recipients","type":"address[]"}],"outputs":[]},
	{"type":"function","name":"revokeCertificate","stateMutability":"nonpayable","inputs":[{"name":"id","type":"string"}],"outputs":[]},
	{"type":"function","name":"getCertificate","stateMutability":"view","inputs":[{"name":"id","type":"string"}],"outputs":[{"name":"","type":"string"},{"name":"","type":"string"},{"name":"","type":"uint256"},{"name":"","type":"string"},{"name":"","type":"string"},{"name":"","type":"address"},{"name":"","type":"bool"}]},
	{"type":"function","name":"getCertificatesByStudentId","stateMutability":"view","inputs":[{"name":"studentId","type":"string"}],"outputs":[{"name":"","type":"string[]"}]},
	{"type":"event","name":"CertificateIssued","inputs":[{"name":"id","type":"string","indexed":true},{"name":"studentId","type":"string","indexed":false},{"name":"studentName","type":"string","indexed":false}],"anonymous":false},
	{"type":"event","name":"CertificateRevoked","inputs":[{"name":"id","type":"string","indexed":true}],"anonymous":false}
]`

var (
	// ErrChainUnavailable wraps connectivity failures so callers can
	// distinguish "cannot reach the network" from "not on chain".
	ErrChainUnavailable = errors.New("blockchain provider unavailable")

	// ErrWrongNetwork means the RPC node is serving a different chain
	// than the configured one.
	ErrWrongNetwork = errors.New("connected node is on the wrong network")

	// ErrCertificateNotFound means the contract has no certificate
	// under the queried ID.
	ErrCertificateNotFound = errors.New("certificate not found on chain")

	// ErrNoSigner means a transacting operation was attempted on a
	// read-only client.
	ErrNoSigner = errors.New("no issuer key configured")
)

// ContractReader covers the contract's view functions and event log
// queries. All read paths in the service depend on this interface.
type ContractReader interface {
	GetCertificate(ctx context.Context, certID string) (*models.ChainCertificate, error)
	GetCertificatesByStudentID(ctx context.Context, studentID string) ([]string, error)
	IssuanceEvents(ctx context.Context) ([]models.IssuanceEvent, error)
}

// ContractWriter covers the transacting functions. Each call signs,
// submits and waits for the receipt before returning the tx hash.
type ContractWriter interface {
	IssueCertificate(ctx context.Context, certID, contentHash, studentName, studentID, recipient string) (string, error)
	IssueBatch(ctx context.Context, rows []models.BatchIssueRow, contentHash string) (string, error)
	RevokeCertificate(ctx context.Context, certID string) (string, error)
}

// Registry is the full on-chain certificate registry surface.
type Registry interface {
	ContractReader
	ContractWriter
	Close()
}
