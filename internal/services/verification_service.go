package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/certchain/credential-service/internal/cache"
	"github.com/certchain/credential-service/internal/chain"
	"github.com/certchain/credential-service/internal/models"
)

// ===== RESPONSE DTOs =====

type VerificationResult struct {
	Certificate *models.ChainCertificate `json:"certificate"`

	// FromStudentSearch is set when the query missed as a certificate
	// ID and resolved through the student's certificate list instead.
	FromStudentSearch bool `json:"from_student_search"`

	// TotalCount is the number of certificates the student holds when
	// the result came from a student search.
	TotalCount int       `json:"total_count,omitempty"`
	VerifiedAt time.Time `json:"verified_at"`
}

// ===== SERVICE INTERFACE =====

type VerificationService interface {
	Verify(ctx context.Context, query string) (*VerificationResult, error)
}

// ===== SERVICE IMPLEMENTATION =====

type verificationService struct {
	reader chain.ContractReader
	cache  *cache.CacheManager
	logger *slog.Logger
}

func NewVerificationService(reader chain.ContractReader, cacheManager *cache.CacheManager, logger *slog.Logger) VerificationService {
	return &verificationService{
		reader: reader,
		cache:  cacheManager,
		logger: logger,
	}
}

// Verify resolves a query first as a certificate ID, then as a student
// ID. The student path returns the most recently issued certificate
// annotated with the student's total count.
func (s *verificationService) Verify(ctx context.Context, query string) (*VerificationResult, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidationFailed)
	}

	s.logger.Info("Verifying certificate", "query", query)

	var result VerificationResult
	err := s.cache.Verify.CacheOrExecute(ctx, "cert:"+query, &result, cache.VerifyCacheConfig.TTL, func() (interface{}, error) {
		return s.lookup(ctx, query)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("certificate %s: %w", query, ErrNotFound)
		}
		if errors.Is(err, ErrChainUnavailable) {
			return nil, fmt.Errorf("%w: verification needs chain access", ErrChainUnavailable)
		}
		return nil, fmt.Errorf("verification failed: %w", err)
	}

	return &result, nil
}

func (s *verificationService) lookup(ctx context.Context, query string) (*VerificationResult, error) {
	cert, err := s.reader.GetCertificate(ctx, query)
	if err == nil {
		return &VerificationResult{Certificate: cert, VerifiedAt: time.Now()}, nil
	}
	if !errors.Is(err, chain.ErrCertificateNotFound) {
		return nil, s.wrapChainError(err)
	}

	// Fall back to a student ID search.
	certIDs, err := s.reader.GetCertificatesByStudentID(ctx, query)
	if err != nil {
		return nil, s.wrapChainError(err)
	}
	if len(certIDs) == 0 {
		return nil, ErrNotFound
	}

	latest, err := s.mostRecent(ctx, certIDs)
	if err != nil {
		return nil, err
	}

	return &VerificationResult{
		Certificate:       latest,
		FromStudentSearch: true,
		TotalCount:        len(certIDs),
		VerifiedAt:        time.Now(),
	}, nil
}

// mostRecent fetches each certificate and keeps the one with the
// highest on-chain timestamp. Revoked entries still count.
func (s *verificationService) mostRecent(ctx context.Context, certIDs []string) (*models.ChainCertificate, error) {
	var latest *models.ChainCertificate
	for _, id := range certIDs {
		cert, err := s.reader.GetCertificate(ctx, id)
		if err != nil {
			if errors.Is(err, chain.ErrCertificateNotFound) {
				continue
			}
			return nil, s.wrapChainError(err)
		}
		if latest == nil || (cert.Timestamp != nil && latest.Timestamp != nil && cert.Timestamp.Cmp(latest.Timestamp) > 0) {
			latest = cert
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (s *verificationService) wrapChainError(err error) error {
	if errors.Is(err, chain.ErrChainUnavailable) || errors.Is(err, chain.ErrWrongNetwork) {
		return fmt.Errorf("%w: %v", ErrChainUnavailable, err)
	}
	return err
}
