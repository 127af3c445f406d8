package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/certchain/credential-service/internal/cache"
	"github.com/certchain/credential-service/internal/chain"
	"github.com/certchain/credential-service/internal/models"
	"github.com/certchain/credential-service/internal/repositories"
)

// ===== RESPONSE DTOs =====

type PlatformStatsResponse struct {
	TotalStudents      int64         `json:"total_students"`
	TotalEvents        int64         `json:"total_events"`
	TotalRegistrations int64         `json:"total_registrations"`
	TotalIssued        int64         `json:"total_issued"`
	IssuedSingle       int64         `json:"issued_single"`
	IssuedBatch        int64         `json:"issued_batch"`
	HottestEvent       *HottestEvent `json:"hottest_event,omitempty"`
}

type HottestEvent struct {
	EventID       uint   `json:"event_id"`
	Title         string `json:"title"`
	Registrations int64  `json:"registrations"`
}

type StudentPortfolioResponse struct {
	StudentID    string                     `json:"student_id"`
	Student      *models.Student            `json:"student,omitempty"`
	Certificates []*models.ChainCertificate `json:"certificates"`
	Total        int                        `json:"total"`
}

// ===== SERVICE INTERFACE =====

type DashboardService interface {
	GetPlatformStats(ctx context.Context) (*PlatformStatsResponse, error)
	GetStudentPortfolio(ctx context.Context, studentID string) (*StudentPortfolioResponse, error)
}

// ===== SERVICE IMPLEMENTATION =====

type dashboardService struct {
	repo   repositories.Repository
	reader chain.ContractReader
	cache  *cache.CacheManager
	logger *slog.Logger
}

func NewDashboardService(repo repositories.Repository, reader chain.ContractReader, cacheManager *cache.CacheManager, logger *slog.Logger) DashboardService {
	return &dashboardService{
		repo:   repo,
		reader: reader,
		cache:  cacheManager,
		logger: logger,
	}
}

func (s *dashboardService) GetPlatformStats(ctx context.Context) (*PlatformStatsResponse, error) {
	var stats PlatformStatsResponse
	err := s.cache.Stats.CacheOrExecute(ctx, "platform", &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		return s.buildStats(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build platform stats: %w", err)
	}

	return &stats, nil
}

func (s *dashboardService) buildStats(ctx context.Context) (*PlatformStatsResponse, error) {
	s.logger.Info("Building platform stats")

	students, err := s.repo.Student().Count(ctx)
	if err != nil {
		return nil, err
	}
	eventCount, err := s.repo.Event().Count(ctx)
	if err != nil {
		return nil, err
	}
	registrations, err := s.repo.EventRegistration().Count(ctx)
	if err != nil {
		return nil, err
	}
	issued, err := s.repo.Certificate().Count(ctx)
	if err != nil {
		return nil, err
	}
	single, err := s.repo.Certificate().CountByMode(ctx, models.IssuanceSingle)
	if err != nil {
		return nil, err
	}
	batch, err := s.repo.Certificate().CountByMode(ctx, models.IssuanceBatch)
	if err != nil {
		return nil, err
	}

	stats := &PlatformStatsResponse{
		TotalStudents:      students,
		TotalEvents:        eventCount,
		TotalRegistrations: registrations,
		TotalIssued:        issued,
		IssuedSingle:       single,
		IssuedBatch:        batch,
	}

	hotID, hotCount, err := s.repo.EventRegistration().HottestEvent(ctx)
	if err != nil {
		return nil, err
	}
	if hotID != 0 {
		event, err := s.repo.Event().GetByID(ctx, hotID)
		if err != nil {
			return nil, err
		}
		hot := &HottestEvent{EventID: hotID, Registrations: hotCount}
		if event != nil {
			hot.Title = event.Title
		}
		stats.HottestEvent = hot
	}

	return stats, nil
}

// GetStudentPortfolio lists a student's certificates straight from the
// chain. The registry entry is attached when one exists but is not
// required; certificates can predate registration.
func (s *dashboardService) GetStudentPortfolio(ctx context.Context, studentID string) (*StudentPortfolioResponse, error) {
	if studentID == "" {
		return nil, fmt.Errorf("%w: student ID is required", ErrValidationFailed)
	}

	s.logger.Info("Fetching student portfolio", "student_id", studentID)

	certIDs, err := s.reader.GetCertificatesByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, chain.ErrChainUnavailable) || errors.Is(err, chain.ErrWrongNetwork) {
			return nil, fmt.Errorf("%w: %v", ErrChainUnavailable, err)
		}
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}

	certificates := make([]*models.ChainCertificate, 0, len(certIDs))
	for _, id := range certIDs {
		cert, err := s.reader.GetCertificate(ctx, id)
		if err != nil {
			if errors.Is(err, chain.ErrCertificateNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to fetch certificate %s: %w", id, err)
		}
		certificates = append(certificates, cert)
	}

	student, err := s.repo.Student().GetByNormalizedID(ctx, models.NormalizeStudentID(studentID))
	if err != nil {
		s.logger.Error("Failed to load registry entry", "error", err, "student_id", studentID)
	}

	return &StudentPortfolioResponse{
		StudentID:    studentID,
		Student:      student,
		Certificates: certificates,
		Total:        len(certificates),
	}, nil
}
