package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/certchain/credential-service/internal/cache"
	"github.com/certchain/credential-service/internal/chain"
	"github.com/certchain/credential-service/internal/models"
	"github.com/certchain/credential-service/internal/repositories"
)

// ===== RESPONSE DTOs =====

type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	StudentID  string `json:"student_id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	CertCount  int    `json:"cert_count"`
	Points     int    `json:"points"`
	Title      string `json:"title"`
}

type LeaderboardResponse struct {
	Entries    []LeaderboardEntry `json:"entries"`
	Department string             `json:"department,omitempty"`
	Total      int                `json:"total"`
}

// Honor titles by certificate count.
const (
	TitleChainLegend    = "Chain Legend"
	TitleVerifiedExpert = "Verified Expert"
	TitleEliteScholar   = "Elite Scholar"
	TitleRisingStar     = "Rising Star"
)

const pointsPerCertificate = 100

// ===== SERVICE INTERFACE =====

type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, department string) (*LeaderboardResponse, error)
	Departments(ctx context.Context) ([]string, error)
}

// ===== SERVICE IMPLEMENTATION =====

type leaderboardService struct {
	repo   repositories.Repository
	reader chain.ContractReader
	cache  *cache.CacheManager
	logger *slog.Logger
}

func NewLeaderboardService(repo repositories.Repository, reader chain.ContractReader, cacheManager *cache.CacheManager, logger *slog.Logger) LeaderboardService {
	return &leaderboardService{
		repo:   repo,
		reader: reader,
		cache:  cacheManager,
		logger: logger,
	}
}

// GetLeaderboard merges the local registry with on-chain issuance logs.
// Registry rows seed entries with a count of zero; chain events create
// missing entries and increment counts. The chain wins on names, the
// registry wins on departments.
func (s *leaderboardService) GetLeaderboard(ctx context.Context, department string) (*LeaderboardResponse, error) {
	cacheKey := "all"
	if department != "" {
		cacheKey = "dept:" + department
	}

	var response LeaderboardResponse
	err := s.cache.Leaderboard.CacheOrExecute(ctx, cacheKey, &response, cache.LeaderboardCacheConfig.TTL, func() (interface{}, error) {
		return s.build(ctx, department)
	})
	if err != nil {
		if errors.Is(err, ErrChainUnavailable) {
			return nil, fmt.Errorf("%w: leaderboard needs chain access", ErrChainUnavailable)
		}
		return nil, fmt.Errorf("failed to build leaderboard: %w", err)
	}

	return &response, nil
}

func (s *leaderboardService) Departments(ctx context.Context) ([]string, error) {
	return s.repo.Student().Departments(ctx)
}

func (s *leaderboardService) build(ctx context.Context, department string) (*LeaderboardResponse, error) {
	s.logger.Info("Building leaderboard", "department", department)

	students, err := s.repo.Student().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	chainEvents, err := s.reader.IssuanceEvents(ctx)
	if err != nil {
		if errors.Is(err, chain.ErrChainUnavailable) || errors.Is(err, chain.ErrWrongNetwork) {
			return nil, fmt.Errorf("%w: %v", ErrChainUnavailable, err)
		}
		return nil, fmt.Errorf("failed to read issuance logs: %w", err)
	}

	type aggregate struct {
		studentID  string
		name       string
		department string
		certCount  int
	}

	merged := make(map[string]*aggregate, len(students))

	// Registry seeds every known student with zero certificates.
	for _, student := range students {
		key := models.NormalizeStudentID(student.StudentID)
		merged[key] = &aggregate{
			studentID:  student.StudentID,
			name:       student.Name,
			department: student.Department,
		}
	}

	// Chain events create missing entries and always increment. The
	// on-chain name overwrites whatever the registry had.
	for _, ev := range chainEvents {
		key := models.NormalizeStudentID(ev.StudentID)
		if key == "" {
			continue
		}
		entry, ok := merged[key]
		if !ok {
			entry = &aggregate{
				studentID:  ev.StudentID,
				department: models.DefaultDepartment,
			}
			merged[key] = entry
		}
		entry.certCount++
		if ev.StudentName != "" {
			entry.name = ev.StudentName
		}
	}

	entries := make([]LeaderboardEntry, 0, len(merged))
	for key, agg := range merged {
		if department != "" && agg.department != department {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			StudentID:  key,
			Name:       agg.name,
			Department: agg.department,
			CertCount:  agg.certCount,
			Points:     agg.certCount * pointsPerCertificate,
			Title:      titleFor(agg.certCount),
		})
	}

	// Deterministic order: points descending, student ID ascending.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].StudentID < entries[j].StudentID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return &LeaderboardResponse{
		Entries:    entries,
		Department: department,
		Total:      len(entries),
	}, nil
}

func titleFor(certCount int) string {
	switch {
	case certCount >= 10:
		return TitleChainLegend
	case certCount >= 6:
		return TitleVerifiedExpert
	case certCount >= 3:
		return TitleEliteScholar
	default:
		return TitleRisingStar
	}
}
