package services

import (
	"context"
)

// ===== SHARED DTOs =====

type CSVExport struct {
	Filename string `json:"filename"`
	Content  []byte `json:"-"`
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Registry() RegistryService
	Issuance() IssuanceService
	Leaderboard() LeaderboardService
	Verification() VerificationService
	Event() EventService
	Notification() NotificationService
	Dashboard() DashboardService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
