package services

import (
	"context"
	"errors"
	"testing"

	"github.com/certchain/credential-service/internal/models"
)

func TestLeaderboardService_Merge(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	registry := newFakeRegistry()
	service := NewLeaderboardService(repo, registry, testCache(), testLogger())

	// Registry seeds two students; one of them has two chain
	// certificates, one has none, and a third appears only on chain.
	seed := []*models.Student{
		{Name: "Alice", StudentID: "S-1", Department: "Physics"},
		{Name: "Bob", StudentID: "S-2", Department: "Chemistry"},
	}
	for _, s := range seed {
		if err := repo.Student().Create(ctx, s); err != nil {
			t.Fatalf("Seed failed: %v", err)
		}
	}
	registry.issuanceEvents = []models.IssuanceEvent{
		{StudentID: "s-1", StudentName: "Alice Chain"},
		{StudentID: "S-1 ", StudentName: "Alice Chain"},
		{StudentID: "S-3", StudentName: "Carol"},
	}

	response, err := service.GetLeaderboard(ctx, "")
	if err != nil {
		t.Fatalf("GetLeaderboard failed: %v", err)
	}

	if response.Total != 3 {
		t.Fatalf("Expected 3 entries, got %d", response.Total)
	}

	byID := make(map[string]LeaderboardEntry)
	for _, e := range response.Entries {
		byID[e.StudentID] = e
	}

	t.Run("chain events merge case-insensitively", func(t *testing.T) {
		alice, ok := byID["S-1"]
		if !ok {
			t.Fatal("Expected entry S-1")
		}
		if alice.CertCount != 2 {
			t.Errorf("Expected cert count 2, got %d", alice.CertCount)
		}
		if alice.Points != 200 {
			t.Errorf("Expected 200 points, got %d", alice.Points)
		}
	})

	t.Run("chain name overwrites registry name", func(t *testing.T) {
		if byID["S-1"].Name != "Alice Chain" {
			t.Errorf("Expected on-chain name, got %s", byID["S-1"].Name)
		}
	})

	t.Run("registry keeps department authority", func(t *testing.T) {
		if byID["S-1"].Department != "Physics" {
			t.Errorf("Expected Physics, got %s", byID["S-1"].Department)
		}
	})

	t.Run("chain-only students default to General", func(t *testing.T) {
		carol, ok := byID["S-3"]
		if !ok {
			t.Fatal("Expected entry S-3")
		}
		if carol.Department != models.DefaultDepartment {
			t.Errorf("Expected default department, got %s", carol.Department)
		}
		if carol.CertCount != 1 {
			t.Errorf("Expected cert count 1, got %d", carol.CertCount)
		}
	})

	t.Run("registry-only students rank with zero", func(t *testing.T) {
		bob := byID["S-2"]
		if bob.CertCount != 0 || bob.Points != 0 {
			t.Errorf("Expected empty record, got count=%d points=%d", bob.CertCount, bob.Points)
		}
	})

	t.Run("sorted by points then student ID", func(t *testing.T) {
		entries := response.Entries
		if entries[0].StudentID != "S-1" {
			t.Errorf("Expected S-1 first, got %s", entries[0].StudentID)
		}
		// S-2 and S-3 split by points; S-3 has one certificate.
		if entries[1].StudentID != "S-3" || entries[2].StudentID != "S-2" {
			t.Errorf("Unexpected order: %s, %s", entries[1].StudentID, entries[2].StudentID)
		}
		for i, e := range entries {
			if e.Rank != i+1 {
				t.Errorf("Expected rank %d, got %d", i+1, e.Rank)
			}
		}
	})
}

func TestLeaderboardService_OrderIndependence(t *testing.T) {
	ctx := context.Background()

	build := func(eventOrder []models.IssuanceEvent) map[string]int {
		repo := newMemoryRepository()
		registry := newFakeRegistry()
		registry.issuanceEvents = eventOrder
		service := NewLeaderboardService(repo, registry, testCache(), testLogger())

		response, err := service.GetLeaderboard(ctx, "")
		if err != nil {
			t.Fatalf("GetLeaderboard failed: %v", err)
		}
		counts := make(map[string]int)
		for _, e := range response.Entries {
			counts[e.StudentID] = e.CertCount
		}
		return counts
	}

	forward := build([]models.IssuanceEvent{
		{StudentID: "A-1", StudentName: "A"},
		{StudentID: "A-2", StudentName: "B"},
		{StudentID: "A-1", StudentName: "A"},
	})
	reversed := build([]models.IssuanceEvent{
		{StudentID: "A-2", StudentName: "B"},
		{StudentID: "A-1", StudentName: "A"},
		{StudentID: "A-1", StudentName: "A"},
	})

	if len(forward) != len(reversed) {
		t.Fatalf("Entry count differs: %d vs %d", len(forward), len(reversed))
	}
	for id, count := range forward {
		if reversed[id] != count {
			t.Errorf("Count for %s differs: %d vs %d", id, count, reversed[id])
		}
	}
}

func TestLeaderboardService_Titles(t *testing.T) {
	tests := []struct {
		count int
		title string
	}{
		{0, TitleRisingStar},
		{2, TitleRisingStar},
		{3, TitleEliteScholar},
		{5, TitleEliteScholar},
		{6, TitleVerifiedExpert},
		{9, TitleVerifiedExpert},
		{10, TitleChainLegend},
		{25, TitleChainLegend},
	}

	for _, tt := range tests {
		if got := titleFor(tt.count); got != tt.title {
			t.Errorf("titleFor(%d) = %s, expected %s", tt.count, got, tt.title)
		}
	}
}

func TestLeaderboardService_DepartmentFilter(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	registry := newFakeRegistry()
	service := NewLeaderboardService(repo, registry, testCache(), testLogger())

	seed := []*models.Student{
		{Name: "Alice", StudentID: "F-1", Department: "Physics"},
		{Name: "Bob", StudentID: "F-2", Department: "Chemistry"},
	}
	for _, s := range seed {
		if err := repo.Student().Create(ctx, s); err != nil {
			t.Fatalf("Seed failed: %v", err)
		}
	}

	response, err := service.GetLeaderboard(ctx, "Physics")
	if err != nil {
		t.Fatalf("GetLeaderboard failed: %v", err)
	}
	if response.Total != 1 {
		t.Fatalf("Expected 1 entry, got %d", response.Total)
	}
	if response.Entries[0].StudentID != "F-1" {
		t.Errorf("Expected F-1, got %s", response.Entries[0].StudentID)
	}
}

func TestLeaderboardService_ChainUnavailable(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	registry := newFakeRegistry()
	registry.unavailable = true
	service := NewLeaderboardService(repo, registry, testCache(), testLogger())

	_, err := service.GetLeaderboard(ctx, "")
	if !errors.Is(err, ErrChainUnavailable) {
		t.Errorf("Expected ErrChainUnavailable, got %v", err)
	}
}
