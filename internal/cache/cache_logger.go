package cache

import (
	"context"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateRankings drops every leaderboard and stats entry. Called
// after any mutation that changes certificate counts or the registry,
// so readers never need a manual refresh to see new data.
func InvalidateRankings(ctx context.Context, cm *CacheManager) {
	SafeInvalidatePattern(ctx, cm.Leaderboard, "*")
	SafeInvalidatePattern(ctx, cm.Stats, "*")
}

// InvalidateCertificate drops the cached verification result for one
// certificate, used after revocation.
func InvalidateCertificate(ctx context.Context, cm *CacheManager, certID string) {
	SafeDelete(ctx, cm.Verify, "cert:"+certID)
	SafeInvalidatePattern(ctx, cm.Verify, "student:*")
}
