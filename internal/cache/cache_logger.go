package cache

import (
	"context"
	"log/slog"
)

// SafeDelete deletes cache keys, logging instead of failing
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateProfiles drops the cached profiles of the given students
func InvalidateProfiles(ctx context.Context, cm *CacheManager, studentIDs ...string) {
	keys := make([]string, len(studentIDs))
	for i, id := range studentIDs {
		keys[i] = ProfileKey(id)
	}
	SafeDelete(ctx, cm.Profile, keys...)
}
