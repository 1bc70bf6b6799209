package app

import (
	"context"
	"fmt"

	"kanzlei_check/internal/domain"
)

const legalAreasKey = "legal_areas"

func firmKey(id int64) string {
	return fmt.Sprintf("firm:%d", id)
}

func reviewsKey(firmID int64, pg domain.PageQuery) string {
	return fmt.Sprintf("reviews:%d:%d:%d", firmID, pg.Limit, pg.Offset)
}

// invalidateFirmCaches evicts the firm view and the common first-page review
// variants after a write touching that firm. Deeper pages age out via TTL.
func invalidateFirmCaches(ctx context.Context, cache domain.Cache, firmID int64) {
	_ = cache.Del(ctx, firmKey(firmID))
	for _, lim := range []int{10, 20, 50} {
		_ = cache.Del(ctx, reviewsKey(firmID, domain.PageQuery{Limit: lim, Offset: 0}))
	}
}
