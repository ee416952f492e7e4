package analytics

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/expansio/backend/pkg/response"
)

// DocCounter counts research documents grouped by project id.
type DocCounter interface {
	CountByProjectIDs(ctx context.Context, projectIDs []string) (int64, error)
}

type Handler struct {
	repo   *Repository
	docs   DocCounter
	logger *zap.Logger
}

func NewHandler(repo *Repository, docs DocCounter, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, docs: docs, logger: logger}
}

// TopVendors reports the top 3 vendors per country by average match score,
// enriched with each country's research document count. Admin only.
func (h *Handler) TopVendors(c *gin.Context) {
	sinceDays := 30
	if raw := c.Query("since_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.BadRequest(c, "since_days must be a positive integer")
			return
		}
		sinceDays = n
	}
	since := time.Now().AddDate(0, 0, -sinceDays)

	vendors, err := h.repo.TopVendorsPerCountry(c.Request.Context(), since)
	if err != nil {
		h.logger.Error("top vendors aggregate failed", zap.Error(err))
		response.Internal(c, "failed to compute analytics")
		return
	}

	// Doc counts are per country; compute once per distinct country.
	docCounts := make(map[string]int64)
	for i := range vendors {
		country := vendors[i].Country
		count, ok := docCounts[country]
		if !ok {
			ids, err := h.repo.ProjectIDsByCountry(c.Request.Context(), country)
			if err != nil {
				h.logger.Error("project ids by country failed",
					zap.String("country", country), zap.Error(err))
				response.Internal(c, "failed to compute analytics")
				return
			}
			if len(ids) > 0 {
				count, err = h.docs.CountByProjectIDs(c.Request.Context(), ids)
				if err != nil {
					h.logger.Error("research doc count failed",
						zap.String("country", country), zap.Error(err))
					response.Internal(c, "failed to compute analytics")
					return
				}
			}
			docCounts[country] = count
		}
		vendors[i].ResearchDocCount = count
	}

	response.OK(c, gin.H{
		"since_days": sinceDays,
		"vendors":    vendors,
	})
}
