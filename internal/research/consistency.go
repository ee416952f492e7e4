package research

import (
	"context"
	"strconv"

	"go.uber.org/zap"
)

// ProjectChecker answers whether a relational project row exists.
type ProjectChecker interface {
	ProjectExists(ctx context.Context, id int64) (bool, error)
}

// Checker finds research documents whose projectId no longer resolves to a
// relational project. The reference is weak; relational deletes do not
// cascade into the document store, so orphans accumulate until a
// maintenance pass reports them. This never runs on a request path.
type Checker struct {
	repo     *Repository
	projects ProjectChecker
	logger   *zap.Logger
}

// NewChecker creates a cross-store consistency checker.
func NewChecker(repo *Repository, projects ProjectChecker, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{repo: repo, projects: projects, logger: logger}
}

// OrphanedProjectIDs returns the projectId values that do not resolve to an
// existing project. Malformed ids (non-numeric) are reported as orphans too.
func (c *Checker) OrphanedProjectIDs(ctx context.Context) ([]string, error) {
	ids, err := c.repo.DistinctProjectIDs(ctx)
	if err != nil {
		return nil, err
	}
	var orphans []string
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			orphans = append(orphans, raw)
			continue
		}
		exists, err := c.projects.ProjectExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			orphans = append(orphans, raw)
		}
	}
	if len(orphans) > 0 {
		c.logger.Warn("research documents reference missing projects",
			zap.Int("orphaned_project_ids", len(orphans)))
	}
	return orphans, nil
}
