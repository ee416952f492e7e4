package matching

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/expansio/backend/internal/authz"
	"github.com/expansio/backend/internal/models"
	"github.com/expansio/backend/pkg/errs"
)

// ProjectStore loads projects for scoring.
type ProjectStore interface {
	// GetByID returns the project with its required service ids loaded.
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	// ListActiveIDs returns ids of all active projects.
	ListActiveIDs(ctx context.Context) ([]int64, error)
}

// VendorStore enumerates candidate vendors.
type VendorStore interface {
	// ListByCountry returns vendors covering the country, capabilities loaded.
	ListByCountry(ctx context.Context, country string) ([]models.Vendor, error)
}

// MatchStore persists scores.
type MatchStore interface {
	Upsert(ctx context.Context, projectID, vendorID int64, score float64) (*models.Match, bool, error)
}

// ClientStore resolves the owning client for notifications.
type ClientStore interface {
	GetByID(ctx context.Context, id int64) (*models.Client, error)
}

// Notifier delivers high-score match events. Delivery is best effort: the
// engine logs and discards any error it returns.
type Notifier interface {
	HighScoreMatch(ctx context.Context, match *models.Match, project *models.Project, client *models.Client) error
}

// Engine rebuilds the match set for a project: it scores every vendor
// covering the project's country, upserts one row per qualifying vendor and
// notifies the owning client about new or high-scoring matches. Rebuilds
// are idempotent.
type Engine struct {
	projects  ProjectStore
	vendors   VendorStore
	matches   MatchStore
	clients   ClientStore
	notifier  Notifier
	threshold float64
	logger    *zap.Logger
}

// NewEngine creates a matching engine. threshold is the minimum score
// (inclusive) at which an updated match still notifies.
func NewEngine(projects ProjectStore, vendors VendorStore, matches MatchStore, clients ClientStore, notifier Notifier, threshold float64, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		projects:  projects,
		vendors:   vendors,
		matches:   matches,
		clients:   clients,
		notifier:  notifier,
		threshold: threshold,
		logger:    logger,
	}
}

// RebuildFor is the authorization-checked rebuild reachable from the API.
// Non-admin callers must own the project; the existence check runs first so
// a missing project is NotFound for everyone while someone else's project
// is Forbidden.
func (e *Engine) RebuildFor(ctx context.Context, projectID int64, p authz.Principal) ([]models.Match, error) {
	project, err := e.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && project.ClientID != p.ClientID {
		return nil, errs.Forbidden("project matches")
	}
	return e.rebuild(ctx, project)
}

// Rebuild is the trusted, unchecked rebuild. Only the scheduled job calls
// it; it is never wired to a route.
func (e *Engine) Rebuild(ctx context.Context, projectID int64) ([]models.Match, error) {
	project, err := e.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return e.rebuild(ctx, project)
}

func (e *Engine) rebuild(ctx context.Context, project *models.Project) ([]models.Match, error) {
	// No required services means scoring is meaningless, and no candidate
	// vendors means nothing to score. Both are empty results, not errors.
	if len(project.ServiceIDs) == 0 {
		return []models.Match{}, nil
	}
	candidates, err := e.vendors.ListByCountry(ctx, project.Country)
	if err != nil {
		return nil, fmt.Errorf("list vendors for %q: %w", project.Country, err)
	}
	if len(candidates) == 0 {
		return []models.Match{}, nil
	}

	results := make([]models.Match, 0, len(candidates))
	for i := range candidates {
		vendor := &candidates[i]
		score, ok := Score(vendor, project.ServiceIDs)
		if !ok {
			continue
		}
		match, created, err := e.matches.Upsert(ctx, project.ID, vendor.ID, score)
		if err != nil {
			return nil, fmt.Errorf("upsert match project=%d vendor=%d: %w", project.ID, vendor.ID, err)
		}
		results = append(results, *match)

		if created || match.Score >= e.threshold {
			e.notify(ctx, match, project)
		}
	}

	e.logger.Info("matches rebuilt",
		zap.Int64("project_id", project.ID),
		zap.String("country", project.Country),
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(results)),
	)
	return results, nil
}

// RebuildAll runs the trusted rebuild over every active project. One
// project's failure is logged and skipped, never fatal to the batch.
func (e *Engine) RebuildAll(ctx context.Context) error {
	ids, err := e.projects.ListActiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("list active projects: %w", err)
	}
	e.logger.Info("daily match rebuild starting", zap.Int("projects", len(ids)))
	for _, id := range ids {
		if _, err := e.Rebuild(ctx, id); err != nil {
			e.logger.Error("rebuild failed", zap.Int64("project_id", id), zap.Error(err))
		}
	}
	e.logger.Info("daily match rebuild completed")
	return nil
}

// notify resolves the owning client and fires the notifier. Failures are
// logged and swallowed so one bad delivery never aborts the rebuild.
func (e *Engine) notify(ctx context.Context, match *models.Match, project *models.Project) {
	client, err := e.clients.GetByID(ctx, project.ClientID)
	if err != nil {
		e.logger.Warn("skip notification, owner lookup failed",
			zap.Int64("project_id", project.ID), zap.Error(err))
		return
	}
	if err := e.notifier.HighScoreMatch(ctx, match, project, client); err != nil {
		e.logger.Warn("match notification failed",
			zap.Int64("project_id", match.ProjectID),
			zap.Int64("vendor_id", match.VendorID),
			zap.Float64("score", match.Score),
			zap.Error(err),
		)
	}
}
