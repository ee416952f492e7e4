package research

import (
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/expansio/backend/internal/authz"
)

// Query carries the optional research search filters. All are combined with
// the caller's scope; the scope always narrows first.
type Query struct {
	Text      string // case-insensitive substring over title and content
	Tag       string // exact tag membership
	ProjectID string // exact project reference
}

// BuildFilter assembles the bson filter for a scoped query. Callers must
// short-circuit empty scopes before calling; an empty non-admin scope never
// reaches the document store.
func BuildFilter(scope authz.Scope, q Query) bson.M {
	filter := bson.M{}

	if !scope.All() {
		filter["projectId"] = bson.M{"$in": projectIDStrings(scope.ProjectIDs())}
	}
	if q.ProjectID != "" {
		// An explicit project filter replaces the $in only when the scope
		// allows that project; the caller verified that with ScopeAllowsProject.
		filter["projectId"] = q.ProjectID
	}
	if q.Tag != "" {
		filter["tags"] = q.Tag
	}
	if q.Text != "" {
		regex := primitive.Regex{Pattern: q.Text, Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": regex},
			bson.M{"content": regex},
		}
	}
	return filter
}

// ScopeAllowsProject reports whether the scope permits the string-form
// project id. Malformed ids are never allowed for restricted scopes.
func ScopeAllowsProject(scope authz.Scope, projectID string) bool {
	if scope.All() {
		return true
	}
	id, err := strconv.ParseInt(projectID, 10, 64)
	if err != nil {
		return false
	}
	return scope.Allows(id)
}

func projectIDStrings(ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatInt(id, 10)
	}
	return out
}
