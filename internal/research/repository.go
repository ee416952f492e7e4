// Package research stores free-text research notes in MongoDB, scoped to
// the projects the caller may see.
package research

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/expansio/backend/internal/authz"
	"github.com/expansio/backend/internal/models"
	"github.com/expansio/backend/pkg/errs"
)

const collection = "research_docs"

// Repository handles research document persistence.
type Repository struct {
	db *mongo.Database
}

// NewRepository creates a research repository.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{db: db}
}

func (r *Repository) col() *mongo.Collection {
	return r.db.Collection(collection)
}

// Create inserts a research document.
func (r *Repository) Create(ctx context.Context, doc *models.ResearchDoc) error {
	doc.ID = primitive.NewObjectID()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	_, err := r.col().InsertOne(ctx, doc)
	return err
}

// FindAll returns one page of scoped documents plus the scoped total count.
// The scope narrows the filter before skip/limit so both the page and the
// total reflect only what the caller may see. Empty scopes never reach the
// store.
func (r *Repository) FindAll(ctx context.Context, scope authz.Scope, q Query, page, limit int, sortField string, sortDesc bool) ([]models.ResearchDoc, int64, error) {
	if scope.Empty() {
		return []models.ResearchDoc{}, 0, nil
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if sortField == "" {
		sortField = "createdAt"
		sortDesc = true
	}

	filter := BuildFilter(scope, q)
	total, err := r.col().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	dir := 1
	if sortDesc {
		dir = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: dir}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := r.col().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	docs := []models.ResearchDoc{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// Search returns scoped documents matching the text/tag/project filters,
// without pagination.
func (r *Repository) Search(ctx context.Context, scope authz.Scope, q Query) ([]models.ResearchDoc, error) {
	if scope.Empty() {
		return []models.ResearchDoc{}, nil
	}
	if q.ProjectID != "" && !ScopeAllowsProject(scope, q.ProjectID) {
		return []models.ResearchDoc{}, nil
	}
	cur, err := r.col().Find(ctx, BuildFilter(scope, q))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	docs := []models.ResearchDoc{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// FindByID returns one document by hex id. Unknown and malformed ids are
// both NotFound; ownership is the caller's second check.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.ResearchDoc, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.NotFound("research document", id)
	}
	var doc models.ResearchDoc
	err = r.col().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.NotFound("research document", id)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Update overwrites the mutable fields of one document and returns the new
// state.
func (r *Repository) Update(ctx context.Context, id string, projectID, title, content string, tags []string) (*models.ResearchDoc, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.NotFound("research document", id)
	}
	if tags == nil {
		tags = []string{}
	}
	update := bson.M{"$set": bson.M{
		"projectId": projectID,
		"title":     title,
		"content":   content,
		"tags":      tags,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc models.ResearchDoc
	err = r.col().FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.NotFound("research document", id)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Delete removes one document by hex id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errs.NotFound("research document", id)
	}
	res, err := r.col().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return errs.NotFound("research document", id)
	}
	return nil
}

// DistinctProjectIDs returns every projectId referenced by any document.
// Used by the consistency checker.
func (r *Repository) DistinctProjectIDs(ctx context.Context) ([]string, error) {
	raw, err := r.col().Distinct(ctx, "projectId", bson.M{})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

// CountByProjectIDs counts documents referencing any of the given string
// project ids. Used by analytics.
func (r *Repository) CountByProjectIDs(ctx context.Context, projectIDs []string) (int64, error) {
	if len(projectIDs) == 0 {
		return 0, nil
	}
	return r.col().CountDocuments(ctx, bson.M{"projectId": bson.M{"$in": projectIDs}})
}
