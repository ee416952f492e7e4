package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResearchDoc is a free-text research note stored in MongoDB. ProjectID is
// the string form of a relational project id; it is a weak reference with
// no cascade from the document side (see the consistency checker in
// internal/research).
type ResearchDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProjectID string             `bson:"projectId" json:"project_id"`
	Title     string             `bson:"title" json:"title"`
	Content   string             `bson:"content" json:"content"`
	Tags      []string           `bson:"tags" json:"tags"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
}
