package driver

import (
	"context"

	"github.com/agenthands/groundtruth/internal/core/model"
)

// DirectoryDriver is the relationship contract of the remote directory.
type DirectoryDriver interface {
	GetRelationshipTypes(ctx context.Context, subjectCategory, objectCategory string) ([]model.TypeDescriptor, error)
	ListRelationships(ctx context.Context, subjectCategory, subjectID, objectCategory string) ([]model.Relationship, error)
	DeleteRelationship(ctx context.Context, subjectCategory, subjectID, objectCategory, objectID string) error
	PutRelationship(ctx context.Context, subjectCategory, subjectID, objectCategory, objectID string, spec model.AssociationSpec) error
	BatchCreateRelationships(ctx context.Context, subjectCategory, objectCategory string, inputs []model.RelationshipInput) error
}

type RecordDriver interface {
	ListRecords(ctx context.Context, category string, properties []string, limit int) ([]model.Record, error)
	GetRecord(ctx context.Context, category, id string, properties []string) (*model.Record, error)
	CreateRecord(ctx context.Context, category string, properties map[string]interface{}) (*model.Record, error)
}

type Driver interface {
	DirectoryDriver
	RecordDriver
}
