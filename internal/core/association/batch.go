package association

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agenthands/groundtruth/internal/core/model"
	"github.com/agenthands/groundtruth/internal/driver"
	"github.com/agenthands/groundtruth/internal/metrics"
)

// BatchAssociator links a freshly created record to many subjects in one
// bulk call. A new record has no associations yet, so nothing is retired.
type BatchAssociator struct {
	Driver          driver.DirectoryDriver
	Resolver        *Resolver
	SubjectCategory string
	Logger          *zap.Logger
	Metrics         *metrics.Collector
}

func NewBatchAssociator(d driver.DirectoryDriver, subjectCategory string, logger *zap.Logger) *BatchAssociator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchAssociator{
		Driver:          d,
		Resolver:        NewResolver(d, logger),
		SubjectCategory: subjectCategory,
		Logger:          logger,
	}
}

// AssociateMany issues a single bulk create with one entry per distinct,
// non-empty subject id. No subjects means no remote calls.
func (b *BatchAssociator) AssociateMany(ctx context.Context, newRecordID, objectCategory string, subjectIDs []string) error {
	subjects := distinct(subjectIDs)
	if len(subjects) == 0 {
		return nil
	}

	typeID := b.Resolver.ResolveTypeID(ctx, b.SubjectCategory, objectCategory)
	spec := model.AssociationSpec{Category: model.CategoryUserDefined, TypeID: typeID}

	inputs := make([]model.RelationshipInput, 0, len(subjects))
	for _, s := range subjects {
		inputs = append(inputs, model.RelationshipInput{
			SubjectID: s,
			ObjectID:  newRecordID,
			Spec:      spec,
		})
	}

	if err := b.Driver.BatchCreateRelationships(ctx, b.SubjectCategory, objectCategory, inputs); err != nil {
		return fmt.Errorf("%w for %s/%s (%d subjects): %w", ErrBatchFailed, objectCategory, newRecordID, len(inputs), err)
	}

	b.Metrics.ObserveBatch(len(inputs))
	b.Logger.Info("Associated new record",
		zap.String("record", newRecordID),
		zap.String("objectType", objectCategory),
		zap.Int("subjects", len(inputs)),
		zap.Int("typeId", typeID),
	)
	return nil
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
