package association

import (
	"context"

	"go.uber.org/zap"

	"github.com/agenthands/groundtruth/internal/core/model"
	"github.com/agenthands/groundtruth/internal/driver"
)

// Resolver looks up the association type id for a schema edge. It keeps no
// cache: every call queries the directory.
type Resolver struct {
	Driver driver.DirectoryDriver
	Logger *zap.Logger
}

func NewResolver(d driver.DirectoryDriver, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{Driver: d, Logger: logger}
}

// ResolveTypeID never fails. Lookup errors and empty results fall back to
// model.DefaultTypeID.
func (r *Resolver) ResolveTypeID(ctx context.Context, subjectCategory, objectCategory string) int {
	types, err := r.Driver.GetRelationshipTypes(ctx, subjectCategory, objectCategory)
	if err != nil {
		r.Logger.Warn("Association type lookup failed, using default",
			zap.String("from", subjectCategory),
			zap.String("to", objectCategory),
			zap.Int("typeId", model.DefaultTypeID),
			zap.Error(err),
		)
		return model.DefaultTypeID
	}
	if len(types) == 0 {
		r.Logger.Warn("No association types registered, using default",
			zap.String("from", subjectCategory),
			zap.String("to", objectCategory),
			zap.Int("typeId", model.DefaultTypeID),
		)
		return model.DefaultTypeID
	}

	// REVIEW: first label wins. The schema may register several labels on
	// the same edge and list order is not a statement of intent.
	return types[0].TypeID
}
