package association

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agenthands/groundtruth/internal/core/model"
	"github.com/agenthands/groundtruth/internal/driver"
	"github.com/agenthands/groundtruth/internal/metrics"
)

var (
	ErrMissingSubject = errors.New("missing subject id")
	ErrCreateFailed   = errors.New("failed to create association")
	ErrDeleteFailed   = errors.New("failed to delete association")
	ErrBatchFailed    = errors.New("failed to batch create associations")
)

const defaultRetireConcurrency = 4

// Reconciler keeps at most one association from a subject to an object
// category. The directory has no atomic replace, so every call lists the
// existing associations, deletes them and then creates the new one.
type Reconciler struct {
	Driver          driver.DirectoryDriver
	Resolver        *Resolver
	SubjectCategory string
	Logger          *zap.Logger
	Metrics         *metrics.Collector

	// RetireConcurrency bounds parallel deletes within one call.
	RetireConcurrency int

	// Locks, when set, serializes Reconcile and Disassociate per subject.
	// Without it two concurrent calls for one subject may interleave and
	// leave zero or several associations behind.
	Locks *SubjectLocks
}

func NewReconciler(d driver.DirectoryDriver, subjectCategory string, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		Driver:            d,
		Resolver:          NewResolver(d, logger),
		SubjectCategory:   subjectCategory,
		Logger:            logger,
		RetireConcurrency: defaultRetireConcurrency,
	}
}

// Reconcile points subjectID at newObjectID. An empty newObjectID is a
// no-op. Only a failed create is reported; lookup and delete failures are
// logged and the call carries on.
func (r *Reconciler) Reconcile(ctx context.Context, subjectID, objectCategory, newObjectID string) error {
	const op = "reconcile"

	if newObjectID == "" {
		r.Metrics.ObserveReconcile(op, metrics.OutcomeNoop)
		return nil
	}
	if subjectID == "" {
		r.Metrics.ObserveReconcile(op, metrics.OutcomeFailure)
		return ErrMissingSubject
	}

	if r.Locks != nil {
		unlock := r.Locks.Lock(subjectID)
		defer unlock()
	}

	log := r.Logger.With(
		zap.String("subject", subjectID),
		zap.String("objectType", objectCategory),
		zap.String("target", newObjectID),
	)

	typeID := r.Resolver.ResolveTypeID(ctx, r.SubjectCategory, objectCategory)

	existing, err := r.Driver.ListRelationships(ctx, r.SubjectCategory, subjectID, objectCategory)
	if err != nil {
		log.Warn("Could not list existing associations, continuing without retiring", zap.Error(err))
		existing = nil
	}

	if failed := r.retire(ctx, log, subjectID, objectCategory, existing); failed > 0 {
		log.Warn("Some existing associations were not retired",
			zap.Int("failed", failed),
			zap.Int("found", len(existing)),
		)
	}

	spec := model.AssociationSpec{Category: model.CategoryUserDefined, TypeID: typeID}
	if err := r.Driver.PutRelationship(ctx, r.SubjectCategory, subjectID, objectCategory, newObjectID, spec); err != nil {
		r.Metrics.ObserveReconcile(op, metrics.OutcomeFailure)
		log.Error("Failed to create association", zap.Int("typeId", typeID), zap.Error(err))
		return fmt.Errorf("%w %s -> %s/%s: %w", ErrCreateFailed, subjectID, objectCategory, newObjectID, err)
	}

	r.Metrics.ObserveReconcile(op, metrics.OutcomeSuccess)
	log.Info("Association reconciled",
		zap.Int("typeId", typeID),
		zap.Int("retired", len(existing)),
	)
	return nil
}

// retire deletes every listed association independently and returns how
// many deletes failed.
func (r *Reconciler) retire(ctx context.Context, log *zap.Logger, subjectID, objectCategory string, existing []model.Relationship) int {
	if len(existing) == 0 {
		return 0
	}

	var failed atomic.Int32
	var g errgroup.Group
	if r.RetireConcurrency > 0 {
		g.SetLimit(r.RetireConcurrency)
	}

	for _, rel := range existing {
		objectID := rel.ObjectID
		g.Go(func() error {
			err := r.Driver.DeleteRelationship(ctx, r.SubjectCategory, subjectID, objectCategory, objectID)
			r.Metrics.ObserveRetirement(err)
			if err != nil {
				failed.Add(1)
				log.Warn("Failed to retire association", zap.String("existing", objectID), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	return int(failed.Load())
}

// Disassociate removes one association with a single delete. An empty
// targetObjectID is a no-op.
func (r *Reconciler) Disassociate(ctx context.Context, subjectID, objectCategory, targetObjectID string) error {
	const op = "disassociate"

	if targetObjectID == "" {
		r.Metrics.ObserveReconcile(op, metrics.OutcomeNoop)
		return nil
	}
	if subjectID == "" {
		r.Metrics.ObserveReconcile(op, metrics.OutcomeFailure)
		return ErrMissingSubject
	}

	if r.Locks != nil {
		unlock := r.Locks.Lock(subjectID)
		defer unlock()
	}

	if err := r.Driver.DeleteRelationship(ctx, r.SubjectCategory, subjectID, objectCategory, targetObjectID); err != nil {
		r.Metrics.ObserveReconcile(op, metrics.OutcomeFailure)
		r.Logger.Error("Failed to remove association",
			zap.String("subject", subjectID),
			zap.String("objectType", objectCategory),
			zap.String("target", targetObjectID),
			zap.Error(err),
		)
		return fmt.Errorf("%w %s -> %s/%s: %w", ErrDeleteFailed, subjectID, objectCategory, targetObjectID, err)
	}

	r.Metrics.ObserveReconcile(op, metrics.OutcomeSuccess)
	return nil
}
