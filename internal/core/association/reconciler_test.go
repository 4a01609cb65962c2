package association

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agenthands/groundtruth/internal/core/model"
	"github.com/agenthands/groundtruth/internal/driver"
	"github.com/agenthands/groundtruth/internal/driver/drivertest"
	"github.com/agenthands/groundtruth/internal/metrics"
)

const (
	contacts = "contacts"
	zip      = "zip"
)

func newReconciler(fake *drivertest.FakeDirectory) *Reconciler {
	r := NewReconciler(fake, contacts, zap.NewNop())
	r.Metrics = metrics.NewCollector("test")
	return r
}

func TestReconcile_ReplacesExisting(t *testing.T) {
	fake := drivertest.NewFakeDirectory()
	fake.Relate(contacts, "contact-1", zip, "zip-9", 1)
	r := newReconciler(fake)

	err := r.Reconcile(context.Background(), "contact-1", zip, "zip-10")

	require.NoError(t, err)

	var ops []string
	for _, c := range fake.Calls {
		ops = append(ops, c.Op)
	}
	assert.Equal(t, []string{
		driver.OpGetTypes,
		driver.OpListRelationships,
		driver.OpDeleteRelationship,
		driver.OpPutRelationship,
	}, ops)

	del := fake.CallsTo(driver.OpDeleteRelationship)
	require.Len(t, del, 1)
	assert.Equal(t, "contact-1", del[0].SubjectID)
	assert.Equal(t, zip, del[0].ObjectCategory)
	assert.Equal(t, "zip-9", del[0].ObjectID)

	put := fake.CallsTo(driver.OpPutRelationship)
	require.Len(t, put, 1)
	assert.Equal(t, "zip-10", put[0].ObjectID)
	assert.Equal(t, model.CategoryUserDefined, put[0].Spec.Category)

	assert.Equal(t, []string{"zip-10"}, fake.Related(contacts, "contact-1", zip))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.Reconciles.WithLabelValues("reconcile", metrics.OutcomeSuccess)))
}

func TestReconcile_ExactlyOneAfterSuccess(t *testing.T) {
	fake := drivertest.NewFakeDirectory()
	fake.Relate(contacts, "contact-1", zip, "zip-1", 1)
	fake.Relate(contacts, "contact-1", zip, "zip-2", 1)
	fake.Relate(contacts, "contact-1", zip, "zip-3", 1)
	r := newReconciler(fake)
	r.RetireConcurrency = 2

	require.NoError(t, r.Reconcile(context.Background(), "contact-1", zip, "zip-4"))

	assert.Len(t, fake.CallsTo(driver.OpDeleteRelationship), 3)
	assert.Equal(t, []string{"zip-4"}, fake.Related(contacts, "contact-1", zip))
}

func TestReconcile_SameTargetIsRecreated(t *testing.T) {
	fake := drivertest.NewFakeDirectory()
	fake.Relate(contacts, "contact-1", zip, "zip-9", 1)
	r := newReconciler(fake)

	require.NoError(t, r.Reconcile(context.Background(), "contact-1", zip, "zip-9"))

	assert.Len(t, fake.CallsTo(driver.OpDeleteRelationship), 1)
	assert.Len(t, fake.CallsTo(driver.OpPutRelationship), 1)
	assert.Equal(t, []string{"zip-9"}, fake.Related(contacts, "contact-1", zip))
}

func TestReconcile_EmptyTargetIsNoop(t *testing.T) {
	fake := drivertest.NewFakeDirectory()
	fake.Relate(contacts, "contact-1", zip, "zip-9", 1)
	r := newReconciler(fake)

	err := r.Reconcile(context.Background(), "contact-1", zip, "")

	assert.NoError(t, err)
	assert.Empty(t, fake.Calls)
	assert.Equal(t, []string{"zip-9"}, fake.Related(contacts, "contact-1", zip))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.Reconciles.WithLabelValues("reconcile", metrics.OutcomeNoop)))
}

func TestReconcile_MissingSubject(t *testing.T) {
	fake := drivertest.NewFakeDirectory()
	r := newReconciler(fake)

	err := r.Reconcile(context.Background(), "", zip, "zip-1")

	assert.ErrorIs(t, err, ErrMissingSubject)
	assert.Empty(t, fake.Calls)
}

func TestReconcile_ListFailureStillCreates(t *testing.T) {
	fake := drivertest.NewFakeDirectory()
	fake.Relate(contacts, "contact-1", zip, "zip-9", 1)
	fake.Errs[driver.OpListRelationships] = errors.New("timeout")
	r := newReconciler(fake)

	err := r.Reconcile(context.Background(), "contact-1", zip, "zip-10")

	require.NoError(t, err)
	assert.Empty(t, fake.CallsTo(driver.OpDeleteRelationship))
	assert.Len(t, fake.CallsTo(driver.OpPutRelationship), 1)
	// The stale association survives; this is the documented gap.
	assert.ElementsMatch(t, []string{"zip-9", "zip-10"}, fake.Related(contacts, "contact-1", zip))
}

func TestReconcile_DeleteFailureDoesNotBlock(t *testing.T) {
	fake := drivertest.NewFakeDirectory()
	fake.Relate(contacts, "contact-1", zip, "zip-1", 1)
	fake.Relate(contacts, "contact-1", zip, "zip-2", 1)
	fake.DeleteErrs["zip-1"] = errors.New("500")
	r := newReconciler(fake)

	err := r.Reconcile(context.Background(), "contact-1", zip, "zip-3")

	require.NoError(t, err)
	assert.Len(t, fake.CallsTo(driver.OpDeleteRelationship), 2)
	assert.ElementsMatch(t, []string{"zip-1", "zip-3"}, fake.Related(contacts, "contact-1", zip))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.Retirements.WithLabelValues(metrics.OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.Retirements.WithLabelValues(metrics.OutcomeSuccess)))
}

func TestReconcile_CreateFailureIsReported(t *testing.T) {
	fake := drivertest.NewFakeDirectory()
	cause := errors.New("400 bad request")
	fake.Errs[driver.OpPutRelationship] = cause
	r := newReconciler(fake)

	err := r.Reconcile(context.Background(), "contact-1", zip, "zip-10")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCreateFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.Reconciles.WithLabelValues("reconcile", metrics.OutcomeFailure)))
}

func TestReconcile_UsesResolvedType(t *testing.T) {
	fake := drivertest.NewFakeDirectory()
	fake.Types = []model.TypeDescriptor{{TypeID: 7}, {TypeID: 9}}
	r := newReconciler(fake)

	require.NoError(t, r.Reconcile(context.Background(), "contact-1", zip, "zip-10"))

	put := fake.CallsTo(driver.OpPutRelationship)
	require.Len(t, put, 1)
	assert.Equal(t, 7, put[0].Spec.TypeID)
}

func TestReconcile_TypeLookupFailureUsesDefault(t *testing.T) {
	fake := drivertest.NewFakeDirectory()
	fake.Errs[driver.OpGetTypes] = errors.New("malformed body")
	r := newReconciler(fake)

	require.NoError(t, r.Reconcile(context.Background(), "contact-1", zip, "zip-10"))

	put := fake.CallsTo(driver.OpPutRelationship)
	require.Len(t, put, 1)
	assert.Equal(t, model.DefaultTypeID, put[0].Spec.TypeID)
}

func TestReconcile_SerializedPerSubject(t *testing.T) {
	fake := drivertest.NewFakeDirectory()
	r := newReconciler(fake)
	r.Locks = NewSubjectLocks()

	targets := []string{"zip-1", "zip-2", "zip-3", "zip-4", "zip-5", "zip-6"}
	var wg sync.WaitGroup
	for _, target := range targets {
		target := target
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Reconcile(context.Background(), "contact-1", zip, target))
		}()
	}
	wg.Wait()

	assert.Len(t, fake.Related(contacts, "contact-1", zip), 1)
	assert.Equal(t, 0, r.Locks.held())
}

func TestDisassociate(t *testing.T) {
	fake := drivertest.NewFakeDirectory()
	fake.Relate(contacts, "contact-1", zip, "zip-9", 1)
	r := newReconciler(fake)

	err := r.Disassociate(context.Background(), "contact-1", zip, "zip-9")

	require.NoError(t, err)
	require.Len(t, fake.Calls, 1)
	assert.Equal(t, driver.OpDeleteRelationship, fake.Calls[0].Op)
	assert.Equal(t, "contact-1", fake.Calls[0].SubjectID)
	assert.Equal(t, zip, fake.Calls[0].ObjectCategory)
	assert.Equal(t, "zip-9", fake.Calls[0].ObjectID)
	assert.Empty(t, fake.Related(contacts, "contact-1", zip))
}

func TestDisassociate_EmptyTargetIsNoop(t *testing.T) {
	fake := drivertest.NewFakeDirectory()
	r := newReconciler(fake)

	assert.NoError(t, r.Disassociate(context.Background(), "contact-1", zip, ""))
	assert.Empty(t, fake.Calls)
}

func TestDisassociate_FailureIsReported(t *testing.T) {
	fake := drivertest.NewFakeDirectory()
	fake.Errs[driver.OpDeleteRelationship] = errors.New("502")
	r := newReconciler(fake)

	err := r.Disassociate(context.Background(), "contact-1", zip, "zip-9")

	assert.ErrorIs(t, err, ErrDeleteFailed)
	// No retry.
	assert.Len(t, fake.Calls, 1)
}
