package association

import (
	"context"
	"errors"
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

func TestAssociateMany(t *testing.T) {
	fake := drivertest.NewFakeDirectory()
	fake.Types = []model.TypeDescriptor{{TypeID: 5}}
	b := NewBatchAssociator(fake, contacts, zap.NewNop())
	b.Metrics = metrics.NewCollector("test")

	err := b.AssociateMany(context.Background(), "r", zip, []string{"a", "b"})

	require.NoError(t, err)
	batches := fake.CallsTo(driver.OpBatchCreate)
	require.Len(t, batches, 1)
	assert.Empty(t, fake.CallsTo(driver.OpDeleteRelationship))
	assert.Len(t, fake.CallsTo(driver.OpGetTypes), 1)

	spec := model.AssociationSpec{Category: model.CategoryUserDefined, TypeID: 5}
	assert.Equal(t, []model.RelationshipInput{
		{SubjectID: "a", ObjectID: "r", Spec: spec},
		{SubjectID: "b", ObjectID: "r", Spec: spec},
	}, batches[0].Inputs)
	assert.Equal(t, 2.0, testutil.ToFloat64(b.Metrics.BatchEntries))
}

func TestAssociateMany_DeduplicatesSubjects(t *testing.T) {
	fake := drivertest.NewFakeDirectory()
	b := NewBatchAssociator(fake, contacts, zap.NewNop())

	require.NoError(t, b.AssociateMany(context.Background(), "r", zip, []string{"a", "", "a", "b"}))

	batches := fake.CallsTo(driver.OpBatchCreate)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0].Inputs, 2)
	assert.Equal(t, model.DefaultTypeID, batches[0].Inputs[0].Spec.TypeID)
}

func TestAssociateMany_NoSubjects(t *testing.T) {
	fake := drivertest.NewFakeDirectory()
	b := NewBatchAssociator(fake, contacts, zap.NewNop())

	assert.NoError(t, b.AssociateMany(context.Background(), "r", zip, nil))
	assert.NoError(t, b.AssociateMany(context.Background(), "r", zip, []string{""}))
	assert.Empty(t, fake.Calls)
}

func TestAssociateMany_FailureIsReported(t *testing.T) {
	fake := drivertest.NewFakeDirectory()
	fake.Errs[driver.OpBatchCreate] = errors.New("207 partial failure")
	b := NewBatchAssociator(fake, contacts, zap.NewNop())

	err := b.AssociateMany(context.Background(), "r", zip, []string{"a"})

	assert.ErrorIs(t, err, ErrBatchFailed)
	assert.Len(t, fake.CallsTo(driver.OpBatchCreate), 1)
	assert.Empty(t, fake.Related(contacts, "a", zip))
}
