// Package drivertest provides an in-memory directory that records every call
// made against it.
package drivertest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/agenthands/groundtruth/internal/core/model"
	"github.com/agenthands/groundtruth/internal/driver"
)

type Call struct {
	Op             string
	SubjectID      string
	ObjectCategory string
	ObjectID       string
	Spec           model.AssociationSpec
	Inputs         []model.RelationshipInput
}

type edgeKey struct {
	subjectCategory string
	subjectID       string
	objectCategory  string
}

// FakeDirectory implements driver.Driver. Errors keyed by operation name
// (driver.Op*) are returned instead of performing that operation; DeleteErrs
// fails deletes of specific object ids only.
type FakeDirectory struct {
	mu sync.Mutex

	Types      []model.TypeDescriptor
	Errs       map[string]error
	DeleteErrs map[string]error
	Calls      []Call

	records map[string]map[string]model.Record
	edges   map[edgeKey][]model.Relationship
	nextID  int
}

var _ driver.Driver = (*FakeDirectory)(nil)

func NewFakeDirectory() *FakeDirectory {
	return &FakeDirectory{
		Errs:       map[string]error{},
		DeleteErrs: map[string]error{},
		records:    map[string]map[string]model.Record{},
		edges:      map[edgeKey][]model.Relationship{},
		nextID:     1000,
	}
}

// Relate seeds a relationship without recording a call.
func (f *FakeDirectory) Relate(subjectCategory, subjectID, objectCategory, objectID string, typeID int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.relate(subjectCategory, subjectID, objectCategory, objectID, model.AssociationSpec{Category: model.CategoryUserDefined, TypeID: typeID})
}

// AddRecord seeds a record without recording a call.
func (f *FakeDirectory) AddRecord(category string, rec model.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.Category = category
	if f.records[category] == nil {
		f.records[category] = map[string]model.Record{}
	}
	f.records[category][rec.ID] = rec
}

// Related returns the object ids currently related to the subject.
func (f *FakeDirectory) Related(subjectCategory, subjectID, objectCategory string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, r := range f.edges[edgeKey{subjectCategory, subjectID, objectCategory}] {
		ids = append(ids, r.ObjectID)
	}
	return ids
}

// CallsTo returns the recorded calls for one operation.
func (f *FakeDirectory) CallsTo(op string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeDirectory) record(c Call) error {
	f.Calls = append(f.Calls, c)
	return f.Errs[c.Op]
}

func (f *FakeDirectory) GetRelationshipTypes(ctx context.Context, subjectCategory, objectCategory string) ([]model.TypeDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Op: driver.OpGetTypes, ObjectCategory: objectCategory}); err != nil {
		return nil, err
	}
	return append([]model.TypeDescriptor(nil), f.Types...), nil
}

func (f *FakeDirectory) ListRelationships(ctx context.Context, subjectCategory, subjectID, objectCategory string) ([]model.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Op: driver.OpListRelationships, SubjectID: subjectID, ObjectCategory: objectCategory}); err != nil {
		return nil, err
	}
	return append([]model.Relationship(nil), f.edges[edgeKey{subjectCategory, subjectID, objectCategory}]...), nil
}

func (f *FakeDirectory) DeleteRelationship(ctx context.Context, subjectCategory, subjectID, objectCategory, objectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Op: driver.OpDeleteRelationship, SubjectID: subjectID, ObjectCategory: objectCategory, ObjectID: objectID}); err != nil {
		return err
	}
	if err := f.DeleteErrs[objectID]; err != nil {
		return err
	}
	f.unrelate(edgeKey{subjectCategory, subjectID, objectCategory}, objectID)
	f.unrelate(edgeKey{objectCategory, objectID, subjectCategory}, subjectID)
	return nil
}

func (f *FakeDirectory) unrelate(key edgeKey, objectID string) {
	var kept []model.Relationship
	for _, r := range f.edges[key] {
		if r.ObjectID != objectID {
			kept = append(kept, r)
		}
	}
	f.edges[key] = kept
}

func (f *FakeDirectory) PutRelationship(ctx context.Context, subjectCategory, subjectID, objectCategory, objectID string, spec model.AssociationSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Op: driver.OpPutRelationship, SubjectID: subjectID, ObjectCategory: objectCategory, ObjectID: objectID, Spec: spec}); err != nil {
		return err
	}
	f.relate(subjectCategory, subjectID, objectCategory, objectID, spec)
	return nil
}

func (f *FakeDirectory) BatchCreateRelationships(ctx context.Context, subjectCategory, objectCategory string, inputs []model.RelationshipInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Op: driver.OpBatchCreate, ObjectCategory: objectCategory, Inputs: append([]model.RelationshipInput(nil), inputs...)}); err != nil {
		return err
	}
	for _, in := range inputs {
		f.relate(subjectCategory, in.SubjectID, objectCategory, in.ObjectID, in.Spec)
	}
	return nil
}

func (f *FakeDirectory) ListRecords(ctx context.Context, category string, properties []string, limit int) ([]model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Op: driver.OpListRecords, ObjectCategory: category}); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(f.records[category]))
	for id := range f.records[category] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]model.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.records[category][id])
	}
	return out, nil
}

func (f *FakeDirectory) GetRecord(ctx context.Context, category, id string, properties []string) (*model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Op: driver.OpGetRecord, ObjectCategory: category, ObjectID: id}); err != nil {
		return nil, err
	}
	rec, ok := f.records[category][id]
	if !ok {
		return nil, &driver.RemoteError{Op: driver.OpGetRecord, Method: "GET", Path: category + "/" + id, StatusCode: 404, Body: "not found"}
	}
	return &rec, nil
}

func (f *FakeDirectory) CreateRecord(ctx context.Context, category string, properties map[string]interface{}) (*model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Op: driver.OpCreateRecord, ObjectCategory: category}); err != nil {
		return nil, err
	}
	f.nextID++
	rec := model.Record{ID: strconv.Itoa(f.nextID), Category: category, Properties: map[string]string{}}
	for k, v := range properties {
		rec.Properties[k] = fmt.Sprint(v)
	}
	if f.records[category] == nil {
		f.records[category] = map[string]model.Record{}
	}
	f.records[category][rec.ID] = rec
	return &rec, nil
}

func (f *FakeDirectory) relate(subjectCategory, subjectID, objectCategory, objectID string, spec model.AssociationSpec) {
	key := edgeKey{subjectCategory, subjectID, objectCategory}
	for i, r := range f.edges[key] {
		if r.ObjectID == objectID {
			f.edges[key][i].Types = []model.TypeDescriptor{{Category: spec.Category, TypeID: spec.TypeID}}
			return
		}
	}
	f.edges[key] = append(f.edges[key], model.Relationship{
		SubjectID: subjectID,
		ObjectID:  objectID,
		Types:     []model.TypeDescriptor{{Category: spec.Category, TypeID: spec.TypeID}},
	})
	// Mirror the edge so lookups from the object side see it too.
	reverse := edgeKey{objectCategory, objectID, subjectCategory}
	for _, r := range f.edges[reverse] {
		if r.ObjectID == subjectID {
			return
		}
	}
	f.edges[reverse] = append(f.edges[reverse], model.Relationship{SubjectID: objectID, ObjectID: subjectID})
}
