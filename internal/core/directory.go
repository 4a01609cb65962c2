package core

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/agenthands/groundtruth/internal/config"
	"github.com/agenthands/groundtruth/internal/core/association"
	"github.com/agenthands/groundtruth/internal/core/model"
	"github.com/agenthands/groundtruth/internal/driver"
	"github.com/agenthands/groundtruth/internal/metrics"
)

var (
	zipCodeProperties = []string{model.PropertyName, model.PropertyHomeownershipRate, model.PropertyMedianHomeAge}
	contactProperties = []string{model.PropertyFirstName, model.PropertyLastName, model.PropertyEmail}
)

// Directory composes the pages' remote operations: listings with their
// associated record, zip code creation, and contact <-> zip code links.
type Directory struct {
	Driver     driver.Driver
	Reconciler *association.Reconciler
	Batch      *association.BatchAssociator
	Logger     *zap.Logger

	ObjectType        string
	PageSize          int
	EnrichConcurrency int
}

func NewDirectory(d driver.Driver, cfg *config.Config, logger *zap.Logger, m *metrics.Collector) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}

	reconciler := association.NewReconciler(d, model.CategoryContacts, logger)
	reconciler.Metrics = m
	reconciler.RetireConcurrency = cfg.Concurrency.Retire
	if cfg.Association.SerializeSubjects {
		reconciler.Locks = association.NewSubjectLocks()
	}

	batch := association.NewBatchAssociator(d, model.CategoryContacts, logger)
	batch.Metrics = m

	pageSize := cfg.HubSpot.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	return &Directory{
		Driver:            d,
		Reconciler:        reconciler,
		Batch:             batch,
		Logger:            logger,
		ObjectType:        cfg.HubSpot.CustomObjectType,
		PageSize:          pageSize,
		EnrichConcurrency: cfg.Concurrency.Enrichment,
	}
}

// ListZipCodes returns one page of zip codes, each with its first associated
// contact, sorted by name. Enrichment failures leave Contact nil.
func (d *Directory) ListZipCodes(ctx context.Context) ([]model.ZipCode, error) {
	records, err := d.Driver.ListRecords(ctx, d.ObjectType, zipCodeProperties, d.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list zip codes: %w", err)
	}

	zips := make([]model.ZipCode, len(records))
	g := d.group()
	for i, rec := range records {
		i, rec := i, rec
		zips[i] = model.ZipCodeFromRecord(rec)
		g.Go(func() error {
			zips[i].Contact = d.firstContact(ctx, rec.ID)
			return nil
		})
	}
	_ = g.Wait()

	sortByName(zips, func(z model.ZipCode) string { return z.Name })
	return zips, nil
}

// ListContacts returns one page of contacts, each with its associated zip
// code, sorted by display name.
func (d *Directory) ListContacts(ctx context.Context) ([]model.Contact, error) {
	records, err := d.Driver.ListRecords(ctx, model.CategoryContacts, contactProperties, d.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	contacts := make([]model.Contact, len(records))
	g := d.group()
	for i, rec := range records {
		i, rec := i, rec
		contacts[i] = model.ContactFromRecord(rec)
		g.Go(func() error {
			contacts[i].ZipCode = d.firstZipCode(ctx, rec.ID)
			return nil
		})
	}
	_ = g.Wait()

	sortByName(contacts, func(c model.Contact) string { return c.FullName() })
	return contacts, nil
}

// ListZipCodeChoices lists zip codes without enrichment, for select boxes.
func (d *Directory) ListZipCodeChoices(ctx context.Context) ([]model.ZipCode, error) {
	records, err := d.Driver.ListRecords(ctx, d.ObjectType, []string{model.PropertyName}, d.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list zip codes: %w", err)
	}
	zips := make([]model.ZipCode, 0, len(records))
	for _, rec := range records {
		zips = append(zips, model.ZipCodeFromRecord(rec))
	}
	sortByName(zips, func(z model.ZipCode) string { return z.Name })
	return zips, nil
}

// ListContactChoices lists contacts without enrichment, for select boxes.
func (d *Directory) ListContactChoices(ctx context.Context) ([]model.Contact, error) {
	records, err := d.Driver.ListRecords(ctx, model.CategoryContacts, contactProperties, d.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	contacts := make([]model.Contact, 0, len(records))
	for _, rec := range records {
		contacts = append(contacts, model.ContactFromRecord(rec))
	}
	sortByName(contacts, func(c model.Contact) string { return c.FullName() })
	return contacts, nil
}

// CreateZipCode creates the record and then links it to the given contacts.
// A failed link is logged and does not undo the creation.
func (d *Directory) CreateZipCode(ctx context.Context, in model.ZipCodeInput, contactIDs []string) (*model.ZipCode, error) {
	rec, err := d.Driver.CreateRecord(ctx, d.ObjectType, in.Properties())
	if err != nil {
		return nil, fmt.Errorf("failed to create zip code %s: %w", in.Name, err)
	}

	if err := d.Batch.AssociateMany(ctx, rec.ID, d.ObjectType, contactIDs); err != nil {
		d.Logger.Error("Zip code created without its contacts",
			zap.String("record", rec.ID),
			zap.Strings("contacts", contactIDs),
			zap.Error(err),
		)
	}

	zip := model.ZipCodeFromRecord(*rec)
	return &zip, nil
}

func (d *Directory) Associate(ctx context.Context, contactID, zipCodeID string) error {
	return d.Reconciler.Reconcile(ctx, contactID, d.ObjectType, zipCodeID)
}

func (d *Directory) Disassociate(ctx context.Context, contactID, zipCodeID string) error {
	return d.Reconciler.Disassociate(ctx, contactID, d.ObjectType, zipCodeID)
}

func (d *Directory) group() *errgroup.Group {
	g := &errgroup.Group{}
	if d.EnrichConcurrency > 0 {
		g.SetLimit(d.EnrichConcurrency)
	}
	return g
}

func (d *Directory) firstContact(ctx context.Context, zipCodeID string) *model.Contact {
	rels, err := d.Driver.ListRelationships(ctx, d.ObjectType, zipCodeID, model.CategoryContacts)
	if err != nil || len(rels) == 0 {
		if err != nil {
			d.Logger.Debug("No contact association", zap.String("record", zipCodeID), zap.Error(err))
		}
		return nil
	}

	rec, err := d.Driver.GetRecord(ctx, model.CategoryContacts, rels[0].ObjectID, contactProperties)
	if err != nil {
		d.Logger.Debug("Associated contact unavailable", zap.String("contact", rels[0].ObjectID), zap.Error(err))
		return nil
	}
	c := model.ContactFromRecord(*rec)
	return &c
}

func (d *Directory) firstZipCode(ctx context.Context, contactID string) *model.ZipCode {
	rels, err := d.Driver.ListRelationships(ctx, model.CategoryContacts, contactID, d.ObjectType)
	if err != nil || len(rels) == 0 {
		if err != nil {
			d.Logger.Debug("No zip code association", zap.String("contact", contactID), zap.Error(err))
		}
		return nil
	}

	rec, err := d.Driver.GetRecord(ctx, d.ObjectType, rels[0].ObjectID, zipCodeProperties)
	if err != nil {
		d.Logger.Debug("Associated zip code unavailable", zap.String("record", rels[0].ObjectID), zap.Error(err))
		return nil
	}
	z := model.ZipCodeFromRecord(*rec)
	return &z
}

func sortByName[T any](items []T, name func(T) string) {
	c := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(items, func(i, j int) bool {
		return c.CompareString(name(items[i]), name(items[j])) < 0
	})
}
