package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agenthands/groundtruth/internal/core/common"
	"github.com/agenthands/groundtruth/internal/core/model"
	"github.com/agenthands/groundtruth/internal/metrics"
)

const maxBodyBytes = 4 << 20

// HubSpotDriver talks to the HubSpot CRM v3 objects and v4 associations
// APIs with a private app access token. It performs no retries.
type HubSpotDriver struct {
	BaseURL string
	Client  *http.Client
	Metrics *metrics.Collector
	Logger  *zap.Logger

	token string
}

func NewHubSpotDriver(baseURL, token string, timeout time.Duration) *HubSpotDriver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HubSpotDriver{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
		Logger:  zap.NewNop(),
		token:   token,
	}
}

type recordList struct {
	Results []model.Record `json:"results"`
}

type labelList struct {
	Results []model.TypeDescriptor `json:"results"`
}

type associationList struct {
	Results []struct {
		ToObjectID       json.Number            `json:"toObjectId"`
		AssociationTypes []model.TypeDescriptor `json:"associationTypes"`
	} `json:"results"`
}

type objectRef struct {
	ID string `json:"id"`
}

type batchInput struct {
	From  objectRef               `json:"from"`
	To    objectRef               `json:"to"`
	Types []model.AssociationSpec `json:"types"`
}

type batchRequest struct {
	Inputs []batchInput `json:"inputs"`
}

type batchResponse struct {
	Status    string `json:"status"`
	NumErrors int    `json:"numErrors"`
	Errors    []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (d *HubSpotDriver) ListRecords(ctx context.Context, category string, properties []string, limit int) ([]model.Record, error) {
	query := url.Values{}
	if len(properties) > 0 {
		query.Set("properties", strings.Join(properties, ","))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	body, err := d.do(ctx, OpListRecords, http.MethodGet, fmt.Sprintf(ObjectsPath, url.PathEscape(category)), query, nil)
	if err != nil {
		return nil, err
	}

	list, err := common.DecodeJSON[recordList](body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpListRecords, err)
	}
	for i := range list.Results {
		list.Results[i].Category = category
	}
	return list.Results, nil
}

func (d *HubSpotDriver) GetRecord(ctx context.Context, category, id string, properties []string) (*model.Record, error) {
	query := url.Values{}
	if len(properties) > 0 {
		query.Set("properties", strings.Join(properties, ","))
	}

	body, err := d.do(ctx, OpGetRecord, http.MethodGet, fmt.Sprintf(ObjectPath, url.PathEscape(category), url.PathEscape(id)), query, nil)
	if err != nil {
		return nil, err
	}

	rec, err := common.DecodeJSON[model.Record](body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpGetRecord, err)
	}
	rec.Category = category
	return &rec, nil
}

func (d *HubSpotDriver) CreateRecord(ctx context.Context, category string, properties map[string]interface{}) (*model.Record, error) {
	payload := map[string]interface{}{"properties": properties}

	body, err := d.do(ctx, OpCreateRecord, http.MethodPost, fmt.Sprintf(ObjectsPath, url.PathEscape(category)), nil, payload)
	if err != nil {
		return nil, err
	}

	rec, err := common.DecodeJSON[model.Record](body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpCreateRecord, err)
	}
	rec.Category = category
	return &rec, nil
}

func (d *HubSpotDriver) GetRelationshipTypes(ctx context.Context, subjectCategory, objectCategory string) ([]model.TypeDescriptor, error) {
	path := fmt.Sprintf(LabelsPath, url.PathEscape(subjectCategory), url.PathEscape(objectCategory))
	body, err := d.do(ctx, OpGetTypes, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	list, err := common.DecodeJSON[labelList](body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpGetTypes, err)
	}
	return list.Results, nil
}

func (d *HubSpotDriver) ListRelationships(ctx context.Context, subjectCategory, subjectID, objectCategory string) ([]model.Relationship, error) {
	path := fmt.Sprintf(AssociationsPath, url.PathEscape(subjectCategory), url.PathEscape(subjectID), url.PathEscape(objectCategory))
	body, err := d.do(ctx, OpListRelationships, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	list, err := common.DecodeJSON[associationList](body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpListRelationships, err)
	}

	rels := make([]model.Relationship, 0, len(list.Results))
	for _, r := range list.Results {
		rels = append(rels, model.Relationship{
			SubjectID: subjectID,
			ObjectID:  r.ToObjectID.String(),
			Types:     r.AssociationTypes,
		})
	}
	return rels, nil
}

func (d *HubSpotDriver) DeleteRelationship(ctx context.Context, subjectCategory, subjectID, objectCategory, objectID string) error {
	path := fmt.Sprintf(AssociationPath, url.PathEscape(subjectCategory), url.PathEscape(subjectID), url.PathEscape(objectCategory), url.PathEscape(objectID))
	_, err := d.do(ctx, OpDeleteRelationship, http.MethodDelete, path, nil, nil)
	return err
}

func (d *HubSpotDriver) PutRelationship(ctx context.Context, subjectCategory, subjectID, objectCategory, objectID string, spec model.AssociationSpec) error {
	path := fmt.Sprintf(AssociationPath, url.PathEscape(subjectCategory), url.PathEscape(subjectID), url.PathEscape(objectCategory), url.PathEscape(objectID))
	_, err := d.do(ctx, OpPutRelationship, http.MethodPut, path, nil, []model.AssociationSpec{spec})
	return err
}

func (d *HubSpotDriver) BatchCreateRelationships(ctx context.Context, subjectCategory, objectCategory string, inputs []model.RelationshipInput) error {
	req := batchRequest{Inputs: make([]batchInput, 0, len(inputs))}
	for _, in := range inputs {
		req.Inputs = append(req.Inputs, batchInput{
			From:  objectRef{ID: in.SubjectID},
			To:    objectRef{ID: in.ObjectID},
			Types: []model.AssociationSpec{in.Spec},
		})
	}

	path := fmt.Sprintf(BatchCreatePath, url.PathEscape(subjectCategory), url.PathEscape(objectCategory))
	body, err := d.do(ctx, OpBatchCreate, http.MethodPost, path, nil, req)
	if err != nil {
		return err
	}

	// A 207 carries per-entry failures in the body. An unreadable 2xx body
	// is treated as success.
	resp, err := common.DecodeJSON[batchResponse](body)
	if err != nil {
		return nil
	}
	if resp.NumErrors > 0 || len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return &RemoteError{
			Op:         OpBatchCreate,
			Method:     http.MethodPost,
			Path:       path,
			StatusCode: http.StatusMultiStatus,
			Body:       strings.Join(msgs, "; "),
		}
	}
	return nil
}

func (d *HubSpotDriver) do(ctx context.Context, op, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	start := time.Now()
	body, err := d.send(ctx, op, method, path, query, payload)
	d.Metrics.ObserveRemote(op, start, err)
	if err != nil {
		d.Logger.Debug("Remote call failed",
			zap.String("operation", op),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
	}
	return body, err
}

func (d *HubSpotDriver) send(ctx context.Context, op, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	target := d.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &RemoteError{Op: op, Method: method, Path: path, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+d.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, &RemoteError{Op: op, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &RemoteError{Op: op, Method: method, Path: path, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{
			Op:         op,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       common.Snippet(body),
		}
	}
	return body, nil
}
