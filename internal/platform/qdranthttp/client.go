// Package qdranthttp is a thin Qdrant REST client. Qdrant speaks plain
// HTTP+JSON, so the client stays on net/http instead of pulling in a grpc
// stack, and every response unwraps the standard {result,status,time}
// envelope.
package qdranthttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/mnemograph/mnemograph-backend/internal/platform/ctxutil"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
)

const maxErrorBodyBytes = 1024

type Client struct {
	log     *logger.Logger
	cfg     Config
	baseURL string
	http    *http.Client
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

// Point is one upsert unit: id, embedding and payload.
type Point struct {
	ID      string         `json:"id"`
	Vector  []float64      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// ScoredPoint is one search hit, vector included.
type ScoredPoint struct {
	ID      string
	Score   float64
	Vector  []float64
	Payload map[string]any
}

type rawPoint struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Vector  []float64       `json:"vector"`
	Payload map[string]any  `json:"payload"`
}

func New(log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return &Client{
		log:     log.With("client", "QdrantHTTP"),
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Ready probes the /readyz endpoint.
func (c *Client) Ready(ctx context.Context) error {
	const op = "ready"
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodGet, c.baseURL+"/readyz", nil)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build ready request failed", err)
	}
	c.authorize(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant ready check failed", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant ready check returned status=%d", resp.StatusCode),
		}
	}
	return nil
}

// ListCollections returns every collection name on the server.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	const op = "list_collections"
	var result struct {
		Collections []struct {
			Name string `json:"name"`
		} `json:"collections"`
	}
	if err := c.doJSON(ctx, op, http.MethodGet, "/collections", nil, &result); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(result.Collections))
	for _, col := range result.Collections {
		out = append(out, col.Name)
	}
	return out, nil
}

// CollectionDim returns the vector size of an existing collection, or a
// not_found operation error when the collection does not exist.
func (c *Client) CollectionDim(ctx context.Context, collection string) (int, error) {
	const op = "collection_info"
	var result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	}
	if err := c.doJSON(ctx, op, http.MethodGet, collectionPath(collection, ""), nil, &result); err != nil {
		return 0, err
	}
	return result.Config.Params.Vectors.Size, nil
}

// EnsureCollection creates the collection with cosine distance when missing
// and verifies the dimension when present.
func (c *Client) EnsureCollection(ctx context.Context, collection string, dim int) error {
	const op = "ensure_collection"
	if dim <= 0 {
		return opErr(op, OperationErrorValidation, fmt.Sprintf("dimension must be positive, got %d", dim), nil)
	}

	size, err := c.CollectionDim(ctx, collection)
	if err == nil {
		if size != 0 && size != dim {
			return opErr(op, OperationErrorValidation,
				fmt.Sprintf("collection %q vector size mismatch: expected=%d actual=%d", collection, dim, size), nil)
		}
		return nil
	}
	var typed *OperationError
	if !errors.As(err, &typed) || typed.StatusCode != http.StatusNotFound {
		return err
	}

	req := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": "Cosine",
		},
	}
	if err := c.doJSON(ctx, op, http.MethodPut, collectionPath(collection, ""), req, nil); err != nil {
		return err
	}
	c.log.Info("qdrant collection created", "collection", collection, "vector_dim", dim)
	return nil
}

// UpsertPoints writes points with wait=true so reads after the call see them.
func (c *Client) UpsertPoints(ctx context.Context, collection string, points []Point) error {
	const op = "upsert"
	if len(points) == 0 {
		return nil
	}
	body := make([]map[string]any, 0, len(points))
	for _, p := range points {
		if strings.TrimSpace(p.ID) == "" {
			return opErr(op, OperationErrorValidation, "point id is required", nil)
		}
		if len(p.Vector) == 0 {
			return opErr(op, OperationErrorValidation, fmt.Sprintf("point %q has empty vector", p.ID), nil)
		}
		body = append(body, map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": p.Payload,
		})
	}
	req := map[string]any{"points": body}
	return c.doJSON(ctx, op, http.MethodPut, collectionPath(collection, "/points?wait=true"), req, nil)
}

// SearchPoints runs a similarity search and returns hits with payloads,
// highest score first.
func (c *Client) SearchPoints(ctx context.Context, collection string, vector []float64, limit int, filter map[string]any) ([]ScoredPoint, error) {
	const op = "search"
	if len(vector) == 0 {
		return nil, opErr(op, OperationErrorValidation, "query vector required", nil)
	}
	if limit <= 0 {
		limit = 10
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
		"with_vector":  true,
	}
	if len(filter) > 0 {
		req["filter"] = filter
	}

	var raw []rawPoint
	if err := c.doJSON(ctx, op, http.MethodPost, collectionPath(collection, "/points/search"), req, &raw); err != nil {
		return nil, err
	}
	out := make([]ScoredPoint, 0, len(raw))
	for _, item := range raw {
		out = append(out, ScoredPoint{
			ID:      decodePointID(item.ID),
			Score:   item.Score,
			Vector:  item.Vector,
			Payload: item.Payload,
		})
	}
	return out, nil
}

// RetrievePoint fetches one point by id, including its vector and payload.
func (c *Client) RetrievePoint(ctx context.Context, collection, id string) (*Point, error) {
	const op = "retrieve"
	req := map[string]any{
		"ids":          []string{id},
		"with_payload": true,
		"with_vector":  true,
	}
	var raw []struct {
		ID      json.RawMessage `json:"id"`
		Vector  []float64       `json:"vector"`
		Payload map[string]any  `json:"payload"`
	}
	if err := c.doJSON(ctx, op, http.MethodPost, collectionPath(collection, "/points"), req, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, opErr(op, OperationErrorNotFound, fmt.Sprintf("point %q not found in %q", id, collection), nil)
	}
	return &Point{
		ID:      decodePointID(raw[0].ID),
		Vector:  raw[0].Vector,
		Payload: raw[0].Payload,
	}, nil
}

// DeletePoints removes points by id with wait=true.
func (c *Client) DeletePoints(ctx context.Context, collection string, ids []string) error {
	const op = "delete"
	if len(ids) == 0 {
		return nil
	}
	req := map[string]any{"points": ids}
	return c.doJSON(ctx, op, http.MethodPost, collectionPath(collection, "/points/delete?wait=true"), req, nil)
}

// SetPayload merges payload fields onto existing points.
func (c *Client) SetPayload(ctx context.Context, collection string, ids []string, payload map[string]any) error {
	const op = "set_payload"
	if len(ids) == 0 || len(payload) == 0 {
		return nil
	}
	req := map[string]any{
		"points":  ids,
		"payload": payload,
	}
	return c.doJSON(ctx, op, http.MethodPost, collectionPath(collection, "/points/payload?wait=true"), req, nil)
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.APIKey != "" {
		req.Header.Set("api-key", c.cfg.APIKey)
	}
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, c.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 10*maxErrorBodyBytes))
	if readErr != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		code := OperationErrorQueryFailed
		if resp.StatusCode == http.StatusNotFound {
			code = OperationErrorNotFound
		}
		return &OperationError{
			Code:       code,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant envelope failed", err)
	}
	if statusErr := parseEnvelopeStatus(env.Status); statusErr != "" {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    statusErr,
		}
	}

	if out == nil {
		return nil
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant result failed", err)
	}
	return nil
}

func classifyHTTPCallError(op, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	return opErr(op, OperationErrorTransportFailed, message, err)
}

func parseEnvelopeStatus(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}

	var statusString string
	if err := json.Unmarshal(raw, &statusString); err == nil {
		if strings.EqualFold(statusString, "ok") {
			return ""
		}
		return fmt.Sprintf("qdrant status=%q", statusString)
	}

	var statusObject struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &statusObject); err == nil {
		if strings.TrimSpace(statusObject.Error) != "" {
			return strings.TrimSpace(statusObject.Error)
		}
	}

	return fmt.Sprintf("qdrant status=%s", status)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

func decodePointID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var idString string
	if err := json.Unmarshal(raw, &idString); err == nil {
		return strings.TrimSpace(idString)
	}
	var idNumber int64
	if err := json.Unmarshal(raw, &idNumber); err == nil {
		return fmt.Sprintf("%d", idNumber)
	}
	return strings.TrimSpace(string(raw))
}

func collectionPath(collection, suffix string) string {
	path := "/collections/" + collection
	if strings.TrimSpace(suffix) == "" {
		return path
	}
	return path + suffix
}
