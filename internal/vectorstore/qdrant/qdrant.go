package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"studyrag/internal/domain"
)

// vectorName is the named-vector key under which every point's embedding is
// stored. The collection schema and all reads/writes must agree on it.
const vectorName = "embedding"

// Gateway is a minimal REST client to Qdrant's collection and point APIs.
type Gateway struct {
	url    string
	apiKey string
	client *http.Client
}

type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

func New(cfg Config) *Gateway {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Gateway{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type createRequest struct {
	Vectors map[string]vectorParams `json:"vectors"`
}

type pointRecord struct {
	ID      uint64               `json:"id"`
	Vectors map[string][]float64 `json:"vectors"`
	Payload domain.Payload       `json:"payload"`
}

type upsertRequest struct {
	Points []pointRecord `json:"points"`
}

type namedVector struct {
	Name   string    `json:"name"`
	Vector []float64 `json:"vector"`
}

type searchRequest struct {
	Vector      namedVector `json:"vector"`
	Limit       int         `json:"limit"`
	WithPayload bool        `json:"with_payload"`
}

type searchResponse struct {
	Result []struct {
		Score   float64        `json:"score"`
		Payload domain.Payload `json:"payload"`
	} `json:"result"`
}

// CollectionExists reports whether the named collection is present. A 404
// means absent; any other non-success response is a gateway error.
func (g *Gateway) CollectionExists(ctx context.Context, collection string) (bool, error) {
	status, body, err := g.do(ctx, http.MethodGet, fmt.Sprintf("%s/collections/%s", g.url, collection), nil)
	if err != nil {
		return false, err
	}
	switch {
	case status == http.StatusNotFound:
		return false, nil
	case status >= 300:
		return false, &domain.GatewayError{Op: "collection check", Status: status, Body: string(body)}
	}
	return true, nil
}

// CreateCollection declares a single named vector field of the given size
// and metric. Repeated creation of an existing collection may error; callers
// check existence first.
func (g *Gateway) CreateCollection(ctx context.Context, schema domain.Schema) error {
	metric, err := qdrantDistance(schema.Distance)
	if err != nil {
		return err
	}
	req := createRequest{Vectors: map[string]vectorParams{
		vectorName: {Size: schema.VectorSize, Distance: metric},
	}}
	status, body, err := g.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s", g.url, schema.Collection), req)
	if err != nil {
		return err
	}
	if status >= 300 {
		return &domain.GatewayError{Op: "collection creation", Status: status, Body: string(body)}
	}
	return nil
}

// Upsert writes or overwrites one point and waits for the write to be
// acknowledged durable. The collection must already exist.
func (g *Gateway) Upsert(ctx context.Context, collection string, point domain.Point) error {
	req := upsertRequest{Points: []pointRecord{{
		ID:      point.ID,
		Vectors: map[string][]float64{vectorName: point.Vector},
		Payload: point.Payload,
	}}}
	status, body, err := g.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s/points?wait=true", g.url, collection), req)
	if err != nil {
		return err
	}
	if status >= 300 {
		return &domain.GatewayError{Op: "upsert", Status: status, Body: string(body)}
	}
	return nil
}

// Search returns at most limit results, highest score first, in store order.
func (g *Gateway) Search(ctx context.Context, collection string, vector []float64, limit int) ([]domain.SearchResult, error) {
	req := searchRequest{
		Vector:      namedVector{Name: vectorName, Vector: vector},
		Limit:       limit,
		WithPayload: true,
	}
	status, body, err := g.do(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/search", g.url, collection), req)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, &domain.GatewayError{Op: "search", Status: status, Body: string(body)}
	}
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: search response: %v", domain.ErrMalformedResponse, err)
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, domain.SearchResult{Score: r.Score, Payload: r.Payload})
	}
	return results, nil
}

// EnsureAndUpsert creates the collection if absent, then upserts the point.
// This is the write entry point used by ingestion. The check-then-create
// pair is not atomic; concurrent first writers should be serialized by the
// caller.
func (g *Gateway) EnsureAndUpsert(ctx context.Context, schema domain.Schema, point domain.Point) error {
	exists, err := g.CollectionExists(ctx, schema.Collection)
	if err != nil {
		return err
	}
	if !exists {
		if err := g.CreateCollection(ctx, schema); err != nil {
			return err
		}
	}
	return g.Upsert(ctx, schema.Collection, point)
}

func (g *Gateway) do(ctx context.Context, method, url string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.apiKey != "" {
		req.Header.Set("api-key", g.apiKey)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s %s: %v", domain.ErrRemoteUnavailable, method, url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s %s: %v", domain.ErrRemoteUnavailable, method, url, err)
	}
	return resp.StatusCode, body, nil
}

func qdrantDistance(d domain.Distance) (string, error) {
	switch d {
	case domain.DistanceCosine:
		return "Cosine", nil
	case domain.DistanceEuclid:
		return "Euclid", nil
	case domain.DistanceDot:
		return "Dot", nil
	default:
		return "", fmt.Errorf("unknown distance metric: %q", d)
	}
}
