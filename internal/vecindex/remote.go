package vecindex

// #region imports
import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/knowledge"
)

// #endregion

// #region remote-struct

// Remote is an HTTP/JSON client for an external similarity index service.
type Remote struct {
	baseURL string
	httpc   *http.Client
}

// NewRemote creates a client for the index service at baseURL.
func NewRemote(baseURL string, timeout time.Duration) *Remote {
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

// #endregion remote-struct

// #region search

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type searchResponse struct {
	Results []Match `json:"results"`
}

// Search queries the index service for the top-K most similar entries.
func (r *Remote) Search(ctx context.Context, query string, topK int) ([]Match, error) {
	payload, err := json.Marshal(searchRequest{Query: query, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("index search %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return out.Results, nil
}

// #endregion search

// #region upsert

type upsertRequest struct {
	Items []upsertItem `json:"items"`
}

type upsertItem struct {
	Name         string `json:"name"`
	Document     string `json:"document"`
	IsVegetarian bool   `json:"is_vegetarian"`
	Kind         string `json:"kind"`
	Category     string `json:"category"`
}

// Upsert pushes knowledge base entries into the index service.
func (r *Remote) Upsert(ctx context.Context, entries []knowledge.Entry) error {
	req := upsertRequest{Items: make([]upsertItem, len(entries))}
	for i, e := range entries {
		req.Items[i] = upsertItem{
			Name:         e.Name,
			Document:     e.Document(),
			IsVegetarian: e.IsVegetarian,
			Kind:         string(e.Kind),
			Category:     e.Category,
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal upsert request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/upsert", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build upsert request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("index upsert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("index upsert %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// #endregion upsert
