package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient talks to the board gateway, the in-house sidecar that proxies
// the tabular service's API. Every call is stateless; the gateway does no
// locking of its own.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) GetValues(ctx context.Context, sheet string) ([][]string, error) {
	endpoint := fmt.Sprintf("%s/sheets/%s/values", c.baseURL, url.PathEscape(sheet))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("board gateway get values: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("board gateway get values: status %d", resp.StatusCode)
	}
	var body struct {
		Values [][]string `json:"values"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("board gateway get values: %w", err)
	}
	return body.Values, nil
}

func (c *HTTPClient) UpdateValues(ctx context.Context, sheet string, startRow, startCol int, values [][]string) error {
	return c.post(ctx, sheet, "values", map[string]any{
		"startRow": startRow,
		"startCol": startCol,
		"values":   values,
	})
}

func (c *HTTPClient) InsertRows(ctx context.Context, sheet string, start, end int) error {
	return c.post(ctx, sheet, "rows/insert", map[string]any{"start": start, "end": end})
}

func (c *HTTPClient) DeleteRows(ctx context.Context, sheet string, start, end int) error {
	return c.post(ctx, sheet, "rows/delete", map[string]any{"start": start, "end": end})
}

func (c *HTTPClient) InsertColumns(ctx context.Context, sheet string, start, end int) error {
	return c.post(ctx, sheet, "columns/insert", map[string]any{"start": start, "end": end})
}

func (c *HTTPClient) DeleteColumns(ctx context.Context, sheet string, start, end int) error {
	return c.post(ctx, sheet, "columns/delete", map[string]any{"start": start, "end": end})
}

func (c *HTTPClient) SortRange(ctx context.Context, sheet string, startRow, endRow, startCol, endCol int, specs []SortSpec) error {
	sortSpecs := make([]map[string]any, 0, len(specs))
	for _, spec := range specs {
		sortSpecs = append(sortSpecs, map[string]any{
			"column":     spec.Column,
			"descending": spec.Descending,
		})
	}
	return c.post(ctx, sheet, "sort", map[string]any{
		"startRow": startRow,
		"endRow":   endRow,
		"startCol": startCol,
		"endCol":   endCol,
		"specs":    sortSpecs,
	})
}

func (c *HTTPClient) CopyFormat(ctx context.Context, sheet string, srcRow, dstStart, dstEnd int) error {
	return c.post(ctx, sheet, "format/copy", map[string]any{
		"srcRow":   srcRow,
		"dstStart": dstStart,
		"dstEnd":   dstEnd,
	})
}

func (c *HTTPClient) ClearValues(ctx context.Context, sheet string, startRow, endRow, startCol, endCol int) error {
	return c.post(ctx, sheet, "values/clear", map[string]any{
		"startRow": startRow,
		"endRow":   endRow,
		"startCol": startCol,
		"endCol":   endCol,
	})
}

func (c *HTTPClient) post(ctx context.Context, sheet, action string, payload any) error {
	endpoint := fmt.Sprintf("%s/sheets/%s/%s", c.baseURL, url.PathEscape(sheet), action)
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("board gateway %s: %w", action, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("board gateway %s: status %d", action, resp.StatusCode)
	}
	return nil
}
