package relink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// PluginRelation associates a conversion plugin with one distribution
// version in the converter service.
type PluginRelation struct {
	ID           string `json:"id,omitempty"`
	PluginID     string `json:"plugin_id"`
	RelationID   string `json:"relation_id"`
	RelationType string `json:"relation_type,omitempty"`
	InputFormat  string `json:"input_format,omitempty"`
	OutputFormat string `json:"output_format,omitempty"`
}

// ConverterClient talks to the converter service's plugin relation API.
type ConverterClient struct {
	baseURL string
	client  *http.Client
}

// NewConverterClient creates a client for the converter service at
// baseURL.
func NewConverterClient(baseURL string, timeout time.Duration) *ConverterClient {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &ConverterClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// RelationsFor lists the plugin relations attached to one distribution
// version.
func (c *ConverterClient) RelationsFor(ctx context.Context, relationID string) ([]PluginRelation, error) {
	u := fmt.Sprintf("%s/api/v1/plugin-relations?relation_id=%s", c.baseURL, url.QueryEscape(relationID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build relations request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list plugin relations: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("converter service returned %d listing relations", resp.StatusCode)
	}

	var relations []PluginRelation
	if err := json.NewDecoder(resp.Body).Decode(&relations); err != nil {
		return nil, fmt.Errorf("failed to decode plugin relations: %w", err)
	}
	return relations, nil
}

// CreateRelation registers a plugin relation for a distribution
// version.
func (c *ConverterClient) CreateRelation(ctx context.Context, relation PluginRelation) error {
	data, err := json.Marshal(relation)
	if err != nil {
		return fmt.Errorf("failed to encode plugin relation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/plugin-relations", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build relation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to create plugin relation: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("converter service returned %d creating relation", resp.StatusCode)
	}
	return nil
}
