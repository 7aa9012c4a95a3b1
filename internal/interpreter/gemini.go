package interpreter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient talks to the generateContent REST endpoint and asks for
// schema-constrained JSON replies.
type GeminiClient struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
}

// NewGeminiClient creates a client with a bounded HTTP timeout
func NewGeminiClient(baseURL, apiKey, model string, timeout time.Duration) *GeminiClient {
	return &GeminiClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*schema `json:"properties,omitempty"`
	Items       *schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	ResponseSchema   *schema `json:"responseSchema"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

var noteSchema = &schema{
	Type: "OBJECT",
	Properties: map[string]*schema{
		"items": {
			Type: "ARRAY",
			Items: &schema{
				Type: "OBJECT",
				Properties: map[string]*schema{
					"name":     {Type: "STRING"},
					"price":    {Type: "NUMBER", Description: "Price for 1 single tablet/piece"},
					"category": {Type: "STRING"},
					"quantity": {Type: "NUMBER", Description: "Quantity requested by the user. Default to 1 if not specified."},
				},
				Required: []string{"name", "price", "category", "quantity"},
			},
		},
	},
	Required: []string{"items"},
}

var suggestSchema = &schema{
	Type: "OBJECT",
	Properties: map[string]*schema{
		"medicines": {
			Type: "ARRAY",
			Items: &schema{
				Type: "OBJECT",
				Properties: map[string]*schema{
					"name":        {Type: "STRING"},
					"description": {Type: "STRING"},
					"category":    {Type: "STRING"},
				},
				Required: []string{"name", "description", "category"},
			},
		},
		"disclaimer": {Type: "STRING"},
	},
	Required: []string{"medicines", "disclaimer"},
}

func notePrompt(note string) string {
	return fmt.Sprintf(`User medicine list note: %q.
Identify the medicines mentioned and the QUANTITY specified for each (e.g., "5 pieces", "১০টা", "5 pish").
If no quantity is mentioned, default to 1.
For each medicine, identify its per-unit price (for 1 single tablet/piece).
Return a list of items with name, per-piece price, category, and the quantity found in the text.`, note)
}

func suggestPrompt(query string) string {
	return fmt.Sprintf(`You are a helpful pharmacist in Bangladesh. Query: %q.
Respond in Bengali. Provide 3-5 medicines with per-unit price estimates.
Include a disclaimer.`, query)
}

// Interpret extracts medicines and quantities from a free-text note
func (c *GeminiClient) Interpret(ctx context.Context, note string) ([]InterpretedItem, error) {
	var out struct {
		Items []rawItem `json:"items"`
	}
	if err := c.generate(ctx, notePrompt(note), noteSchema, &out); err != nil {
		return nil, err
	}

	items := make([]InterpretedItem, 0, len(out.Items))
	for _, raw := range out.Items {
		if strings.TrimSpace(raw.Name) == "" {
			continue
		}
		items = append(items, raw.normalize())
	}
	return items, nil
}

// Suggest asks for medicines matching a symptom or name query
func (c *GeminiClient) Suggest(ctx context.Context, query string) (*Suggestions, error) {
	var out Suggestions
	if err := c.generate(ctx, suggestPrompt(query), suggestSchema, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *GeminiClient) generate(ctx context.Context, prompt string, sch *schema, out any) error {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	u := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(base, "/"), url.PathEscape(c.Model), url.QueryEscape(c.APIKey))

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   sch,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("generateContent request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("generateContent returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return errors.New("generateContent returned no candidates")
	}

	if err := json.Unmarshal([]byte(gr.Candidates[0].Content.Parts[0].Text), out); err != nil {
		return fmt.Errorf("failed to decode model reply: %w", err)
	}
	return nil
}
