// Package translation talks to the machine translation API and fans post
// content out to every supported locale in the background.
package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/manoela-fs/blog/locales"
	"golang.org/x/time/rate"
)

// Translator returns ok=false when no translation could be obtained.
type Translator interface {
	Translate(ctx context.Context, text, sourceLocale, targetLocale string) (string, bool)
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText *string `json:"translatedText"`
}

type ClientOptions struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RatePerSecond float64
	HTTPClient    *http.Client
}

// Client calls a LibreTranslate compatible endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	burst := 1
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
		burst = int(opts.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (c *Client) Translate(ctx context.Context, text, sourceLocale, targetLocale string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", true
	}
	if sourceLocale == targetLocale {
		return text, true
	}

	if err := c.limiter.Wait(ctx); err != nil {
		log.Printf("[translate] %s->%s: rate limiter: %v", sourceLocale, targetLocale, err)
		return "", false
	}

	body, err := json.Marshal(translateRequest{
		Q:      text,
		Source: locales.APICode(sourceLocale),
		Target: locales.APICode(targetLocale),
		Format: "text",
		APIKey: c.apiKey,
	})
	if err != nil {
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		log.Printf("[translate] building request: %v", err)
		return "", false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("[translate] %s->%s: %v", sourceLocale, targetLocale, err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		log.Printf("[translate] %s->%s: status %d: %s", sourceLocale, targetLocale, resp.StatusCode, bytes.TrimSpace(snippet))
		return "", false
	}

	var out translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Printf("[translate] %s->%s: decoding response: %v", sourceLocale, targetLocale, err)
		return "", false
	}
	if out.TranslatedText == nil {
		log.Printf("[translate] %s->%s: response without translatedText", sourceLocale, targetLocale)
		return "", false
	}
	return *out.TranslatedText, true
}
