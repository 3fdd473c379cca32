// Package gemini relays transcription and generation requests to Google's
// Gemini generateContent API and hands back the upstream JSON untouched.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/teslashibe/framerelay/internal/httpc"
)

// Request is what callers post to the proxy. A non-empty Prompt wins;
// otherwise AudioData (base64) is transcribed.
type Request struct {
	Prompt    string `json:"prompt,omitempty"`
	AudioData string `json:"audioData,omitempty"`
	MimeType  string `json:"mimeType,omitempty"`
}

// Validate checks that there is something to send.
func (r Request) Validate() error {
	if r.Prompt == "" && r.AudioData == "" {
		return ErrEmptyRequest
	}
	return nil
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

// buildBody converts a Request into the upstream wire format.
func buildBody(r Request) generateRequest {
	var parts []part
	if r.Prompt != "" {
		parts = []part{{Text: r.Prompt}}
	} else {
		parts = []part{
			{Text: TranscribeInstruction},
			{InlineData: &inlineData{MimeType: r.MimeType, Data: r.AudioData}},
		}
	}
	return generateRequest{Contents: []content{{Parts: parts}}}
}

// Proxy forwards requests to the Gemini API.
type Proxy struct {
	config *Config
	http   *http.Client
	logger *slog.Logger
}

// New creates a Proxy. A missing API key is not rejected here; the upstream
// reports it.
func New(opts ...Option) *Proxy {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpc.NewClient(cfg.Timeout)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Proxy{
		config: cfg,
		http:   hc,
		logger: logger.With("component", "gemini"),
	}
}

// Model returns the configured model name.
func (p *Proxy) Model() string {
	return p.config.Model
}

// endpoint builds the generateContent URL.
func (p *Proxy) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		p.config.BaseURL, url.PathEscape(p.config.Model), url.QueryEscape(p.config.APIKey))
}

// Generate sends req upstream and returns the response body verbatim.
// Any transport failure, non-2xx status or non-JSON body is an *UpstreamError.
func (p *Proxy) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	body, err := json.Marshal(buildBody(req))
	if err != nil {
		return nil, fmt.Errorf("gemini: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, upstreamErr(0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return nil, upstreamErr(0, redactKey(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, upstreamErr(resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(resp.StatusCode, raw)
	}
	if !json.Valid(raw) {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: "response is not valid JSON"}
	}

	p.logger.Debug("generate complete",
		"model", p.config.Model,
		"audio", req.Prompt == "",
		"latency_ms", time.Since(start).Milliseconds(),
		"bytes", len(raw),
	)
	return raw, nil
}

// parseError extracts error.message from an upstream error body.
func parseError(status int, body []byte) error {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	message := string(body)
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}
	if message == "" {
		message = http.StatusText(status)
	}

	return &UpstreamError{StatusCode: status, Message: message}
}

// redactKey strips the request URL (which carries the API key) from
// transport errors.
func redactKey(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}
