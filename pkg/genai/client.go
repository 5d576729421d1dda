// Package genai is a client for a Gemini-style generative AI HTTP API.
//
// All operations go through the generateContent endpoint: a JSON POST whose
// body carries content parts (text and/or base64 inline data) and whose
// response carries either generated text or base64-encoded PCM audio in
// candidates[0].content.parts[0]. The response schema is consumed as given;
// a response missing the expected field is a terminal error, never retried.
//
// Transport resilience is delegated to [retry.Executor]: rate limiting and
// transport errors are retried with exponential backoff, everything else
// fails fast. See the retry package for the exact contract.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/voxtools/voxify/internal/observe"
	"github.com/voxtools/voxify/pkg/retry"
	"github.com/voxtools/voxify/pkg/wav"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.0-flash"
)

// MalformedResponseError reports a service response that decoded as JSON but
// lacked the expected candidate content. Distinct from transport and
// rate-limit failures: it is terminal and must not be retried.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "genai: malformed response: " + e.Reason
}

// ── Options ────────────────────────────────────────────────────────────────────

// Option is a functional option for configuring a [Client].
type Option func(*Client)

// WithModel sets the model used for generation requests.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithBaseURL overrides the base API URL. Primarily used in tests to point at
// a local mock server.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry sets the retry budget applied to every request.
func WithRetry(cfg retry.Config) Option {
	return func(c *Client) { c.retryCfg = cfg }
}

// WithMetrics sets the metrics instance used to record request telemetry.
// Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// ── Client ─────────────────────────────────────────────────────────────────────

// Client calls a Gemini-style generateContent API. It is immutable after
// construction and safe for concurrent use; every call runs as a single
// independent logical flow.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	retryCfg   retry.Config
	httpClient *http.Client
	metrics    *observe.Metrics
}

// New creates a [Client] with the given API key and options. apiKey must be
// non-empty.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genai: apiKey must not be empty")
	}
	c := &Client{
		apiKey:     apiKey,
		model:      defaultModel,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	return c, nil
}

// ── Protocol message types ─────────────────────────────────────────────────────

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64-encoded
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

// ── Core call ──────────────────────────────────────────────────────────────────

// generate posts req to the generateContent endpoint and returns the first
// content part of the first candidate.
func (c *Client) generate(ctx context.Context, op string, req generateRequest) (*part, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("genai: encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	exec := retry.New(c.retryCfg,
		retry.WithHTTPClient(c.httpClient),
		retry.WithNotify(func(int, time.Duration, error) {
			c.metrics.Retries.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
		}),
	)

	start := time.Now()
	resp, err := exec.Do(ctx, func() (*http.Request, error) {
		httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		return httpReq, nil
	})
	c.recordRequest(ctx, op, start, err)
	if err != nil {
		return nil, fmt.Errorf("genai: %s: %w", op, err)
	}
	defer resp.Body.Close()

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &MalformedResponseError{Reason: fmt.Sprintf("decode body: %v", err)}
	}
	if len(decoded.Candidates) == 0 {
		return nil, &MalformedResponseError{Reason: "no candidates"}
	}
	parts := decoded.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return nil, &MalformedResponseError{Reason: "candidate has no content parts"}
	}
	return &parts[0], nil
}

// generateText runs a request expected to produce a text part.
func (c *Client) generateText(ctx context.Context, op string, req generateRequest) (string, error) {
	p, err := c.generate(ctx, op, req)
	if err != nil {
		return "", err
	}
	if p.Text == "" {
		return "", &MalformedResponseError{Reason: "candidate part has no text field"}
	}
	return p.Text, nil
}

func (c *Client) recordRequest(ctx context.Context, op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.RequestDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("op", op)))
	c.metrics.Requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("status", status),
	))
}

// ── Operations ─────────────────────────────────────────────────────────────────

// GenerateText sends a plain text prompt and returns the generated text.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generateText(ctx, "generate", generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
}

// Transcribe sends audio bytes with the given MIME type (e.g. "audio/wav",
// "audio/mpeg") and returns the transcription. language is an optional BCP-47
// hint such as "en" or "uk"; pass "" to let the model detect it.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType, language string) (string, error) {
	prompt := "Transcribe this audio verbatim. Return only the transcription text."
	if language != "" {
		prompt = fmt.Sprintf("Transcribe this audio verbatim. The spoken language is %q. Return only the transcription text.", language)
	}
	return c.generateText(ctx, "transcribe", generateRequest{
		Contents: []content{{Parts: []part{
			{Text: prompt},
			{InlineData: &inlineData{
				MIMEType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(audio),
			}},
		}}},
	})
}

// Translate returns text translated into targetLang (a language name or
// BCP-47 code).
func (c *Client) Translate(ctx context.Context, text, targetLang string) (string, error) {
	prompt := fmt.Sprintf("Translate the following text into %s. Return only the translation.\n\n%s", targetLang, text)
	return c.generateText(ctx, "translate", generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
}

// DescribeImage sends image bytes with the given MIME type and returns the
// model's analysis. prompt overrides the default description request.
func (c *Client) DescribeImage(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	if prompt == "" {
		prompt = "Describe this image in detail."
	}
	return c.generateText(ctx, "describe", generateRequest{
		Contents: []content{{Parts: []part{
			{Text: prompt},
			{InlineData: &inlineData{
				MIMEType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(image),
			}},
		}}},
	})
}

// Audio is synthesized speech: raw little-endian int16 mono PCM and the
// sample rate reported by the service.
type Audio struct {
	PCM        []byte
	SampleRate int
}

// Duration reports the playback duration of the audio.
func (a *Audio) Duration() time.Duration {
	if a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(a.PCM)/2) * time.Second / time.Duration(a.SampleRate)
}

// WAV returns the audio wrapped in a WAV container, ready to be written to a
// .wav file.
func (a *Audio) WAV() ([]byte, error) {
	return wav.Encode(a.PCM, a.SampleRate)
}

// Synthesize converts text to speech using the given prebuilt voice and
// returns the decoded PCM audio. The sample rate is taken from the response
// MIME type (e.g. "audio/L16;codec=pcm;rate=24000"); a response without an
// explicit rate is rejected rather than assumed.
func (c *Client) Synthesize(ctx context.Context, text, voice string) (*Audio, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: text}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
	}
	if voice != "" {
		req.GenerationConfig.SpeechConfig = &speechConfig{
			VoiceConfig: voiceConfig{
				PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: voice},
			},
		}
	}

	p, err := c.generate(ctx, "synthesize", req)
	if err != nil {
		return nil, err
	}
	if p.InlineData == nil {
		return nil, &MalformedResponseError{Reason: "candidate part has no inlineData field"}
	}
	if !strings.HasPrefix(p.InlineData.MIMEType, "audio/") {
		return nil, &MalformedResponseError{
			Reason: fmt.Sprintf("unexpected mime type %q", p.InlineData.MIMEType),
		}
	}

	rate, err := parsePCMRate(p.InlineData.MIMEType)
	if err != nil {
		return nil, err
	}
	pcm, err := wav.DecodeBase64(p.InlineData.Data)
	if err != nil {
		return nil, err
	}

	audio := &Audio{PCM: pcm, SampleRate: rate}
	c.metrics.AudioSeconds.Add(ctx, audio.Duration().Seconds())
	return audio, nil
}

// parsePCMRate extracts the sample rate from an audio MIME type of the form
// "audio/L16;codec=pcm;rate=24000".
func parsePCMRate(mimeType string) (int, error) {
	for _, param := range strings.Split(mimeType, ";") {
		param = strings.TrimSpace(param)
		if v, ok := strings.CutPrefix(param, "rate="); ok {
			rate, err := strconv.Atoi(v)
			if err != nil || rate <= 0 {
				return 0, &MalformedResponseError{
					Reason: fmt.Sprintf("invalid sample rate in mime type %q", mimeType),
				}
			}
			return rate, nil
		}
	}
	return 0, &MalformedResponseError{
		Reason: fmt.Sprintf("mime type %q does not declare a sample rate", mimeType),
	}
}
