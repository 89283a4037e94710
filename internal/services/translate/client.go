package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ytscribe/internal/language"
	"ytscribe/internal/media"
	"ytscribe/internal/services"
	"ytscribe/internal/stage"
)

const (
	defaultBaseURL     = "https://api.deepseek.com"
	defaultModel       = "deepseek-chat"
	defaultHTTPTimeout = 60 * time.Second

	// segmentChunkSize bounds how many subtitle lines go into one request so
	// prompts stay well under model context limits.
	segmentChunkSize = 40
)

// Client translates transcripts through an OpenAI-compatible chat completion
// API. It implements stage.Translator. Both the full text and the individual
// segments are translated so subtitle exports stay aligned with their
// timestamps.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithModel overrides the chat model.
func WithModel(model string) Option {
	return func(c *Client) {
		model = strings.TrimSpace(model)
		if model != "" {
			c.model = model
		}
	}
}

// WithTimeout bounds a single API request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient constructs a translation client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

var _ stage.Translator = (*Client)(nil)

// Translate fills the transcript's translated text and segments.
func (c *Client) Translate(ctx context.Context, transcript *media.Transcript, targetLanguage string) error {
	if transcript == nil {
		return services.Wrap(services.ErrConfiguration, stage.NameTranslate, "translate", "transcript required", nil)
	}
	if c.apiKey == "" {
		return services.Wrap(services.ErrConfiguration, stage.NameTranslate, "translate", "translator api key not configured", nil)
	}
	targetName := language.DisplayName(targetLanguage)

	if strings.TrimSpace(transcript.Text) != "" {
		translated, err := c.complete(ctx, textPrompt(targetName), transcript.Text)
		if err != nil {
			return err
		}
		transcript.TranslatedText = strings.TrimSpace(translated)
	}

	if len(transcript.Segments) == 0 {
		return nil
	}
	translatedSegments := make([]media.Segment, 0, len(transcript.Segments))
	for start := 0; start < len(transcript.Segments); start += segmentChunkSize {
		end := min(start+segmentChunkSize, len(transcript.Segments))
		chunk := transcript.Segments[start:end]

		lines := make([]string, len(chunk))
		for i, segment := range chunk {
			lines[i] = oneLine(segment.Text)
		}
		response, err := c.complete(ctx, segmentPrompt(targetName, len(chunk)), strings.Join(lines, "\n"))
		if err != nil {
			return err
		}
		translatedLines := nonEmptyLines(response)
		if len(translatedLines) != len(chunk) {
			return services.Wrap(services.ErrInference, stage.NameTranslate, "translate",
				fmt.Sprintf("segment count mismatch: sent %d lines, received %d", len(chunk), len(translatedLines)), nil)
		}
		for i, segment := range chunk {
			segment.Text = translatedLines[i]
			translatedSegments = append(translatedSegments, segment)
		}
	}
	transcript.TranslatedSegments = translatedSegments
	return nil
}

func textPrompt(targetName string) string {
	return fmt.Sprintf("Translate the user's text into %s. "+
		"Output only the translation, with no commentary or quotation marks.", targetName)
}

func segmentPrompt(targetName string, count int) string {
	return fmt.Sprintf("The user's message contains %d subtitle lines, one per line. "+
		"Translate each line into %s. Output exactly %d lines in the same order, "+
		"one translation per line, with no numbering or commentary.", count, targetName, count)
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// complete issues one chat completion and returns the assistant content.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", services.Wrap(services.ErrInference, stage.NameTranslate, "translate", "encode request", err)
	}
	endpoint, err := url.JoinPath(c.baseURL, "/chat/completions")
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, stage.NameTranslate, "translate", "build url", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", services.Wrap(services.ErrInference, stage.NameTranslate, "translate", "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", services.Wrap(services.ErrNetwork, stage.NameTranslate, "translate", "request failed", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrNetwork, stage.NameTranslate, "translate", "read response", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", services.Wrap(services.ErrConfiguration, stage.NameTranslate, "translate",
			fmt.Sprintf("authentication rejected (http %d)", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return "", services.Wrap(services.ErrNetwork, stage.NameTranslate, "translate",
			fmt.Sprintf("http %d: %s", resp.StatusCode, firstLine(string(body))), nil)
	case resp.StatusCode >= http.StatusMultipleChoices:
		return "", services.Wrap(services.ErrInference, stage.NameTranslate, "translate",
			fmt.Sprintf("http %d: %s", resp.StatusCode, firstLine(string(body))), nil)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", services.Wrap(services.ErrInference, stage.NameTranslate, "translate", "decode response", err)
	}
	if parsed.Error != nil {
		return "", services.Wrap(services.ErrInference, stage.NameTranslate, "translate", parsed.Error.Message, nil)
	}
	if len(parsed.Choices) == 0 {
		return "", services.Wrap(services.ErrInference, stage.NameTranslate, "translate", "response contained no choices", nil)
	}
	return parsed.Choices[0].Message.Content, nil
}

func oneLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}
