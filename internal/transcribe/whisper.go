package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Result is one finished transcription.
type Result struct {
	Text string
	// DurationSeconds is the audio duration as reported by the service;
	// zero when the service omits it.
	DurationSeconds int
}

// WhisperClient transcribes audio files via the OpenAI audio API.
//
// The request always pins the source language: the survey is single-language
// by design and letting the service auto-detect risks garbage transcripts for
// short or noisy answers. verbose_json is requested so the audio duration
// comes back alongside the text.
type WhisperClient struct {
	httpClient *http.Client

	baseURL  string
	apiKey   string
	model    string
	language string
}

func NewWhisperClient(baseURL, apiKey, model, language string) *WhisperClient {
	return &WhisperClient{
		// No overall timeout: the transcription call may legitimately take
		// a long time for three-minute recordings. The retry ceiling in the
		// pipeline is the only bound.
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		language:   language,
	}
}

func (c *WhisperClient) ModelName() string { return c.model }
func (c *WhisperClient) Language() string  { return c.language }

// Transcribe uploads the audio file at path and returns its transcript.
func (c *WhisperClient) Transcribe(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fw, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return Result{}, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return Result{}, err
	}
	_ = w.WriteField("model", c.model)
	_ = w.WriteField("language", c.language)
	_ = w.WriteField("response_format", "verbose_json")
	if err := w.Close(); err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("transcribe: whisper status %d: %s", resp.StatusCode, truncate(string(b), 400))
	}

	var out struct {
		Text     string  `json:"text"`
		Duration float64 `json:"duration"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return Result{}, fmt.Errorf("transcribe: decode whisper response: %w", err)
	}
	return Result{
		Text:            strings.TrimSpace(out.Text),
		DurationSeconds: int(out.Duration),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
