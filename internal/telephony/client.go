package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client is a thin Twilio REST client covering the two administrative calls
// the survey flow needs: starting a whole-call recording and fetching finished
// recording audio.
//
// The underlying http.Client carries no overall timeout: retry policy belongs
// to the caller (the transcription pipeline bounds downloads by attempt count,
// not by deadline).
type Client struct {
	httpClient *http.Client

	baseURL    string
	accountSID string
	authToken  string
}

func NewClient(baseURL, accountSID, authToken string) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
	}
}

// StartCallRecording begins recording the whole call and returns the
// recording SID. Callers treat failure as non-fatal: the call proceeds
// unrecorded at the whole-call level.
func (c *Client) StartCallRecording(ctx context.Context, callSID string) (string, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls/%s/Recordings.json",
		c.baseURL, url.PathEscape(c.accountSID), url.PathEscape(callSID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(""))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("telephony: start recording for %s: status %d", callSID, resp.StatusCode)
	}

	var out struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("telephony: decode recording response: %w", err)
	}
	if out.SID == "" {
		return "", fmt.Errorf("telephony: recording response missing sid")
	}
	return out.SID, nil
}

// FetchRecording downloads finished recording audio as MP3. Recordings are
// not always retrievable immediately after Twilio reports completion, so a
// non-success status is an expected, retryable outcome.
func (c *Client) FetchRecording(ctx context.Context, recordingSID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Recordings/%s.mp3",
		c.baseURL, url.PathEscape(c.accountSID), url.PathEscape(recordingSID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telephony: fetch recording %s: status %d", recordingSID, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
