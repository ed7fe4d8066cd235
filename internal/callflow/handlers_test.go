package callflow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Newrona-pi/AUTO-Call/internal/calls"
)

func newTestRouter(t *testing.T) (*gin.Engine, *fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := newFixture(t)
	f.seedScenario(t, "一問目です。")

	r := gin.New()
	NewHandler(f.engine).Register(r)
	return r, f
}

func postForm(t *testing.T, r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestVoiceWebhook(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postForm(t, r, "/twilio/voice", url.Values{
		"CallSid": {"CA1"},
		"From":    {"+819011112222"},
		"To":      {"+815012345678"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Fatalf("expected xml content type, got %q", ct)
	}
	if !strings.Contains(w.Body.String(), "一問目です。") {
		t.Fatalf("expected first question in body:\n%s", w.Body.String())
	}
}

func TestRecordCallbackWebhook(t *testing.T) {
	r, f := newTestRouter(t)

	w := postForm(t, r, "/twilio/record_callback?scenario_id=sc1&q_curr=q1", url.Values{
		"CallSid":      {"CA1"},
		"RecordingSid": {"RE1"},
		"RecordingUrl": {"https://api.twilio.com/rec/RE1"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), PromptMessageInvite) {
		t.Fatalf("single-question scenario should move to message prompt:\n%s", w.Body.String())
	}
	answers, _ := f.ledger.ListAnswersByCall(context.Background(), "CA1")
	if len(answers) != 1 || answers[0].TranscriptStatus != calls.TranscriptProcessing {
		t.Fatalf("expected one processing answer, got %+v", answers)
	}
}

func TestMessageConfirmWebhook_DefaultDigits(t *testing.T) {
	r, _ := newTestRouter(t)

	// No Digits anywhere defaults to "2" and ends the call.
	w := postForm(t, r, "/twilio/message_confirm?scenario_id=sc1", url.Values{})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<Hangup") {
		t.Fatalf("expected hangup:\n%s", w.Body.String())
	}
}

func TestMessageConfirmWebhook_RedirectFallbackDigits(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postForm(t, r, "/twilio/message_confirm?scenario_id=sc1&Digits=1", url.Values{})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), PromptMessageInvite) {
		t.Fatalf("query-string digit 1 must loop back:\n%s", w.Body.String())
	}
}

func TestTranscriptionCallbackWebhook(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postForm(t, r, "/twilio/transcription_callback", url.Values{
		"RecordingSid":      {"RE1"},
		"TranscriptionText": {"ignored"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Fatalf("expected OK body, got %q", w.Body.String())
	}
}

func TestVoiceWebhook_BadForm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	r := gin.New()
	NewHandler(f.engine).Register(r)

	req := httptest.NewRequest(http.MethodPost, "/twilio/voice", strings.NewReader("%zz"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed form, got %d", w.Code)
	}
}
