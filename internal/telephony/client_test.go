package telephony

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStartCallRecording(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Calls/CA1/Recordings.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "token" {
			t.Errorf("expected basic auth credentials")
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"RE42"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "AC123", "token")
	sid, err := c.StartCallRecording(context.Background(), "CA1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if sid != "RE42" {
		t.Fatalf("expected RE42, got %q", sid)
	}
}

func TestStartCallRecording_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "AC123", "token")
	if _, err := c.StartCallRecording(context.Background(), "CA1"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFetchRecording(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Recordings/RE42.mp3" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "AC123", "token")
	audio, err := c.FetchRecording(context.Background(), "RE42")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Fatalf("unexpected audio %q", audio)
	}
}

func TestFetchRecording_NotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "AC123", "token")
	if _, err := c.FetchRecording(context.Background(), "RE42"); err == nil {
		t.Fatalf("expected error for 404")
	}
}
