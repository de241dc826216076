package resume

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/interview"
)

func TestExtractDecodesProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		defer file.Close()
		if header.Filename != "resume.pdf" {
			t.Errorf("unexpected filename %q", header.Filename)
		}
		_ = json.NewEncoder(w).Encode(interview.ResumeProfile{
			Name:    "Jane Doe",
			Summary: "Backend engineer.",
			Skills:  []string{"Go"},
		})
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL}, nil)
	profile, err := client.Extract(context.Background(), []byte("%PDF-1.4 fake"), "resume.pdf")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if profile.Name != "Jane Doe" || len(profile.Skills) != 1 {
		t.Fatalf("profile mangled: %+v", profile)
	}
}

func TestExtractLocalValidation(t *testing.T) {
	client := NewClient(Config{Endpoint: "http://unreachable.invalid", MaxDocumentBytes: 10}, nil)

	if _, err := client.Extract(context.Background(), nil, "empty.pdf"); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if _, err := client.Extract(context.Background(), bytes.Repeat([]byte{0x01}, 11), "big.pdf"); !errors.Is(err, ErrOversized) {
		t.Fatalf("expected ErrOversized, got %v", err)
	}
}

func TestExtractMapsServiceStatuses(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusRequestEntityTooLarge, ErrOversized},
		{http.StatusUnprocessableEntity, ErrUnreadable},
	}
	for _, c := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(c.status)
		}))
		client := NewClient(Config{Endpoint: srv.URL}, nil)
		_, err := client.Extract(context.Background(), []byte("doc"), "resume.docx")
		srv.Close()
		if !errors.Is(err, c.want) {
			t.Fatalf("status %d: expected %v, got %v", c.status, c.want, err)
		}
	}
}

func TestExtractUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL}, nil)
	_, err := client.Extract(context.Background(), []byte("doc"), "resume.pdf")
	if err == nil || errors.Is(err, ErrUnreadable) || errors.Is(err, ErrOversized) {
		t.Fatalf("unexpected status must map to a generic extraction error, got %v", err)
	}
}
