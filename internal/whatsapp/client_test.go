package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"citaplan_backend/platform/logger"
)

func TestSendTextPostsCloudAPIPayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(srv.URL, logger.New("test"))

	err := client.SendText(context.Background(), "100200", "secret-token", "573001234567", "hola")
	if err != nil {
		t.Fatalf("SendText() error = %v", err)
	}

	if gotPath != "/100200/messages" {
		t.Fatalf("path = %q, want /100200/messages", gotPath)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotPayload["messaging_product"] != "whatsapp" || gotPayload["to"] != "573001234567" {
		t.Fatalf("payload = %v", gotPayload)
	}
	text, _ := gotPayload["text"].(map[string]any)
	if text["body"] != "hola" {
		t.Fatalf("text body = %v", text)
	}
}

func TestSendTextSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad token"}`))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(srv.URL, logger.New("test"))

	err := client.SendText(context.Background(), "100200", "bad", "573001234567", "hola")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
}

func TestSendTextRejectsEmptyRecipient(t *testing.T) {
	client := NewClientWithBaseURL("http://unused", logger.New("test"))

	if err := client.SendText(context.Background(), "100200", "tok", "", "hola"); err == nil {
		t.Fatal("expected error for empty recipient")
	}
}
