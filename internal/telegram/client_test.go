package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"citaplan_backend/platform/logger"
)

func TestSendMessagePostsToBotEndpoint(t *testing.T) {
	var gotPath string
	var gotPayload map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(srv.URL, logger.New("test"))

	if err := client.SendMessage(context.Background(), "bot-token", "987654", "hola"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if gotPath != "/botbot-token/sendMessage" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotPayload["chat_id"] != "987654" || gotPayload["text"] != "hola" {
		t.Fatalf("payload = %v", gotPayload)
	}
}

func TestSendMessageSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false}`))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(srv.URL, logger.New("test"))

	if err := client.SendMessage(context.Background(), "bot-token", "987654", "hola"); err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestSendMessageRejectsEmptyChatID(t *testing.T) {
	client := NewClientWithBaseURL("http://unused", logger.New("test"))

	if err := client.SendMessage(context.Background(), "bot-token", "", "hola"); err == nil {
		t.Fatal("expected error for empty chat id")
	}
}
