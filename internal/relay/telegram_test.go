package relay

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTelegramSenderRequest(t *testing.T) {
	var gotPath, gotChatID, gotParseMode, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotChatID = r.FormValue("chat_id")
		gotParseMode = r.FormValue("parse_mode")
		gotText = r.FormValue("text")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":1,"chat":{"id":42,"type":"private"},"text":"x"}}`))
	}))
	defer srv.Close()

	sender := newTelegramSender("test-token", 42, srv.URL+"/bot%s/%s",
		&http.Client{Timeout: 2 * time.Second})

	if err := sender.Notify("<b>New Visitor</b> 📱"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	if gotPath != "/bottest-token/sendMessage" {
		t.Errorf("path = %q, want /bottest-token/sendMessage", gotPath)
	}
	if gotChatID != "42" {
		t.Errorf("chat_id = %q, want 42", gotChatID)
	}
	if gotParseMode != "HTML" {
		t.Errorf("parse_mode = %q, want HTML", gotParseMode)
	}
	if !strings.Contains(gotText, "New Visitor") {
		t.Errorf("text = %q, want the formatted message", gotText)
	}
}

func TestTelegramSenderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	sender := newTelegramSender("bad-token", 42, srv.URL+"/bot%s/%s",
		&http.Client{Timeout: 2 * time.Second})

	if err := sender.Notify("hello"); err == nil {
		t.Error("Notify succeeded against an unauthorized response, want error")
	}
}
