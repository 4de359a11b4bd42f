package relay

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type fakeNotifier struct {
	calls []string
	err   error
}

func (f *fakeNotifier) Notify(text string) error {
	f.calls = append(f.calls, text)
	return f.err
}

func newTestRouter(n Notifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/track", NewHandler(n).Track)
	return r
}

func postJSON(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTrackValidEvent(t *testing.T) {
	notifier := &fakeNotifier{}
	r := newTestRouter(notifier)

	w := postJSON(r, `{
		"timestamp": "2024-01-01T00:00:00Z",
		"userAgent": "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)",
		"deviceType": "mobile",
		"visitorId": "v_1700000000000_abc123def"
	}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Message != "Demographics tracked" {
		t.Errorf("response = %+v, want success with Demographics tracked", resp)
	}

	if len(notifier.calls) != 1 {
		t.Fatalf("notifier called %d times, want 1", len(notifier.calls))
	}
	text := notifier.calls[0]
	if !strings.Contains(text, "📱") {
		t.Errorf("message missing mobile device marker:\n%s", text)
	}
	if !strings.Contains(text, "1/1/2024") {
		t.Errorf("message missing locale-rendered timestamp:\n%s", text)
	}
}

func TestTrackMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"no timestamp", `{"userAgent":"Mozilla/5.0"}`},
		{"no user agent", `{"timestamp":"2024-01-01T00:00:00Z"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &fakeNotifier{}
			w := postJSON(newTestRouter(notifier), tt.body)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			var resp struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Error != "Missing required fields" {
				t.Errorf("error = %q, want Missing required fields", resp.Error)
			}
			if len(notifier.calls) != 0 {
				t.Errorf("notifier called %d times on invalid input, want 0", len(notifier.calls))
			}
		})
	}
}

func TestTrackMasksDownstreamFailure(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("telegram: 502")}
	w := postJSON(newTestRouter(notifier), `{"timestamp":"2024-01-01T00:00:00Z","userAgent":"UA"}`)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 despite downstream failure", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"success":true`) {
		t.Errorf("body = %s, want success:true", w.Body.String())
	}
}

func TestTrackWithoutCredentials(t *testing.T) {
	// nil notifier models unset TELEGRAM_BOT_TOKEN / TELEGRAM_CHAT_ID
	w := postJSON(newTestRouter(nil), `{"timestamp":"2024-01-01T00:00:00Z","userAgent":"UA"}`)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when credentials are absent", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"success":true`) {
		t.Errorf("body = %s, want success:true", w.Body.String())
	}
}

func TestTrackInvalidJSON(t *testing.T) {
	notifier := &fakeNotifier{}
	w := postJSON(newTestRouter(notifier), `{not json`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if len(notifier.calls) != 0 {
		t.Errorf("notifier called on malformed body")
	}
}
