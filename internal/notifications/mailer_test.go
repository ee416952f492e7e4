package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/expansio/backend/config"
	"github.com/expansio/backend/pkg/queue"
)

func testPayload() queue.MatchNotificationPayload {
	return queue.MatchNotificationPayload{
		ProjectID:      7,
		VendorID:       12,
		Score:          17.8,
		Country:        "Germany",
		ClientName:     "Acme GmbH",
		RecipientEmail: "owner@acme.test",
	}
}

func TestSendMatchNotification(t *testing.T) {
	var got mailRequest
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	mailer := NewMailer(config.MailConfig{
		APIURL:      srv.URL,
		APIKey:      "test-key",
		FromAddress: "no-reply@expansio.test",
		FromName:    "Expansion Management",
	}, "https://app.expansio.test")

	subject, err := mailer.SendMatchNotification(context.Background(), testPayload())
	if err != nil {
		t.Fatal(err)
	}
	if authHeader != "Bearer test-key" {
		t.Errorf("auth header = %q", authHeader)
	}
	if subject != "New High-Score Match for Project in Germany" {
		t.Errorf("subject = %q", subject)
	}
	if len(got.To) != 1 || got.To[0].Email != "owner@acme.test" {
		t.Errorf("to = %+v", got.To)
	}
	// The score is presented with two decimals in the body only.
	if !strings.Contains(got.Text, "(17.80)") {
		t.Errorf("text body missing formatted score: %q", got.Text)
	}
	if !strings.Contains(got.HTML, "https://app.expansio.test") {
		t.Error("html body missing login link")
	}
}

func TestSendMatchNotificationAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"quota exceeded"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	mailer := NewMailer(config.MailConfig{APIURL: srv.URL, APIKey: "k"}, "")
	if _, err := mailer.SendMatchNotification(context.Background(), testPayload()); err == nil {
		t.Error("expected error on non-2xx response")
	}
}
