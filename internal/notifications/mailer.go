package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/expansio/backend/config"
	"github.com/expansio/backend/pkg/queue"
)

// Mailer sends notification emails through the mail HTTP API.
type Mailer struct {
	cfg    config.MailConfig
	front  string
	client *http.Client
}

// NewMailer creates a mail API client.
func NewMailer(cfg config.MailConfig, frontendURL string) *Mailer {
	return &Mailer{
		cfg:   cfg,
		front: frontendURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type mailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailRequest struct {
	From    mailAddress   `json:"from"`
	To      []mailAddress `json:"to"`
	Subject string        `json:"subject"`
	Text    string        `json:"text"`
	HTML    string        `json:"html,omitempty"`
}

// SendMatchNotification composes and sends the high-score match email.
// Scores are formatted with two decimals here and nowhere else; storage
// keeps the raw value.
func (m *Mailer) SendMatchNotification(ctx context.Context, p queue.MatchNotificationPayload) (subject string, err error) {
	subject = fmt.Sprintf("New High-Score Match for Project in %s", p.Country)
	text := fmt.Sprintf(`Hello %s,

A new vendor match with a high score (%.2f) has been found for your project in %s.

Vendor ID: %d
Project ID: %d

Please log in to the system to review this match.

Best regards,
Expansion Management Team`, p.ClientName, p.Score, p.Country, p.VendorID, p.ProjectID)

	html := fmt.Sprintf(`<p>Hello %s,</p>
<p>A new vendor match with a high score (<strong>%.2f</strong>) has been found for your project in <strong>%s</strong>.</p>
<p><strong>Vendor ID:</strong> %d<br>
<strong>Project ID:</strong> %d</p>
<p>Please <a href="%s">log in</a> to the system to review this match.</p>
<p>Best regards,<br>
Expansion Management Team</p>`, p.ClientName, p.Score, p.Country, p.VendorID, p.ProjectID, m.front)

	return subject, m.send(ctx, mailRequest{
		From:    mailAddress{Email: m.cfg.FromAddress, Name: m.cfg.FromName},
		To:      []mailAddress{{Email: p.RecipientEmail, Name: p.ClientName}},
		Subject: subject,
		Text:    text,
		HTML:    html,
	})
}

func (m *Mailer) send(ctx context.Context, reqBody mailRequest) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal mail request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("mail API status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
