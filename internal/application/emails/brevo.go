package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"carmarket-backend/internal/domain/events"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoContact   `json:"sender"`
	To          []BrevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	ReplyTo     *BrevoContact  `json:"replyTo,omitempty"`
}

type BrevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Recipient is the seller an update is mailed to.
type Recipient struct {
	Email string
	Name  string
}

// ListingUpdate describes the lifecycle change being reported.
type ListingUpdate struct {
	Kind        events.Kind
	ListingID   uint
	Title       string
	ExpiresAt   *time.Time
	AdminAction bool
}

// Sender mails sellers about their listings.
type Sender interface {
	SendListingUpdate(ctx context.Context, to Recipient, u ListingUpdate) error
}

// Mailed reports whether kind has a seller email.
func Mailed(kind events.Kind) bool {
	switch kind {
	case events.KindApproved, events.KindExpired, events.KindMarkedAsSold, events.KindArchived, events.KindRenewalInitiated:
		return true
	}
	return false
}

// BrevoClient sends emails via Brevo (Sendinblue) API. An empty APIKey turns every send into a no-op.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	SiteURL  string
	Endpoint string // defaults to the Brevo v3 API
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@carmarket.jo"
}

func (c *BrevoClient) site() string {
	if c.SiteURL != "" {
		return strings.TrimRight(c.SiteURL, "/")
	}
	return "https://carmarket.jo"
}

func (c *BrevoClient) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return brevoAPI
}

func (c *BrevoClient) send(ctx context.Context, to Recipient, subject, html string) error {
	body := BrevoSendRequest{
		Sender:      BrevoContact{Email: c.from(), Name: "CarMarket"},
		To:          []BrevoContact{{Email: to.Email, Name: to.Name}},
		Subject:     subject,
		HTMLContent: html,
		ReplyTo:     &BrevoContact{Email: "support@carmarket.jo", Name: "CarMarket Support"},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

// SendListingUpdate mails the seller the message for u.Kind. Kinds without a message are skipped.
func (c *BrevoClient) SendListingUpdate(ctx context.Context, to Recipient, u ListingUpdate) error {
	if c.APIKey == "" || to.Email == "" {
		return nil
	}
	subject, content, ok := listingContent(c.site(), to, u)
	if !ok {
		return nil
	}
	return c.send(ctx, to, subject, EmailLayout(content))
}
