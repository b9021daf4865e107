package emails

import (
	"fmt"
	"html"
	"time"

	"carmarket-backend/internal/domain/events"
)

const (
	themePrimary   = "#C2410C"
	themeTextMain  = "#1F2937"
	themeTextMuted = "#6B7280"
	themeBgBody    = "#F3F4F6"
	themeWhite     = "#FFFFFF"
)

// EmailLayout wraps content in the shared transactional layout.
func EmailLayout(contentHTML string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>CarMarket</title>
  <style>
    body { margin: 0; padding: 0; background-color: %s; font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; color: %s; }
    .content-body p { margin: 0 0 20px 0; font-size: 16px; line-height: 1.6; }
    .content-body h1 { font-size: 22px; margin: 0 0 18px 0; }
    .cm-button { display: inline-block; background-color: %s; color: #ffffff !important; padding: 12px 28px; border-radius: 6px; font-weight: 600; text-decoration: none; }
    .footer-text { color: %s; font-size: 13px; }
  </style>
</head>
<body>
  <table role="presentation" width="100%%" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 40px 0;">
        <table role="presentation" width="600" cellspacing="0" cellpadding="0" style="background-color: %s; border-radius: 8px;">
          <tr><td class="content-body" style="padding: 40px 48px 24px 48px;">%s</td></tr>
          <tr><td align="center" style="padding: 0 48px 32px 48px;"><p class="footer-text">© %d CarMarket. Questions? <a href="mailto:support@carmarket.jo">support@carmarket.jo</a></p></td></tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`, themeBgBody, themeTextMain, themePrimary, themeTextMuted, themeWhite, contentHTML, time.Now().Year())
}

// listingContent returns the subject and body for u, or false when the kind is not mailed.
func listingContent(site string, to Recipient, u ListingUpdate) (string, string, bool) {
	name := to.Name
	if name == "" {
		name = "there"
	}
	title := html.EscapeString(u.Title)
	link := fmt.Sprintf("%s/my-listings/%d", site, u.ListingID)

	var subject, lead string
	switch u.Kind {
	case events.KindApproved:
		subject = "Your listing is live"
		lead = fmt.Sprintf("<strong>%s</strong> passed review and is now visible to buyers%s.", title, until(u.ExpiresAt))
	case events.KindRenewalInitiated:
		subject = "Your listing was renewed"
		lead = fmt.Sprintf("<strong>%s</strong> has been renewed%s.", title, until(u.ExpiresAt))
	case events.KindExpired:
		subject = "Your listing has expired"
		lead = fmt.Sprintf("<strong>%s</strong> is no longer shown to buyers. You can renew it from your dashboard.", title)
	case events.KindMarkedAsSold:
		if !u.AdminAction {
			return "", "", false
		}
		subject = "Your listing was marked as sold"
		lead = fmt.Sprintf("Our moderators marked <strong>%s</strong> as sold.", title)
	case events.KindArchived:
		if !u.AdminAction {
			return "", "", false
		}
		subject = "Your listing was archived"
		lead = fmt.Sprintf("Our moderators archived <strong>%s</strong>. Contact support if you think this is a mistake.", title)
	default:
		return "", "", false
	}

	content := fmt.Sprintf(`
    <h1>Hi %s,</h1>
    <p>%s</p>
    <center><a href="%s" class="cm-button">View listing</a></center>
    <p style="margin-top: 20px;">The CarMarket Team</p>
`, html.EscapeString(name), lead, link)
	return subject, content, true
}

func until(t *time.Time) string {
	if t == nil {
		return ""
	}
	return " until " + t.UTC().Format("2 Jan 2006")
}
