package utils

import (
	"errors"
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"github.com/chachabrian/venue-backend/internal/config"
	"github.com/chachabrian/venue-backend/internal/models"
)

var ErrEmailNotConfigured = errors.New("email configuration not set")

// Common header template for all emails
const emailHeader = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Georgia, serif; line-height: 1.6; color: #333; margin: 0; padding: 0;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<div style="text-align: center; margin-bottom: 30px; background-color: #faf7f2; padding: 20px;">
			<h2 style="color: #8a6d3b; margin: 0;">%s</h2>
		</div>
`

// Common footer template for all emails
const emailFooter = `
		<div style="text-align: center; margin-top: 20px; font-size: 12px; color: #666; border-top: 1px solid #eee; padding-top: 20px;">
			<p>This is an automated message, please do not reply to this email.</p>
			<p>%s</p>
		</div>
	</div>
</body>
</html>
`

const emailButton = `
					<div style="text-align: center; margin: 30px 0;">
						<a href="%s" style="background-color: #8a6d3b; color: white; padding: 12px 25px; text-decoration: none; border-radius: 5px;">%s</a>
					</div>`

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer renders venue emails and delivers them over SMTP.
type Mailer struct {
	cfg       config.SMTPConfig
	venueName string
	baseURL   string
	send      sendFunc
}

func NewMailer(cfg config.SMTPConfig, venueName, baseURL string) *Mailer {
	return &Mailer{
		cfg:       cfg,
		venueName: venueName,
		baseURL:   strings.TrimRight(baseURL, "/"),
		send:      smtp.SendMail,
	}
}

func (m *Mailer) Enabled() bool {
	return m.cfg.Enabled()
}

func (m *Mailer) Send(to []string, subject, body string) error {
	if !m.cfg.Enabled() {
		return ErrEmailNotConfigured
	}
	if len(to) == 0 {
		return nil
	}

	headers := [][2]string{
		{"From", fmt.Sprintf("%s <%s>", m.venueName, m.cfg.From)},
		{"To", strings.Join(to, ",")},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
		{"X-Mailer", "Venue-Mailer"},
	}

	var msg strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&msg, "%s: %s\r\n", h[0], h[1])
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)

	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)
	addr := m.cfg.Host + ":" + m.cfg.Port
	if err := m.send(addr, auth, m.cfg.From, to, []byte(msg.String())); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (m *Mailer) render(title, greeting, content, link, linkText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, emailHeader, html.EscapeString(m.venueName))
	fmt.Fprintf(&b, `
				<div style="background-color: #faf7f2; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">%s</h1>
					<p>%s</p>
					%s`, title, greeting, content)
	if link != "" {
		fmt.Fprintf(&b, emailButton, m.baseURL+link, linkText)
	}
	fmt.Fprintf(&b, `
					<p>Warm regards,<br>The %s Team</p>
				</div>`, html.EscapeString(m.venueName))
	fmt.Fprintf(&b, emailFooter, html.EscapeString(m.venueName))
	return b.String()
}

func greeting(b *models.Booking) string {
	if b.User != nil && b.User.Name != "" {
		return "Hello " + html.EscapeString(b.User.Name) + ","
	}
	return "Hello,"
}

func eventLabel(t models.EventType) string {
	return strings.ToLower(strings.ReplaceAll(string(t), "_", " "))
}

func (m *Mailer) BookingReceivedEmail(b *models.Booking) (string, string) {
	subject := fmt.Sprintf("Booking Request Received - %s", m.venueName)
	content := fmt.Sprintf(`<p>We have received your %s request for <strong>%s</strong> (%d guests).</p>
					<p>Our team will review it shortly and let you know the outcome.</p>`,
		eventLabel(b.EventType), b.Date, b.GuestCount)
	return subject, m.render("Booking Request Received", greeting(b), content, "/bookings", "View Your Bookings")
}

func (m *Mailer) BookingWaitlistedEmail(b *models.Booking) (string, string) {
	position := 0
	if b.WaitlistPosition != nil {
		position = *b.WaitlistPosition
	}
	subject := fmt.Sprintf("You're on the Waitlist - %s", m.venueName)
	content := fmt.Sprintf(`<p><strong>%s</strong> is already requested by another party, so your booking has been added to the waitlist at position <strong>%d</strong>.</p>
					<p>We will contact you if the date becomes available.</p>`,
		b.Date, position)
	return subject, m.render("Added to the Waitlist", greeting(b), content, "/bookings", "View Your Bookings")
}

func (m *Mailer) BookingReviewedEmail(b *models.Booking) (string, string) {
	note := ""
	if b.ReviewNote != nil && *b.ReviewNote != "" {
		note = fmt.Sprintf(`<p>Note from our team: <em>%s</em></p>`, html.EscapeString(*b.ReviewNote))
	}

	if b.Status == models.BookingStatusApproved {
		subject := fmt.Sprintf("Booking Approved - %s", m.venueName)
		content := fmt.Sprintf(`<p>Great news! Your booking for <strong>%s</strong> has been approved.</p>
					%s`, b.Date, note)
		return subject, m.render("Booking Approved", greeting(b), content, "/bookings", "View Your Booking")
	}

	subject := fmt.Sprintf("Booking Update - %s", m.venueName)
	content := fmt.Sprintf(`<p>Unfortunately, we are unable to accept your booking for <strong>%s</strong>.</p>
					%s
					<p>Please check the calendar for other available dates.</p>`, b.Date, note)
	return subject, m.render("Booking Not Approved", greeting(b), content, "/calendar", "See Available Dates")
}

func (m *Mailer) BookingCancelledEmail(b *models.Booking) (string, string) {
	subject := fmt.Sprintf("Booking Cancelled - %s", m.venueName)
	content := fmt.Sprintf(`<p>Your booking for <strong>%s</strong> has been cancelled.</p>`, b.Date)
	return subject, m.render("Booking Cancelled", greeting(b), content, "/calendar", "Book Another Date")
}

func (m *Mailer) BookingPromotedEmail(b *models.Booking) (string, string) {
	subject := fmt.Sprintf("Your Date Is Now Available - %s", m.venueName)
	content := fmt.Sprintf(`<p>Your waitlisted booking for <strong>%s</strong> has moved to the front and is now pending review.</p>`, b.Date)
	return subject, m.render("Off the Waitlist", greeting(b), content, "/bookings", "View Your Booking")
}

func (m *Mailer) SpotAvailableEmail(b *models.Booking) (string, string) {
	subject := fmt.Sprintf("A Spot Opened Up - %s", m.venueName)
	content := fmt.Sprintf(`<p><strong>%s</strong> has just become available and you are first on the waitlist.</p>
					<p>Our team will be in touch to confirm your booking.</p>`, b.Date)
	return subject, m.render("A Spot Opened Up", greeting(b), content, "/bookings", "View Your Booking")
}

// AdminBookingEmail summarises a booking change for venue staff.
func (m *Mailer) AdminBookingEmail(b *models.Booking, action string) (string, string) {
	owner := "unknown guest"
	if b.User != nil {
		owner = fmt.Sprintf("%s (%s)", html.EscapeString(b.User.Name), html.EscapeString(b.User.Email))
	}
	subject := fmt.Sprintf("Booking %s: %s - %s", action, b.Date, m.venueName)
	content := fmt.Sprintf(`<p>Booking #%d for <strong>%s</strong> was %s.</p>
					<p>Guest: %s<br>Event: %s<br>Guests: %d<br>Status: %s</p>`,
		b.ID, b.Date, strings.ToLower(action), owner, eventLabel(b.EventType), b.GuestCount, b.Status)
	return subject, m.render("Booking "+action, "Hello,", content, "/admin/bookings", "Open Admin Panel")
}
