package mailer

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

type SMTPMailer struct {
	Host   string
	Port   int
	From   string
	User   string
	Pass   string
	UseTLS bool
}

func NewSMTPMailer(host string, port int, from, user, pass string, useTLS bool) *SMTPMailer {
	return &SMTPMailer{
		Host:   strings.TrimSpace(host),
		Port:   port,
		From:   strings.TrimSpace(from),
		User:   strings.TrimSpace(user),
		Pass:   strings.TrimSpace(pass),
		UseTLS: useTLS,
	}
}

func (s *SMTPMailer) SendExpiryReport(toEmail string, entries []ExpiringCredential) error {
	subject := "Portal passwords expiring soon"
	text, html := renderExpiryReport(entries)
	return s.sendEmail(toEmail, subject, text, html)
}

func (s *SMTPMailer) SendAdminRotationNotice(toEmail string, rotatedAt time.Time) error {
	subject := "Admin password was changed"
	text, html := renderRotationNotice(rotatedAt)
	return s.sendEmail(toEmail, subject, text, html)
}

func renderExpiryReport(entries []ExpiringCredential) (text, html string) {
	var tb, hb strings.Builder
	tb.WriteString("The following portal passwords expire within 7 days:\n\n")
	hb.WriteString("<h2>Portal passwords expiring soon</h2><ul>")
	for _, e := range entries {
		fmt.Fprintf(&tb, "- [%s] %s: expires %s (%d days left)\n", e.Category, e.Label, e.Expires, e.DaysLeft)
		fmt.Fprintf(&hb, "<li><strong>[%s]</strong> %s &mdash; expires %s (%d days left)</li>", e.Category, e.Label, e.Expires, e.DaysLeft)
	}
	tb.WriteString("\nIssue replacements from the admin dashboard before they lapse.\n")
	hb.WriteString("</ul><p>Issue replacements from the admin dashboard before they lapse.</p>")
	return tb.String(), hb.String()
}

func renderRotationNotice(rotatedAt time.Time) (text, html string) {
	when := rotatedAt.Format(time.RFC3339)
	text = fmt.Sprintf("The admin password was replaced at %s.\n\nIf this was not you, replace it again immediately.", when)
	html = fmt.Sprintf("<h2>Admin password was changed</h2><p>The admin password was replaced at <strong>%s</strong>.</p><p>If this was not you, replace it again immediately.</p>", when)
	return text, html
}

func (s *SMTPMailer) sendEmail(toEmail, subject, text, html string) error {
	toEmail = strings.TrimSpace(toEmail)
	if toEmail == "" {
		return fmt.Errorf("empty recipient email")
	}

	var buf bytes.Buffer
	boundary := "mixed-boundary"

	fmt.Fprintf(&buf, "From: %s\r\n", s.From)
	fmt.Fprintf(&buf, "To: %s\r\n", toEmail)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	// Text part
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", text)

	// HTML part
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/html; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", html)

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

	// Mailpit or development SMTP (no auth, no TLS)
	if !s.UseTLS && s.User == "" {
		return smtp.SendMail(addr, nil, s.From, []string{toEmail}, buf.Bytes())
	}

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}

	// Try plain SMTP first (with STARTTLS if supported)
	if err := smtp.SendMail(addr, auth, s.From, []string{toEmail}, buf.Bytes()); err == nil {
		return nil
	}

	// Fallback to implicit TLS (port 465)
	if s.UseTLS {
		tlsCfg := &tls.Config{ServerName: s.Host, InsecureSkipVerify: false}
		conn, err := tls.Dial("tcp", addr, tlsCfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		c, err := smtp.NewClient(conn, s.Host)
		if err != nil {
			return err
		}
		defer c.Quit()

		if s.User != "" {
			if err := c.Auth(auth); err != nil {
				return err
			}
		}

		if err := c.Mail(s.From); err != nil {
			return err
		}
		if err := c.Rcpt(toEmail); err != nil {
			return err
		}

		w, err := c.Data()
		if err != nil {
			return err
		}

		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}

		return w.Close()
	}

	return fmt.Errorf("smtp send failed")
}
