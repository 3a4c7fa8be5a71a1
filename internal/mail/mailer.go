package mail

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// Mailer sends transactional mail over SMTP. When the SMTP env is not
// configured it degrades to logging the message, which keeps local
// development working without a mail account.
type Mailer struct {
	Host     string
	Port     string
	Username string
	Password string
	FromName string
	Timeout  time.Duration
	Logger   *slog.Logger
}

func (m *Mailer) configured() bool {
	return m.Host != "" && m.Port != "" && m.Username != "" && m.Password != ""
}

func (m *Mailer) timeout() time.Duration {
	if m.Timeout > 0 {
		return m.Timeout
	}
	return 10 * time.Second
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// Send delivers one multipart (plain + html) message. The whole exchange,
// dial included, is bounded by the configured timeout so a hung provider
// cannot stall a request goroutine past it.
func (m *Mailer) Send(to, subject, plainBody, htmlBody string) error {
	to = sanitize(to)
	subject = sanitize(subject)

	if !m.configured() {
		if m.Logger != nil {
			m.Logger.Info("[MOCK EMAIL]", "to", to, "subject", subject)
		}
		return nil
	}

	addr := net.JoinHostPort(m.Host, m.Port)
	conn, err := net.DialTimeout("tcp", addr, m.timeout())
	if err != nil {
		return fmt.Errorf("mail: dial %s: %w", addr, err)
	}
	if err := conn.SetDeadline(time.Now().Add(m.timeout())); err != nil {
		conn.Close()
		return fmt.Errorf("mail: set deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("mail: smtp client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.Host}); err != nil {
			return fmt.Errorf("mail: starttls: %w", err)
		}
	}
	auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("mail: auth: %w", err)
	}

	if err := client.Mail(m.Username); err != nil {
		return fmt.Errorf("mail: MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("mail: RCPT TO: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("mail: DATA: %w", err)
	}
	if _, err := w.Write([]byte(m.compose(to, subject, plainBody, htmlBody))); err != nil {
		return fmt.Errorf("mail: write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("mail: close body: %w", err)
	}

	return client.Quit()
}

func (m *Mailer) compose(to, subject, plainBody, htmlBody string) string {
	from := fmt.Sprintf("%s <%s>", m.FromName, m.Username)
	boundary := "----=_CAFE_MAIL_BOUNDARY"

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", to))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary))

	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	sb.WriteString(plainBody + "\r\n")

	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	sb.WriteString(htmlBody + "\r\n")

	sb.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return sb.String()
}
