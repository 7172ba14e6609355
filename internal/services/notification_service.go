package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/http"
	"net/mail"
	"net/smtp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/config"
	"github.com/pratik-mahalle/opsguard/internal/domain/notification"
	"github.com/pratik-mahalle/opsguard/internal/pkg/errors"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/pkg/metrics"
)

// NewNotifier builds the fan-out notifier from the configured transports
func NewNotifier(cfg config.AlertingConfig, log *logger.Logger) *MultiNotifier {
	var notifiers []notification.Notifier
	if cfg.SMTPHost != "" {
		notifiers = append(notifiers, NewEmailNotifier(cfg))
	}
	if cfg.SlackWebhookURL != "" {
		notifiers = append(notifiers, NewSlackNotifier(cfg.SlackWebhookURL, cfg.SlackChannel))
	}
	if len(notifiers) == 0 {
		log.Warn("No notification transport configured, alerts will only be logged")
	}
	return NewMultiNotifier(log, notifiers...)
}

// MultiNotifier delivers each message over every transport
type MultiNotifier struct {
	notifiers []notification.Notifier
	logger    *logger.Logger
}

// NewMultiNotifier creates a fan-out notifier
func NewMultiNotifier(log *logger.Logger, notifiers ...notification.Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers, logger: log}
}

// Channel reports the first transport, or email when none is configured
func (m *MultiNotifier) Channel() notification.Channel {
	if len(m.notifiers) == 0 {
		return notification.ChannelEmail
	}
	return m.notifiers[0].Channel()
}

// Notify tries every transport; it fails only when all of them failed
func (m *MultiNotifier) Notify(ctx context.Context, msg *notification.Message) error {
	if len(m.notifiers) == 0 {
		m.logger.WithFields(map[string]interface{}{
			"recipient": msg.Recipient,
			"subject":   msg.Subject,
		}).Info("Notification not delivered, no transport configured")
		return nil
	}

	var lastErr error
	delivered := 0
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			lastErr = err
			metrics.RecordNotification(string(n.Channel()), "failed")
			m.logger.WithFields(map[string]interface{}{
				"channel":   n.Channel(),
				"recipient": msg.Recipient,
			}).ErrorWithErr(err, "Failed to send notification")
			continue
		}
		delivered++
		metrics.RecordNotification(string(n.Channel()), "sent")
	}

	if delivered == 0 {
		return errors.DeliveryError(msg.Recipient, lastErr)
	}
	return nil
}

// EmailNotifier sends HTML mail over SMTP
type EmailNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
	useTLS   bool
	timeout  time.Duration
}

// NewEmailNotifier creates an SMTP notifier
func NewEmailNotifier(cfg config.AlertingConfig) *EmailNotifier {
	return &EmailNotifier{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
		useTLS:   cfg.SMTPUseTLS,
		timeout:  30 * time.Second,
	}
}

func (e *EmailNotifier) Channel() notification.Channel {
	return notification.ChannelEmail
}

func (e *EmailNotifier) Notify(ctx context.Context, msg *notification.Message) error {
	to, err := mail.ParseAddress(msg.Recipient)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.Recipient, err)
	}
	data, err := buildEmail(e.from, to.Address, msg, time.Now())
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(e.host, strconv.Itoa(e.port))

	dialer := &net.Dialer{Timeout: e.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(e.timeout))
	}

	client, err := smtp.NewClient(conn, e.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to start SMTP session: %w", err)
	}
	defer client.Close()

	if e.useTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: e.host}); err != nil {
				return fmt.Errorf("failed to start TLS: %w", err)
			}
		}
	}
	if e.username != "" && e.password != "" {
		if err := client.Auth(smtp.PlainAuth("", e.username, e.password, e.host)); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(e.from); err != nil {
		return fmt.Errorf("SMTP MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(to.Address); err != nil {
		return fmt.Errorf("SMTP RCPT TO failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA failed: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return client.Quit()
}

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// buildEmail renders an RFC 5322 message with an HTML body when available.
// The subject is RFC 2047 encoded and the body quoted-printable, so no line exceeds 76 characters.
func buildEmail(from, to string, msg *notification.Message, now time.Time) ([]byte, error) {
	contentType := "text/plain"
	body := msg.Text
	if msg.HTML != "" {
		contentType = "text/html"
		body = msg.HTML
	}

	var buf bytes.Buffer
	header := func(name, value string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", name, value)
	}
	header("From", headerBreaks.Replace(from))
	header("To", headerBreaks.Replace(to))
	header("Subject", mime.QEncoding.Encode("utf-8", headerBreaks.Replace(msg.Subject)))
	header("Date", now.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", mime.FormatMediaType(contentType, map[string]string{"charset": "utf-8"}))
	header("Content-Transfer-Encoding", "quoted-printable")
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := io.WriteString(qp, body); err != nil {
		return nil, fmt.Errorf("failed to encode message body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode message body: %w", err)
	}
	return buf.Bytes(), nil
}

// SlackNotifier posts messages to an incoming webhook
type SlackNotifier struct {
	webhookURL string
	channel    string
	httpClient *http.Client
}

// NewSlackNotifier creates a Slack webhook notifier
func NewSlackNotifier(webhookURL, channel string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		channel:    channel,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *SlackNotifier) Channel() notification.Channel {
	return notification.ChannelSlack
}

func (s *SlackNotifier) Notify(ctx context.Context, msg *notification.Message) error {
	payload, err := json.Marshal(s.buildSlackMessage(msg))
	if err != nil {
		return fmt.Errorf("failed to marshal Slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Slack message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("Slack API error: %d %s", resp.StatusCode, string(body))
	}

	return nil
}

// buildSlackMessage builds a Slack message payload
func (s *SlackNotifier) buildSlackMessage(msg *notification.Message) map[string]interface{} {
	keys := make([]string, 0, len(msg.Fields))
	for k := range msg.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]map[string]interface{}, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, map[string]interface{}{
			"title": k,
			"value": msg.Fields[k],
			"short": len(msg.Fields[k]) < 40,
		})
	}

	payload := map[string]interface{}{
		"text": msg.Subject,
		"attachments": []map[string]interface{}{
			{
				"color":  notification.ColorFor(msg.Severity),
				"title":  msg.Title,
				"text":   msg.Text,
				"fields": fields,
				"footer": "OpsGuard",
				"ts":     time.Now().Unix(),
			},
		},
	}
	if s.channel != "" {
		payload["channel"] = s.channel
	}
	return payload
}
