package services

import (
	"bufio"
	"bytes"
	"io"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/opsguard/internal/domain/notification"
)

func TestBuildEmail(t *testing.T) {
	html := "<table><tr><td>" + strings.Repeat("disk usage above threshold ", 120) + "</td></tr></table>"

	tests := []struct {
		name        string
		msg         *notification.Message
		wantSubject string
		wantType    string
		wantBody    string
	}{
		{
			name:        "non-ascii subject",
			msg:         &notification.Message{Subject: "[CRITICAL] Schéma de sauvegarde échoué ✗", Text: "plain"},
			wantSubject: "[CRITICAL] Schéma de sauvegarde échoué ✗",
			wantType:    "text/plain",
			wantBody:    "plain",
		},
		{
			name:        "header injection",
			msg:         &notification.Message{Subject: "Disk full\r\nBcc: attacker@example.com", HTML: "<b>x</b>"},
			wantSubject: "Disk full Bcc: attacker@example.com",
			wantType:    "text/html",
			wantBody:    "<b>x</b>",
		},
		{
			name:        "long html line",
			msg:         &notification.Message{Subject: "Report", HTML: html},
			wantSubject: "Report",
			wantType:    "text/html",
			wantBody:    html,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := buildEmail("opsguard@example.com", "ops@example.com", tt.msg, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
			require.NoError(t, err)

			sc := bufio.NewScanner(bytes.NewReader(raw))
			sc.Buffer(make([]byte, 0, 64*1024), 64*1024)
			for sc.Scan() {
				line := strings.TrimSuffix(sc.Text(), "\r")
				assert.LessOrEqual(t, len(line), 998)
				assert.False(t, strings.HasPrefix(line, "Bcc:"), "injected header: %q", line)
			}

			m, err := mail.ReadMessage(bytes.NewReader(raw))
			require.NoError(t, err)
			assert.Empty(t, m.Header.Get("Bcc"))
			assert.Equal(t, "quoted-printable", m.Header.Get("Content-Transfer-Encoding"))

			subject, err := new(mime.WordDecoder).DecodeHeader(m.Header.Get("Subject"))
			require.NoError(t, err)
			assert.Equal(t, tt.wantSubject, subject)

			mediaType, params, err := mime.ParseMediaType(m.Header.Get("Content-Type"))
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, mediaType)
			assert.Equal(t, "utf-8", params["charset"])

			body, err := io.ReadAll(quotedprintable.NewReader(m.Body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}

func TestBuildEmail_BodyLinesStayShort(t *testing.T) {
	raw, err := buildEmail("a@example.com", "b@example.com", &notification.Message{
		Subject: "s",
		HTML:    strings.Repeat("=", 5000),
	}, time.Now())
	require.NoError(t, err)

	parts := strings.SplitN(string(raw), "\r\n\r\n", 2)
	require.Len(t, parts, 2)
	for _, line := range strings.Split(parts[1], "\r\n") {
		assert.LessOrEqual(t, len(line), 76)
	}
}
