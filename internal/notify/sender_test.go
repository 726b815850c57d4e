// AngelaMos | 2026
// sender_test.go

package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/smtp"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/thesis-archive/internal/config"
)

func TestNewSender_PicksImplementation(t *testing.T) {
	_, isLog := NewSender(config.MailConfig{Sender: "log"}, nil).(*LogSender)
	assert.True(t, isLog)

	_, isSMTP := NewSender(config.MailConfig{Sender: "smtp", SMTPHost: "mx"}, nil).(*SMTPSender)
	assert.True(t, isSMTP)
}

func TestCompose(t *testing.T) {
	date := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	raw, err := Compose("Archive <noreply@archive.test>", "ada@example.com",
		"Verify your email", "code 123456\r\n", date)
	require.NoError(t, err)

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)

	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Verify your email", subject)

	to, err := mr.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "ada@example.com", to[0].Address)

	part, err := mr.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(part.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "123456")
}

func TestCompose_BadAddress(t *testing.T) {
	_, err := Compose("not an address", "ada@example.com", "s", "b", time.Now())
	assert.Error(t, err)
}

func TestSMTPSender_Send(t *testing.T) {
	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth

	s := &SMTPSender{
		addr:    "mx:25",
		host:    "mx",
		user:    "archive",
		pass:    "secret",
		from:    "noreply@archive.test",
		baseURL: "https://archive.test/",
		sendMail: func(addr string, a smtp.Auth, _ string, to []string, msg []byte) error {
			gotAddr, gotAuth, gotTo, gotMsg = addr, a, to, msg
			return nil
		},
	}

	require.NoError(t, s.SendPasswordReset(context.Background(), "ada@example.com", "tok"))
	assert.Equal(t, "mx:25", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "https://archive.test/reset-password/tok")
}

func TestSMTPSender_PropagatesFailure(t *testing.T) {
	s := &SMTPSender{
		from: "noreply@archive.test",
		sendMail: func(string, smtp.Auth, string, []string, []byte) error {
			return errors.New("connection refused")
		},
	}

	err := s.SendWelcome(context.Background(), "ada@example.com", "Ada")
	assert.ErrorContains(t, err, "connection refused")
}

func TestResetLink(t *testing.T) {
	assert.Equal(t, "tok", resetLink("", "tok"))
	assert.Equal(t, "https://x.test/reset-password/tok", resetLink("https://x.test/", "tok"))
}
