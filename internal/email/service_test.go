package email

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatebid/estatebid-api/internal/config"
	"github.com/estatebid/estatebid-api/internal/logging"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestService(sendErr error) (*Service, *[]sentMail) {
	svc := NewService(config.EmailConfig{
		SMTPHost:    "smtp.example.com",
		SMTPPort:    "587",
		SMTPUser:    "mailer@example.com",
		FrontendURL: "https://estatebid.example",
	})

	var sent []sentMail
	svc.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
		return sendErr
	}

	return svc, &sent
}

func TestSendVerificationEmail(t *testing.T) {
	svc, sent := newTestService(nil)

	err := svc.SendVerificationEmail(context.Background(), "ama@example.com", "Ama", "tok+en")
	require.NoError(t, err)

	require.Len(t, *sent, 1)
	mail := (*sent)[0]
	assert.Equal(t, "smtp.example.com:587", mail.addr)
	assert.Equal(t, "mailer@example.com", mail.from)
	assert.Equal(t, []string{"ama@example.com"}, mail.to)
	assert.Contains(t, mail.msg, "Subject: Verify your email address")
	assert.Contains(t, mail.msg, "Hi Ama")
	assert.Contains(t, mail.msg, "https://estatebid.example/verify-email?token=tok%2Ben")
}

func TestSendPasswordResetEmail_PropagatesFailure(t *testing.T) {
	svc, _ := newTestService(errors.New("connection refused"))

	err := svc.SendPasswordResetEmail(context.Background(), "ama@example.com", "Ama", "t")
	assert.ErrorContains(t, err, "connection refused")
}

func TestSendEmail_CanceledContext(t *testing.T) {
	svc, sent := newTestService(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.SendVerificationEmail(ctx, "ama@example.com", "Ama", "t")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *sent)
}

func TestLogSender(t *testing.T) {
	s := NewLogSender("http://localhost:3000", logging.NewTestLogger())
	assert.NoError(t, s.SendVerificationEmail(context.Background(), "a@b.c", "A", "t"))
	assert.NoError(t, s.SendPasswordResetEmail(context.Background(), "a@b.c", "A", "t"))
}
