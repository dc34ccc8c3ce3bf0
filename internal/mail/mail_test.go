package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPSend(t *testing.T) {
	s := NewSMTP("mail.local", 2525, "user", "secret", "no-reply@skins.market")
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
		gotAuth smtp.Auth
	)
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg, gotAuth = addr, to, string(msg), a
		return nil
	}

	err := s.Send(context.Background(), "Activate your account", "code: abc", []string{"u@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, []string{"u@example.com"}, gotTo)
	assert.NotNil(t, gotAuth)
	assert.True(t, strings.HasPrefix(gotMsg, "From: no-reply@skins.market\r\n"))
	assert.Contains(t, gotMsg, "Subject: Activate your account\r\n")
	assert.Contains(t, gotMsg, "\r\n\r\ncode: abc\r\n")
}

func TestSMTPSend_BulkHidesRecipients(t *testing.T) {
	s := NewSMTP("mail.local", 25, "", "", "from@x")
	var gotMsg string
	s.send = func(_ string, a smtp.Auth, _ string, _ []string, msg []byte) error {
		assert.Nil(t, a)
		gotMsg = string(msg)
		return nil
	}
	require.NoError(t, s.Send(context.Background(), "New items", "body", []string{"a@x", "b@x"}))
	assert.NotContains(t, gotMsg, "a@x")
}

func TestSMTPSend_Error(t *testing.T) {
	s := NewSMTP("mail.local", 25, "", "", "from@x")
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("relay refused")
	}
	assert.Error(t, s.Send(context.Background(), "s", "b", []string{"a@x"}))
	assert.NoError(t, s.Send(context.Background(), "s", "b", nil))
}
