package service

import (
	"testing"

	"ledger/config"

	"github.com/stretchr/testify/assert"
)

func newTestEmailService() *EmailService {
	return NewEmailService(&config.EmailConfig{})
}

func TestGenerateWelcomeEmailBody(t *testing.T) {
	s := newTestEmailService()

	body := s.generateWelcomeEmailBody("alice", false)
	assert.Contains(t, body, "alice")
	assert.Contains(t, body, "a regular account")

	body = s.generateWelcomeEmailBody("root", true)
	assert.Contains(t, body, "an administrator account")

	// usernames are escaped
	body = s.generateWelcomeEmailBody("<script>", false)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestSendWelcomeEmail_Disabled(t *testing.T) {
	s := newTestEmailService()
	assert.False(t, s.Enabled())
	assert.ErrorIs(t, s.SendWelcomeEmail("a@b.com", "a", false), ErrEmailDisabled)

	var nilService *EmailService
	assert.False(t, nilService.Enabled())
}
