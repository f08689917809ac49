package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistration_Validate(t *testing.T) {
	valid := Registration{Name: " Ada ", Email: " Ada@Example.COM ", Password: "correct horse"}.Normalize()
	assert.Equal(t, "Ada", valid.Name)
	assert.Equal(t, "ada@example.com", valid.Email)
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name string
		reg  Registration
		want string
	}{
		{"missing name", Registration{Email: "a@b.co", Password: "longenough"}, "name"},
		{"missing email", Registration{Name: "A", Password: "longenough"}, "email is required"},
		{"bad email", Registration{Name: "A", Email: "not-an-email", Password: "longenough"}, "valid address"},
		{"display-name email", Registration{Name: "A", Email: "a <a@b.co>", Password: "longenough"}, "valid address"},
		{"short password", Registration{Name: "A", Email: "a@b.co", Password: "short"}, "password"},
		{"long password", Registration{Name: "A", Email: "a@b.co", Password: strings.Repeat("x", MaxPasswordLength+1)}, "at most"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.reg.Normalize().Validate()
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestContactMessage_Validate(t *testing.T) {
	msg := ContactMessage{
		Name:    "Grace",
		Email:   "grace@example.com",
		Subject: " Data question ",
		Message: " Is the feed delayed? ",
	}.Normalize()
	assert.Equal(t, "Data question", msg.Subject)
	assert.Equal(t, "Is the feed delayed?", msg.Message)
	assert.NoError(t, msg.Validate())

	long := msg
	long.Subject = strings.Repeat("x", maxSubjectLength+1)
	assert.ErrorIs(t, long.Validate(), ErrInvalidInput)

	empty := msg
	empty.Message = "   "
	assert.ErrorIs(t, empty.Normalize().Validate(), ErrInvalidInput)

	noName := msg
	noName.Name = ""
	assert.ErrorIs(t, noName.Validate(), ErrInvalidInput)
}
