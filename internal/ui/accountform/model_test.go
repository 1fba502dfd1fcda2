package accountform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/throwmail/internal/keys"
)

func TestStartCreatePrefillsFields(t *testing.T) {
	n := 0
	gen := func() string {
		n++
		return []string{"brightfox421", "calmowl7"}[n-1]
	}
	m := New(keys.DefaultKeyMap(), gen, "password123", 80, 24)
	m.SetDomains([]string{"mailtm.example", "other.example"})

	m.StartCreate()
	require.True(t, m.Active())
	assert.Equal(t, "brightfox421", m.fb.username)
	assert.Equal(t, "mailtm.example", m.fb.domain)
	assert.Equal(t, "password123", m.fb.password)
	assert.Contains(t, m.View(), "New Address")
}

func TestSetDomainsKeepsKnownChoice(t *testing.T) {
	m := New(keys.DefaultKeyMap(), func() string { return "x" }, "pw1234", 80, 24)
	m.SetDomains([]string{"a.example", "b.example"})
	m.StartCreate()
	m.fb.domain = "b.example"

	assert.Nil(t, m.SetDomains([]string{"a.example", "b.example"}))
	m.SetDomains([]string{"b.example", "c.example"})
	assert.Equal(t, "b.example", m.fb.domain)

	m.SetDomains([]string{"c.example"})
	assert.Equal(t, "c.example", m.fb.domain)
}

func TestSubmitMessages(t *testing.T) {
	m := New(keys.DefaultKeyMap(), func() string { return "x" }, "pw1234", 80, 24)
	m.fb.username = "  BrightFox421 "
	m.fb.domain = "mailtm.example"
	m.fb.password = "secret1"
	assert.Equal(t, CreateMsg{Username: "brightfox421", Domain: "mailtm.example", Password: "secret1"}, m.handleSubmit()())

	m.login = true
	m.fb.address = " someone@mailtm.example "
	assert.Equal(t, LoginMsg{Address: "someone@mailtm.example", Password: "secret1"}, m.handleSubmit()())
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateUsername("brightfox421"))
	assert.Error(t, validateUsername(""))
	assert.Error(t, validateUsername("bad name"))

	assert.NoError(t, validateAddress("a@b.test"))
	assert.Error(t, validateAddress("a@"))
	assert.Error(t, validateAddress("@b.test"))

	assert.NoError(t, validatePassword("123456"))
	assert.Error(t, validatePassword("123"))
}
