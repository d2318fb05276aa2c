package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMessageViewFromEnvelope(t *testing.T) {
	view := NewMessageView(MessageRecord{
		From:      []string{"Editor@News.Example.COM"},
		RawHeader: []byte("Subject: weekly digest\r\n\r\n"),
	})

	assert.Equal(t, "editor@news.example.com", view.FromAddress)
	assert.Equal(t, "news.example.com", view.FromDomain)
	assert.False(t, view.HasAuthHeader)
	assert.False(t, view.HasSuspiciousHeader)
}

func TestNewMessageViewFromHeaderFallback(t *testing.T) {
	raw := []byte("From: \"Some One\" <Someone@Example.Org>\r\n" +
		"Subject: hello\r\n\r\nbody\r\n")

	view := NewMessageView(MessageRecord{RawHeader: raw})
	assert.Equal(t, "someone@example.org", view.FromAddress)
	assert.Equal(t, "example.org", view.FromDomain)
}

func TestNewMessageViewHeaderSignals(t *testing.T) {
	cases := []struct {
		name           string
		raw            string
		wantAuth       bool
		wantSuspicious bool
	}{
		{
			name:     "authentication results",
			raw:      "Authentication-Results: mx.example.com; dkim=pass\r\n\r\n",
			wantAuth: true,
		},
		{
			name:     "arc authentication results",
			raw:      "ARC-Authentication-Results: i=1; mx.example.com\r\n\r\n",
			wantAuth: true,
		},
		{
			name:           "antiabuse marker",
			raw:            "X-Antiabuse: This header was added to track abuse\r\n\r\n",
			wantSuspicious: true,
		},
		{
			name:           "sender-via marker",
			raw:            "X-Get-Message-Sender-Via: server.host.example\r\n\r\n",
			wantSuspicious: true,
		},
		{
			name:           "authenticated-sender marker",
			raw:            "X-Authenticated-Sender: host: user@compromised.example\r\n\r\n",
			wantSuspicious: true,
		},
		{
			name: "plain message",
			raw:  "Subject: nothing special\r\n\r\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			view := NewMessageView(MessageRecord{
				From:      []string{"u@example.com"},
				RawHeader: []byte(tc.raw),
			})
			assert.Equal(t, tc.wantAuth, view.HasAuthHeader)
			assert.Equal(t, tc.wantSuspicious, view.HasSuspiciousHeader)
		})
	}
}

func TestNewMessageViewMalformed(t *testing.T) {
	// No envelope, no parseable headers: fields default to absent
	view := NewMessageView(MessageRecord{RawHeader: []byte("not a header block")})
	assert.Equal(t, "", view.FromAddress)
	assert.Equal(t, "", view.FromDomain)
	assert.False(t, view.HasAuthHeader)
	assert.False(t, view.HasSuspiciousHeader)

	// And such a message still classifies (to junk) rather than erroring
	decision := ClassifyIncoming(view, testRules())
	assert.Equal(t, Junk(), decision)
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "example.com", DomainOf("user@example.com"))
	assert.Equal(t, "", DomainOf("not-an-address"))
	assert.Equal(t, "", DomainOf("user@"))
	assert.Equal(t, "", DomainOf("a@b@c"))
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeAddress("  User@Example.COM "))
	assert.Equal(t, "", NormalizeAddress("   "))
}
