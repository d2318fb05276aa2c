package core

import (
	"bufio"
	"bytes"
	"net/mail"

	"github.com/emersion/go-message/textproto"
)

// authHeaders are headers whose presence indicates the delivering MTA
// ran authentication checks on the message.
var authHeaders = []string{
	"Authentication-Results",
	"ARC-Authentication-Results",
}

// suspiciousHeaders are forgery indicators: headers stamped by shared
// hosting MTAs onto mail submitted through possibly compromised
// accounts. Their presence overrides an otherwise favorable list
// domain match.
var suspiciousHeaders = []string{
	"X-Antiabuse",
	"X-Get-Message-Sender-Via",
	"X-Authenticated-Sender",
}

// NewMessageView builds the classifier projection of one fetched
// message. The envelope sender is preferred; when the envelope carried
// no address the From header is parsed instead. Malformed or missing
// data never fails: unknown fields stay empty/false and the message
// simply matches no identity rule.
func NewMessageView(rec MessageRecord) MessageView {
	var view MessageView

	hdr, err := textproto.ReadHeader(bufio.NewReader(bytes.NewReader(rec.RawHeader)))
	if err != nil {
		hdr = textproto.Header{}
	}

	addr := ""
	if len(rec.From) > 0 {
		addr = rec.From[0]
	} else if raw := hdr.Get("From"); raw != "" {
		if parsed, err := mail.ParseAddress(raw); err == nil {
			addr = parsed.Address
		}
	}

	view.FromAddress = NormalizeAddress(addr)
	view.FromDomain = DomainOf(view.FromAddress)

	for _, h := range authHeaders {
		if hdr.Has(h) {
			view.HasAuthHeader = true
			break
		}
	}
	for _, h := range suspiciousHeaders {
		if hdr.Has(h) {
			view.HasSuspiciousHeader = true
			break
		}
	}

	return view
}
