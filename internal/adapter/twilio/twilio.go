// Package twilio implements the outbound SMS transport and webhook helpers
// against the Twilio REST API.
package twilio

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"textweight/internal/domain"
)

const apiBase = "https://api.twilio.com/2010-04-01"

// Client sends SMS messages through a Twilio account. A client built from
// empty credentials is disabled: Send logs and reports failure, matching the
// no-retry contract of the transport port.
type Client struct {
	accountSID string
	authToken  string
	from       string
	http       *http.Client
}

var _ domain.MessageSender = (*Client)(nil)

// New creates a Client. Any empty credential leaves the client disabled.
func New(accountSID, authToken, from string) *Client {
	c := &Client{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		http:       &http.Client{Timeout: 10 * time.Second},
	}
	if !c.Enabled() {
		log.Printf("twilio: credentials not configured, SMS sending disabled")
	}
	return c
}

// Enabled reports whether the client has full credentials.
func (c *Client) Enabled() bool {
	return c.accountSID != "" && c.authToken != "" && c.from != ""
}

// Send delivers one SMS. Failures are logged and reported as false; callers
// owe no retry.
func (c *Client) Send(ctx context.Context, to, body string) bool {
	if !c.Enabled() {
		log.Printf("twilio: send skipped, client disabled")
		return false
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", apiBase, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		log.Printf("twilio: build request: %v", err)
		return false
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("twilio: send to %s: %v", to, err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("twilio: send to %s: status %d", to, resp.StatusCode)
		return false
	}
	return true
}

// ValidateSignature checks an X-Twilio-Signature header against the request
// URL and POST form, per Twilio's HMAC-SHA1 scheme: the full URL is
// concatenated with each form key and value in key-sorted order, signed with
// the auth token, and base64 encoded.
func (c *Client) ValidateSignature(fullURL string, form url.Values, signature string) bool {
	if c.authToken == "" {
		return true
	}

	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		for _, v := range form[k] {
			b.WriteString(k)
			b.WriteString(v)
		}
	}

	mac := hmac.New(sha1.New, []byte(c.authToken))
	mac.Write([]byte(b.String()))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

type twimlMessage struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}

// TwiML renders a reply body as a TwiML messaging response.
func TwiML(message string) string {
	out, err := xml.Marshal(twimlMessage{Message: message})
	if err != nil {
		return `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`
	}
	return `<?xml version="1.0" encoding="UTF-8"?>` + string(out)
}

// GenerateCode returns a random 6-digit verification code.
func GenerateCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand only fails when the platform source is broken
		return "000000"
	}
	return fmt.Sprintf("%06d", n.Int64()+100000)
}
