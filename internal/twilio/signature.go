// Package twilio implements the webhook-side pieces of the Twilio
// integration: request signature validation and TwiML replies. No Twilio
// client library is involved; the bot never initiates messages.
package twilio

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"sort"
	"strings"
)

// Validator checks X-Twilio-Signature headers against the account auth
// token. Twilio signs the full request URL concatenated with the form
// parameters in byte-sorted name order, HMAC-SHA1, base64.
type Validator struct {
	authToken string
}

// NewValidator creates a validator for the given auth token
func NewValidator(authToken string) *Validator {
	return &Validator{authToken: authToken}
}

// Validate checks a signature over an explicit URL and parameter set
func (v *Validator) Validate(url string, params map[string]string, signature string) bool {
	expected := v.sign(url, params)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ValidateRequest checks the signature of an incoming webhook request.
// Twilio signs the URL it was configured with, so behind a proxy or tunnel
// the externally visible base URL must be passed as publicURL; when empty,
// the URL is rebuilt from the request itself.
func (v *Validator) ValidateRequest(r *http.Request, publicURL string) bool {
	if err := r.ParseForm(); err != nil {
		return false
	}

	params := make(map[string]string, len(r.PostForm))
	for name := range r.PostForm {
		params[name] = r.PostForm.Get(name)
	}

	url := requestURL(r, publicURL)
	return v.Validate(url, params, r.Header.Get("X-Twilio-Signature"))
}

func (v *Validator) sign(url string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(url)
	for _, name := range names {
		b.WriteString(name)
		b.WriteString(params[name])
	}

	mac := hmac.New(sha1.New, []byte(v.authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func requestURL(r *http.Request, publicURL string) string {
	if publicURL != "" {
		return strings.TrimSuffix(publicURL, "/") + r.URL.RequestURI()
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
