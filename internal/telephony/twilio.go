package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// ValidateTwilioSignature checks that a webhook request really came from
// Twilio by recomputing the X-Twilio-Signature over the public webhook URL
// and the sorted form parameters.
func ValidateTwilioSignature(r *http.Request, authToken, webhookURL string) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}

	payload := buildSignaturePayload(webhookURL, r.PostForm)
	expected := computeSignature(payload, authToken)

	return hmac.Equal([]byte(signature), []byte(expected))
}

// buildSignaturePayload concatenates the URL with every form key/value pair
// in key-sorted order, per Twilio's signing scheme.
func buildSignaturePayload(webhookURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var payload strings.Builder
	payload.WriteString(webhookURL)
	for _, key := range keys {
		for _, value := range params[key] {
			payload.WriteString(key)
			payload.WriteString(value)
		}
	}
	return payload.String()
}

func computeSignature(data, key string) string {
	h := hmac.New(sha1.New, []byte(key))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// VoiceWebhookRequest is the subset of Twilio's voice webhook form fields
// the dialogue needs.
type VoiceWebhookRequest struct {
	CallSID      string
	AccountSID   string
	From         string
	To           string
	CallStatus   string
	SpeechResult string
	Confidence   string
}

// ParseVoiceWebhook parses a Twilio voice webhook form. CallSid, From and
// To are mandatory; a request without them is malformed.
func ParseVoiceWebhook(r *http.Request) (*VoiceWebhookRequest, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("telephony: parse form: %w", err)
	}

	req := &VoiceWebhookRequest{
		CallSID:      r.FormValue("CallSid"),
		AccountSID:   r.FormValue("AccountSid"),
		From:         r.FormValue("From"),
		To:           r.FormValue("To"),
		CallStatus:   r.FormValue("CallStatus"),
		SpeechResult: r.FormValue("SpeechResult"),
		Confidence:   r.FormValue("Confidence"),
	}
	if req.CallSID == "" || req.From == "" || req.To == "" {
		return nil, fmt.Errorf("telephony: missing CallSid, From or To")
	}
	return req, nil
}
