package github

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader carries the HMAC-SHA256 signature of a webhook payload.
const SignatureHeader = "X-Hub-Signature-256"

// EventHeader names the webhook event type.
const EventHeader = "X-GitHub-Event"

// DeliveryHeader carries the unique delivery id of a webhook.
const DeliveryHeader = "X-GitHub-Delivery"

// ReleaseEvent is the payload of the "release" webhook event.
type ReleaseEvent struct {
	Action     string  `json:"action"`
	Release    Release `json:"release"`
	Repository struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
		Owner    struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`
}

// InvalidatesReleases reports whether the event action changes the release
// list of the repository.
func (e ReleaseEvent) InvalidatesReleases() bool {
	switch e.Action {
	case "published", "released", "prereleased":
		return true
	}
	return false
}

// VerifySignature checks a "sha256=<hex>" signature against the payload.
// An empty secret accepts nothing.
func VerifySignature(secret string, payload []byte, signature string) bool {
	if secret == "" {
		return false
	}
	hexSum, ok := strings.CutPrefix(signature, "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(hexSum)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(got, mac.Sum(nil))
}

// Sign returns the "sha256=<hex>" signature of payload.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
