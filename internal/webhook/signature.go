// Package webhook receives GitHub webhook deliveries and feeds item activity
// to the stale guard, which removes the stale label when an item is touched.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	gh "github.com/google/go-github/v68/github"
)

// SignatureHeader carries the HMAC-SHA256 of the request body.
const SignatureHeader = "X-Hub-Signature-256"

// ErrMissingSignature is returned when a secret is configured but the
// delivery carries no signature.
var ErrMissingSignature = errors.New("missing " + SignatureHeader + " header")

// Sign returns the X-Hub-Signature-256 value for body: "sha256=" followed by
// the hex HMAC-SHA256 keyed with secret.
func Sign(secret, body []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write(body)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

// VerifySignature checks a delivery signature against body.
func VerifySignature(secret, body []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}
	return gh.ValidateSignature(signature, body, secret)
}
