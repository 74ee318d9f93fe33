// Package payfast implements the signed exchange with the PayFast payment
// processor: building the signed subscription redirect and verifying the
// Instant Transaction Notifications (ITN) PayFast posts back.
//
// Both directions share one signature scheme. Parameters are sorted by key,
// joined as key=urlencode(value) pairs, optionally suffixed with the merchant
// passphrase, and hashed with MD5.
package payfast

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// SignatureField is the parameter that carries the signature. It never
// participates in its own canonical string.
const SignatureField = "signature"

const passphraseField = "passphrase"

// CanonicalString builds the exact byte string that is hashed for a
// signature. Keys are ordered by byte value; empty values are kept.
func CanonicalString(params map[string]string, passphrase string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == SignatureField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}

	if passphrase != "" {
		b.WriteByte('&')
		b.WriteString(passphraseField)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(passphrase))
	}

	return b.String()
}

// Signer computes and checks signatures with a fixed merchant passphrase.
// The zero value signs without a passphrase. Signer is safe for concurrent
// use.
type Signer struct {
	passphrase string
}

// NewSigner returns a Signer for the given passphrase. An empty passphrase
// disables the passphrase suffix.
func NewSigner(passphrase string) *Signer {
	return &Signer{passphrase: passphrase}
}

// Sign returns the lowercase hex MD5 digest of the canonical string.
func (s *Signer) Sign(params map[string]string) string {
	sum := md5.Sum([]byte(CanonicalString(params, s.passphrase)))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether signature matches the digest recomputed from
// params. The comparison is exact and runs in constant time.
func (s *Signer) Verify(params map[string]string, signature string) bool {
	expected := s.Sign(params)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
