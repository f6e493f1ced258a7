package util

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

var idEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a random identifier like "org_mfrggzdfmztwq2lk". The prefix
// makes ids self-describing in logs and foreign keys.
func NewID(prefix string) string {
	raw := make([]byte, 12)
	_, _ = rand.Read(raw)
	id := strings.ToLower(idEncoding.EncodeToString(raw))
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
