// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"math/rand/v2"
	"strings"
)

// emailDomains are common public providers; the open-access API only asks
// for an address for usage reporting, it is never contacted.
var emailDomains = []string{"gmail.com", "outlook.com", "live.com", "yahoo.com"}

const emailAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomEmail generates a plausible contact address: a 5-12 character
// lowercase alphanumeric local part at a common public domain.
func RandomEmail() string {
	n := 5 + rand.IntN(8)
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(emailAlphabet[rand.IntN(len(emailAlphabet))])
	}
	return b.String() + "@" + emailDomains[rand.IntN(len(emailDomains))]
}

// ContactEmail hands out the contact address for open-access API calls.
// A configured address is used as-is; a generated one is replaced every
// `every` DOIs so a long batch does not present a single identity, while
// a contiguous block of requests still looks consistent.
//
// Not safe for concurrent use; the pipeline is strictly sequential.
type ContactEmail struct {
	fixed string
	every int
	seen  int
	addr  string
}

// NewContactEmail builds a ContactEmail. fixed, when non-empty, pins the
// address permanently. every <= 0 defaults to 50.
func NewContactEmail(fixed string, every int) *ContactEmail {
	if every <= 0 {
		every = 50
	}
	c := &ContactEmail{fixed: fixed, every: every}
	if fixed != "" {
		c.addr = fixed
	} else {
		c.addr = RandomEmail()
	}
	return c
}

// Address returns the current contact address.
func (c *ContactEmail) Address() string {
	return c.addr
}

// Advance counts one processed DOI and regenerates the address when the
// rotation boundary is crossed. No-op for a configured address.
func (c *ContactEmail) Advance() {
	c.seen++
	if c.fixed == "" && c.seen%c.every == 0 {
		c.addr = RandomEmail()
	}
}
