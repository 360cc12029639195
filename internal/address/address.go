// Package address provides parsing and normalization of email addresses
// for the mailroute routing engine. All routing decisions operate on the
// canonical form produced here.
package address

import (
	"errors"
	"regexp"
	"strings"
)

// Normalization errors
var (
	ErrInvalidAddress = errors.New("invalid email address")
)

// Address is a parsed email address. Domain is always lowercase; Local is
// the literal string before the "@" (plus-tags are not stripped here).
type Address struct {
	Local  string
	Domain string
}

// Extraction patterns, tried in order of strictness.
var (
	// "Name <addr@domain>" or bare "<addr@domain>"
	angleBracketRegex = regexp.MustCompile(`<([^<>\s]+@[^<>\s]+)>`)

	// Bare address, the whole input
	bareAddressRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

	// Loosest fallback: any token containing "@"
	looseTokenRegex = regexp.MustCompile(`[^\s<>,;"']+@[^\s<>,;"']+`)
)

// Canonicalize extracts an address from a loosely formatted header value
// ("Name <addr>", "<addr>", or a bare address) and returns it trimmed and
// lowercased. Extraction strategies are tried from strictest to loosest;
// the first match wins.
func Canonicalize(raw string) (Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Address{}, ErrInvalidAddress
	}

	var candidate string
	switch {
	case angleBracketRegex.MatchString(raw):
		candidate = angleBracketRegex.FindStringSubmatch(raw)[1]
	case bareAddressRegex.MatchString(raw):
		candidate = raw
	default:
		candidate = looseTokenRegex.FindString(raw)
	}

	if candidate == "" {
		return Address{}, ErrInvalidAddress
	}

	candidate = strings.ToLower(strings.TrimSpace(candidate))
	at := strings.LastIndex(candidate, "@")
	if at <= 0 || at == len(candidate)-1 {
		return Address{}, ErrInvalidAddress
	}

	return Address{Local: candidate[:at], Domain: candidate[at+1:]}, nil
}

// MustParse is a convenience for tests and static configuration. It panics
// on invalid input.
func MustParse(raw string) Address {
	addr, err := Canonicalize(raw)
	if err != nil {
		panic(err)
	}
	return addr
}

// String returns the canonical "local@domain" form.
func (a Address) String() string {
	return a.Local + "@" + a.Domain
}

// IsZero reports whether the address is the zero value.
func (a Address) IsZero() bool {
	return a.Local == "" && a.Domain == ""
}

// StripPlusTag removes everything in the local part from the first "+"
// onward. Used when matching against alias and mailbox identities, never
// when recording the original recipient for display.
func StripPlusTag(a Address) Address {
	if i := strings.Index(a.Local, "+"); i >= 0 {
		return Address{Local: a.Local[:i], Domain: a.Domain}
	}
	return a
}

// Base returns the lookup identity of the address: canonical form with the
// plus-tag stripped.
func (a Address) Base() Address {
	return StripPlusTag(a)
}
