package address

import "strings"

// DomainSet is the set of domains the service treats as local. It is built
// once from configuration and injected into every component that makes
// routing decisions; there is no package-level default.
type DomainSet struct {
	domains map[string]struct{}
	ordered []string
}

// NewDomainSet builds a DomainSet from the given domain names. Names are
// lowercased and deduplicated; empty entries are dropped.
func NewDomainSet(domains ...string) DomainSet {
	set := DomainSet{domains: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if _, ok := set.domains[d]; ok {
			continue
		}
		set.domains[d] = struct{}{}
		set.ordered = append(set.ordered, d)
	}
	return set
}

// Contains reports whether domain is in the set, case-insensitively.
func (s DomainSet) Contains(domain string) bool {
	_, ok := s.domains[strings.ToLower(strings.TrimSpace(domain))]
	return ok
}

// Domains returns the member domains in insertion order.
func (s DomainSet) Domains() []string {
	out := make([]string, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Len returns the number of member domains.
func (s DomainSet) Len() int {
	return len(s.ordered)
}

// Variants returns the address of the given local part under every domain
// in the set. A mailbox with username "alice" is the same identity at
// alice@<d> for every supported domain d.
func (s DomainSet) Variants(local string) []Address {
	local = strings.ToLower(local)
	out := make([]Address, 0, len(s.ordered))
	for _, d := range s.ordered {
		out = append(out, Address{Local: local, Domain: d})
	}
	return out
}

// Equivalent reports whether a and b denote the same delivery identity:
// either their canonical forms are equal, or both are on supported domains
// and share the same base local part (cross-domain mailbox identity).
// Plus-tags are ignored for the comparison.
func (s DomainSet) Equivalent(a, b Address) bool {
	ab, bb := a.Base(), b.Base()
	if ab == bb {
		return true
	}
	return s.Contains(ab.Domain) && s.Contains(bb.Domain) && ab.Local == bb.Local
}
