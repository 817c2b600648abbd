// Package recipient decides which gateway addresses receive a record's alerts.
package recipient

import (
	"strings"

	"tracker_worker/core/domain"

	"golang.org/x/text/cases"
)

// AddressPrefix is the syntax every deliverable address must start with.
const AddressPrefix = "whatsapp:+"

// Resolver maps records to recipient lists. It is immutable after construction
// and safe for concurrent use.
type Resolver struct {
	owners       map[string]string // folded code -> address
	aliases      map[string]string // folded legacy code -> folded code
	alwaysNotify []string          // addresses, in configured order
	privileged   map[string]struct{}
	fallback     string
}

// NewResolver builds a Resolver from the static contact directory.
func NewResolver(dir domain.ContactDirectory) *Resolver {
	r := &Resolver{
		owners:     make(map[string]string, len(dir.Owners)),
		aliases:    make(map[string]string, len(dir.Aliases)),
		privileged: make(map[string]struct{}),
		fallback:   strings.TrimSpace(dir.DefaultRecipient),
	}

	for code, addr := range dir.Owners {
		r.owners[r.key(code)] = strings.TrimSpace(addr)
	}
	for legacy, current := range dir.Aliases {
		r.aliases[r.key(legacy)] = r.key(current)
	}
	for _, code := range dir.AlwaysNotify {
		addr, ok := r.owners[r.key(code)]
		if !ok || addr == "" {
			continue
		}
		r.alwaysNotify = append(r.alwaysNotify, addr)
		r.privileged[addr] = struct{}{}
	}

	return r
}

// Resolve returns the deduplicated, valid recipients for rec in the order
// owner, always-notify, override. When all three are empty the default
// recipient is used if one is configured.
func (r *Resolver) Resolve(sheet domain.Sheet, rec domain.Record, overrides map[string]string) []string {
	candidates := make([]string, 0, len(r.alwaysNotify)+2)

	if addr := r.OwnerAddress(sheet, rec); addr != "" {
		candidates = append(candidates, addr)
	}
	candidates = append(candidates, r.alwaysNotify...)
	if rec.ID != "" {
		if addr := strings.TrimSpace(overrides[rec.ID]); addr != "" {
			candidates = append(candidates, addr)
		}
	}
	if len(candidates) == 0 && r.fallback != "" {
		candidates = append(candidates, r.fallback)
	}

	return filterValid(candidates)
}

// OwnerAddress returns the directory address of the record's owner, or "".
func (r *Resolver) OwnerAddress(sheet domain.Sheet, rec domain.Record) string {
	field := sheet.OwnerField()
	if field == "" {
		return ""
	}
	code := r.Canonical(rec.Get(field))
	if code == "" {
		return ""
	}
	return r.owners[code]
}

// Canonical folds an owner code and applies the alias table.
func (r *Resolver) Canonical(code string) string {
	k := r.key(code)
	if k == "" {
		return ""
	}
	if current, ok := r.aliases[k]; ok {
		return current
	}
	return k
}

// IsPrivileged reports whether addr belongs to an always-notify owner.
func (r *Resolver) IsPrivileged(addr string) bool {
	_, ok := r.privileged[strings.TrimSpace(addr)]
	return ok
}

// DefaultRecipient returns the configured fallback address.
func (r *Resolver) DefaultRecipient() string {
	return r.fallback
}

// key folds case. A Caser is stateful, so one is created per call.
func (r *Resolver) key(code string) string {
	return cases.Fold().String(strings.TrimSpace(code))
}

// ValidAddress reports whether addr matches the gateway address syntax.
func ValidAddress(addr string) bool {
	return strings.HasPrefix(addr, AddressPrefix) && len(addr) > len(AddressPrefix)
}

func filterValid(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if !ValidAddress(c) {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
