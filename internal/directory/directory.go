// Package directory resolves free-form account references (ids, slugs, display
// names and a few well-known aliases) against the merged set of built-in and
// user-created accounts.
//
// A Directory is an immutable snapshot. Callers rebuild it whenever the account
// set changes, which keeps every derivation that uses it a pure function of its
// inputs.
package directory

import (
	"strings"

	"zent/internal/core"
)

// aliases maps lower-cased legacy spellings to the slug of a built-in account.
var aliases = map[string]string{
	"mercadopago":  "mercadoPago",
	"mercado pago": "mercadoPago",
	"mercado_pago": "mercadoPago",
	"dolarapp":     "dolarApp",
	"dolar app":    "dolarApp",
	"cash":         core.CashAccountSlug,
	"efectivo":     core.CashAccountSlug,
}

// Directory is an arena of accounts plus lookup indices into it.
type Directory struct {
	accounts []core.Account
	byID     map[string]int
	bySlug   map[string]int
	byName   map[string]int
}

// New merges builtins with dynamic accounts. A dynamic account whose slug
// collides with a built-in replaces it in place; otherwise it is appended.
func New(builtins, dynamic []core.Account) *Directory {
	d := &Directory{
		byID:   make(map[string]int),
		bySlug: make(map[string]int),
		byName: make(map[string]int),
	}
	for _, a := range builtins {
		d.put(a)
	}
	for _, a := range dynamic {
		d.put(a)
	}
	d.reindex()
	return d
}

func (d *Directory) put(a core.Account) {
	if a.Slug == "" {
		a.Slug = a.ID
	}
	for i, existing := range d.accounts {
		if existing.Slug == a.Slug {
			d.accounts[i] = a
			return
		}
	}
	d.accounts = append(d.accounts, a)
}

func (d *Directory) reindex() {
	for i, a := range d.accounts {
		if a.ID != "" {
			if _, ok := d.byID[a.ID]; !ok {
				d.byID[a.ID] = i
			}
		}
		d.bySlug[a.Slug] = i
		name := strings.ToLower(strings.TrimSpace(a.Name))
		if name == "" {
			continue
		}
		// first account in iteration order owns a shared display name
		if _, ok := d.byName[name]; !ok {
			d.byName[name] = i
		}
	}
}

// Resolve maps ref to an account, trying id, slug, case-insensitive name and
// finally the alias table. Blank references never resolve.
func (d *Directory) Resolve(ref string) (core.Account, bool) {
	if d == nil || strings.TrimSpace(ref) == "" {
		return core.Account{}, false
	}
	if i, ok := d.byID[ref]; ok {
		return d.accounts[i], true
	}
	if i, ok := d.bySlug[ref]; ok {
		return d.accounts[i], true
	}
	key := strings.ToLower(strings.TrimSpace(ref))
	if i, ok := d.byName[key]; ok {
		return d.accounts[i], true
	}
	if slug, ok := aliases[key]; ok {
		if i, ok := d.bySlug[slug]; ok {
			return d.accounts[i], true
		}
	}
	return core.Account{}, false
}

// Canonical returns the slug ref resolves to, or "".
func (d *Directory) Canonical(ref string) string {
	if a, ok := d.Resolve(ref); ok {
		return a.Slug
	}
	return ""
}

// Label returns the display name of ref, falling back to the raw reference for
// accounts that no longer exist.
func (d *Directory) Label(ref string) string {
	if a, ok := d.Resolve(ref); ok {
		return a.Name
	}
	return ref
}

// Accounts returns the accounts in display order: built-ins first, then
// user-created accounts in creation order.
func (d *Directory) Accounts() []core.Account {
	if d == nil {
		return nil
	}
	out := make([]core.Account, len(d.accounts))
	copy(out, d.accounts)
	return out
}

func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.accounts)
}
