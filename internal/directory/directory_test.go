package directory

import (
	"testing"

	"zent/internal/core"
)

func TestResolve(t *testing.T) {
	dir := New(core.BuiltinAccounts(), []core.Account{
		{ID: "acc-1", Slug: "bancoAzteca", Name: "Banco Azteca", Currency: core.MXN},
	})

	cases := []struct {
		ref  string
		slug string
		ok   bool
	}{
		{"builtin:bbva", "bbva", true},
		{"bbva", "bbva", true},
		{"BBVA", "bbva", true},
		{"acc-1", "bancoAzteca", true},
		{"banco azteca", "bancoAzteca", true},
		{"Mercado Pago", "mercadoPago", true},
		{"mercado_pago", "mercadoPago", true},
		{"DolarApp", "dolarApp", true},
		{"cash", "efectivo", true},
		{"", "", false},
		{"   ", "", false},
		{"santander", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.ref, func(t *testing.T) {
			a, ok := dir.Resolve(tc.ref)
			if ok != tc.ok {
				t.Fatalf("Resolve(%q) ok=%v, want %v", tc.ref, ok, tc.ok)
			}
			if ok && a.Slug != tc.slug {
				t.Fatalf("Resolve(%q) = %s, want %s", tc.ref, a.Slug, tc.slug)
			}
		})
	}
}

func TestDynamicOverridesBuiltin(t *testing.T) {
	dir := New(core.BuiltinAccounts(), []core.Account{
		{ID: "x", Slug: "bbva", Name: "BBVA Nómina", Currency: core.MXN},
	})
	if dir.Len() != len(core.BuiltinAccounts()) {
		t.Fatalf("override must not add an account, got %d", dir.Len())
	}
	if got := dir.Label("bbva"); got != "BBVA Nómina" {
		t.Fatalf("expected overridden name, got %q", got)
	}
	if got := dir.Accounts()[0].Slug; got != "bbva" {
		t.Fatalf("override must keep display position, got %s first", got)
	}
}

func TestSharedNameFirstWins(t *testing.T) {
	dir := New(core.BuiltinAccounts(), []core.Account{
		{ID: "dup", Slug: "efectivo2", Name: "Efectivo", Currency: core.USD},
	})
	a, ok := dir.Resolve("EFECTIVO")
	if !ok || a.Slug != "efectivo" {
		t.Fatalf("expected built-in to own the shared name, got %+v", a)
	}
}

func TestLabelAndCanonical(t *testing.T) {
	dir := New(core.BuiltinAccounts(), nil)
	if got := dir.Label("deleted-account"); got != "deleted-account" {
		t.Fatalf("dangling ref should label as itself, got %q", got)
	}
	if got := dir.Canonical("Dolar App"); got != "dolarApp" {
		t.Fatalf("unexpected canonical %q", got)
	}
	if got := dir.Canonical("nope"); got != "" {
		t.Fatalf("expected empty canonical, got %q", got)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Banco Azteca":      "bancoAzteca",
		"Línea de Crédito":  "lineaDeCredito",
		"  nu   méxico ":    "nuMexico",
		"HSBC 2":            "hsbc2",
		"!!!":               "account",
		"Tarjeta-Oro/Plata": "tarjetaOroPlata",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUniqueSlug(t *testing.T) {
	dir := New(core.BuiltinAccounts(), []core.Account{
		{ID: "a", Slug: "bbva2", Name: "Other", Currency: core.MXN},
	})
	if got := dir.UniqueSlug("BBVA"); got != "bbva3" {
		t.Fatalf("expected bbva3, got %s", got)
	}
	if got := dir.UniqueSlug("Santander"); got != "santander" {
		t.Fatalf("expected santander, got %s", got)
	}
}
