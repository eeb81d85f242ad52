package directory

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var titler = cases.Title(language.Und)

// Slugify derives a lowerCamel slug from a display name, folding accents to
// ASCII: "Banco Azteca" -> "bancoAzteca", "Línea Crédito" -> "lineaCredito".
func Slugify(name string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}

	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !(r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
	})
	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(strings.ToLower(w))
			continue
		}
		b.WriteString(titler.String(w))
	}
	if b.Len() == 0 {
		return "account"
	}
	return b.String()
}

// UniqueSlug returns Slugify(name), suffixed 2, 3, ... until it collides with
// no account in the directory.
func (d *Directory) UniqueSlug(name string) string {
	base := Slugify(name)
	if !d.taken(base) {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + strconv.Itoa(n)
		if !d.taken(candidate) {
			return candidate
		}
	}
}

func (d *Directory) taken(slug string) bool {
	if d == nil {
		return false
	}
	_, ok := d.bySlug[slug]
	return ok
}
