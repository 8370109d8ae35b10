package main

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks quita tildes y diéresis: "Guitarra Eléctrica" -> "Guitarra Electrica".
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeCode deja el código de producto en mayúsculas ASCII, sin espacios internos.
func NormalizeCode(code string) string {
	code = strings.ToUpper(stripMarks(strings.TrimSpace(code)))
	return strings.Join(strings.Fields(code), "-")
}

// normalizeKey clave para cruzar nombres de categoría y proveedor sin importar tildes ni mayúsculas.
func normalizeKey(name string) string {
	return strings.ToLower(stripMarks(strings.TrimSpace(name)))
}
