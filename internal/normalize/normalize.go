// Package normalize canonicalizes Arabic text for statistics and search:
// alif variants collapse to bare alif, ta marbuta to ha, alif maqsura to ya,
// and tatweel plus the harakat are dropped. The mapping is deliberately
// lossy; it is for comparison, never for storage.
package normalize

import "strings"

var letterMap = map[rune]rune{
	'آ': 'ا', // alif madda -> alif
	'أ': 'ا', // alif hamza above -> alif
	'إ': 'ا', // alif hamza below -> alif
	'ٱ': 'ا', // alif wasla -> alif
	'ة': 'ه', // ta marbuta -> ha
	'ى': 'ي', // alif maqsura -> ya
	'ؤ': 'و', // waw hamza -> waw
	'ئ': 'ي', // ya hamza -> ya
}

// dropSet holds the combining marks and fillers removed outright: fathatan
// through sukun (U+064B..U+0652), superscript alif, and tatweel.
var dropSet = func() map[rune]bool {
	m := map[rune]bool{
		'ـ': true, // tatweel
		'ٰ': true, // superscript alif
	}
	for r := 'ً'; r <= 'ْ'; r++ {
		m[r] = true
	}
	return m
}()

// Arabic returns the canonical comparison form of s. Non-Arabic runes pass
// through unchanged.
func Arabic(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if dropSet[r] {
			continue
		}
		if mapped, ok := letterMap[r]; ok {
			r = mapped
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Equal reports whether two strings are equal under Arabic normalization.
func Equal(a, b string) bool {
	return Arabic(a) == Arabic(b)
}
