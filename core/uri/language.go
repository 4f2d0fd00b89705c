package uri

// languageCodes is the closed set of recognized 3-letter language codes
// (ISO 639-2/B style). The corpus is dominated by Arabic and Persian texts;
// the rest cover translations and scholarly apparatus encountered in the tree.
var languageCodes = map[string]bool{
	"ara": true, // Arabic
	"per": true, // Persian
	"urd": true, // Urdu
	"ota": true, // Ottoman Turkish
	"tur": true, // Turkish
	"heb": true, // Hebrew
	"arc": true, // Aramaic
	"syc": true, // Classical Syriac
	"grc": true, // Ancient Greek
	"lat": true, // Latin
	"cop": true, // Coptic
	"arm": true, // Armenian
	"geo": true, // Georgian
	"mal": true, // Malayalam
	"swa": true, // Swahili
	"eng": true, // English
	"fra": true, // French
	"ger": true, // German
	"spa": true, // Spanish
	"ita": true, // Italian
	"rus": true, // Russian
	"ind": true, // Indonesian
	"jav": true, // Javanese
	"uig": true, // Uyghur
	"pus": true, // Pashto
}

// KnownLanguage reports whether code is in the recognized closed set.
func KnownLanguage(code string) bool {
	return languageCodes[code]
}

// Languages returns the recognized codes, for diagnostics and CLI help.
func Languages() []string {
	codes := make([]string, 0, len(languageCodes))
	for c := range languageCodes {
		codes = append(codes, c)
	}
	return codes
}
