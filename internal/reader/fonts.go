package reader

import "github.com/metcalfc/folio/internal/paging"

// Font families offered for each script. The first one is the default.
var (
	latinFonts = []string{"Times New Roman", "American Typewriter", "Georgia", "Palatino"}
	cjkFonts   = []string{"PingFang SC", "STSong", "STKaiti SC", "STYuanti SC"}
)

// Fonts returns the font families offered for a book language.
func Fonts(language string) []string {
	if paging.IsCJK(language) {
		return cjkFonts
	}
	return latinFonts
}

// DefaultFont returns the default font family for a book language.
func DefaultFont(language string) string {
	return Fonts(language)[0]
}
