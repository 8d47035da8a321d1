// Package normalize turns raw platform message text into the plain form
// stored on fault records: markup and emoji removed, user mentions replaced
// with resolved identities, and source/signal pairs extracted from
// bot-generated report bodies.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// markupPattern matches a single non-nested <...> span. Message bodies with
// literal angle brackets outside markup are corrupted input; they lose the
// bracketed run wholesale.
var markupPattern = regexp.MustCompile(`<[^<>]*>`)

// StripMarkup removes every <...> span, including links and channel
// references along with their labels.
func StripMarkup(text string) string {
	return markupPattern.ReplaceAllString(text, "")
}

// emojiRanges covers the Unicode blocks stripped from record text.
// Characters outside these ranges pass through unchanged.
var emojiRanges = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200D, Hi: 0x200D, Stride: 1}, // zero-width joiner
		{Lo: 0x2500, Hi: 0x2BEF, Stride: 1}, // misc symbols, dingbats, arrows
		{Lo: 0x3030, Hi: 0x3030, Stride: 1}, // wavy dash
		{Lo: 0xFE0F, Hi: 0xFE0F, Stride: 1}, // variation selector
	},
	R32: []unicode.Range32{
		{Lo: 0x1F1E6, Hi: 0x1F1FF, Stride: 1}, // regional indicators (flags)
		{Lo: 0x1F300, Hi: 0x1F5FF, Stride: 1}, // symbols and pictographs
		{Lo: 0x1F600, Hi: 0x1F64F, Stride: 1}, // emoticons
		{Lo: 0x1F680, Hi: 0x1F6FF, Stride: 1}, // transport and map symbols
		{Lo: 0x1F900, Hi: 0x1F9FF, Stride: 1}, // supplemental symbols
	},
}

// StripEmoji removes emoji and their joiner/modifier characters.
func StripEmoji(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.Is(emojiRanges, r) {
			return -1
		}
		return r
	}, text)
}
