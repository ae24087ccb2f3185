package processors

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// titleNormalizerImpl implements TitleNormalizer as a fixed, ordered
// pipeline of pure string rewrites. Each step assumes the output form of
// the previous one, so the order must not change.
type titleNormalizerImpl struct {
	steps []func(string) string
}

// NewTitleNormalizer creates a new instance of TitleNormalizer.
func NewTitleNormalizer() TitleNormalizer {
	return &titleNormalizerImpl{
		steps: []func(string) string{
			replaceWaveDash,
			normalizeNFKC,
			foldFullwidth,
			removeMarkedBrackets,
			collapseSetBrackets,
			strings.TrimSpace,
			rewriteTrailingParenNumber,
			rewriteTrailingColonNumber,
			rewriteTrailingVolumeNumber,
			collapseWhitespace,
			collapseEllipsis,
		},
	}
}

func (n *titleNormalizerImpl) Normalize(title string) string {
	for _, step := range n.steps {
		title = step(title)
	}
	return title
}

// U+301C (wave dash) -> U+FF5E (fullwidth tilde), before NFKC which leaves
// the wave dash alone.
func replaceWaveDash(s string) string {
	return strings.ReplaceAll(s, "〜", "～")
}

func normalizeNFKC(s string) string {
	return norm.NFKC.String(s)
}

// foldFullwidth maps the 94-codepoint fullwidth ASCII block (from ！,
// U+FF01) onto halfwidth, plus the fullwidth space, middle dot and corner
// brackets which NFKC leaves in their fullwidth forms.
func foldFullwidth(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '！' && r <= '～':
			return r - 0xFEE0
		case r == '　':
			return ' '
		case r == '・':
			return '･'
		case r == '「':
			return '｢'
		case r == '」':
			return '｣'
		}
		return r
	}, s)
}

var (
	markedBracketPattern = regexp.MustCompile(`【[^【】]*(電子|特典|%OFF)[^【】]*】`)
	setBracketPattern    = regexp.MustCompile(`【(期間限定)?([^【】]+セット)】`)
	parenNumberPattern   = regexp.MustCompile(`\(([0-9]+)\)$`)
	colonNumberPattern   = regexp.MustCompile(`: ([0-9]+)$`)
	volumeNumberPattern  = regexp.MustCompile(`第?([0-9]+)巻$`)
	whitespacePattern    = regexp.MustCompile(`\s+`)
	ellipsisPattern      = regexp.MustCompile(`\.{3}`)
)

// Drop bracketed spans that advertise the ebook edition, a bundled bonus or
// a percent-off campaign.
func removeMarkedBrackets(s string) string {
	return markedBracketPattern.ReplaceAllString(s, "")
}

// 【(期間限定)…セット】 -> " …セット": keep the set name as a plain suffix.
func collapseSetBrackets(s string) string {
	return setBracketPattern.ReplaceAllString(s, " ${2}")
}

// "(N)" at end of string -> " N"
func rewriteTrailingParenNumber(s string) string {
	return parenNumberPattern.ReplaceAllString(s, " ${1}")
}

// ": N" at end of string -> " N"
func rewriteTrailingColonNumber(s string) string {
	return colonNumberPattern.ReplaceAllString(s, " ${1}")
}

// "第N巻" or "N巻" at end of string -> "N"
func rewriteTrailingVolumeNumber(s string) string {
	return volumeNumberPattern.ReplaceAllString(s, "${1}")
}

func collapseWhitespace(s string) string {
	return whitespacePattern.ReplaceAllString(s, " ")
}

func collapseEllipsis(s string) string {
	return ellipsisPattern.ReplaceAllString(s, "…")
}
