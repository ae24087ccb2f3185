package parsers

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// Structured fields in the mail body are lines of the form
//
//	■<label>：<value>
//
// where the separator may be a plain or a full-width colon. Prices read
// "JPY 1,234", optionally negative and optionally followed by a "(Tax)"
// annotation.

var priceValuePattern = regexp.MustCompile(`^JPY\s*(-?[0-9,]+)(\s*\(+Tax\))?`)

// ParsePrice parses a "JPY n,nnn" value into yen. On a mismatch it logs and
// defaults to 0 so the enclosing record is still produced with the defect
// visible in the data.
func ParsePrice(text string, log *slog.Logger) int {
	match := priceValuePattern.FindStringSubmatch(text)
	if match == nil {
		log.Error("failed to parse price", "text", text)
		return 0
	}
	return parseCommaInt(match[1])
}

// ParsePriceField extracts the first ■<key>：<value> line and parses the
// value as a price. The key is used verbatim as the label.
func ParsePriceField(body, key string, log *slog.Logger) int {
	return ParsePriceFieldPattern(body, key, key, log)
}

// ParsePriceFieldPattern is ParsePriceField with an explicit regex fragment
// for the label, for labels that vary ("Coin Usage" with trailing qualifier
// text, "Payment Total" vs "Total Payment").
func ParsePriceFieldPattern(body, key, pattern string, log *slog.Logger) int {
	// The label fragment may contain groups of its own, so the value group
	// is addressed by name.
	lineRe, err := regexp.Compile(fmt.Sprintf(`(?m)^■%s\s*[:：]\s*(?P<value>.+)$`, pattern))
	if err != nil {
		log.Error("invalid field label pattern", "key", key, "pattern", pattern, "error", err)
		return 0
	}
	match := lineRe.FindStringSubmatch(body)
	if match == nil {
		log.Error("failed to parse field", "key", key)
		return 0
	}
	value := ParsePrice(match[lineRe.SubexpIndex("value")], log)
	log.Info("parsed field", "key", key, "value", value)
	return value
}

// parseCommaInt parses a decimal integer with optional comma separators.
// Inputs come from digit-only regex captures, so a failure means a grammar
// bug; it still defaults to 0 rather than panicking.
func parseCommaInt(s string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0
	}
	return n
}
