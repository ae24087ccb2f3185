package parsers

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "plain", text: "JPY 650", want: 650},
		{name: "comma separated", text: "JPY 1,350", want: 1350},
		{name: "negative", text: "JPY -100", want: -100},
		{name: "tax annotation", text: "JPY 700 (Tax)", want: 700},
		{name: "no space after currency", text: "JPY650", want: 650},
		{name: "not a price defaults to zero", text: "650 yen", want: 0},
		{name: "empty defaults to zero", text: "", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePrice(tt.text, testLogger()))
		})
	}
}

func TestParsePriceField(t *testing.T) {
	body := "Thank you for your order.\n" +
		"■Subtotal：JPY 1,350\n" +
		"■Tax：JPY 0\n" +
		"■Coin Usage(期間限定コイン優先利用)：JPY -50\n" +
		"■Total Payment: JPY 1,300\n"

	t.Run("full-width separator", func(t *testing.T) {
		assert.Equal(t, 1350, ParsePriceField(body, "Subtotal", testLogger()))
	})
	t.Run("plain separator", func(t *testing.T) {
		assert.Equal(t, 1300, ParsePriceField(body, "Total Payment", testLogger()))
	})
	t.Run("missing label defaults to zero", func(t *testing.T) {
		assert.Equal(t, 0, ParsePriceField(body, "Coupon Discount", testLogger()))
	})
	t.Run("label with trailing qualifier needs a pattern", func(t *testing.T) {
		assert.Equal(t, 0, ParsePriceField(body, "Coin Usage", testLogger()))
		assert.Equal(t, -50,
			ParsePriceFieldPattern(body, "Coin Usage", `Coin Usage[^：]*`, testLogger()))
	})
	t.Run("alternation pattern keeps value group addressable", func(t *testing.T) {
		assert.Equal(t, 1300,
			ParsePriceFieldPattern(body, "Total Payment", `(Payment Total|Total Payment)`, testLogger()))
	})
	t.Run("unparsable value defaults to zero", func(t *testing.T) {
		assert.Equal(t, 0, ParsePriceField("■Tax：free\n", "Tax", testLogger()))
	})
}
