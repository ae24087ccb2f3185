package parsers

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/username/walkermail/src/models"
)

// The granted-coin section is a single header line stating the total,
// optionally followed by a bulleted breakdown in exactly one of two styles:
// asterisk bullets (style A) or dash/branch bullets (style B). The two
// never appear together.
var grantedCoinSectionPattern = regexp.MustCompile(
	`(?m)^■Granted Coin(\(s\))?\s*：\s*([0-9,]+) [Cc]oin(s|\(s\))$\n` +
		`(((?:^[^\S\n]*\*.+$\n)+)|((?:^[^\S\n]*[-┗].+$\n)+))?`)

const (
	grantedCoinSectionTotal  = 2
	grantedCoinSectionStyleA = 5
	grantedCoinSectionStyleB = 6
)

var styleAItemPattern = regexp.MustCompile(
	`(?m)^\s\*Limited Time Coin valid through end of` +
		` ([A-Z][a-z]+), ([0-9]{4}) \(JST\)` +
		` : ([0-9,]+) Coin\(s\)$`)

var styleBItemPattern = regexp.MustCompile(
	`(?m)^\s[-┗] ([0-9,]+) coin(s|\(s\))` +
		` \(Valid (through|until the) end of` +
		` ([A-Z][a-z]+), ([0-9]{4}) JST\)` +
		`\s*([0-9]+)%$`)

// monthNames is the fixed English month lexicon, 1-indexed like the source
// document's dates.
var monthNames = []string{
	"",
	"January",
	"February",
	"March",
	"April",
	"May",
	"June",
	"July",
	"August",
	"September",
	"October",
	"November",
	"December",
}

func monthIndex(name string) (int, error) {
	for i := 1; i < len(monthNames); i++ {
		if monthNames[i] == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown month name %q", name)
}

// ParseGrantedCoins extracts the granted-coin breakdown from the body.
// Style A states only the limited buckets; the unrestricted remainder is
// inferred from the total and prepended as "unlimited". Style B states
// every bucket with its percentage, so the sum is checked against the
// stated total instead (advisory only). A missing section is an empty list.
func ParseGrantedCoins(body string, log *slog.Logger) []models.GrantedCoin {
	grantedCoins := []models.GrantedCoin{}
	section := grantedCoinSectionPattern.FindStringSubmatch(body)
	if section == nil {
		log.Info("no granted coins")
		return grantedCoins
	}
	totalCoins := parseCommaInt(section[grantedCoinSectionTotal])

	if items := section[grantedCoinSectionStyleA]; items != "" {
		// *Limited Time Coin valid through end of {month}, {year} (JST) : {coin} Coin(s)
		for _, item := range styleAItemPattern.FindAllStringSubmatch(items, -1) {
			month, err := monthIndex(item[1])
			if err != nil {
				log.Error("dropping granted-coin line", "error", err)
				continue
			}
			grantedCoins = append(grantedCoins, models.GrantedCoin{
				Label: fmt.Sprintf("limited %04d/%02d", parseCommaInt(item[2]), month),
				Coin:  parseCommaInt(item[3]),
			})
		}
		// The unrestricted bucket is whatever the limited entries leave of
		// the stated total.
		unlimitedCoin := totalCoins
		for _, c := range grantedCoins {
			unlimitedCoin -= c.Coin
		}
		if unlimitedCoin > 0 {
			grantedCoins = append(
				[]models.GrantedCoin{{Label: "unlimited", Coin: unlimitedCoin}},
				grantedCoins...)
		}
	}

	if items := section[grantedCoinSectionStyleB]; items != "" {
		// - {coin} coins (Valid through end of {month}, {year} JST)  {percent}%
		// ┗ {coin} coin(s) (Valid until the end of {month}, {year} JST)  {percent}%
		for _, item := range styleBItemPattern.FindAllStringSubmatch(items, -1) {
			month, err := monthIndex(item[4])
			if err != nil {
				log.Error("dropping granted-coin line", "error", err)
				continue
			}
			grantedCoins = append(grantedCoins, models.GrantedCoin{
				Label: fmt.Sprintf("limited %04d/%02d %d%%",
					parseCommaInt(item[5]), month, parseCommaInt(item[6])),
				Coin: parseCommaInt(item[1]),
			})
		}
		sum := 0
		for _, c := range grantedCoins {
			sum += c.Coin
		}
		if sum != totalCoins {
			log.Error("total granted coins are not equal", "stated", totalCoins, "sum", sum)
		}
	}

	if len(grantedCoins) > 0 {
		entries := make([]string, 0, len(grantedCoins))
		for _, c := range grantedCoins {
			entries = append(entries, fmt.Sprintf("%d(%s)", c.Coin, c.Label))
		}
		log.Info("granted coins", "entries", strings.Join(entries, ", "), "total", totalCoins)
	} else {
		log.Info("no granted coins")
	}
	return grantedCoins
}
