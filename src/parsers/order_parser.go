package parsers

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/username/walkermail/src/models"
)

// orderParserImpl implements the OrderParser interface. The logger is the
// explicit logging context for everything the parse emits; there is no
// package-level logger state here.
type orderParserImpl struct {
	log *slog.Logger
}

// NewOrderParser creates an OrderParser that logs to the given logger.
func NewOrderParser(log *slog.Logger) OrderParser {
	return &orderParserImpl{log: log}
}

// Book line items are a repeated two-line pattern: a title line under one of
// three label spellings immediately followed by a price line.
var bookItemPattern = regexp.MustCompile(
	`(?m)^■(Title|Item|Title / Item)\s*：\s*(.+)$\n^■Price\s*：\s*(.+)$`)

// The charge block is a fixed three-field run whose Item must be the coin
// product. Field separators here are plain colons only, unlike the payment
// fields.
var chargeBlockPattern = regexp.MustCompile(
	`(?m)^■Item\s*:\s*(BOOK☆WALKER (期間限定)?コイン [0-9,]+円分).+$\n*` +
		`^■Amount\s*:\s*([0-9]+)$\n` +
		`^■Bonus Coin\s*:\s*([0-9,]+)$`)

var purchasedDatePattern = regexp.MustCompile(
	`(?m)^■Purchased Date\s*：\s*` +
		`([0-9]{4})/([0-9]{2})/([0-9]{2}) ([0-9]{2}):([0-9]{2}) \((.+)\)$`)

// timezoneNames maps the abbreviation stated in the mail to an IANA zone.
// Only JST has ever been observed; anything else is passed to
// time.LoadLocation verbatim and may fail there.
var timezoneNames = map[string]string{
	"JST": "Asia/Tokyo",
}

// ParseOrder builds a Payment or a Charge from a classified mail. The
// branch between the two is on the extracted book count, not on the mail
// type: an order-typed body without book line items is retried as a charge
// block, and only if that also fails does the mail yield nothing.
func (p *orderParserImpl) ParseOrder(mail models.Mail) (models.Order, error) {
	if !mail.IsOrder() {
		p.log.Info("mail is not an order", "subject", mail.Subject, "type", string(mail.Type()))
		return nil, ErrNotOrderMail
	}

	books := parseBooks(mail.Body, p.log)
	if len(books) == 0 {
		return parseCharge(mail, p.log)
	}

	date, err := parsePurchasedDate(mail.Body)
	if err != nil {
		p.log.Debug("failed to parse purchased date, falling back to envelope date", "error", err)
		date = mail.Date
	}

	// Pre-order confirmations carry no coupon line in this template.
	discount := 0
	if mail.Type() == models.MailTypePayment {
		discount = ParsePriceField(mail.Body, "Coupon Discount", p.log)
	}
	tax := ParsePriceField(mail.Body, "Tax", p.log)
	coinUsage := ParsePriceFieldPattern(mail.Body, "Coin Usage", `Coin Usage[^：]*`, p.log)
	grantedCoins := ParseGrantedCoins(mail.Body, p.log)

	payment := models.Payment{
		Date:         date,
		Books:        books,
		Discount:     discount,
		Tax:          tax,
		CoinUsage:    coinUsage,
		GrantedCoins: grantedCoins,
	}

	for _, d := range CheckConsistency(payment, mail.Body, p.log) {
		p.log.Error("stated and derived totals are not equal",
			"field", d.Field, "stated", d.Stated, "derived", d.Derived)
	}

	return payment, nil
}

func parseBooks(body string, log *slog.Logger) []models.Book {
	var books []models.Book
	for _, match := range bookItemPattern.FindAllStringSubmatch(body, -1) {
		book := models.Book{
			Title: match[2],
			Price: ParsePrice(match[3], log),
		}
		log.Info("parsed book", "title", book.Title, "price", book.Price)
		books = append(books, book)
	}
	return books
}

func parseCharge(mail models.Mail, log *slog.Logger) (models.Order, error) {
	body := strings.ReplaceAll(mail.Body, "\r\n", "\n")
	match := chargeBlockPattern.FindStringSubmatch(body)
	if match == nil {
		log.Error("failed to parse mail as a charge", "subject", mail.Subject)
		return nil, ErrNoOrderData
	}
	item := match[1]
	amount := parseCommaInt(match[3])
	bonusCoin := parseCommaInt(match[4])
	coin := ParsePriceField(mail.Body, "Total Payment", log)
	log.Info("parsed charge",
		"item", item, "amount", amount, "coin", coin, "bonusCoin", bonusCoin)
	return models.Charge{
		Date:      mail.Date,
		Item:      item,
		Amount:    amount,
		Coin:      coin,
		BonusCoin: bonusCoin,
	}, nil
}

// parsePurchasedDate reads the "Purchased Date" body field, which states a
// local time plus a timezone abbreviation. An absent field or an
// unresolvable zone is an error; the caller falls back to the envelope date.
func parsePurchasedDate(body string) (time.Time, error) {
	match := purchasedDatePattern.FindStringSubmatch(body)
	if match == nil {
		return time.Time{}, fmt.Errorf("no purchased date field")
	}
	zoneName := match[6]
	if mapped, ok := timezoneNames[zoneName]; ok {
		zoneName = mapped
	}
	location, err := time.LoadLocation(zoneName)
	if err != nil {
		return time.Time{}, fmt.Errorf("loading zone %q: %w", zoneName, err)
	}
	year := parseCommaInt(match[1])
	month := parseCommaInt(match[2])
	day := parseCommaInt(match[3])
	hour := parseCommaInt(match[4])
	minute := parseCommaInt(match[5])
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, location), nil
}
