package parsers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/walkermail/src/models"
)

const paymentBody = `Thank you for shopping at BOOK☆WALKER.

■Purchased Date：2024/03/01 12:34 (JST)

■Title：サンプル 1
■Price：JPY 650
■Title / Item：サンプル 2
■Price：JPY 700

■Subtotal：JPY 1,350
■Coupon Discount：JPY -100
■Tax：JPY 0
■Coin Usage(期間限定コイン優先利用)：JPY 0
■Total Amount：JPY 1,250
■Total Payment：JPY 1,250

■Granted Coin(s)：112 Coin(s)
 *Limited Time Coin valid through end of March, 2024 (JST) : 100 Coin(s)
`

const chargeBody = `Thank you for your purchase.

■Item : BOOK☆WALKER コイン 3,000円分 ×1
■Amount : 1
■Bonus Coin : 300
■Total Payment : JPY 3,000
`

func envelopeDate() time.Time {
	return time.Date(2024, 3, 1, 3, 40, 12, 0, time.UTC)
}

func TestParseOrderPayment(t *testing.T) {
	parser := NewOrderParser(testLogger())
	order, err := parser.ParseOrder(models.Mail{
		Subject: "[BOOK☆WALKER] Order Confirmation",
		Date:    envelopeDate(),
		Body:    paymentBody,
	})
	require.NoError(t, err)

	payment, ok := order.(models.Payment)
	require.True(t, ok, "expected a payment")

	assert.Equal(t, []models.Book{
		{Title: "サンプル 1", Price: 650},
		{Title: "サンプル 2", Price: 700},
	}, payment.Books)
	assert.Equal(t, -100, payment.Discount)
	assert.Equal(t, 0, payment.Tax)
	assert.Equal(t, 0, payment.CoinUsage)
	assert.Equal(t, []models.GrantedCoin{
		{Label: "unlimited", Coin: 12},
		{Label: "limited 2024/03", Coin: 100},
	}, payment.GrantedCoins)

	// The purchased date from the body wins over the envelope date, and JST
	// resolves to Asia/Tokyo.
	assert.Equal(t, 2024, payment.Date.Year())
	assert.Equal(t, time.March, payment.Date.Month())
	assert.Equal(t, 12, payment.Date.Hour())
	assert.Equal(t, 34, payment.Date.Minute())
	zone, offset := payment.Date.Zone()
	assert.Equal(t, 9*60*60, offset, "zone %s", zone)

	assert.Equal(t, 1350, payment.Subtotal())
	assert.Equal(t, 1250, payment.TotalAmount())
	assert.Equal(t, 1250, payment.TotalPayment())
}

func TestParseOrderPreOrderPaymentIgnoresCoupon(t *testing.T) {
	// Pre-order confirmations carry no coupon line; even if one appears,
	// the discount stays zero for that mail type.
	parser := NewOrderParser(testLogger())
	order, err := parser.ParseOrder(models.Mail{
		Subject: "[BOOK☆WALKER] Order Confirmation for Pre-ordered eBooks",
		Date:    envelopeDate(),
		Body:    paymentBody,
	})
	require.NoError(t, err)

	payment, ok := order.(models.Payment)
	require.True(t, ok)
	assert.Equal(t, 0, payment.Discount)
}

func TestParseOrderZeroBooksFallsBackToCharge(t *testing.T) {
	parser := NewOrderParser(testLogger())
	order, err := parser.ParseOrder(models.Mail{
		Subject: "[BOOK☆WALKER] Order Confirmation",
		Date:    envelopeDate(),
		Body:    chargeBody,
	})
	require.NoError(t, err)

	charge, ok := order.(models.Charge)
	require.True(t, ok, "a payment mail without book items must become a charge")
	assert.Equal(t, "BOOK☆WALKER コイン 3,000円分", charge.Item)
	assert.Equal(t, 1, charge.Amount)
	assert.Equal(t, 3000, charge.Coin)
	assert.Equal(t, 300, charge.BonusCoin)
	assert.True(t, envelopeDate().Equal(charge.Date))
}

func TestParseOrderChargeWithCRLFBody(t *testing.T) {
	parser := NewOrderParser(testLogger())
	body := "■Item : BOOK☆WALKER 期間限定コイン 1,000円分 ×1\r\n" +
		"■Amount : 1\r\n" +
		"■Bonus Coin : 0\r\n" +
		"■Total Payment : JPY 1,000\r\n"
	order, err := parser.ParseOrder(models.Mail{
		Subject: "Order Confirmation",
		Date:    envelopeDate(),
		Body:    body,
	})
	require.NoError(t, err)
	charge, ok := order.(models.Charge)
	require.True(t, ok)
	assert.Equal(t, "BOOK☆WALKER 期間限定コイン 1,000円分", charge.Item)
	assert.Equal(t, 1000, charge.Coin)
}

func TestParseOrderZeroBooksNoChargeBlock(t *testing.T) {
	parser := NewOrderParser(testLogger())
	_, err := parser.ParseOrder(models.Mail{
		Subject: "[BOOK☆WALKER] Order Confirmation",
		Date:    envelopeDate(),
		Body:    "Your account has been updated.\n",
	})
	assert.ErrorIs(t, err, ErrNoOrderData)
}

func TestParseOrderNonOrderMail(t *testing.T) {
	parser := NewOrderParser(testLogger())

	_, err := parser.ParseOrder(models.Mail{Subject: "Pre-order Confirmation", Body: paymentBody})
	assert.ErrorIs(t, err, ErrNotOrderMail)

	_, err = parser.ParseOrder(models.Mail{Subject: "Weekly deals", Body: paymentBody})
	assert.ErrorIs(t, err, ErrNotOrderMail)
}

func TestParseOrderMissingPurchasedDateFallsBackToEnvelope(t *testing.T) {
	body := "■Title：サンプル\n■Price：JPY 100\n■Tax：JPY 0\n"
	parser := NewOrderParser(testLogger())
	order, err := parser.ParseOrder(models.Mail{
		Subject: "Order Confirmation",
		Date:    envelopeDate(),
		Body:    body,
	})
	require.NoError(t, err)
	payment, ok := order.(models.Payment)
	require.True(t, ok)
	assert.True(t, envelopeDate().Equal(payment.Date))
}

func TestParseOrderMissingTaxDefaultsToZero(t *testing.T) {
	body := "■Title：サンプル\n■Price：JPY 100\n"
	parser := NewOrderParser(testLogger())
	order, err := parser.ParseOrder(models.Mail{
		Subject: "Order Confirmation",
		Date:    envelopeDate(),
		Body:    body,
	})
	require.NoError(t, err)
	payment, ok := order.(models.Payment)
	require.True(t, ok)
	assert.Equal(t, 0, payment.Tax)
	assert.NotNil(t, payment.GrantedCoins)
	assert.Empty(t, payment.GrantedCoins)
}

func TestParsePurchasedDateUnknownZone(t *testing.T) {
	// Abbreviations other than JST go to time.LoadLocation verbatim; when
	// that fails the caller falls back to the envelope date.
	body := "■Purchased Date：2024/03/01 12:34 (QQT)\n"
	_, err := parsePurchasedDate(body)
	assert.Error(t, err)

	body = "■Purchased Date：2024/03/01 12:34 (UTC)\n"
	date, err := parsePurchasedDate(body)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 34, 0, 0, time.UTC).Unix(), date.Unix())
}
