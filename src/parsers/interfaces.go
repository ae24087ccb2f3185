package parsers

import (
	"errors"

	"github.com/username/walkermail/src/models"
)

// OrderParser turns one classified mail into an order record.
// A hard failure (wrong mail type, or neither book items nor a charge block
// in the body) is reported as an error; the caller logs it and moves on to
// the next mail.
type OrderParser interface {
	ParseOrder(mail models.Mail) (models.Order, error)
}

var (
	// ErrNotOrderMail marks mails whose subject classifies as PreOrder or
	// Other; they carry no order and this is not a defect.
	ErrNotOrderMail = errors.New("mail is not an order confirmation")

	// ErrNoOrderData marks order-typed mails whose body yields neither book
	// line items nor a charge block.
	ErrNoOrderData = errors.New("no order data found in mail body")
)
