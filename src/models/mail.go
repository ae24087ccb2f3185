package models

import (
	"strings"
	"time"
)

// MailType is the closed set of semantic mail categories derived from the
// subject line. Only MailTypePayment and MailTypePreOrderPayment carry an
// order worth parsing.
type MailType string

const (
	MailTypePayment         MailType = "Payment"
	MailTypePreOrderPayment MailType = "PreOrderPayment"
	MailTypePreOrder        MailType = "PreOrder"
	MailTypeOther           MailType = "Other"
)

// Mail is a single decoded message from the store: the MIME-decoded subject,
// the envelope date and the plain-text body. It is never mutated after load.
type Mail struct {
	Subject string    `json:"subject"`
	Date    time.Time `json:"date"`
	Body    string    `json:"body"`
}

// Type classifies the mail by its subject. The checks are ordered:
// pre-order payment subjects also contain "Order Confirmation", so that
// branch must run before the plain payment one.
func (m Mail) Type() MailType {
	if strings.Contains(m.Subject, "Order Confirmation for Pre-ordered eBooks") {
		return MailTypePreOrderPayment
	}
	if strings.Contains(m.Subject, "Order Confirmation") ||
		strings.Contains(m.Subject, "お支払い完了のお知らせ") {
		return MailTypePayment
	}
	if strings.Contains(m.Subject, "Pre-order Confirmation") {
		return MailTypePreOrder
	}
	return MailTypeOther
}

// IsOrder reports whether the mail should be handed to the order parser.
func (m Mail) IsOrder() bool {
	t := m.Type()
	return t == MailTypePayment || t == MailTypePreOrderPayment
}
