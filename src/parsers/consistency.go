package parsers

import (
	"log/slog"

	"github.com/username/walkermail/src/models"
)

// Discrepancy is one derived-vs-stated total mismatch found in a payment
// mail. Purely diagnostic: the constructed Payment always carries the
// derived values.
type Discrepancy struct {
	Field   string
	Stated  int
	Derived int
}

// CheckConsistency re-extracts the stated Subtotal, Total Amount and Total
// Payment from the body and compares each against the corresponding derived
// value. It never modifies the payment and never blocks it; callers log the
// result.
func CheckConsistency(payment models.Payment, body string, log *slog.Logger) []Discrepancy {
	var discrepancies []Discrepancy

	if stated := ParsePriceField(body, "Subtotal", log); stated != payment.Subtotal() {
		discrepancies = append(discrepancies, Discrepancy{
			Field:   "Subtotal",
			Stated:  stated,
			Derived: payment.Subtotal(),
		})
	}
	if stated := ParsePriceField(body, "Total Amount", log); stated != payment.TotalAmount() {
		discrepancies = append(discrepancies, Discrepancy{
			Field:   "Total Amount",
			Stated:  stated,
			Derived: payment.TotalAmount(),
		})
	}
	// Two label spellings exist for the final total.
	stated := ParsePriceFieldPattern(body, "Total Payment", `(Payment Total|Total Payment)`, log)
	if stated != payment.TotalPayment() {
		discrepancies = append(discrepancies, Discrepancy{
			Field:   "Total Payment",
			Stated:  stated,
			Derived: payment.TotalPayment(),
		})
	}
	return discrepancies
}
