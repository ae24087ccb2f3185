package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Book is one purchased line item. Price is in yen (the smallest unit for
// JPY) and may be negative when a discount is encoded as a line item.
type Book struct {
	Title string `json:"title"`
	Price int    `json:"price"`
}

// GrantedCoin is one bucket of loyalty coins credited with a purchase.
// The label is synthesized during parsing ("unlimited", "limited 2024/03",
// "limited 2024/03 20%").
type GrantedCoin struct {
	Label string `json:"label"`
	Coin  int    `json:"coin"`
}

// Payment is a completed book purchase. The subtotal and the two totals are
// derived from the stored fields on demand and are never persisted.
type Payment struct {
	Date         time.Time     `json:"date"`
	Books        []Book        `json:"books"`
	Discount     int           `json:"discount"`
	Tax          int           `json:"tax"`
	CoinUsage    int           `json:"coin_usage"`
	GrantedCoins []GrantedCoin `json:"granted_coins"`
}

// Subtotal is the sum of all book prices.
func (p Payment) Subtotal() int {
	total := 0
	for _, book := range p.Books {
		total += book.Price
	}
	return total
}

// TotalAmount is the subtotal after discount and tax.
func (p Payment) TotalAmount() int {
	return p.Subtotal() + p.Discount + p.Tax
}

// TotalPayment is the amount actually charged, after coin usage.
func (p Payment) TotalPayment() int {
	return p.TotalAmount() + p.CoinUsage
}

// OrderDate implements Order.
func (p Payment) OrderDate() time.Time { return p.Date }

// Charge is a direct coin purchase (buying loyalty currency with money),
// as opposed to a book payment. Coin is the paid amount in yen, Amount the
// item count.
type Charge struct {
	Date      time.Time `json:"date"`
	Item      string    `json:"item"`
	Amount    int       `json:"amount"`
	Coin      int       `json:"coin"`
	BonusCoin int       `json:"bonus_coin"`
}

// OrderDate implements Order.
func (c Charge) OrderDate() time.Time { return c.Date }

// Order is the tagged union of Payment and Charge. On the wire the two are
// told apart by the presence of the "books" key.
type Order interface {
	OrderDate() time.Time
}

// MarshalOrders encodes a batch of orders as one indented JSON array,
// matching the stored orders-file format.
func MarshalOrders(orders []Order) ([]byte, error) {
	if orders == nil {
		orders = []Order{}
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(orders); err != nil {
		return nil, fmt.Errorf("encoding orders: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalOrders decodes an orders array, discriminating each element on
// the presence of a "books" key. Unknown fields are rejected so a drifted
// file surfaces as an error instead of silently losing data.
func UnmarshalOrders(data []byte) ([]Order, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decoding orders array: %w", err)
	}
	orders := make([]Order, 0, len(raws))
	for i, raw := range raws {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, fmt.Errorf("decoding order %d: %w", i, err)
		}
		if _, ok := probe["books"]; ok {
			var payment Payment
			if err := decodeStrict(raw, &payment); err != nil {
				return nil, fmt.Errorf("decoding order %d as payment: %w", i, err)
			}
			orders = append(orders, payment)
			continue
		}
		var charge Charge
		if err := decodeStrict(raw, &charge); err != nil {
			return nil, fmt.Errorf("decoding order %d as charge: %w", i, err)
		}
		orders = append(orders, charge)
	}
	return orders, nil
}

func decodeStrict(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
