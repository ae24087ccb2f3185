package processors

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/username/walkermail/src/models"
)

const storeName = "BOOK☆WALKER"

// reportProcessorImpl implements the ReportProcessor interface.
type reportProcessorImpl struct{}

// NewReportProcessor creates a new instance of ReportProcessor.
func NewReportProcessor() ReportProcessor {
	return &reportProcessorImpl{}
}

// Titles returns the purchased book titles across all payments, sorted.
// Charges carry no titles and are skipped.
func (p *reportProcessorImpl) Titles(orders []models.Order) []string {
	titles := []string{}
	for _, order := range orders {
		if payment, ok := order.(models.Payment); ok {
			for _, book := range payment.Books {
				titles = append(titles, book.Title)
			}
		}
	}
	sort.Strings(titles)
	return titles
}

// markdownRow is one line of the expense table. Only the first row of an
// order carries the date and store columns.
type markdownRow struct {
	date  *time.Time
	item  string
	price int
}

func (r markdownRow) String() string {
	columns := []string{""}
	if r.date != nil {
		columns = append(columns,
			r.date.Format("2006/01/02"),
			r.date.Format("15:04"),
			storeName)
	} else {
		columns = append(columns, "", "", "")
	}
	columns = append(columns, r.item, fmt.Sprintf("%d", r.price), "")
	return strings.Join(columns, "|")
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"~", `\~`,
)

// MarkdownTable renders the orders as a markdown expense table with one row
// per book plus adjustment rows for discount, tax and coin usage.
func (p *reportProcessorImpl) MarkdownTable(orders []models.Order) string {
	var b strings.Builder
	b.WriteString("|日|時刻|店|商品|価格|\n")
	b.WriteString("|--:|--:|:--|:--|--:|\n")
	for _, order := range orders {
		var rows []markdownRow
		switch o := order.(type) {
		case models.Payment:
			rows = paymentRows(o)
		case models.Charge:
			rows = chargeRows(o)
		}
		for _, row := range rows {
			b.WriteString(row.String())
			b.WriteString("\n")
		}
	}
	return b.String()
}

func paymentRows(payment models.Payment) []markdownRow {
	var rows []markdownRow
	for i, book := range payment.Books {
		row := markdownRow{
			item:  markdownEscaper.Replace(book.Title),
			price: book.Price,
		}
		if i == 0 {
			date := payment.Date
			row.date = &date
		}
		rows = append(rows, row)
	}
	if payment.Discount != 0 {
		rows = append(rows, markdownRow{item: "クーポン割引", price: payment.Discount})
	}
	if payment.Tax != 0 {
		rows = append(rows, markdownRow{item: "消費税", price: payment.Tax})
	}
	if payment.CoinUsage != 0 {
		rows = append(rows, markdownRow{item: "コイン利用", price: payment.CoinUsage})
	}
	return rows
}

func chargeRows(charge models.Charge) []markdownRow {
	item := charge.Item
	if charge.Amount > 1 {
		item += fmt.Sprintf(" x%d", charge.Amount)
	}
	date := charge.Date
	return []markdownRow{{date: &date, item: item, price: charge.Coin}}
}
