package services

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/username/walkermail/src/models"
	"github.com/username/walkermail/src/processors"
)

// outputServiceImpl implements the OutputService interface.
type outputServiceImpl struct {
	normalizer processors.TitleNormalizer
	reports    processors.ReportProcessor
	log        *slog.Logger
}

// NewOutputService creates an OutputService using the given processors.
func NewOutputService(normalizer processors.TitleNormalizer, reports processors.ReportProcessor, log *slog.Logger) OutputService {
	return &outputServiceImpl{
		normalizer: normalizer,
		reports:    reports,
		log:        log,
	}
}

// Prepare filters the stored orders to the reporting period and, when
// requested, rewrites book titles through the normalizer. The stored
// orders are never modified; payments are rebuilt with the new titles.
func (s *outputServiceImpl) Prepare(orders []models.Order, opts OutputOptions) []models.Order {
	result := []models.Order{}
	for _, order := range orders {
		date := order.OrderDate()
		if !opts.Since.IsZero() && date.Before(opts.Since) {
			s.log.Info("order is not within the target period", "date", date)
			continue
		}
		if !opts.Until.IsZero() && !date.Before(opts.Until) {
			s.log.Info("order is not within the target period", "date", date)
			continue
		}
		if payment, ok := order.(models.Payment); ok && opts.NormalizeTitles {
			result = append(result, s.normalizeBookTitles(payment))
			continue
		}
		result = append(result, order)
	}
	return result
}

func (s *outputServiceImpl) normalizeBookTitles(payment models.Payment) models.Payment {
	books := make([]models.Book, 0, len(payment.Books))
	for _, book := range payment.Books {
		books = append(books, models.Book{
			Title: s.normalizer.Normalize(book.Title),
			Price: book.Price,
		})
	}
	grantedCoins := make([]models.GrantedCoin, len(payment.GrantedCoins))
	copy(grantedCoins, payment.GrantedCoins)
	return models.Payment{
		Date:         payment.Date,
		Books:        books,
		Discount:     payment.Discount,
		Tax:          payment.Tax,
		CoinUsage:    payment.CoinUsage,
		GrantedCoins: grantedCoins,
	}
}

// Render writes the orders in the requested format: the raw JSON array, a
// sorted title listing, or the markdown expense table.
func (s *outputServiceImpl) Render(w io.Writer, orders []models.Order, format string) error {
	switch format {
	case "json":
		data, err := models.MarshalOrders(orders)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		return nil
	case "titles":
		for _, title := range s.reports.Titles(orders) {
			if _, err := fmt.Fprintln(w, title); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
		}
		return nil
	case "markdown":
		if _, err := io.WriteString(w, s.reports.MarkdownTable(orders)); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}
