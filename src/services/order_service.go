package services

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/username/walkermail/src/models"
	"github.com/username/walkermail/src/parsers"
)

// orderServiceImpl implements the OrderService interface.
type orderServiceImpl struct {
	parser parsers.OrderParser
	log    *slog.Logger
}

// NewOrderService creates an OrderService using the given parser.
func NewOrderService(parser parsers.OrderParser, log *slog.Logger) OrderService {
	return &orderServiceImpl{parser: parser, log: log}
}

// ParseOrders runs the parser over the batch. Each mail is independent: a
// hard parse failure drops that mail and the batch continues, so the
// result order mirrors the (date-sorted) input order.
func (s *orderServiceImpl) ParseOrders(mails []models.Mail) []models.Order {
	orders := []models.Order{}
	for _, mail := range mails {
		order, err := s.parser.ParseOrder(mail)
		if err != nil {
			if !errors.Is(err, parsers.ErrNotOrderMail) {
				s.log.Error("mail yielded no order", "subject", mail.Subject, "error", err)
			}
			continue
		}
		orders = append(orders, order)
	}
	return orders
}

// SaveOrders writes the batch as one JSON array, replacing any previous
// file contents.
func (s *orderServiceImpl) SaveOrders(path string, orders []models.Order) error {
	data, err := models.MarshalOrders(orders)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing orders file: %w", err)
	}
	s.log.Info("orders saved", "path", path, "count", len(orders))
	return nil
}

// LoadOrders reads back a stored orders file.
func (s *orderServiceImpl) LoadOrders(path string) ([]models.Order, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading orders file: %w", err)
	}
	return models.UnmarshalOrders(data)
}
