package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/username/walkermail/src/models"
)

// MailService loads archived raw messages and decodes them into Mail
// values, sorted by ascending envelope date.
type MailService interface {
	LoadMails(ctx context.Context) ([]models.Mail, error)
}

// DownloadService fetches messages from the IMAP folders into the archive.
type DownloadService interface {
	Download(ctx context.Context) error
}

// OrderService runs the order parser over a mail batch and persists the
// result as one JSON array.
type OrderService interface {
	ParseOrders(mails []models.Mail) []models.Order
	SaveOrders(path string, orders []models.Order) error
	LoadOrders(path string) ([]models.Order, error)
}

// OutputOptions scope a report: the period filter and whether book titles
// are canonicalized before rendering.
type OutputOptions struct {
	Since           time.Time // zero means no lower bound
	Until           time.Time // zero means no upper bound, exclusive otherwise
	NormalizeTitles bool
}

// OutputService prepares stored orders for reporting and renders them.
type OutputService interface {
	Prepare(orders []models.Order, opts OutputOptions) []models.Order
	Render(w io.Writer, orders []models.Order, format string) error
}

var (
	ErrUnknownFormat = errors.New("unknown output format")
)
