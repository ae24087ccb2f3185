package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset" // register charset decoders
	gomail "github.com/emersion/go-message/mail"

	"github.com/username/walkermail/src/database"
	"github.com/username/walkermail/src/models"
)

const (
	expectedFromName    = "BOOK☆WALKER"
	expectedFromAddress = "noreply@bookwalker.jp"
)

// mailServiceImpl implements the MailService interface on top of the raw
// mail archive.
type mailServiceImpl struct {
	log *slog.Logger
}

// NewMailService creates a MailService that logs to the given logger.
func NewMailService(log *slog.Logger) MailService {
	return &mailServiceImpl{log: log}
}

// LoadMails decodes every archived message. A message that fails decoding
// is skipped with a log entry; it never fails the batch. The result is
// sorted by ascending envelope date with a stable sort, so mails sharing a
// timestamp keep their archive order.
func (s *mailServiceImpl) LoadMails(ctx context.Context) ([]models.Mail, error) {
	rows, err := database.DB.QueryContext(ctx,
		`SELECT folder, uid, data FROM raw_mails ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying raw mails: %w", err)
	}
	defer rows.Close()

	var mails []models.Mail
	for rows.Next() {
		var folder string
		var uid int64
		var data []byte
		if err := rows.Scan(&folder, &uid, &data); err != nil {
			return nil, fmt.Errorf("scanning raw mail: %w", err)
		}
		mail, err := DecodeMail(data, s.log)
		if err != nil {
			s.log.Error("skipping undecodable mail", "folder", folder, "uid", uid, "error", err)
			continue
		}
		mails = append(mails, mail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating raw mails: %w", err)
	}

	sort.SliceStable(mails, func(i, j int) bool {
		return mails[i].Date.Before(mails[j].Date)
	})
	return mails, nil
}

// DecodeMail turns one raw RFC822 message into a Mail. The message must be
// single-part text/plain with a subject and a parseable date; anything else
// is rejected. An unexpected From address is logged but does not reject.
func DecodeMail(raw []byte, log *slog.Logger) (models.Mail, error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return models.Mail{}, fmt.Errorf("reading message: %w", err)
	}

	header := gomail.Header{Header: entity.Header}

	if !entity.Header.Has("Subject") {
		return models.Mail{}, fmt.Errorf("the subject header is missing")
	}
	subject, err := header.Subject()
	if err != nil {
		return models.Mail{}, fmt.Errorf("decoding subject: %w", err)
	}

	date, err := header.Date()
	if err != nil {
		return models.Mail{}, fmt.Errorf("parsing date header: %w", err)
	}

	checkFromHeader(header, log)

	contentType, _, err := entity.Header.ContentType()
	if err != nil {
		return models.Mail{}, fmt.Errorf("parsing content type: %w", err)
	}
	if contentType != "text/plain" {
		return models.Mail{}, fmt.Errorf("unexpected content type: %s", contentType)
	}
	if entity.MultipartReader() != nil {
		return models.Mail{}, fmt.Errorf("multipart is not expected")
	}

	body, err := io.ReadAll(entity.Body)
	if err != nil {
		return models.Mail{}, fmt.Errorf("reading body: %w", err)
	}

	return models.Mail{
		Subject: subject,
		Date:    date,
		Body:    string(body),
	}, nil
}

// checkFromHeader is advisory only: the store already filters senders, so
// an unexpected From is logged rather than rejected.
func checkFromHeader(header gomail.Header, log *slog.Logger) {
	addresses, err := header.AddressList("From")
	if err != nil || len(addresses) != 1 {
		log.Warn("unexpected From header", "error", err, "count", len(addresses))
		return
	}
	from := addresses[0]
	if from.Name != expectedFromName || from.Address != expectedFromAddress {
		log.Warn("unexpected sender", "name", from.Name, "address", from.Address)
	}
}
