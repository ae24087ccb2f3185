package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"golang.org/x/time/rate"

	"github.com/username/walkermail/src/config"
	"github.com/username/walkermail/src/database"
)

// downloadServiceImpl implements the DownloadService interface. Fetches are
// chunked and paced so the batch never hammers the server.
type downloadServiceImpl struct {
	cfg *config.AppConfig
	log *slog.Logger
}

// NewDownloadService creates a DownloadService for the configured mailbox.
func NewDownloadService(cfg *config.AppConfig, log *slog.Logger) DownloadService {
	return &downloadServiceImpl{cfg: cfg, log: log}
}

// Download logs into the IMAP server and archives every matching message
// from each configured folder. Messages already in the archive (same
// folder and UID) are left untouched.
func (s *downloadServiceImpl) Download(ctx context.Context) error {
	if s.cfg.IMAPHost == "" {
		return fmt.Errorf("IMAP_HOST is not configured")
	}

	c, err := client.DialTLS(s.cfg.IMAPHost, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", s.cfg.IMAPHost, err)
	}
	defer c.Logout()

	s.log.Info("logging in", "host", s.cfg.IMAPHost, "username", s.cfg.IMAPUsername)
	if err := c.Login(s.cfg.IMAPUsername, s.cfg.IMAPPassword); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	limiter := rate.NewLimiter(rate.Every(s.cfg.IMAPRequestInterval), 1)

	for _, folder := range s.cfg.IMAPFolders {
		if err := s.downloadFolder(ctx, c, limiter, folder); err != nil {
			return fmt.Errorf("folder %s: %w", folder, err)
		}
	}
	return nil
}

func (s *downloadServiceImpl) downloadFolder(ctx context.Context, c *client.Client, limiter *rate.Limiter, folder string) error {
	if _, err := c.Select(folder, true); err != nil {
		return fmt.Errorf("selecting folder: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	if !s.cfg.IMAPSince.IsZero() {
		criteria.Since = s.cfg.IMAPSince
	}
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}
	if len(uids) == 0 {
		s.log.Info("no messages found", "folder", folder)
		return nil
	}
	s.log.Info("found messages", "folder", folder, "count", len(uids),
		"first", uids[0], "last", uids[len(uids)-1])

	for start := 0; start < len(uids); start += s.cfg.IMAPFetchSize {
		end := min(start+s.cfg.IMAPFetchSize, len(uids))
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if err := s.fetchChunk(c, folder, uids[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *downloadServiceImpl) fetchChunk(c *client.Client, folder string, uids []uint32) error {
	s.log.Info("fetching messages", "folder", folder, "count", len(uids),
		"first", uids[0], "last", uids[len(uids)-1])

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchInternalDate, imap.FetchUid}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, messages)
	}()

	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			s.log.Error("message has no body section", "folder", folder, "uid", msg.Uid)
			continue
		}
		data, err := io.ReadAll(body)
		if err != nil {
			s.log.Error("reading message body", "folder", folder, "uid", msg.Uid, "error", err)
			continue
		}
		if err := s.archiveMessage(folder, msg.Uid, msg, data); err != nil {
			return err
		}
	}
	if err := <-done; err != nil {
		return fmt.Errorf("fetching: %w", err)
	}
	return nil
}

func (s *downloadServiceImpl) archiveMessage(folder string, uid uint32, msg *imap.Message, data []byte) error {
	// INSERT OR IGNORE keeps re-downloads idempotent per (folder, uid).
	_, err := database.DB.Exec(
		`INSERT OR IGNORE INTO raw_mails (folder, uid, internal_date, data) VALUES (?, ?, ?, ?)`,
		folder, uid, msg.InternalDate, data)
	if err != nil {
		return fmt.Errorf("archiving message %d: %w", uid, err)
	}
	s.log.Debug("archived message", "folder", folder, "uid", uid)
	return nil
}
