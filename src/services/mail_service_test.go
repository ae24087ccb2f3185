package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/walkermail/src/database"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawMail(subject, date, body string) []byte {
	headers := []string{
		"From: BOOK☆WALKER <noreply@bookwalker.jp>",
		"Subject: " + subject,
		"Date: " + date,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body)
}

func TestDecodeMail(t *testing.T) {
	raw := rawMail(
		"[BOOK☆WALKER] Order Confirmation",
		"Fri, 01 Mar 2024 12:34:56 +0900",
		"■Tax：JPY 0\n")

	mail, err := DecodeMail(raw, testLogger())
	require.NoError(t, err)

	assert.Equal(t, "[BOOK☆WALKER] Order Confirmation", mail.Subject)
	assert.Equal(t, "■Tax：JPY 0\n", mail.Body)
	assert.Equal(t, 2024, mail.Date.Year())
	_, offset := mail.Date.Zone()
	assert.Equal(t, 9*60*60, offset)
}

func TestDecodeMailEncodedSubject(t *testing.T) {
	// RFC2047-encoded subject: "お支払い完了のお知らせ" in base64 UTF-8.
	raw := rawMail(
		"=?UTF-8?B?44GK5pSv5omV44GE5a6M5LqG44Gu44GK55+l44KJ44Gb?=",
		"Fri, 01 Mar 2024 12:34:56 +0900",
		"x\n")

	mail, err := DecodeMail(raw, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "お支払い完了のお知らせ", mail.Subject)
}

func TestDecodeMailRejectsMissingSubject(t *testing.T) {
	raw := []byte("From: a@example.com\r\nDate: Fri, 01 Mar 2024 12:34:56 +0900\r\n" +
		"Content-Type: text/plain\r\n\r\nbody\n")
	_, err := DecodeMail(raw, testLogger())
	assert.Error(t, err)
}

func TestDecodeMailRejectsMissingDate(t *testing.T) {
	raw := []byte("From: a@example.com\r\nSubject: hi\r\nContent-Type: text/plain\r\n\r\nbody\n")
	_, err := DecodeMail(raw, testLogger())
	assert.Error(t, err)
}

func TestDecodeMailRejectsNonPlainText(t *testing.T) {
	raw := []byte("From: a@example.com\r\nSubject: hi\r\n" +
		"Date: Fri, 01 Mar 2024 12:34:56 +0900\r\n" +
		"Content-Type: text/html\r\n\r\n<p>body</p>\n")
	_, err := DecodeMail(raw, testLogger())
	assert.Error(t, err)
}

func TestDecodeMailRejectsMultipart(t *testing.T) {
	raw := []byte("From: a@example.com\r\nSubject: hi\r\n" +
		"Date: Fri, 01 Mar 2024 12:34:56 +0900\r\n" +
		"Content-Type: multipart/alternative; boundary=xyz\r\n\r\n" +
		"--xyz\r\nContent-Type: text/plain\r\n\r\nbody\r\n--xyz--\r\n")
	_, err := DecodeMail(raw, testLogger())
	assert.Error(t, err)
}

func TestLoadMailsSortsByDateStably(t *testing.T) {
	database.InitDB(":memory:")
	defer database.DB.Close()

	insert := func(uid int, subject, date string) {
		_, err := database.DB.Exec(
			`INSERT INTO raw_mails (folder, uid, data) VALUES (?, ?, ?)`,
			"INBOX", uid, rawMail(subject, date, "body\n"))
		require.NoError(t, err)
	}
	// Archive order: newest first, then two mails sharing a timestamp.
	insert(1, "third", "Sun, 03 Mar 2024 09:00:00 +0900")
	insert(2, "first", "Fri, 01 Mar 2024 09:00:00 +0900")
	insert(3, "second-a", "Sat, 02 Mar 2024 09:00:00 +0900")
	insert(4, "second-b", "Sat, 02 Mar 2024 09:00:00 +0900")
	// One undecodable row must be skipped without failing the batch.
	_, err := database.DB.Exec(
		`INSERT INTO raw_mails (folder, uid, data) VALUES (?, ?, ?)`,
		"INBOX", 5, []byte("Subject: no date\r\n\r\nx\n"))
	require.NoError(t, err)

	svc := NewMailService(testLogger())
	mails, err := svc.LoadMails(context.Background())
	require.NoError(t, err)

	subjects := make([]string, 0, len(mails))
	for _, m := range mails {
		subjects = append(subjects, m.Subject)
	}
	assert.Equal(t, []string{"first", "second-a", "second-b", "third"}, subjects)
}
