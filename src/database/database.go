package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/walkermail/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

// InitDB opens the mail archive and ensures its schema. Raw messages are
// stored exactly as fetched; decoding happens at parse time so a parser fix
// never requires a re-download.
func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateRawMailTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS raw_mails (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		folder TEXT NOT NULL,
		uid INTEGER NOT NULL,
		internal_date TIMESTAMP,
		data BLOB NOT NULL,
		downloaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(folder, uid)
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	}
}

// migrateRawMailTable backfills columns added after the first release.
func migrateRawMailTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='raw_mails'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			// Table does not exist yet; CREATE TABLE below covers it.
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'raw_mails' table", "error", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(raw_mails)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'raw_mails'", "error", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'raw_mails'", "error", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'raw_mails'", "error", err)
		}
		return
	}

	if _, ok := columnExists["internal_date"]; !ok {
		if _, err := DB.Exec("ALTER TABLE raw_mails ADD COLUMN internal_date TIMESTAMP"); err != nil {
			logger.L.Error("Error adding 'internal_date' column to 'raw_mails' table", "error", err)
		} else {
			logger.L.Info("Added 'internal_date' column to 'raw_mails' table")
		}
	}
	if _, ok := columnExists["downloaded_at"]; !ok {
		if _, err := DB.Exec("ALTER TABLE raw_mails ADD COLUMN downloaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP"); err != nil {
			logger.L.Error("Error adding 'downloaded_at' column to 'raw_mails' table", "error", err)
		} else {
			logger.L.Info("Added 'downloaded_at' column to 'raw_mails' table")
		}
	}
}
