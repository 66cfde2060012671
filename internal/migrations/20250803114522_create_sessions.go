package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreateSessions, downCreateSessions)
}

func upCreateSessions(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE sessions (
		chat_id BIGINT PRIMARY KEY,
		access_token TEXT NOT NULL DEFAULT '',
		refresh_token TEXT NOT NULL DEFAULT '',
		user_snapshot JSONB,
		language VARCHAR(8) NOT NULL DEFAULT 'ru',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX sessions_updated_at_idx ON sessions (updated_at);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downCreateSessions(tx *sql.Tx) error {
	_, err := tx.Exec(`
	DROP TABLE sessions;
	`)
	if err != nil {
		return err
	}
	return nil
}
