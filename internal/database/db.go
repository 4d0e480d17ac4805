package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const DefaultSQLitePath = "./hoverlabel.db"

type DB struct {
	conn *sql.DB
	path string
}

type Config struct {
	SQLitePath string
}

func NewDB(config Config) (*DB, error) {
	if config.SQLitePath == "" {
		config.SQLitePath = DefaultSQLitePath
	}

	// Writers wait up to five seconds for the file lock.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", config.SQLitePath)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, path: config.SQLitePath}

	if err := NewMigrator(conn).Run(migrations); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Path() string {
	return db.path
}
