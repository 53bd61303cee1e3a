package sqlitestore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/arthurd34/OpenImpro-Live/pkg/state"
)

const schema = `
CREATE TABLE IF NOT EXISTS state_persistence (
	id INTEGER PRIMARY KEY,
	data TEXT NOT NULL
);
`

// Store persists the ShowState as one JSON document in a single-row table.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ state.Store = (*Store)(nil)

// Open opens (creating if needed) the sqlite database at path.
func Open(logger *slog.Logger, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create state schema: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger.With(slog.String("component", "sqlitestore")),
	}, nil
}

func (s *Store) Load() (*state.ShowState, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM state_persistence WHERE id = 1`).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state snapshot: %w", err)
	}
	var st state.ShowState
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("decode state snapshot: %w", err)
	}
	return &st, nil
}

func (s *Store) Save(st *state.ShowState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state snapshot: %w", err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO state_persistence (id, data) VALUES (1, ?)`, string(data))
	if err != nil {
		return fmt.Errorf("write state snapshot: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
