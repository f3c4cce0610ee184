package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Mirandateresa/malicious-url-detector/internal/model"
)

const (
	createStateTable = `
	CREATE TABLE IF NOT EXISTS model_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		kernel TEXT NOT NULL,
		c REAL NOT NULL,
		accuracy REAL NOT NULL,
		precision REAL NOT NULL,
		recall REAL NOT NULL,
		f1_score REAL NOT NULL,
		trained_at INTEGER NOT NULL
	);`

	upsertState = `INSERT INTO model_state (id, kernel, c, accuracy, precision, recall, f1_score, trained_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kernel = excluded.kernel,
			c = excluded.c,
			accuracy = excluded.accuracy,
			precision = excluded.precision,
			recall = excluded.recall,
			f1_score = excluded.f1_score,
			trained_at = excluded.trained_at`

	selectState = `SELECT kernel, c, accuracy, precision, recall, f1_score, trained_at
		FROM model_state WHERE id = 1`
)

// SQLiteStore keeps the state as the single row of the model_state table.
// Each Save is one upsert statement, so readers see either the old or the
// new row.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite database path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createStateTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating model_state table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, st model.State) error {
	_, err := s.db.ExecContext(ctx, upsertState,
		string(st.Kernel), st.C,
		st.Metrics.Accuracy, st.Metrics.Precision, st.Metrics.Recall, st.Metrics.F1Score,
		st.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("saving model state: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*model.State, error) {
	var (
		st     model.State
		kernel string
		nanos  int64
	)
	err := s.db.QueryRowContext(ctx, selectState).Scan(
		&kernel, &st.C,
		&st.Metrics.Accuracy, &st.Metrics.Precision, &st.Metrics.Recall, &st.Metrics.F1Score,
		&nanos)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading model state: %w", err)
	}
	st.Kernel = model.Kernel(kernel)
	st.Timestamp = time.Unix(0, nanos).UTC()
	return &st, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
