package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mattn/go-sqlite3"

	"github.com/kdimtricp/hoverlabel/internal/logging"
	"github.com/kdimtricp/hoverlabel/internal/models"
)

const DefaultListLimit = 50

type FeedbackRepository struct {
	db *DB
}

func NewFeedbackRepository(db *DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Insert(ctx context.Context, record *models.FeedbackRecord) error {
	query := `
	INSERT INTO feedback (id, image_url, label, confidence, vote, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.conn.ExecContext(ctx, query,
		record.ID,
		record.ImageURL,
		string(record.Label),
		record.Confidence,
		string(record.Vote),
		record.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// List returns the most recent records first.
func (r *FeedbackRepository) List(ctx context.Context, limit int) ([]models.FeedbackRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
	SELECT id, image_url, label, confidence, vote, created_at
	FROM feedback
	ORDER BY created_at DESC
	LIMIT ?`

	rows, err := r.db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var records []models.FeedbackRecord
	for rows.Next() {
		var (
			rec   models.FeedbackRecord
			label string
			vote  string
		)
		if err := rows.Scan(&rec.ID, &rec.ImageURL, &label, &rec.Confidence, &vote, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		rec.Label = models.Label(label)
		rec.Vote = models.Vote(vote)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}
	return records, nil
}

func (r *FeedbackRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM feedback").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	return n, nil
}

// FeedbackSink stores votes in the feedback table. Writes run in the
// background and are retried while the database is busy.
type FeedbackSink struct {
	repo       *FeedbackRepository
	maxRetries uint64
	wg         sync.WaitGroup
}

func NewFeedbackSink(repo *FeedbackRepository) *FeedbackSink {
	return &FeedbackSink{repo: repo, maxRetries: 3}
}

func (s *FeedbackSink) Send(key models.ImageKey, v models.Verdict, vote models.Vote) {
	record := models.NewFeedbackRecord(key, v, vote)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.store(context.Background(), record); err != nil {
			logging.Error("failed to store feedback", "image", key, "vote", vote, "error", err)
			return
		}
		logging.Debug("feedback stored", "id", record.ID, "image", key, "vote", vote)
	}()
}

// Wait blocks until every Send started so far has finished.
func (s *FeedbackSink) Wait() {
	s.wg.Wait()
}

func (s *FeedbackSink) store(ctx context.Context, record *models.FeedbackRecord) error {
	operation := func() error {
		err := s.repo.Insert(ctx, record)
		if err != nil && !isBusy(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, s.maxRetries), ctx))
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}
