package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/domain/repositories"
)

// ArtifactRepository replaces transcript segments and highlights
type ArtifactRepository struct {
	db *gorm.DB
}

// NewArtifactRepository creates a new artifact repository
func NewArtifactRepository(db *gorm.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// Replace runs fn in one transaction that holds the meeting row FOR UPDATE,
// so concurrent replaces of the same meeting are serialized by the store.
func (r *ArtifactRepository) Replace(ctx context.Context, accountID string, meetingID uuid.UUID, fn func(w repositories.ArtifactWriter) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var meeting entities.Meeting
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ? AND account_id = ?", meetingID, accountID).
			First(&meeting).Error; err != nil {
			return fmt.Errorf("lock meeting %s: %w", meetingID, err)
		}

		return fn(&artifactWriter{tx: tx, accountID: accountID, meetingID: meetingID})
	})
}

// CountTranscript returns the number of stored segments of a meeting
func (r *ArtifactRepository) CountTranscript(ctx context.Context, accountID string, meetingID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.TranscriptSegment{}).
		Where("meeting_id = ? AND account_id = ?", meetingID, accountID).
		Count(&n).Error
	return n, err
}

// CountHighlights returns the number of stored highlights of a meeting
func (r *ArtifactRepository) CountHighlights(ctx context.Context, accountID string, meetingID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.Highlight{}).
		Where("meeting_id = ? AND account_id = ?", meetingID, accountID).
		Count(&n).Error
	return n, err
}

// artifactWriter scopes every statement to one (meeting, account) pair
type artifactWriter struct {
	tx        *gorm.DB
	accountID string
	meetingID uuid.UUID
	batches   int
}

func (w *artifactWriter) DeleteTranscript() (int64, error) {
	res := w.tx.Where("meeting_id = ? AND account_id = ?", w.meetingID, w.accountID).
		Delete(&entities.TranscriptSegment{})
	return res.RowsAffected, res.Error
}

func (w *artifactWriter) InsertTranscriptBatch(segments []entities.TranscriptSegment) error {
	if len(segments) == 0 {
		return nil
	}
	rows := make([]entities.TranscriptSegment, len(segments))
	for i, s := range segments {
		s.ID = uuid.New()
		s.MeetingID = w.meetingID
		s.AccountID = w.accountID
		rows[i] = s
	}
	return w.insertBatch("transcript", &rows)
}

func (w *artifactWriter) DeleteHighlights() (int64, error) {
	res := w.tx.Where("meeting_id = ? AND account_id = ?", w.meetingID, w.accountID).
		Delete(&entities.Highlight{})
	return res.RowsAffected, res.Error
}

func (w *artifactWriter) InsertHighlightBatch(highlights []entities.Highlight) error {
	if len(highlights) == 0 {
		return nil
	}
	rows := make([]entities.Highlight, len(highlights))
	for i, h := range highlights {
		h.ID = uuid.New()
		h.MeetingID = w.meetingID
		h.AccountID = w.accountID
		rows[i] = h
	}
	return w.insertBatch("highlights", &rows)
}

// insertBatch wraps one insert in a savepoint. A failed statement aborts
// the surrounding Postgres transaction unless it is rolled back to the
// savepoint, which is what lets later batches proceed.
func (w *artifactWriter) insertBatch(collection string, rows interface{}) error {
	w.batches++
	sp := fmt.Sprintf("%s_batch_%d", collection, w.batches)

	if err := w.tx.SavePoint(sp).Error; err != nil {
		return fmt.Errorf("savepoint %s: %w", sp, err)
	}
	if err := w.tx.Create(rows).Error; err != nil {
		if rbErr := w.tx.RollbackTo(sp).Error; rbErr != nil {
			return fmt.Errorf("insert %s: %v (rollback to savepoint: %w)", collection, err, rbErr)
		}
		return fmt.Errorf("insert %s: %w", collection, err)
	}
	return nil
}
