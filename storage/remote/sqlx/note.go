package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kipiapp/kipi/core/note"
)

var _ note.Repository = (*noteRepository)(nil) // interface compliance check

type noteRepository struct {
	db *sqlx.DB
}

func NewNoteRepository(db *sqlx.DB) note.Repository {
	return &noteRepository{db: db}
}

func (repo *noteRepository) SelectNotes(ctx context.Context, owner string) ([]note.Record, error) {
	const q = `
		SELECT id, subject_id, title, date,
		       COALESCE(cues, '') AS cues, COALESCE(notes, '') AS notes,
		       COALESCE(summary, '') AS summary, attendance
		FROM notes
		WHERE user_id = $1
		ORDER BY created_at`

	recs := make([]note.Record, 0)
	if err := repo.db.SelectContext(ctx, &recs, q, owner); err != nil {
		return nil, errors.Wrap(err, "selecting notes")
	}
	return recs, nil
}

func (repo *noteRepository) InsertNote(ctx context.Context, owner string, rec note.Record) (note.Record, error) {
	const q = `
		INSERT INTO notes (user_id, subject_id, title, date, cues, notes, summary, attendance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, subject_id, title, date, cues, notes, summary, attendance`

	var created note.Record
	err := repo.db.GetContext(ctx, &created, q,
		owner, rec.SubjectID, rec.Title, rec.Date, rec.Cues, rec.Notes, rec.Summary, rec.Attendance)
	if err != nil {
		return note.Record{}, errors.Wrap(err, "inserting note")
	}
	return created, nil
}

func (repo *noteRepository) UpdateNote(ctx context.Context, owner string, rec note.Record) error {
	const q = `
		UPDATE notes
		SET subject_id = $1, title = $2, date = $3, cues = $4, notes = $5, summary = $6, attendance = $7, updated_at = now()
		WHERE id = $8 AND user_id = $9`

	if _, err := repo.db.ExecContext(ctx, q,
		rec.SubjectID, rec.Title, rec.Date, rec.Cues, rec.Notes, rec.Summary, rec.Attendance, rec.ID, owner); err != nil {
		return errors.Wrap(err, "updating note")
	}
	return nil
}

func (repo *noteRepository) DeleteNote(ctx context.Context, owner, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, owner); err != nil {
		return errors.Wrap(err, "deleting note")
	}
	return nil
}
