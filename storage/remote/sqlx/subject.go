package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kipiapp/kipi/core/subject"
)

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

type subjectRepository struct {
	db *sqlx.DB
}

func NewSubjectRepository(db *sqlx.DB) subject.Repository {
	return &subjectRepository{db: db}
}

func (repo *subjectRepository) SelectSubjects(ctx context.Context, owner string) ([]subject.Record, error) {
	const q = `
		SELECT id, name, color, COALESCE(schedule, '') AS schedule,
		       COALESCE(classroom, '') AS classroom, COALESCE(teacher, '') AS teacher
		FROM subjects
		WHERE user_id = $1
		ORDER BY created_at`

	recs := make([]subject.Record, 0)
	if err := repo.db.SelectContext(ctx, &recs, q, owner); err != nil {
		return nil, errors.Wrap(err, "selecting subjects")
	}
	return recs, nil
}

func (repo *subjectRepository) InsertSubject(ctx context.Context, owner string, rec subject.Record) (subject.Record, error) {
	const q = `
		INSERT INTO subjects (user_id, name, color, schedule, classroom, teacher)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name, color, schedule, classroom, teacher`

	var created subject.Record
	err := repo.db.GetContext(ctx, &created, q, owner, rec.Name, rec.Color, rec.Schedule, rec.Classroom, rec.Teacher)
	if err != nil {
		return subject.Record{}, errors.Wrap(err, "inserting subject")
	}
	return created, nil
}

func (repo *subjectRepository) UpdateSubject(ctx context.Context, owner string, rec subject.Record) error {
	const q = `
		UPDATE subjects
		SET name = $1, color = $2, schedule = $3, classroom = $4, teacher = $5, updated_at = now()
		WHERE id = $6 AND user_id = $7`

	if _, err := repo.db.ExecContext(ctx, q, rec.Name, rec.Color, rec.Schedule, rec.Classroom, rec.Teacher, rec.ID, owner); err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return nil
}

func (repo *subjectRepository) DeleteSubject(ctx context.Context, owner, id string) error {
	// dependent notes cascade via the notes.subject_id FK
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1 AND user_id = $2`, id, owner); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return nil
}
