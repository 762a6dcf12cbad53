package restdb

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/kipiapp/kipi/core/subject"
)

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

type subjectRepository struct {
	c *Client
}

func NewSubjectRepository(c *Client) subject.Repository {
	return &subjectRepository{c: c}
}

// subjectRow adds the owner column to the wire shape of a subject.
type subjectRow struct {
	subject.Record
	UserID string `json:"user_id"`
}

func (repo *subjectRepository) SelectSubjects(ctx context.Context, owner string) ([]subject.Record, error) {
	q := ownerFilter(owner)
	q.Set("select", "*")
	q.Set("order", "created_at.asc")

	req, err := repo.c.newRequest(ctx, http.MethodGet, "subjects", q, nil)
	if err != nil {
		return nil, err
	}

	var rows []subject.Record
	if err := repo.c.do(req, &rows); err != nil {
		return nil, errors.Wrap(err, "selecting subjects")
	}
	return rows, nil
}

func (repo *subjectRepository) InsertSubject(ctx context.Context, owner string, rec subject.Record) (subject.Record, error) {
	req, err := repo.c.newRequest(ctx, http.MethodPost, "subjects", nil, subjectRow{Record: rec, UserID: owner})
	if err != nil {
		return subject.Record{}, err
	}
	req.Header.Set("Prefer", "return=representation")

	var rows []subject.Record
	if err := repo.c.do(req, &rows); err != nil {
		return subject.Record{}, errors.Wrap(err, "inserting subject")
	}
	if len(rows) == 0 {
		return subject.Record{}, errors.New("inserting subject: no row returned")
	}
	return rows[0], nil
}

func (repo *subjectRepository) UpdateSubject(ctx context.Context, owner string, rec subject.Record) error {
	q := ownerFilter(owner)
	q.Set("id", "eq."+rec.ID)

	req, err := repo.c.newRequest(ctx, http.MethodPatch, "subjects", q, rec)
	if err != nil {
		return err
	}
	if err := repo.c.do(req, nil); err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return nil
}

func (repo *subjectRepository) DeleteSubject(ctx context.Context, owner, id string) error {
	q := ownerFilter(owner)
	q.Set("id", "eq."+id)

	req, err := repo.c.newRequest(ctx, http.MethodDelete, "subjects", q, nil)
	if err != nil {
		return err
	}
	if err := repo.c.do(req, nil); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return nil
}
