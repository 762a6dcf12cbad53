package restdb

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/kipiapp/kipi/core/note"
)

var _ note.Repository = (*noteRepository)(nil) // interface compliance check

type noteRepository struct {
	c *Client
}

func NewNoteRepository(c *Client) note.Repository {
	return &noteRepository{c: c}
}

// noteRow adds the owner column to the wire shape of a note.
type noteRow struct {
	note.Record
	UserID string `json:"user_id"`
}

func (repo *noteRepository) SelectNotes(ctx context.Context, owner string) ([]note.Record, error) {
	q := ownerFilter(owner)
	q.Set("select", "*")
	q.Set("order", "created_at.asc")

	req, err := repo.c.newRequest(ctx, http.MethodGet, "notes", q, nil)
	if err != nil {
		return nil, err
	}

	var rows []note.Record
	if err := repo.c.do(req, &rows); err != nil {
		return nil, errors.Wrap(err, "selecting notes")
	}
	return rows, nil
}

func (repo *noteRepository) InsertNote(ctx context.Context, owner string, rec note.Record) (note.Record, error) {
	req, err := repo.c.newRequest(ctx, http.MethodPost, "notes", nil, noteRow{Record: rec, UserID: owner})
	if err != nil {
		return note.Record{}, err
	}
	req.Header.Set("Prefer", "return=representation")

	var rows []note.Record
	if err := repo.c.do(req, &rows); err != nil {
		return note.Record{}, errors.Wrap(err, "inserting note")
	}
	if len(rows) == 0 {
		return note.Record{}, errors.New("inserting note: no row returned")
	}
	return rows[0], nil
}

func (repo *noteRepository) UpdateNote(ctx context.Context, owner string, rec note.Record) error {
	q := ownerFilter(owner)
	q.Set("id", "eq."+rec.ID)

	req, err := repo.c.newRequest(ctx, http.MethodPatch, "notes", q, rec)
	if err != nil {
		return err
	}
	if err := repo.c.do(req, nil); err != nil {
		return errors.Wrap(err, "updating note")
	}
	return nil
}

func (repo *noteRepository) DeleteNote(ctx context.Context, owner, id string) error {
	q := ownerFilter(owner)
	q.Set("id", "eq."+id)

	req, err := repo.c.newRequest(ctx, http.MethodDelete, "notes", q, nil)
	if err != nil {
		return err
	}
	if err := repo.c.do(req, nil); err != nil {
		return errors.Wrap(err, "deleting note")
	}
	return nil
}
