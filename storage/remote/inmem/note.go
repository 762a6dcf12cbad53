package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/kipiapp/kipi/core/note"
)

var _ note.Repository = (*noteRepository)(nil) // interface compliance check

type noteRepository struct {
	db *noteTable
}

func NewNoteRepository(db *DB) note.Repository {
	return &noteRepository{db: db.notes}
}

func (repo *noteRepository) SelectNotes(_ context.Context, owner string) ([]note.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]note.Record, 0)
	for _, id := range repo.db.order {
		if row, ok := repo.db.rows[id]; ok && row.owner == owner {
			recs = append(recs, row.rec)
		}
	}
	return recs, nil
}

func (repo *noteRepository) InsertNote(_ context.Context, owner string, rec note.Record) (note.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec.ID = uuid.New().String()
	repo.db.rows[rec.ID] = &noteRow{owner: owner, rec: rec}
	repo.db.order = append(repo.db.order, rec.ID)
	return rec, nil
}

func (repo *noteRepository) UpdateNote(_ context.Context, owner string, rec note.Record) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if row, ok := repo.db.rows[rec.ID]; ok && row.owner == owner {
		row.rec = rec
		return nil
	}
	return note.ErrNotFound
}

func (repo *noteRepository) DeleteNote(_ context.Context, owner, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if row, ok := repo.db.rows[id]; ok && row.owner == owner {
		delete(repo.db.rows, id)
		for i, oid := range repo.db.order {
			if oid == id {
				repo.db.order = append(repo.db.order[:i], repo.db.order[i+1:]...)
				break
			}
		}
		return nil
	}
	return note.ErrNotFound
}
