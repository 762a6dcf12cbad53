package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/kipiapp/kipi/core/subject"
)

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

type subjectRepository struct {
	db *subjectTable
}

func NewSubjectRepository(db *DB) subject.Repository {
	return &subjectRepository{db: db.subjects}
}

func (repo *subjectRepository) SelectSubjects(_ context.Context, owner string) ([]subject.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]subject.Record, 0)
	for _, id := range repo.db.order {
		if row, ok := repo.db.rows[id]; ok && row.owner == owner {
			recs = append(recs, row.rec)
		}
	}
	return recs, nil
}

func (repo *subjectRepository) InsertSubject(_ context.Context, owner string, rec subject.Record) (subject.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec.ID = uuid.New().String()
	repo.db.rows[rec.ID] = &subjectRow{owner: owner, rec: rec}
	repo.db.order = append(repo.db.order, rec.ID)
	return rec, nil
}

func (repo *subjectRepository) UpdateSubject(_ context.Context, owner string, rec subject.Record) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if row, ok := repo.db.rows[rec.ID]; ok && row.owner == owner {
		row.rec = rec
		return nil
	}
	return subject.ErrNotFound
}

func (repo *subjectRepository) DeleteSubject(_ context.Context, owner, id string) error {
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
	return subject.ErrNotFound
}
