// Package inmemdb is a map-backed stand-in for the remote persistence
// backend, used by tests and dev mode.
package inmemdb

import (
	"sync"

	"github.com/kipiapp/kipi/core/note"
	"github.com/kipiapp/kipi/core/subject"
)

type (
	DB struct {
		subjects *subjectTable
		notes    *noteTable
	}

	subjectTable struct {
		sync.RWMutex
		rows  map[string]*subjectRow
		order []string // insertion order, like a created_at sort
	}

	noteTable struct {
		sync.RWMutex
		rows  map[string]*noteRow
		order []string
	}

	subjectRow struct {
		owner string
		rec   subject.Record
	}

	noteRow struct {
		owner string
		rec   note.Record
	}
)

func Open() *DB {
	return &DB{
		subjects: &subjectTable{rows: make(map[string]*subjectRow)},
		notes:    &noteTable{rows: make(map[string]*noteRow)},
	}
}
