package note

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/kipiapp/kipi/core"
	"github.com/kipiapp/kipi/core/session"
)

var (
	// errors
	ErrNotFound = errors.New("note not found")
)

type (
	Repository interface {
		SelectNotes(ctx context.Context, owner string) ([]Record, error)
		InsertNote(ctx context.Context, owner string, rec Record) (Record, error)
		// UpdateNote filters by both record id and owner so one identity can
		// never mutate another's rows.
		UpdateNote(ctx context.Context, owner string, rec Record) error
		DeleteNote(ctx context.Context, owner, id string) error
	}

	// Store owns the authoritative in-memory list of notes for the current
	// identity, mirroring the subject store's contract. Notes keep their
	// load/insertion order; the presentation layer sorts by date.
	Store struct {
		repo     Repository
		sess     *session.Provider
		logger   core.Logger
		notifier core.Notifier

		mu    sync.RWMutex
		notes []Note
		subs  []func()
	}
)

func NewStore(repo Repository, sess *session.Provider, logger core.Logger, notifier core.Notifier) *Store {
	s := &Store{
		repo:     repo,
		sess:     sess,
		logger:   logger,
		notifier: notifier,
	}
	sess.Subscribe(func(id session.Identity) {
		if id == session.None {
			s.clear()
			return
		}
		s.Load(context.Background())
	})
	return s
}

// Load fetches all notes owned by the current identity, replacing the
// in-memory list wholesale. A remote failure keeps the stale state, surfaces
// a notification and is not re-raised.
func (s *Store) Load(ctx context.Context) {
	owner := s.sess.Current()
	if owner == session.None {
		s.clear()
		return
	}

	recs, err := s.repo.SelectNotes(ctx, string(owner))
	if err != nil {
		s.logger.Error("loading notes", errors.Wrap(err, "loading notes"))
		s.notifier.Error("Could not load your notes. Showing the last known data.")
		return
	}

	notes := make([]Note, 0, len(recs))
	for _, rec := range recs {
		notes = append(notes, fromRecord(rec))
	}

	s.mu.Lock()
	s.notes = notes
	s.mu.Unlock()
	s.changed()
}

// Add persists a new note and, on success, appends the server-assigned record
// to local state. On failure local state is untouched and the error re-raised.
func (s *Store) Add(ctx context.Context, nn NewNote) (Note, error) {
	owner := s.sess.Current()
	if owner == session.None {
		return Note{}, session.ErrNoIdentity
	}

	created, err := s.repo.InsertNote(ctx, string(owner), Record{
		SubjectID:  nn.SubjectID,
		Title:      nn.Title,
		Date:       nn.Date,
		Cues:       nn.Cues,
		Notes:      nn.Notes,
		Summary:    nn.Summary,
		Attendance: nn.Attendance,
	})
	if err != nil {
		s.logger.Error("adding note", errors.Wrap(err, "adding note"))
		s.notifier.Error("Could not save the note.")
		return Note{}, err
	}

	n := fromRecord(created)
	s.mu.Lock()
	s.notes = append(s.notes, n)
	s.mu.Unlock()
	s.changed()
	return n, nil
}

// Update resends every editable field of an existing note and replaces the
// matching local entry in place, preserving order.
func (s *Store) Update(ctx context.Context, id string, un UpdateNote) (Note, error) {
	owner := s.sess.Current()
	if owner == session.None {
		return Note{}, session.ErrNoIdentity
	}

	rec := Record{
		ID:         id,
		SubjectID:  un.SubjectID,
		Title:      un.Title,
		Date:       un.Date,
		Cues:       un.Cues,
		Notes:      un.Notes,
		Summary:    un.Summary,
		Attendance: un.Attendance,
	}
	if err := s.repo.UpdateNote(ctx, string(owner), rec); err != nil {
		s.logger.Error("updating note", errors.Wrap(err, "updating note"))
		s.notifier.Error("Could not update the note.")
		return Note{}, err
	}

	n := fromRecord(rec)
	s.mu.Lock()
	for i := range s.notes {
		if s.notes[i].ID == id {
			s.notes[i] = n
			break
		}
	}
	s.mu.Unlock()
	s.changed()
	return n, nil
}

// Delete removes a note remotely then locally, preserving the order of the
// remaining entries.
func (s *Store) Delete(ctx context.Context, id string) error {
	owner := s.sess.Current()
	if owner == session.None {
		return session.ErrNoIdentity
	}

	if err := s.repo.DeleteNote(ctx, string(owner), id); err != nil {
		s.logger.Error("deleting note", errors.Wrap(err, "deleting note"))
		s.notifier.Error("Could not delete the note.")
		return err
	}

	s.mu.Lock()
	for i := range s.notes {
		if s.notes[i].ID == id {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.changed()
	return nil
}

// GetByID is a pure lookup in current state; it never fetches remotely.
func (s *Store) GetByID(id string) (Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.notes {
		if n.ID == id {
			return n, nil
		}
	}
	return Note{}, ErrNotFound
}

// BySubject filters the current state for one subject's notes. A subject with
// zero notes yields an empty slice, never an error.
func (s *Store) BySubject(subjectID string) []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Note, 0)
	for _, n := range s.notes {
		if n.SubjectID == subjectID {
			out = append(out, n)
		}
	}
	return out
}

// Snapshot returns a copy of the current list in load/insertion order.
func (s *Store) Snapshot() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Note, len(s.notes))
	copy(out, s.notes)
	return out
}

// Subscribe registers fn to run after every state change.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) clear() {
	s.mu.Lock()
	s.notes = nil
	s.mu.Unlock()
	s.changed()
}

func (s *Store) changed() {
	s.mu.RLock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()

	for _, fn := range subs {
		fn()
	}
}

// fromRecord maps a remote row to a Note. Absent optional text fields are
// already the empty string by construction; this is where that stays true if
// the row type ever grows nullable columns.
func fromRecord(rec Record) Note {
	return Note{
		ID:         rec.ID,
		SubjectID:  rec.SubjectID,
		Title:      rec.Title,
		Date:       rec.Date,
		Cues:       rec.Cues,
		Notes:      rec.Notes,
		Summary:    rec.Summary,
		Attendance: rec.Attendance,
	}
}
