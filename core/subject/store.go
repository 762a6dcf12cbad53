package subject

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/kipiapp/kipi/core"
	"github.com/kipiapp/kipi/core/session"
)

var (
	// errors
	ErrNotFound = errors.New("subject not found")
)

type (
	Repository interface {
		SelectSubjects(ctx context.Context, owner string) ([]Record, error)
		InsertSubject(ctx context.Context, owner string, rec Record) (Record, error)
		// UpdateSubject filters by both record id and owner so one identity
		// can never mutate another's rows.
		UpdateSubject(ctx context.Context, owner string, rec Record) error
		DeleteSubject(ctx context.Context, owner, id string) error
	}

	// Store owns the authoritative in-memory list of subjects for the
	// current identity and mediates all remote reads/writes. The list is a
	// projection of "all rows owned by the current identity" as last
	// observed remotely; it offers read-your-own-last-write and nothing
	// stronger.
	Store struct {
		repo     Repository
		sess     *session.Provider
		logger   core.Logger
		notifier core.Notifier

		mu       sync.RWMutex
		subjects []Subject
		subs     []func()
	}
)

// NewStore wires a store to its collaborators and subscribes it to session
// transitions: identity attached -> full load, identity cleared -> empty.
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

// Load fetches all subjects owned by the current identity, replacing the
// in-memory list wholesale. A remote failure keeps whatever state was already
// loaded (fail soft, stay stale) and surfaces a notification; nothing awaits
// a load, so the error is not re-raised.
func (s *Store) Load(ctx context.Context) {
	owner := s.sess.Current()
	if owner == session.None {
		s.clear()
		return
	}

	recs, err := s.repo.SelectSubjects(ctx, string(owner))
	if err != nil {
		s.logger.Error("loading subjects", errors.Wrap(err, "loading subjects"))
		s.notifier.Error("Could not load your subjects. Showing the last known data.")
		return
	}

	subjects := make([]Subject, 0, len(recs))
	for _, rec := range recs {
		subjects = append(subjects, s.fromRecord(rec))
	}

	s.mu.Lock()
	s.subjects = subjects
	s.mu.Unlock()
	s.changed()
}

// Add persists a new subject and, on success, appends the server-assigned
// record to local state. On failure local state is untouched and the error is
// re-raised so calling code can keep its dialog open.
func (s *Store) Add(ctx context.Context, ns NewSubject) (Subject, error) {
	owner := s.sess.Current()
	if owner == session.None {
		return Subject{}, session.ErrNoIdentity
	}

	raw, err := EncodeSchedule(ns.Schedule)
	if err != nil {
		return Subject{}, errors.Wrap(err, "encoding schedule")
	}
	rec := Record{
		Name:      ns.Name,
		Color:     ns.Color,
		Schedule:  raw,
		Classroom: ns.Classroom,
		Teacher:   ns.Teacher,
	}

	created, err := s.repo.InsertSubject(ctx, string(owner), rec)
	if err != nil {
		s.logger.Error("adding subject", errors.Wrap(err, "adding subject"))
		s.notifier.Error("Could not save the subject.")
		return Subject{}, err
	}

	subj := s.fromRecord(created)
	s.mu.Lock()
	s.subjects = append(s.subjects, subj)
	s.mu.Unlock()
	s.changed()
	return subj, nil
}

// Update resends every editable field of an existing subject and replaces the
// matching local entry in place, preserving order.
func (s *Store) Update(ctx context.Context, id string, us UpdateSubject) (Subject, error) {
	owner := s.sess.Current()
	if owner == session.None {
		return Subject{}, session.ErrNoIdentity
	}

	raw, err := EncodeSchedule(us.Schedule)
	if err != nil {
		return Subject{}, errors.Wrap(err, "encoding schedule")
	}
	rec := Record{
		ID:        id,
		Name:      us.Name,
		Color:     us.Color,
		Schedule:  raw,
		Classroom: us.Classroom,
		Teacher:   us.Teacher,
	}

	if err := s.repo.UpdateSubject(ctx, string(owner), rec); err != nil {
		s.logger.Error("updating subject", errors.Wrap(err, "updating subject"))
		s.notifier.Error("Could not update the subject.")
		return Subject{}, err
	}

	subj := s.fromRecord(rec)
	s.mu.Lock()
	for i := range s.subjects {
		if s.subjects[i].ID == id {
			s.subjects[i] = subj
			break
		}
	}
	s.mu.Unlock()
	s.changed()
	return subj, nil
}

// Delete removes a subject remotely then locally, preserving the order of the
// remaining entries. Notes referencing the subject are not pruned here; they
// stay until the note store's next load.
func (s *Store) Delete(ctx context.Context, id string) error {
	owner := s.sess.Current()
	if owner == session.None {
		return session.ErrNoIdentity
	}

	if err := s.repo.DeleteSubject(ctx, string(owner), id); err != nil {
		s.logger.Error("deleting subject", errors.Wrap(err, "deleting subject"))
		s.notifier.Error("Could not delete the subject.")
		return err
	}

	s.mu.Lock()
	for i := range s.subjects {
		if s.subjects[i].ID == id {
			s.subjects = append(s.subjects[:i], s.subjects[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.changed()
	return nil
}

// GetByID is a pure lookup in current state; it never fetches remotely.
func (s *Store) GetByID(id string) (Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, subj := range s.subjects {
		if subj.ID == id {
			return subj, nil
		}
	}
	return Subject{}, ErrNotFound
}

// Snapshot returns a copy of the current list in load/insertion order.
func (s *Store) Snapshot() []Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Subject, len(s.subjects))
	copy(out, s.subjects)
	return out
}

// Subscribe registers fn to run after every state change. Consumers re-pull a
// Snapshot on notification.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) clear() {
	s.mu.Lock()
	s.subjects = nil
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

// fromRecord maps a remote row to the structured Subject. A row with an
// unparsable schedule becomes a subject with no displayed schedule; the load
// must never crash on bad data.
func (s *Store) fromRecord(rec Record) Subject {
	sched, err := DecodeSchedule(rec.Schedule)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("subject %s: malformed schedule, defaulting to empty", rec.ID), err)
		sched = []Schedule{}
	}
	return Subject{
		ID:        rec.ID,
		Name:      rec.Name,
		Color:     rec.Color,
		Schedule:  sched,
		Classroom: rec.Classroom,
		Teacher:   rec.Teacher,
	}
}
