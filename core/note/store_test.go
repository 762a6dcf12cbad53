package note

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/pkg/errors"

	"github.com/kipiapp/kipi/core"
	"github.com/kipiapp/kipi/core/session"
	logsvc "github.com/kipiapp/kipi/services/logger"
	notifysvc "github.com/kipiapp/kipi/services/notify"
)

var errRemoteDown = errors.New("remote store unreachable")

// fakeRepo scripts the remote persistence backend.
type fakeRepo struct {
	recs    []Record
	nextID  int
	failing bool
}

var _ Repository = (*fakeRepo)(nil)

func (r *fakeRepo) SelectNotes(_ context.Context, _ string) ([]Record, error) {
	if r.failing {
		return nil, errRemoteDown
	}
	out := make([]Record, len(r.recs))
	copy(out, r.recs)
	return out, nil
}

func (r *fakeRepo) InsertNote(_ context.Context, _ string, rec Record) (Record, error) {
	if r.failing {
		return Record{}, errRemoteDown
	}
	r.nextID++
	rec.ID = fmt.Sprintf("srv-%d", r.nextID)
	r.recs = append(r.recs, rec)
	return rec, nil
}

func (r *fakeRepo) UpdateNote(_ context.Context, _ string, rec Record) error {
	if r.failing {
		return errRemoteDown
	}
	for i := range r.recs {
		if r.recs[i].ID == rec.ID {
			r.recs[i] = rec
		}
	}
	return nil
}

func (r *fakeRepo) DeleteNote(_ context.Context, _, id string) error {
	if r.failing {
		return errRemoteDown
	}
	for i := range r.recs {
		if r.recs[i].ID == id {
			r.recs = append(r.recs[:i], r.recs[i+1:]...)
			break
		}
	}
	return nil
}

func setup(t *testing.T, recs ...Record) (*Store, *fakeRepo, *session.Provider) {
	t.Helper()
	repo := &fakeRepo{recs: recs, nextID: len(recs)}
	sess := session.NewProvider(&core.Config{SecretKey: "secret"})
	store := NewStore(repo, sess, logsvc.NewNopLogger(), notifysvc.NewMock())
	sess.Attach("student1")
	return store, repo, sess
}

func TestStoreBySubject(t *testing.T) {
	store, _, _ := setup(t,
		Record{ID: "n1", SubjectID: "s1", Title: "Limits", Date: "2021-09-13"},
		Record{ID: "n2", SubjectID: "s2", Title: "WWI", Date: "2021-09-14"},
		Record{ID: "n3", SubjectID: "s1", Title: "Derivatives", Date: "2021-09-20"},
	)

	got := store.BySubject("s1")
	if len(got) != 2 {
		t.Fatalf("BySubject(s1) len = %d, want 2", len(got))
	}
	for _, n := range got {
		if n.SubjectID != "s1" {
			t.Errorf("BySubject(s1) returned note %q of subject %q", n.ID, n.SubjectID)
		}
	}

	// a subject with zero notes yields an empty slice, never nil or an error
	if got := store.BySubject("unknown"); got == nil || len(got) != 0 {
		t.Errorf("BySubject(unknown) = %v, want empty slice", got)
	}
}

func TestStoreAdd(t *testing.T) {
	store, _, _ := setup(t)

	n, err := store.Add(context.Background(), NewNote{
		SubjectID:  "s1",
		Title:      "Limits",
		Date:       "2021-09-13",
		Attendance: true,
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if n.ID != "srv-1" {
		t.Errorf("Add() id = %q, want the server-assigned %q", n.ID, "srv-1")
	}
	// optional sections stay concrete strings
	if n.Cues != "" || n.Notes != "" || n.Summary != "" {
		t.Errorf("optional fields = %q/%q/%q, want empty strings", n.Cues, n.Notes, n.Summary)
	}
	if got := store.Snapshot(); len(got) != 1 {
		t.Errorf("Snapshot() len = %d, want 1", len(got))
	}
}

func TestStoreMutationFailuresLeaveStateUntouched(t *testing.T) {
	store, repo, _ := setup(t, Record{ID: "n1", SubjectID: "s1", Title: "Limits", Date: "2021-09-13"})
	before := store.Snapshot()
	repo.failing = true

	if _, err := store.Add(context.Background(), NewNote{SubjectID: "s1", Title: "x", Date: "2021-09-14"}); errors.Cause(err) != errRemoteDown {
		t.Fatalf("Add() error = %v, want %v re-raised", err, errRemoteDown)
	}
	if _, err := store.Update(context.Background(), "n1", UpdateNote{SubjectID: "s1", Title: "y", Date: "2021-09-14"}); errors.Cause(err) != errRemoteDown {
		t.Fatalf("Update() error = %v, want %v re-raised", err, errRemoteDown)
	}
	if err := store.Delete(context.Background(), "n1"); errors.Cause(err) != errRemoteDown {
		t.Fatalf("Delete() error = %v, want %v re-raised", err, errRemoteDown)
	}

	if got := store.Snapshot(); !reflect.DeepEqual(got, before) {
		t.Errorf("Snapshot() = %v, want unchanged %v", got, before)
	}
}

func TestStoreSessionTransitions(t *testing.T) {
	store, _, sess := setup(t, Record{ID: "n1", SubjectID: "s1", Title: "Limits", Date: "2021-09-13"})

	if got := store.Snapshot(); len(got) != 1 {
		t.Fatalf("Snapshot() after login len = %d, want 1", len(got))
	}
	sess.Clear()
	if got := store.Snapshot(); len(got) != 0 {
		t.Errorf("Snapshot() after logout = %v, want empty", got)
	}
}

func TestStoreGetByID(t *testing.T) {
	store, _, _ := setup(t, Record{ID: "n1", SubjectID: "s1", Title: "Limits", Date: "2021-09-13"})

	if _, err := store.GetByID("n1"); err != nil {
		t.Errorf("GetByID(n1) error = %v", err)
	}
	if _, err := store.GetByID("nope"); err != ErrNotFound {
		t.Errorf("GetByID(nope) error = %v, want %v", err, ErrNotFound)
	}
}
