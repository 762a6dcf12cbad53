package restdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kipiapp/kipi/core"
	"github.com/kipiapp/kipi/core/subject"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	conf := &core.Config{}
	conf.Remote.URL = srv.URL
	conf.Remote.APIKey = "anon-key"
	conf.Remote.Timeout = 5 * time.Second
	return NewClient(conf, nil), srv
}

func TestSelectSubjectsScopesToOwner(t *testing.T) {
	var gotReq *http.Request
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		json.NewEncoder(w).Encode([]subject.Record{{ID: "s1", Name: "Math"}})
	}))
	defer srv.Close()

	recs, err := NewSubjectRepository(c).SelectSubjects(context.Background(), "student1")
	if err != nil {
		t.Fatalf("SelectSubjects() error = %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "s1" {
		t.Errorf("SelectSubjects() = %v", recs)
	}

	if gotReq.URL.Path != "/subjects" {
		t.Errorf("path = %q, want /subjects", gotReq.URL.Path)
	}
	q := gotReq.URL.Query()
	if got := q.Get("user_id"); got != "eq.student1" {
		t.Errorf("user_id filter = %q, want eq.student1", got)
	}
	if got := q.Get("order"); got != "created_at.asc" {
		t.Errorf("order = %q, want created_at.asc", got)
	}
	if got := gotReq.Header.Get("apikey"); got != "anon-key" {
		t.Errorf("apikey header = %q", got)
	}
	if got := gotReq.Header.Get("Authorization"); got != "Bearer anon-key" {
		t.Errorf("authorization header = %q", got)
	}
}

func TestInsertSubjectReturnsRepresentation(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Prefer"); got != "return=representation" {
			t.Errorf("Prefer header = %q", got)
		}
		var row subjectRow
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			t.Fatalf("decoding row: %v", err)
		}
		if row.UserID != "student1" {
			t.Errorf("user_id column = %q, want student1", row.UserID)
		}
		row.ID = "srv-1"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode([]subject.Record{row.Record})
	}))
	defer srv.Close()

	rec, err := NewSubjectRepository(c).InsertSubject(context.Background(), "student1", subject.Record{Name: "Math"})
	if err != nil {
		t.Fatalf("InsertSubject() error = %v", err)
	}
	if rec.ID != "srv-1" || rec.Name != "Math" {
		t.Errorf("InsertSubject() = %+v", rec)
	}
}

func TestUpdateSubjectFiltersByIDAndOwner(t *testing.T) {
	var gotQuery map[string][]string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		gotQuery = r.URL.Query()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewSubjectRepository(c).UpdateSubject(context.Background(), "student1", subject.Record{ID: "s1", Name: "Math II"})
	if err != nil {
		t.Fatalf("UpdateSubject() error = %v", err)
	}
	if got := gotQuery["id"]; len(got) != 1 || got[0] != "eq.s1" {
		t.Errorf("id filter = %v, want [eq.s1]", got)
	}
	if got := gotQuery["user_id"]; len(got) != 1 || got[0] != "eq.student1" {
		t.Errorf("user_id filter = %v, want [eq.student1]", got)
	}
}

func TestDeleteNoteScopesToOwner(t *testing.T) {
	var gotQuery map[string][]string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		gotQuery = r.URL.Query()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := NewNoteRepository(c).DeleteNote(context.Background(), "student1", "n1"); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}
	if got := gotQuery["id"]; len(got) != 1 || got[0] != "eq.n1" {
		t.Errorf("id filter = %v, want [eq.n1]", got)
	}
	if got := gotQuery["user_id"]; len(got) != 1 || got[0] != "eq.student1" {
		t.Errorf("user_id filter = %v, want [eq.student1]", got)
	}
}

func TestRemoteErrorEnvelope(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"message": "duplicate key value"})
	}))
	defer srv.Close()

	_, err := NewNoteRepository(c).SelectNotes(context.Background(), "student1")
	if err == nil {
		t.Fatal("SelectNotes() error = nil, want remote error")
	}
	if want := "duplicate key value"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want it to mention %q", err, want)
	}
}
