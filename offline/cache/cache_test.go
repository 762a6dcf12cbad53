package cache

import (
	"net/http"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

func open(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPutMatch(t *testing.T) {
	db := open(t)

	want := Response{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": []string{"text/html"}},
		Body:   []byte("<html>home</html>"),
	}
	if err := db.Put("kipi-v1", "GET https://kipi.app/", want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, found, err := db.Match("kipi-v1", "GET https://kipi.app/")
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if !found {
		t.Fatal("Match() found = false, want true")
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Match() = %+v, want %+v", got, want)
	}

	// overwrite
	want.Body = []byte("<html>home v2</html>")
	if err := db.Put("kipi-v1", "GET https://kipi.app/", want); err != nil {
		t.Fatalf("Put() overwrite error = %v", err)
	}
	got, _, _ = db.Match("kipi-v1", "GET https://kipi.app/")
	if string(got.Body) != "<html>home v2</html>" {
		t.Errorf("Match() body after overwrite = %q", got.Body)
	}
}

func TestMatchMisses(t *testing.T) {
	db := open(t)
	if err := db.Put("kipi-v1", "GET https://kipi.app/", Response{Status: 200}); err != nil {
		t.Fatal(err)
	}

	if _, found, err := db.Match("kipi-v1", "GET https://kipi.app/other"); err != nil || found {
		t.Errorf("Match(unknown key) = found %v, err %v; want miss", found, err)
	}
	if _, found, err := db.Match("kipi-v0", "GET https://kipi.app/"); err != nil || found {
		t.Errorf("Match(unknown cache) = found %v, err %v; want miss", found, err)
	}
}

func TestPutAll(t *testing.T) {
	db := open(t)

	entries := map[string]Response{
		"GET https://kipi.app/":            {Status: 200, Body: []byte("home")},
		"GET https://kipi.app/offline.html": {Status: 200, Body: []byte("offline")},
		"GET https://kipi.app/main.js":     {Status: 200, Body: []byte("js")},
	}
	if err := db.PutAll("kipi-v1", entries); err != nil {
		t.Fatalf("PutAll() error = %v", err)
	}
	for key := range entries {
		if _, found, _ := db.Match("kipi-v1", key); !found {
			t.Errorf("Match(%q) missing after PutAll", key)
		}
	}
}

func TestNamesAndDelete(t *testing.T) {
	db := open(t)
	if err := db.Put("kipi-v1", "k", Response{Status: 200}); err != nil {
		t.Fatal(err)
	}
	if err := db.Put("kipi-v2", "k", Response{Status: 200}); err != nil {
		t.Fatal(err)
	}

	names, err := db.Names()
	if err != nil {
		t.Fatalf("Names() error = %v", err)
	}
	sort.Strings(names)
	if !reflect.DeepEqual(names, []string{"kipi-v1", "kipi-v2"}) {
		t.Errorf("Names() = %v", names)
	}

	if err := db.Delete("kipi-v1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, _ := db.Match("kipi-v1", "k"); found {
		t.Error("Match() found entry in deleted cache")
	}
	if _, found, _ := db.Match("kipi-v2", "k"); !found {
		t.Error("Delete() removed the wrong cache")
	}

	// deleting a missing cache is a no-op
	if err := db.Delete("kipi-v0"); err != nil {
		t.Errorf("Delete(missing) error = %v, want nil", err)
	}
}
