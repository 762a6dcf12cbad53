// Package cache persists HTTP responses across restarts so the gateway can
// answer while the network is down. Caches are named; each name maps to one
// bbolt bucket and carries a version suffix, so dropping stale versions is
// just deleting every bucket whose name is not current.
package cache

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

// Response is the cached shape of an HTTP response.
type Response struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

type DB struct {
	db *bbolt.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "creating cache dir")
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "opening cache")
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Put stores one response under the given cache name, overwriting any
// previous entry for the key.
func (d *DB) Put(name, key string, resp Response) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(name))
		if err != nil {
			return err
		}
		data, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

// PutAll stores every entry in a single transaction: either the whole set
// lands or none of it does.
func (d *DB) PutAll(name string, entries map[string]Response) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(name))
		if err != nil {
			return err
		}
		for key, resp := range entries {
			data, err := json.Marshal(resp)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(key), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Match looks up the exact key in the named cache.
func (d *DB) Match(name, key string) (Response, bool, error) {
	var resp Response
	var found bool
	err := d.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(name))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &resp); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return Response{}, false, errors.Wrapf(err, "matching %q in cache %q", key, name)
	}
	return resp, found, nil
}

// Names lists every cache currently held.
func (d *DB) Names() ([]string, error) {
	var names []string
	err := d.db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing caches")
	}
	return names, nil
}

// Delete drops a whole named cache. Deleting a cache that does not exist is
// not an error.
func (d *DB) Delete(name string) error {
	err := d.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(name)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(name))
	})
	if err != nil {
		return errors.Wrapf(err, "deleting cache %q", name)
	}
	return nil
}
