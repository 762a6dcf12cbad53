// Package sqlxrepos implements the remote persistence contracts against a
// directly-reachable Postgres, for self-hosted deployments that skip the
// hosted REST backend.
package sqlxrepos

import (
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/kipiapp/kipi/core"
)

func Open(conf *core.Config) (*sqlx.DB, error) {
	sslMode := "require"
	if conf.Remote.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Remote.Engine,
		User:     url.UserPassword(conf.Remote.User, conf.Remote.Password),
		Host:     conf.Remote.Address,
		Path:     conf.Remote.Name,
		RawQuery: q.Encode(),
	}

	db, err := sqlx.Open(conf.Remote.Engine, u.String())
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(db); err != nil {
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}
