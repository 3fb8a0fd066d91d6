// Package state owns the durable bits: the finalized-session store and
// the restart-safe tracker snapshot, both in one bbolt database under the
// datadir. The store handle is constructed explicitly and injected where
// needed; there is no process-wide singleton.
package state

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rotblauer/rund/events"
	"github.com/rotblauer/rund/params"
	"github.com/rotblauer/rund/types/session"
	"go.etcd.io/bbolt"
)

// Store is the session persistence collaborator. Inserts are atomic bbolt
// transactions and IDs come from the bucket sequence, so concurrent
// finalizations cannot race on an id. Opening writable takes the bbolt
// file lock, which is the one-true-writer guarantee.
type Store struct {
	DB *bbolt.DB

	// lastKnown caches the most recent live snapshot for cheap reads
	// by the web daemon.
	lastKnown *ttlcache.Cache[string, events.Snapshot]
	rOnly     bool
}

// Open opens (creating as needed) the store under datadir.
func Open(datadir string, readOnly bool) (*Store, error) {
	if err := os.MkdirAll(datadir, 0770); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(filepath.Join(datadir, params.SessionsDBName),
		0600, &bbolt.Options{ReadOnly: readOnly})
	if err != nil {
		return nil, err
	}
	return &Store{
		DB: db,
		lastKnown: ttlcache.New[string, events.Snapshot](
			ttlcache.WithTTL[string, events.Snapshot](params.CacheLastKnownTTL)),
		rOnly: readOnly,
	}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// InsertSession persists a finalized session and assigns its ID.
func (s *Store) InsertSession(sess *session.Session) error {
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(params.SessionsBucket)
		if err != nil {
			return err
		}
		id, err := b.NextSequence()
		if err != nil {
			return err
		}
		sess.ID = id
		encoded, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("session marshal: %w", err)
		}
		return b.Put(itob(id), encoded)
	})
}

// SessionsBetween returns sessions whose StartTime lies in [start, end],
// both ends inclusive, in insertion order.
func (s *Store) SessionsBetween(start, end int64) ([]*session.Session, error) {
	out := []*session.Session{}
	err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(params.SessionsBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			sess := &session.Session{}
			if err := json.Unmarshal(v, sess); err != nil {
				return fmt.Errorf("session unmarshal: %w", err)
			}
			if sess.StartTime >= start && sess.StartTime <= end {
				out = append(out, sess)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Session returns one session by id, or nil if absent.
func (s *Store) Session(id uint64) (*session.Session, error) {
	var sess *session.Session
	err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(params.SessionsBucket)
		if b == nil {
			return nil
		}
		v := b.Get(itob(id))
		if v == nil {
			return nil
		}
		sess = &session.Session{}
		return json.Unmarshal(v, sess)
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// CorrectActivityType is the one permitted mutation of a stored session.
func (s *Store) CorrectActivityType(id uint64, activityType string) error {
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(params.SessionsBucket)
		if b == nil {
			return fmt.Errorf("no sessions bucket")
		}
		v := b.Get(itob(id))
		if v == nil {
			return fmt.Errorf("no session %d", id)
		}
		sess := &session.Session{}
		if err := json.Unmarshal(v, sess); err != nil {
			return err
		}
		sess.ActivityType = activityType
		encoded, err := json.Marshal(sess)
		if err != nil {
			return err
		}
		return b.Put(itob(id), encoded)
	})
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
