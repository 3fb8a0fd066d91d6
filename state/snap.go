package state

import (
	"github.com/jellydator/ttlcache/v3"
	"github.com/rotblauer/rund/events"
	"github.com/rotblauer/rund/params"
	"go.etcd.io/bbolt"
)

var trackerStateKey = []byte("state")

// StoreTrackerState persists a tracker StateSnapshot so a live session can
// be resumed after a process restart.
func (s *Store) StoreTrackerState(snapshot []byte) error {
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(params.TrackerStateBucket)
		if err != nil {
			return err
		}
		return b.Put(trackerStateKey, snapshot)
	})
}

// TrackerState returns the stored snapshot, or nil if none.
func (s *Store) TrackerState() ([]byte, error) {
	var out []byte
	err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(params.TrackerStateBucket)
		if b == nil {
			return nil
		}
		if v := b.Get(trackerStateKey); v != nil {
			out = append([]byte{}, v...)
		}
		return nil
	})
	return out, err
}

// ClearTrackerState drops the stored snapshot, after a clean session end.
func (s *Store) ClearTrackerState() error {
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(params.TrackerStateBucket)
		if b == nil {
			return nil
		}
		return b.Delete(trackerStateKey)
	})
}

// SetLastKnown caches the most recent live snapshot.
func (s *Store) SetLastKnown(snap events.Snapshot) {
	s.lastKnown.Set("last", snap, ttlcache.DefaultTTL)
}

// LastKnown returns the cached live snapshot, if any.
func (s *Store) LastKnown() (events.Snapshot, bool) {
	item := s.lastKnown.Get("last")
	if item == nil {
		return events.Snapshot{}, false
	}
	return item.Value(), true
}
