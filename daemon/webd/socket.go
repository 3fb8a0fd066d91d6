package webd

import (
	"encoding/json"
	"log/slog"

	"github.com/olahol/melody"
	"github.com/rotblauer/rund/events"
	"github.com/rotblauer/rund/types/session"
)

// initMelody sets up the websocket handler.
func (s *WebDaemon) initMelody() {
	s.melodyInstance = melody.New()
	s.melodyInstance.HandleConnect(func(session *melody.Session) {
		s.logger.Debug("Websocket connected", "remote", session.Request.RemoteAddr)
		// Welcome the client with the last-known snapshot, if any.
		if snap, ok := s.store.LastKnown(); ok {
			if data, err := json.Marshal(snap); err == nil {
				_ = session.Write(data)
			}
		}
	})
	s.melodyInstance.HandleDisconnect(func(session *melody.Session) {
		s.logger.Debug("Websocket disconnected", "remote", session.Request.RemoteAddr)
	})
	s.melodyInstance.HandleError(func(session *melody.Session, err error) {
		s.logger.Warn("Websocket error", "error", err)
	})

	// Broadcast live session snapshots to all connected clients.
	go func() {
		snaps := make(chan events.Snapshot)
		sub := events.SnapshotFeed.Subscribe(snaps)
		defer sub.Unsubscribe()
		for {
			select {
			case snap := <-snaps:
				s.store.SetLastKnown(snap)
				data, err := json.Marshal(snap)
				if err != nil {
					slog.Error("Failed to marshal snapshot", "error", err)
					continue
				}
				if err := s.melodyInstance.Broadcast(data); err != nil {
					s.logger.Warn("Failed to broadcast snapshot", "error", err)
				}
			case err := <-sub.Err():
				s.logger.Error("Snapshot feed error", "error", err)
				return
			}
		}
	}()

	// Purge the weekly cache when new sessions land.
	go func() {
		finalized := make(chan *session.Session)
		sub := events.SessionFinalizedFeed.Subscribe(finalized)
		defer sub.Unsubscribe()
		for {
			select {
			case sess := <-finalized:
				s.weeklyCache.Purge()
				s.logger.Debug("Session finalized, weekly cache purged", "session", sess.ID)
			case err := <-sub.Err():
				s.logger.Error("Session feed error", "error", err)
				return
			}
		}
	}()
}
