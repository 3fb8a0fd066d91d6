/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rotblauer/rund/events"
	"github.com/rotblauer/rund/geo/finalize"
	"github.com/rotblauer/rund/geo/tracker"
	"github.com/rotblauer/rund/metrics/influxdb"
	"github.com/rotblauer/rund/params"
	"github.com/rotblauer/rund/state"
	"github.com/rotblauer/rund/stream"
	"github.com/rotblauer/rund/types/fix"
	"github.com/rotblauer/rund/types/session"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var optTrackDatadir string
var optUserWeight int
var optSessionTimeout time.Duration

// trackCmd represents the track command
var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Track a live session from stdin location records",
	Long: `

Location records are read line by line from stdin and fed to a live
session tracker. A line is either a flat comma-delimited record or a
JSON object with the same fields; the two may be mixed freely.

The session starts on the first line and ends on EOF, interrupt, or the
idle timeout. Either way the accepted trace is finalized into a session
summary and persisted.

If a previous invocation was interrupted mid-session, the tracker state
is restored from disk and the session continues where it left off.

Examples:

  cat fixes.txt | rund track
  adb logcat -s gps | rund track --timeout 5m --weight 82
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		ctx, ctxCanceler := context.WithCancel(context.Background())
		defer ctxCanceler()
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt,
			os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT,
		)

		store, err := state.Open(optTrackDatadir, false)
		if err != nil {
			log.Fatalln(err)
		}
		defer store.Close()

		config := *params.DefaultTrackerConfig
		config.UserWeightKg = optUserWeight
		config.SessionTimeout = optSessionTimeout

		trk := resumeOrNewTracker(&config, store)

		// The finalize worker drains ended sessions. Traces are finalized
		// and persisted off the hot path; an empty trace is dropped
		// without a session record.
		endWG := new(sync.WaitGroup)
		endWG.Add(1)
		go func() {
			defer endWG.Done()
			ends := make(chan events.SessionEnd, 1)
			sub := events.SessionEndFeed.Subscribe(ends)
			defer sub.Unsubscribe()
			for {
				select {
				case end := <-ends:
					finalizeTrace(store, end, config.UserWeightKg)
					if err := store.ClearTrackerState(); err != nil {
						slog.Warn("Failed to clear tracker state", "error", err)
					}
					if end.Reason == events.EndReasonTimeout {
						// The session died of idleness; keep reading
						// in case the runner comes back.
						if err := trk.Start(); err != nil {
							slog.Error("Failed to restart tracker", "error", err)
						}
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		if !trk.Active() {
			if err := trk.Start(); err != nil {
				log.Fatalln(err)
			}
		}

		scanner := bufio.NewScanner(os.Stdin)
		lines := stream.Lines(ctx, scanner)
		fixes := stream.Transform(ctx, decodeFixLine, lines)

		n := 0
	readLoop:
		for {
			select {
			case sig := <-interrupt:
				slog.Warn("Received signal", "signal", sig)
				break readLoop
			case f, ok := <-fixes:
				if !ok {
					break readLoop
				}
				if f == nil {
					continue
				}
				if _, err := trk.OnFix(f); err != nil {
					if errors.Is(err, tracker.ErrNotActive) {
						continue
					}
					slog.Error("Failed to handle fix", "error", err)
					continue
				}
				n++
				if n%params.DefaultBatchSize == 0 {
					slog.Info("Tracking", "fixes", humanize.Comma(int64(n)))
				}
				persistTrackerState(trk, store)
			}
		}

		if trk.Active() {
			if _, err := trk.Stop(); err != nil && !errors.Is(err, tracker.ErrNotActive) {
				slog.Error("Failed to stop tracker", "error", err)
			}
		}
		ctxCanceler()
		endWG.Wait()
		slog.Info("Track done", "fixes", humanize.Comma(int64(n)))
	},
}

// decodeFixLine sniffs a line for JSON before falling back to the flat
// comma-delimited record format. Returns nil for undecodable lines.
func decodeFixLine(line string) *fix.Fix {
	if gjson.Valid(line) && gjson.Parse(line).IsObject() {
		f := &fix.Fix{}
		if err := json.Unmarshal([]byte(line), f); err != nil {
			slog.Error("Failed to unmarshal fix", "error", err)
			return nil
		}
		return f
	}
	f, err := fix.DecodeRecord(line)
	if err != nil {
		slog.Error("Failed to decode record", "error", err)
		return nil
	}
	return f
}

// resumeOrNewTracker restores a mid-session tracker from disk, if an
// interrupted invocation left one behind.
func resumeOrNewTracker(config *params.TrackerConfig, store *state.Store) *tracker.Tracker {
	snapshot, err := store.TrackerState()
	if err == nil && len(snapshot) > 0 {
		trk, err := tracker.Resume(config, snapshot)
		if err == nil {
			slog.Info("Resumed tracker from saved state")
			return trk
		}
		slog.Warn("Failed to resume tracker state", "error", err)
	}
	return tracker.NewTracker(config)
}

func persistTrackerState(trk *tracker.Tracker, store *state.Store) {
	snapshot, err := trk.StateSnapshot()
	if err != nil {
		return
	}
	if err := store.StoreTrackerState(snapshot); err != nil {
		slog.Warn("Failed to persist tracker state", "error", err)
	}
}

func finalizeTrace(store *state.Store, end events.SessionEnd, weightKg int) {
	sess, err := finalize.Finalize(end.Trace, weightKg)
	if err != nil {
		if errors.Is(err, finalize.ErrEmptyTrace) {
			slog.Info("Session ended with empty trace, nothing to persist", "reason", end.Reason)
			return
		}
		slog.Error("Failed to finalize trace", "error", err)
		return
	}
	if err := store.InsertSession(sess); err != nil {
		slog.Error("Failed to persist session", "error", err)
		return
	}
	slog.Info("Session persisted", "id", sess.ID,
		"activity", sess.ActivityType,
		"distance", humanize.SIWithDigits(sess.Distance, 1, "m"),
		"kcal", sess.Kcal, "reason", end.Reason)
	events.SessionFinalizedFeed.Send(sess)

	if influxdb.Enabled() {
		if err := influxdb.ExportSessions([]*session.Session{sess}); err != nil {
			slog.Error("Failed to export session", "error", err)
		}
	}
}

func init() {
	rootCmd.AddCommand(trackCmd)

	defaults := params.DefaultTrackerConfig

	pFlags := trackCmd.PersistentFlags()
	pFlags.StringVar(&optTrackDatadir, "datadir", params.DatadirRoot, "Data directory")
	pFlags.IntVar(&optUserWeight, "weight", defaults.UserWeightKg, "User weight in kg, for calorie estimates")
	pFlags.DurationVar(&optSessionTimeout, "timeout", defaults.SessionTimeout, "Idle timeout ending the session")
}
