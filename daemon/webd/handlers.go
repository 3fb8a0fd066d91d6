package webd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/rund/daterange"
	"github.com/rotblauer/rund/events"
	"github.com/rotblauer/rund/geo/finalize"
	"github.com/rotblauer/rund/metrics/influxdb"
	"github.com/rotblauer/rund/params"
	"github.com/rotblauer/rund/reducer"
	"github.com/rotblauer/rund/types/activity"
	"github.com/rotblauer/rund/types/fix"
	"github.com/rotblauer/rund/types/session"
)

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

type webDaemonStatus struct {
	StartedAt time.Time               `json:"started_at"`
	Uptime    string                  `json:"uptime"`
	Config    *params.WebDaemonConfig `json:"config"`
	WSOpen    bool                    `json:"ws_open"`
	WSConns   int                     `json:"ws_conns"`
}

func (s *WebDaemon) statusReport(w http.ResponseWriter, r *http.Request) {
	st := webDaemonStatus{
		StartedAt: s.started,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		WSOpen:    !s.melodyInstance.IsClosed(),
		WSConns:   s.melodyInstance.Len(),
		Config:    s.Config,
	}
	j, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		s.logger.Error("Failed to marshal status", "error", err)
		http.Error(w, "Failed to marshal status", http.StatusInternalServerError)
		return
	}
	_, err = w.Write(j)
	if err != nil {
		s.logger.Error("Failed to write response", "error", err)
		http.Error(w, "Failed to write response", http.StatusInternalServerError)
	}
}

// handleLastKnown returns the most-recent live snapshot, if any.
func (s *WebDaemon) handleLastKnown(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.store.LastKnown()
	if !ok {
		http.Error(w, "No snapshot yet", http.StatusNotFound)
		return
	}
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

// requestRange resolves the time window for a sessions query.
// ?start=&end= take epoch-ms bounds directly; otherwise ?t= (epoch ms,
// default now) picks a ?range= of day|week|month around that instant.
func (s *WebDaemon) requestRange(r *http.Request) (daterange.Range, error) {
	q := r.URL.Query()
	if q.Get("start") != "" || q.Get("end") != "" {
		start, err := strconv.ParseInt(q.Get("start"), 10, 64)
		if err != nil {
			return daterange.Range{}, err
		}
		end, err := strconv.ParseInt(q.Get("end"), 10, 64)
		if err != nil {
			return daterange.Range{}, err
		}
		return daterange.Range{Start: start, End: end}, nil
	}
	t := time.Now().UnixMilli()
	if v := q.Get("t"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return daterange.Range{}, err
		}
		t = parsed
	}
	switch q.Get("range") {
	case "day":
		return s.calc.DayRange(t), nil
	case "month":
		return s.calc.MonthRange(t), nil
	default:
		return s.calc.WeekRange(t), nil
	}
}

// sessionListItem decorates a stored session with its list label,
// eg. "Wednesday 07:32".
type sessionListItem struct {
	*session.Session
	Label string `json:"label"`
}

type sessionsResponse struct {
	Range    daterange.Range   `json:"range"`
	Days     []string          `json:"days"`
	Sessions []sessionListItem `json:"sessions"`
}

func (s *WebDaemon) handleGetSessions(w http.ResponseWriter, r *http.Request) {
	rng, err := s.requestRange(r)
	if err != nil {
		http.Error(w, "Bad time bounds", http.StatusBadRequest)
		return
	}
	sessions, err := s.store.SessionsBetween(rng.Start, rng.End)
	if err != nil {
		s.logger.Error("Failed to query sessions", "error", err)
		http.Error(w, "Failed to query sessions", http.StatusInternalServerError)
		return
	}
	items := make([]sessionListItem, len(sessions))
	for i, sess := range sessions {
		day, _ := s.calc.DayOfWeekName(sess.StartTime)
		items[i] = sessionListItem{
			Session: sess,
			Label:   day + " " + s.calc.FormatDate(sess.StartTime, "15:04"),
		}
	}
	res := sessionsResponse{
		Range:    rng,
		Days:     s.calc.DateSequence(rng.Start, rng.End).Collect(),
		Sessions: items,
	}
	if err := json.NewEncoder(w).Encode(res); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

func (s *WebDaemon) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Bad session id", http.StatusBadRequest)
		return
	}
	sess, err := s.store.Session(id)
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	if err := json.NewEncoder(w).Encode(sess); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

type correctActivityRequest struct {
	ActivityType string `json:"activityType"`
}

// handleCorrectActivity lets the user overwrite the derived activity label.
// This is the only session field that is ever mutated after finalization.
func (s *WebDaemon) handleCorrectActivity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Bad session id", http.StatusBadRequest)
		return
	}
	req := correctActivityRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request body", http.StatusUnprocessableEntity)
		return
	}
	act := activity.FromString(req.ActivityType)
	if !act.IsKnown() {
		http.Error(w, "Unknown activity type", http.StatusBadRequest)
		return
	}
	if err := s.store.CorrectActivityType(id, act.String()); err != nil {
		s.logger.Error("Failed to correct activity", "error", err, "session", id)
		http.Error(w, "Failed to correct activity", http.StatusInternalServerError)
		return
	}
	s.weeklyCache.Purge()
	sess, err := s.store.Session(id)
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	if err := json.NewEncoder(w).Encode(sess); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

type weeklyResponse struct {
	Metric  string            `json:"metric"`
	Range   daterange.Range   `json:"range"`
	Days    []string          `json:"days"`
	Labels  []string          `json:"labels"`
	Buckets reducer.DayBuckets `json:"buckets"`
}

// handleWeekly returns one chart-ready week of day-of-week buckets.
// ?t= picks the week (epoch ms, default now), ?metric= the reduced value.
func (s *WebDaemon) handleWeekly(w http.ResponseWriter, r *http.Request) {
	t := time.Now().UnixMilli()
	if v := r.URL.Query().Get("t"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "Bad time", http.StatusBadRequest)
			return
		}
		t = parsed
	}
	metric := reducer.ParseMetric(r.URL.Query().Get("metric"))
	week := s.calc.WeekRange(t)

	key := weeklyCacheKey(week.Start, metric)
	if cached, ok := s.weeklyCache.Get(key); ok {
		if err := json.NewEncoder(w).Encode(cached); err != nil {
			s.logger.Warn("Failed to write response", "error", err)
		}
		return
	}

	sessions, err := s.store.SessionsBetween(week.Start, week.End)
	if err != nil {
		s.logger.Error("Failed to query sessions", "error", err)
		http.Error(w, "Failed to query sessions", http.StatusInternalServerError)
		return
	}
	names := make([]string, 7)
	for i := range names {
		names[i], _ = daterange.DayName(i)
	}
	res := weeklyResponse{
		Metric:  metric.String(),
		Range:   week,
		Days:    s.calc.DateSequence(week.Start, week.End).Collect(),
		Labels:  names,
		Buckets: reducer.Reduce(s.calc, sessions, metric),
	}
	s.weeklyCache.Add(key, res)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

// handlePopulate is where finished traces get posted and persisted.
// The body is a newline-delimited batch of location records; one malformed
// record fails the whole batch. With ?geojson=true the response carries the
// trace as a GeoJSON LineString alongside the session summary.
func (s *WebDaemon) handlePopulate(w http.ResponseWriter, r *http.Request) {
	if r.Body == nil {
		s.logger.Error("No request body", "method", r.Method, "url", r.URL)
		http.Error(w, "Please send a request body", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error("Failed to read request body", "error", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	truncatedBytes := string(body)[:int(math.Min(80, float64(len(body))))]
	s.logger.Debug("Decoding", "body.len", len(body), "bytes", truncatedBytes)

	trace, err := fix.DecodeTrace(bytes.NewReader(body))
	if err != nil {
		s.logger.Error("Failed to decode trace", "error", err)
		http.Error(w, "Failed to decode trace", http.StatusUnprocessableEntity)
		return
	}

	dedupe := fix.NewDedupeLRUFunc()
	deduped := make(fix.Fixes, 0, len(trace))
	for _, f := range trace {
		if dedupe(f) {
			deduped = append(deduped, f)
		}
	}

	weight := params.DefaultTrackerConfig.UserWeightKg
	sess, err := finalize.Finalize(deduped, weight)
	if err != nil {
		if errors.Is(err, finalize.ErrEmptyTrace) {
			http.Error(w, "Empty trace", http.StatusUnprocessableEntity)
			return
		}
		s.logger.Error("Failed to finalize", "error", err)
		http.Error(w, "Failed to finalize", http.StatusInternalServerError)
		return
	}

	if err := s.store.InsertSession(sess); err != nil {
		s.logger.Error("Failed to persist session", "error", err)
		http.Error(w, "Failed to persist session", http.StatusInternalServerError)
		return
	}
	events.SessionFinalizedFeed.Send(sess)

	if influxdb.Enabled() {
		go func() {
			if err := influxdb.ExportSessions([]*session.Session{sess}); err != nil {
				slog.Error("Failed to export session", "error", err)
			}
		}()
	}

	if r.URL.Query().Get("geojson") == "true" {
		line := make(orb.LineString, 0, len(deduped))
		for _, f := range deduped {
			line = append(line, f.Point())
		}
		feature := geojson.NewFeature(line)
		feature.Properties["session"] = sess
		if err := json.NewEncoder(w).Encode(feature); err != nil {
			s.logger.Warn("Failed to write response", "error", err)
		}
		return
	}

	if err := json.NewEncoder(w).Encode(sess); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}
