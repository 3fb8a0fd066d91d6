package influxdb

import (
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/rotblauer/rund/params"
	"github.com/rotblauer/rund/types/session"
)

// Enabled reports whether an InfluxDB target is configured at all.
func Enabled() bool {
	return params.INFLUXDB_URL != ""
}

// ExportSessions posts finalized sessions to an InfluxDB Write API.
// Because it accepts a slice, use batches. The Write API will buffer and
// flush. The last error encountered is returned.
func ExportSessions(sessions []*session.Session) error {
	opts := influxdb2.DefaultOptions()
	opts.SetPrecision(time.Second)
	client := influxdb2.NewClientWithOptions(params.INFLUXDB_URL, params.INFLUXDB_TOKEN, opts)
	writeAPI := client.WriteAPI(params.INFLUXDB_ORG, params.INFLUXDB_BUCKET)

	// Errors returns a channel for reading errors which occur during
	// async writes. Must be called before performing any writes for
	// errors to be collected. The chan is unbuffered and must be drained
	// or the writer will block.
	errorsCh := writeAPI.Errors()
	var err error
	wait := sync.WaitGroup{}
	wait.Add(1)
	go func() {
		defer wait.Done()
		for e := range errorsCh {
			if e != nil {
				err = e
			}
		}
	}()

	for _, s := range sessions {
		p := influxdb2.NewPointWithMeasurement("run_session").
			SetTime(s.Started()).
			AddTag("activity", s.ActivityType).
			AddField("distance", s.Distance).
			AddField("duration_ms", s.Duration).
			AddField("average_speed", s.AverageSpeed).
			AddField("max_speed", s.MaxSpeed).
			AddField("kcal", s.Kcal)
		writeAPI.WritePoint(p)
	}

	writeAPI.Flush()
	client.Close()
	wait.Wait()
	return err
}
