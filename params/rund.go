package params

import (
	"os"
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
)

const SessionsDBName = "sessions.db"

var SessionsBucket = []byte("sessions")
var TrackerStateBucket = []byte("tracker")

var DefaultBatchSize = 10_000

var DatadirRoot = func() string {
	home, err := homedir.Dir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".rund")
}()

var (
	CacheLastKnownTTL = 7 * 24 * time.Hour
)

// InfluxDB export is optional; it runs only when INFLUXDB_URL is set.
var INFLUXDB_URL = os.Getenv("INFLUXDB_URL")
var INFLUXDB_TOKEN = os.Getenv("INFLUXDB_TOKEN")
var INFLUXDB_ORG = os.Getenv("INFLUXDB_ORG")
var INFLUXDB_BUCKET = os.Getenv("INFLUXDB_BUCKET")
