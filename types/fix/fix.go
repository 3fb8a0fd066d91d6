package fix

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// RecordFieldCount is the number of comma-joined fields in an encoded fix.
// The record format is the one on-the-wire contract of this module:
// comma-delimited, fixed field order, no escaping. A provider name
// containing a comma cannot be represented, and Decode will reject the
// garbled record rather than guess.
const RecordFieldCount = 13

// ErrMalformedRecord is returned when a flat fix record cannot be decoded.
// A malformed record is fatal to the trace it arrived with; substituting a
// zero fix would silently corrupt the trace.
var ErrMalformedRecord = errors.New("malformed fix record")

// Fix is a single GPS location fix.
// CaptureTime is wall-clock Unix time; ElapsedNanos is time since device
// boot and is only good for offset arithmetic, never as wall time.
// Whether CaptureTime is monotonically non-decreasing across a trace is a
// convention of the location provider, not enforced here.
type Fix struct {
	Provider         string  `json:"provider"`
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"long"`
	Accuracy         float32 `json:"accuracy"`        // horizontal, in meters
	Speed            float32 `json:"speed"`           // in m/s
	SpeedAccuracy    float32 `json:"speed_accuracy"`  // in m/s
	Bearing          float32 `json:"bearing"`         // in degrees
	BearingAccuracy  float32 `json:"bearing_accuracy"`
	Altitude         float64 `json:"altitude"`  // in meters
	VerticalAccuracy float32 `json:"vAccuracy"` // in meters
	CaptureTime      int64   `json:"time"`      // Unix epoch milliseconds
	ElapsedNanos     int64   `json:"elapsed_nanos"`
	Synthetic        bool    `json:"synthetic"` // true for mock/emulated fixes
}

// Time returns the wall-clock capture time.
func (f *Fix) Time() time.Time {
	return time.UnixMilli(f.CaptureTime)
}

// Point returns the fix position as an orb point (lon, lat order).
func (f *Fix) Point() orb.Point {
	return orb.Point{f.Lon, f.Lat}
}

// DistanceTo returns the geodesic distance to another fix, in meters.
func (f *Fix) DistanceTo(other *Fix) float64 {
	return geo.Distance(f.Point(), other.Point())
}

// EncodeRecord renders the fix as a flat comma-joined record.
// Field order is fixed and load-bearing; see RecordFieldCount.
func (f *Fix) EncodeRecord() string {
	fields := []string{
		f.Provider,
		strconv.FormatFloat(f.Lat, 'g', -1, 64),
		strconv.FormatFloat(f.Lon, 'g', -1, 64),
		formatF32(f.Accuracy),
		formatF32(f.Speed),
		formatF32(f.SpeedAccuracy),
		formatF32(f.Bearing),
		formatF32(f.BearingAccuracy),
		strconv.FormatFloat(f.Altitude, 'g', -1, 64),
		formatF32(f.VerticalAccuracy),
		strconv.FormatInt(f.CaptureTime, 10),
		strconv.FormatInt(f.ElapsedNanos, 10),
		strconv.FormatBool(f.Synthetic),
	}
	return strings.Join(fields, ",")
}

// DecodeRecord parses a flat record produced by EncodeRecord.
// Any field count other than RecordFieldCount, and any unparseable numeric
// or boolean field, returns an error wrapping ErrMalformedRecord.
func DecodeRecord(record string) (*Fix, error) {
	fields := strings.Split(record, ",")
	if len(fields) != RecordFieldCount {
		return nil, fmt.Errorf("%w: got %d fields, want %d",
			ErrMalformedRecord, len(fields), RecordFieldCount)
	}
	f := &Fix{Provider: fields[0]}
	var err error
	if f.Lat, err = parseF64(fields[1], "lat"); err != nil {
		return nil, err
	}
	if f.Lon, err = parseF64(fields[2], "long"); err != nil {
		return nil, err
	}
	if f.Accuracy, err = parseF32(fields[3], "accuracy"); err != nil {
		return nil, err
	}
	if f.Speed, err = parseF32(fields[4], "speed"); err != nil {
		return nil, err
	}
	if f.SpeedAccuracy, err = parseF32(fields[5], "speed_accuracy"); err != nil {
		return nil, err
	}
	if f.Bearing, err = parseF32(fields[6], "bearing"); err != nil {
		return nil, err
	}
	if f.BearingAccuracy, err = parseF32(fields[7], "bearing_accuracy"); err != nil {
		return nil, err
	}
	if f.Altitude, err = parseF64(fields[8], "altitude"); err != nil {
		return nil, err
	}
	if f.VerticalAccuracy, err = parseF32(fields[9], "vAccuracy"); err != nil {
		return nil, err
	}
	if f.CaptureTime, err = parseI64(fields[10], "time"); err != nil {
		return nil, err
	}
	if f.ElapsedNanos, err = parseI64(fields[11], "elapsed_nanos"); err != nil {
		return nil, err
	}
	switch fields[12] {
	case "true":
		f.Synthetic = true
	case "false":
		f.Synthetic = false
	default:
		return nil, fmt.Errorf("%w: field synthetic: %q", ErrMalformedRecord, fields[12])
	}
	return f, nil
}

// MarshalText implements encoding.TextMarshaler.
func (f *Fix) MarshalText() ([]byte, error) {
	return []byte(f.EncodeRecord()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fix) UnmarshalText(text []byte) error {
	decoded, err := DecodeRecord(string(text))
	if err != nil {
		return err
	}
	*f = *decoded
	return nil
}

func formatF32(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func parseF64(s, name string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: field %s: %q", ErrMalformedRecord, name, s)
	}
	return v, nil
}

func parseF32(s, name string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: field %s: %q", ErrMalformedRecord, name, s)
	}
	return float32(v), nil
}

func parseI64(s, name string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: field %s: %q", ErrMalformedRecord, name, s)
	}
	return v, nil
}
