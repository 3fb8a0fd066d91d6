package fix

import (
	"errors"
	"strings"
	"testing"
)

func testFix() *Fix {
	return &Fix{
		Provider:         "gps",
		Lat:              46.8721,
		Lon:              -113.9940,
		Accuracy:         4.5,
		Speed:            2.71828,
		SpeedAccuracy:    0.5,
		Bearing:          271.3,
		BearingAccuracy:  12,
		Altitude:         978.2,
		VerticalAccuracy: 8,
		CaptureTime:      1732118400000,
		ElapsedNanos:     123456789012,
		Synthetic:        false,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	f := testFix()
	record := f.EncodeRecord()
	if n := len(strings.Split(record, ",")); n != RecordFieldCount {
		t.Fatalf("have %d fields want %d", n, RecordFieldCount)
	}
	got, err := DecodeRecord(record)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *f {
		t.Errorf("have %+v want %+v", got, f)
	}
}

func TestEncodeDecodeRoundTripFloat32Exact(t *testing.T) {
	// 1/3 has no short decimal form; the shortest-round-trip formatting
	// must still reproduce the exact float32 bits.
	f := testFix()
	f.Speed = float32(1.0) / 3.0
	f.Accuracy = 16.700001
	got, err := DecodeRecord(f.EncodeRecord())
	if err != nil {
		t.Fatal(err)
	}
	if got.Speed != f.Speed {
		t.Errorf("speed: have %v want %v", got.Speed, f.Speed)
	}
	if got.Accuracy != f.Accuracy {
		t.Errorf("accuracy: have %v want %v", got.Accuracy, f.Accuracy)
	}
}

func TestDecodeRecordMalformed(t *testing.T) {
	cases := []string{
		"",
		"a,b,c",
		"gps,46.8,-113.9",                       // too few fields
		testFix().EncodeRecord() + ",extra",     // too many fields
		"gps,NOPE,-113.9,4,2,0,0,0,900,8,1,1,false",  // bad lat
		"gps,46.8,-113.9,4,2,0,0,0,900,8,NOPE,1,false", // bad time
		"gps,46.8,-113.9,4,2,0,0,0,900,8,1,1,maybe",  // bad bool
		"gps,46.8,-113.9,4,2,0,0,0,900,8,1,1,TRUE",   // bool is case-sensitive
	}
	for i, c := range cases {
		_, err := DecodeRecord(c)
		if !errors.Is(err, ErrMalformedRecord) {
			t.Errorf("i=%d (%q): have %v want ErrMalformedRecord", i, c, err)
		}
	}
}

func TestDecodeTrace(t *testing.T) {
	a, b := testFix(), testFix()
	b.CaptureTime += 1000
	b.Lat += 0.001
	encoded := Fixes{a, b}.EncodeTrace()

	trace, err := DecodeTrace(strings.NewReader(encoded))
	if err != nil {
		t.Fatal(err)
	}
	if len(trace) != 2 {
		t.Fatalf("have %d fixes want 2", len(trace))
	}
	if *trace[1] != *b {
		t.Errorf("have %+v want %+v", trace[1], b)
	}
}

func TestDecodeTraceSkipsBlankLines(t *testing.T) {
	encoded := "\n" + testFix().EncodeRecord() + "\n\n" + testFix().EncodeRecord() + "\n"
	trace, err := DecodeTrace(strings.NewReader(encoded))
	if err != nil {
		t.Fatal(err)
	}
	if len(trace) != 2 {
		t.Errorf("have %d fixes want 2", len(trace))
	}
}

func TestDecodeTraceMalformedIsFatal(t *testing.T) {
	// One bad record poisons the whole batch; no partial trace comes back.
	encoded := testFix().EncodeRecord() + "\na,b,c\n" + testFix().EncodeRecord()
	trace, err := DecodeTrace(strings.NewReader(encoded))
	if !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("have %v want ErrMalformedRecord", err)
	}
	if trace != nil {
		t.Errorf("have %v want nil trace", trace)
	}
}

func TestDistanceTo(t *testing.T) {
	a := &Fix{Lat: 46.8721, Lon: -113.9940}
	b := &Fix{Lat: 46.8721, Lon: -113.9940}
	if d := a.DistanceTo(b); d != 0 {
		t.Errorf("have %f want 0", d)
	}
	// ~1.11 km per 0.01 degree of latitude.
	c := &Fix{Lat: 46.8821, Lon: -113.9940}
	if d := a.DistanceTo(c); d < 1000 || d > 1250 {
		t.Errorf("have %f want ~1112", d)
	}
}

func TestDedupeLRUFunc(t *testing.T) {
	dedupe := NewDedupeLRUFunc()
	a := testFix()
	same := testFix()
	different := testFix()
	different.CaptureTime += 1

	if !dedupe(a) {
		t.Error("first sighting should pass")
	}
	if dedupe(same) {
		t.Error("identical fix should be deduped")
	}
	if !dedupe(different) {
		t.Error("different fix should pass")
	}
}
