package fix

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Fixes is an ordered trace of fixes.
type Fixes []*Fix

// EncodeTrace renders a trace as newline-separated flat records, for
// handing a whole session across a process or queue boundary that cannot
// carry structured objects.
func (fs Fixes) EncodeTrace() string {
	b := strings.Builder{}
	for _, f := range fs {
		b.WriteString(f.EncodeRecord())
		b.WriteByte('\n')
	}
	return b.String()
}

// DecodeTrace reads newline-separated flat records.
// The first malformed record fails the whole batch; a trace with a hole in
// it is worse than no trace.
func DecodeTrace(r io.Reader) (Fixes, error) {
	out := Fixes{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		f, err := DecodeRecord(text)
		if err != nil {
			return nil, fmt.Errorf("trace line %d: %w", line, err)
		}
		out = append(out, f)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
