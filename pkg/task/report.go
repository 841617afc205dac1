package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// StatusLine is the collated view of one envelope.
type StatusLine struct {
	Task    string  `json:"task"`
	Status  string  `json:"status"`
	Msg     string  `json:"msg"`
	Summary Summary `json:"summary"`
}

// ReadResults decodes a stream of concatenated JSON envelopes.
func ReadResults(r io.Reader) ([]*Result, error) {
	dec := json.NewDecoder(r)
	var out []*Result
	for {
		res := &Result{}
		err := dec.Decode(res)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("decoding result %d: %w", len(out)+1, err)
		}
		out = append(out, res)
	}
}

// Collate computes the status line of each envelope, preserving order.
func Collate(results []*Result) []StatusLine {
	out := make([]StatusLine, len(results))
	for i, r := range results {
		out[i] = StatusLine{Task: r.Task, Status: r.Status(), Msg: r.Msg, Summary: r.Summary}
	}
	return out
}

// Counts tallies collated status lines by status code.
func Counts(lines []StatusLine) map[string]int {
	counts := map[string]int{StatusOK: 0, StatusFailed: 0, StatusSkipped: 0}
	for _, l := range lines {
		counts[l.Status]++
	}
	return counts
}
