package task

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/newtron-network/ztpfab/pkg/nvos"
	"github.com/newtron-network/ztpfab/pkg/util"
)

func TestSummaryJSON(t *testing.T) {
	tests := []struct {
		name    string
		summary Summary
		want    string
	}{
		{"empty", Summary{}, `[]`},
		{"entries", Summary{Entries: []Entry{{Switch: "leaf1", Output: "Vlan 100 created"}}},
			`[{"switch":"leaf1","output":"Vlan 100 created"}]`},
		{"note", Summary{Note: InvalidCSVSummary}, `"Invalid csv file"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.summary)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal = %s, want %s", data, tt.want)
			}
			var back Summary
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatal(err)
			}
			if back.Note != tt.summary.Note || back.Len() != tt.summary.Len() {
				t.Errorf("Unmarshal = %+v, want %+v", back, tt.summary)
			}
		})
	}
}

func TestResultJSONFields(t *testing.T) {
	data, err := json.Marshal(&Result{Task: "Vlan creation", Msg: "vlan creation succeeded"})
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"task", "msg", "summary", "changed", "failed", "unreachable", "exception"} {
		if _, ok := fields[k]; !ok {
			t.Errorf("envelope is missing %q: %s", k, data)
		}
	}
	if _, ok := fields["skipped"]; ok {
		t.Errorf("skipped should be omitted when false: %s", data)
	}
}

func TestSummaryFromLines(t *testing.T) {
	got := SummaryFromLines("leaf1: Vlan 100 created\n\nspine1: Trunk t1: ports 1,2\nno switch prefix\n")
	want := []Entry{
		{Switch: "leaf1", Output: "Vlan 100 created"},
		{Switch: "spine1", Output: "Trunk t1: ports 1,2"},
		{Switch: "", Output: "no switch prefix"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SummaryFromLines() mismatch (-want +got):\n%s", diff)
	}
}

func TestLedger(t *testing.T) {
	var l Ledger
	if l.Changed() {
		t.Error("empty ledger reports a change")
	}
	l.Record(false)
	l.Record(true)
	l.Record(false)
	if !l.Changed() || l.Len() != 3 {
		t.Errorf("Changed()=%v Len()=%d, want true 3", l.Changed(), l.Len())
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		r    Result
		want string
	}{
		{"ok", Result{}, StatusOK},
		{"changed", Result{Changed: true}, StatusOK},
		{"failed", Result{Failed: true}, StatusFailed},
		{"unreachable", Result{Unreachable: true}, StatusFailed},
		{"skipped", Result{Skipped: true}, StatusSkipped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Status(); got != tt.want {
				t.Errorf("Status() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRecorderSuccess(t *testing.T) {
	rec := NewRecorder("Trunk creation", "trunk creation")
	rec.Skipped()
	rec.Changed("spine1", "Trunk %s created", "t1")
	rec.Unchanged("spine2", "Trunk t1 left alone")

	res := rec.Success()
	if res.Msg != "trunk creation succeeded" || !res.Changed || res.Failed {
		t.Errorf("result = %+v", res)
	}
	want := []Entry{
		{Switch: "spine1", Output: "Trunk t1 created"},
		{Switch: "spine2", Output: "Trunk t1 left alone"},
	}
	if diff := cmp.Diff(want, res.Summary.Entries); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestRecorderFail(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		wantException   string
		wantOutput      string
		wantUnreachable bool
	}{
		{
			name:          "cli error",
			err:           &nvos.CLIError{Command: "switch spine1 trunk-create name t1 ports 1", Stderr: "trunk-create: port 1 in use\n"},
			wantException: "trunk-create: port 1 in use",
			wantOutput:    "switch spine1 trunk-create name t1 ports 1",
		},
		{
			name:            "unreachable",
			err:             &nvos.UnreachableError{Host: "10.0.0.1", Reason: "no route to host"},
			wantException:   (&nvos.UnreachableError{Host: "10.0.0.1", Reason: "no route to host"}).Error(),
			wantOutput:      "Switch is unreachable",
			wantUnreachable: true,
		},
		{
			name:          "parameter error",
			err:           util.NewConfigError("vrrp_id", "required parameter is missing"),
			wantException: "invalid parameter vrrp_id: required parameter is missing",
			wantOutput:    "invalid parameter vrrp_id: required parameter is missing",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewRecorder("Trunk creation", "trunk creation")
			rec.Changed("spine2", "Trunk t0 created")
			res := rec.Fail("spine1", tt.err)

			if res.Msg != "trunk creation failed" {
				t.Errorf("msg = %q", res.Msg)
			}
			if res.Changed {
				t.Error("failed task reports changed")
			}
			if res.Failed == tt.wantUnreachable || res.Unreachable != tt.wantUnreachable {
				t.Errorf("failed=%v unreachable=%v", res.Failed, res.Unreachable)
			}
			if res.Exception != tt.wantException {
				t.Errorf("exception = %q, want %q", res.Exception, tt.wantException)
			}
			want := []Entry{{Switch: "spine1", Output: tt.wantOutput}}
			if diff := cmp.Diff(want, res.Summary.Entries); diff != "" {
				t.Errorf("summary mismatch (-want +got):\n%s", diff)
			}
			if res.Err() == nil {
				t.Error("Err() = nil for a failed task")
			}
		})
	}
}

func TestRecorderInvalid(t *testing.T) {
	res := NewRecorder("Vlan creation", "vlan creation").Invalid("Invalid vlan id 1 at line number 1")
	if !res.Failed || res.Changed || res.Summary.Note != InvalidCSVSummary {
		t.Errorf("result = %+v", res)
	}
	if res.Msg != "Invalid vlan id 1 at line number 1" {
		t.Errorf("msg = %q", res.Msg)
	}
}

func TestWriterSinkAndReport(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf, false)
	results := []*Result{
		{Task: "Vlan creation", Msg: "vlan creation succeeded", Changed: true,
			Summary: Summary{Entries: []Entry{{Switch: "leaf1", Output: "Vlan 100 created"}}}},
		{Task: "Trunk creation", Msg: "bad row", Failed: true, Summary: Summary{Note: InvalidCSVSummary}},
		Skip("EULA acceptance", "not a spine"),
	}
	for _, r := range results {
		if err := sink.Publish(context.Background(), r); err != nil {
			t.Fatal(err)
		}
	}

	back, err := ReadResults(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(results, back); diff != "" {
		t.Errorf("ReadResults() mismatch (-want +got):\n%s", diff)
	}

	lines := Collate(back)
	gotStatus := []string{lines[0].Status, lines[1].Status, lines[2].Status}
	if diff := cmp.Diff([]string{StatusOK, StatusFailed, StatusSkipped}, gotStatus); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
	want := map[string]int{StatusOK: 1, StatusFailed: 1, StatusSkipped: 1}
	if diff := cmp.Diff(want, Counts(lines)); diff != "" {
		t.Errorf("Counts() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadResultsBadInput(t *testing.T) {
	_, err := ReadResults(strings.NewReader(`{"task":"a"} {"task":`))
	if err == nil {
		t.Fatal("expected a decode error")
	}
}

type failingSink struct{ err error }

func (f failingSink) Publish(context.Context, *Result) error { return f.err }
func (f failingSink) Close() error { return nil }

func TestMultiSink(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("boom")
	m := MultiSink{failingSink{boom}, NewWriterSink(&buf, false)}

	err := m.Publish(context.Background(), &Result{Task: "Vlan creation"})
	if !errors.Is(err, boom) {
		t.Errorf("Publish() = %v, want %v", err, boom)
	}
	if !strings.Contains(buf.String(), `"task":"Vlan creation"`) {
		t.Errorf("later sink was skipped: %q", buf.String())
	}
}

func TestNewRedisSink(t *testing.T) {
	if _, err := NewRedisSink("http://localhost:6379", ""); err == nil {
		t.Error("expected an error for a non-redis url")
	}
	s, err := NewRedisSink("redis://localhost:6379/2", "")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if s.key != DefaultResultsKey {
		t.Errorf("key = %q, want %q", s.key, DefaultResultsKey)
	}
}
