package cli

import (
	"bytes"
	"testing"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTableTo(&buf, "TASK", "STATUS")
	tbl.Row("Vlan creation", "0")
	tbl.Row("Trunk creation", "1")
	tbl.Flush()

	want := "TASK            STATUS\n" +
		"----            ------\n" +
		"Vlan creation   0\n" +
		"Trunk creation  1\n"
	if buf.String() != want {
		t.Errorf("table output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTableTo(&buf, "TASK", "STATUS")
	tbl.Flush()
	if buf.Len() != 0 {
		t.Errorf("empty table wrote %q", buf.String())
	}
}
