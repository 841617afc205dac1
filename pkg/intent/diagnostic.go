// Package intent parses and validates the CSV files that describe the
// desired fabric configuration. Each parser turns a raw text blob into a
// list of intent records or a list of line-annotated diagnostics.
//
// Validation never short-circuits: every row is checked so a single pass
// reports every problem in the file. Parsers are pure functions of the
// input text and the inventory lists.
package intent

import (
	"fmt"
	"strings"

	"github.com/newtron-network/ztpfab/pkg/util"
)

// EmptyCSVMessage is reported when a file has no data rows.
const EmptyCSVMessage = "Csv file should not be empty"

// Diagnostic is one validation problem. Line is 1-based and counts every
// physical line of the input, comments and blank lines included. File-level
// problems carry Line 0.
type Diagnostic struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return d.Message
}

// Diagnostics is an ordered list of problems found in one file.
type Diagnostics []Diagnostic

func (ds *Diagnostics) add(line int, format string, args ...interface{}) {
	*ds = append(*ds, Diagnostic{Line: line, Message: fmt.Sprintf(format, args...)})
}

// OK reports whether no problem was found.
func (ds Diagnostics) OK() bool {
	return len(ds) == 0
}

// String joins the messages, one per line.
func (ds Diagnostics) String() string {
	msgs := make([]string, len(ds))
	for i, d := range ds {
		msgs[i] = d.Message
	}
	return strings.Join(msgs, "\n")
}

// Err returns nil when there are no diagnostics and a *util.ValidationError
// carrying every message otherwise.
func (ds Diagnostics) Err() error {
	if ds.OK() {
		return nil
	}
	v := &util.ValidationBuilder{}
	for _, d := range ds {
		v.AddErrorf("%s", d.Message)
	}
	return v.Build()
}

// Row is one data row of a CSV file after preprocessing.
type Row struct {
	Line   int
	Fields []string
}

// Rows strips all whitespace other than line terminators, splits on line
// terminators and drops blank lines and lines starting with '#'. Line
// numbers refer to the untouched input.
func Rows(text string) []Row {
	text = strings.ReplaceAll(util.StripSpaces(text), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var rows []Row
	for i, line := range strings.Split(text, "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rows = append(rows, Row{Line: i + 1, Fields: strings.Split(line, ",")})
	}
	return rows
}

// rowsOrEmpty returns the rows of text, or a diagnostic when there are none.
func rowsOrEmpty(text string) ([]Row, Diagnostics) {
	rows := Rows(text)
	if len(rows) == 0 {
		return nil, Diagnostics{{Line: 0, Message: EmptyCSVMessage}}
	}
	return rows, nil
}

// InventoryLists are the switch names a file may refer to.
type InventoryLists struct {
	Switches []string `yaml:"switch_list" json:"switch_list"`
	Spines   []string `yaml:"spine_list" json:"spine_list"`
	Leaves   []string `yaml:"leaf_list" json:"leaf_list"`
}

// NewInventoryLists builds lists from spines and leaves; Switches is the
// concatenation.
func NewInventoryLists(spines, leaves []string) InventoryLists {
	all := make([]string, 0, len(spines)+len(leaves))
	all = append(all, spines...)
	all = append(all, leaves...)
	return InventoryLists{Switches: all, Spines: spines, Leaves: leaves}
}

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}
