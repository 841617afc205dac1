package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/newtron-network/ztpfab/pkg/util"
)

// Limits on CSV values.
const (
	MinVlanID     = 2
	MaxVlanID     = 4092
	MinPort       = 1
	MaxPort       = 104
	MaxL3Port     = 255
	MaxNameLength = 59
	MaxAreaID     = 42949672
)

// NameRegexp matches switch, trunk and vLAG names.
var NameRegexp = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)

// checkVlan validates a vlan id field.
func checkVlan(ds *Diagnostics, line int, field string) (int, bool) {
	if !util.IsDigits(field) {
		ds.add(line, "Invalid vlan id %q at line number %d, vlan id must be a number", field, line)
		return 0, false
	}
	id, err := strconv.Atoi(field)
	if err != nil || id < MinVlanID || id > MaxVlanID {
		ds.add(line, "Invalid vlan id %s at line number %d, vlan id must be in range %d-%d",
			field, line, MinVlanID, MaxVlanID)
		return 0, false
	}
	return id, true
}

// checkPort validates a physical port number in [MinPort, max].
func checkPort(ds *Diagnostics, line int, field string, max int) (int, bool) {
	if !util.IsDigits(field) {
		ds.add(line, "Invalid port %q at line number %d, port must be a number", field, line)
		return 0, false
	}
	port, err := strconv.Atoi(field)
	if err != nil || port < MinPort || port > max {
		ds.add(line, "Invalid port %s at line number %d, port must be in range %d-%d",
			field, line, MinPort, max)
		return 0, false
	}
	return port, true
}

// checkPorts validates a list of ports that must be unique within the row.
func checkPorts(ds *Diagnostics, line int, fields []string) ([]int, bool) {
	ok := true
	seen := map[int]bool{}
	ports := make([]int, 0, len(fields))
	for _, f := range fields {
		port, valid := checkPort(ds, line, f, MaxPort)
		if !valid {
			ok = false
			continue
		}
		if seen[port] {
			ds.add(line, "Duplicate port %d at line number %d", port, line)
			ok = false
			continue
		}
		seen[port] = true
		ports = append(ports, port)
	}
	return ports, ok
}

// checkName validates a trunk/vLAG/port name.
func checkName(ds *Diagnostics, line int, what, field string) bool {
	if !NameRegexp.MatchString(field) {
		ds.add(line, "Invalid %s %q at line number %d, name can only contain letters, digits and _.:-",
			what, field, line)
		return false
	}
	if len(field) > MaxNameLength {
		ds.add(line, "Invalid %s %s at line number %d, name can be at most %d characters long",
			what, field, line, MaxNameLength)
		return false
	}
	return true
}

// checkSwitch validates that name is one of list.
func checkSwitch(ds *Diagnostics, line int, what, name string, list []string) bool {
	if name == "" {
		ds.add(line, "Missing %s at line number %d", what, line)
		return false
	}
	if !contains(list, name) {
		ds.add(line, "Invalid %s %s at line number %d, switch is not present in the inventory",
			what, name, line)
		return false
	}
	return true
}

// checkCIDR validates "a.b.c.d/len" and returns the address and mask length.
func checkCIDR(ds *Diagnostics, line int, what, field string) (string, int, bool) {
	if !strings.Contains(field, "/") {
		ds.add(line, "Invalid %s %q at line number %d, address must be in CIDR notation a.b.c.d/len",
			what, field, line)
		return "", 0, false
	}
	addr, mask := splitOnce(field, "/")
	if !util.IsDottedQuad(addr) {
		ds.add(line, "Invalid %s %s at line number %d, %s is not a valid IPv4 address",
			what, field, line, addr)
		return "", 0, false
	}
	if !util.IsDigits(mask) {
		ds.add(line, "Invalid %s %s at line number %d, subnet mask must be a number", what, field, line)
		return "", 0, false
	}
	n, err := strconv.Atoi(mask)
	if err != nil || n < 1 || n > 32 {
		ds.add(line, "Invalid %s %s at line number %d, subnet mask must be in range 1-32",
			what, field, line)
		return "", 0, false
	}
	return addr, n, true
}

// checkFieldCount validates the number of fields of a row.
func checkFieldCount(ds *Diagnostics, row Row, want int, shape string) bool {
	if len(row.Fields) != want {
		ds.add(row.Line, "Invalid entry at line number %d, expected format is %s", row.Line, shape)
		return false
	}
	return true
}

func splitOnce(s, sep string) (string, string) {
	i := strings.Index(s, sep)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+len(sep):]
}
