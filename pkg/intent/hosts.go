package intent

import (
	"fmt"
	"strings"

	"github.com/newtron-network/ztpfab/pkg/util"
)

// Role is the section a switch is listed under in the hosts file.
type Role string

const (
	RoleSpine           Role = "spine"
	RoleLeaf            Role = "leaf"
	RoleThirdPartySpine Role = "third_party_spine"
	RoleDlinkSwitch     Role = "dlink_switch"
)

// ConnectionString is the fixed set of connection variables every host row
// ends with.
const ConnectionString = `ansible_user="{{ SSH_USER }}" ansible_ssh_pass="{{ SSH_PASSWORD }}" ansible_become_pass="{{ SSH_PASSWORD }}"`

// Messages for missing sections.
const (
	MissingSpineSectionMessage = "[spine] or [third_party_spine] section is missing from the hosts file"
	MissingLeafSectionMessage  = "[leaf] section is missing from the hosts file"
)

// Switch is one inventory entry.
type Switch struct {
	Name   string `json:"name" yaml:"name"`
	MgmtIP string `json:"mgmt_ip,omitempty" yaml:"mgmt_ip,omitempty"`
	Role   Role   `json:"role" yaml:"role"`
}

// Inventory is the ordered list of switches from a hosts file.
type Inventory struct {
	Switches []Switch `json:"switches"`
}

// ByRole returns the names of the switches with the given role, in file order.
func (inv *Inventory) ByRole(role Role) []string {
	var out []string
	for _, s := range inv.Switches {
		if s.Role == role {
			out = append(out, s.Name)
		}
	}
	return out
}

// Lists returns the inventory lists validators consume. Third-party spines
// are valid switch names but are not in Spines: they do not run the NOS, so
// no vRouter is configured on them.
func (inv *Inventory) Lists() InventoryLists {
	spines, leaves := inv.ByRole(RoleSpine), inv.ByRole(RoleLeaf)
	thirdParty := inv.ByRole(RoleThirdPartySpine)

	all := make([]string, 0, len(spines)+len(thirdParty)+len(leaves))
	all = append(all, spines...)
	all = append(all, thirdParty...)
	all = append(all, leaves...)
	return InventoryLists{Switches: all, Spines: spines, Leaves: leaves}
}

// Lookup returns the switch with the given name.
func (inv *Inventory) Lookup(name string) (Switch, bool) {
	for _, s := range inv.Switches {
		if s.Name == name {
			return s, true
		}
	}
	return Switch{}, false
}

func isRoleSection(name string) bool {
	switch Role(name) {
	case RoleSpine, RoleLeaf, RoleThirdPartySpine, RoleDlinkSwitch:
		return true
	}
	return false
}

// ParseHosts validates a hosts inventory. Rows under [spine], [leaf],
// [third_party_spine] and [dlink_switch] must read
// "name ansible_host=a.b.c.d <ConnectionString>"; other sections (group
// variables) are ignored. Names and addresses must be unique.
func ParseHosts(text string) (*Inventory, Diagnostics) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	sections := map[string]bool{}
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if strings.HasPrefix(l, "[") && strings.HasSuffix(l, "]") {
			sections[l[1:len(l)-1]] = true
		}
	}
	var ds Diagnostics
	if !sections[string(RoleSpine)] && !sections[string(RoleThirdPartySpine)] {
		ds.add(0, MissingSpineSectionMessage)
	}
	if !sections[string(RoleLeaf)] {
		ds.add(0, MissingLeafSectionMessage)
	}
	if !ds.OK() {
		return nil, ds
	}

	inv := &Inventory{}
	names := map[string]int{}
	addrs := map[string]int{}
	section := ""
	for i, raw := range lines {
		line := i + 1
		l := strings.TrimSpace(raw)
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		if strings.HasPrefix(l, "[") && strings.HasSuffix(l, "]") {
			section = l[1 : len(l)-1]
			continue
		}
		if section == "" {
			ds.add(line, "Entry at line number %d is not under any section", line)
			continue
		}
		if !isRoleSection(section) {
			continue
		}

		sw, ok := parseHostRow(&ds, line, l)
		if !ok {
			continue
		}
		if prev, dup := names[sw.Name]; dup {
			ds.add(line, "Duplicate switch name %s at line number %d, already defined at line number %d",
				sw.Name, line, prev)
			ok = false
		} else {
			names[sw.Name] = line
		}
		if prev, dup := addrs[sw.MgmtIP]; dup {
			ds.add(line, "Duplicate ip address %s at line number %d, already used at line number %d",
				sw.MgmtIP, line, prev)
			ok = false
		} else {
			addrs[sw.MgmtIP] = line
		}
		if ok {
			sw.Role = Role(section)
			inv.Switches = append(inv.Switches, sw)
		}
	}
	if !ds.OK() {
		return nil, ds
	}
	return inv, nil
}

func parseHostRow(ds *Diagnostics, line int, l string) (Switch, bool) {
	fields := strings.Fields(l)
	if len(fields) < 2 {
		ds.add(line, "Invalid entry at line number %d, expected format is name ansible_host=a.b.c.d %s",
			line, ConnectionString)
		return Switch{}, false
	}
	ok := true
	name := fields[0]
	if !NameRegexp.MatchString(name) {
		ds.add(line, "Invalid switch name %q at line number %d, name can only contain letters, digits and _.:-",
			name, line)
		ok = false
	}

	ip := ""
	if !strings.HasPrefix(fields[1], "ansible_host=") {
		ds.add(line, "Missing ansible_host at line number %d", line)
		ok = false
	} else {
		ip = strings.TrimPrefix(fields[1], "ansible_host=")
		if !util.IsDottedQuad(ip) {
			ds.add(line, "Invalid ip address %s at line number %d", ip, line)
			ok = false
		}
	}

	if got := strings.Join(fields[2:], " "); got != ConnectionString {
		ds.add(line, "Invalid connection string at line number %d, expected %s", line, ConnectionString)
		ok = false
	}
	return Switch{Name: name, MgmtIP: ip}, ok
}

// SerializeHosts renders an inventory in the format ParseHosts accepts.
// Sections are written in a fixed role order.
func SerializeHosts(inv *Inventory) string {
	var sb strings.Builder
	for _, role := range []Role{RoleSpine, RoleThirdPartySpine, RoleLeaf, RoleDlinkSwitch} {
		var rows []Switch
		for _, s := range inv.Switches {
			if s.Role == role {
				rows = append(rows, s)
			}
		}
		if len(rows) == 0 && role != RoleLeaf && role != RoleSpine {
			continue
		}
		fmt.Fprintf(&sb, "[%s]\n", role)
		for _, s := range rows {
			fmt.Fprintf(&sb, "%s ansible_host=%s %s\n", s.Name, s.MgmtIP, ConnectionString)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
