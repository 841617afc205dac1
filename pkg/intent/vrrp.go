package intent

import (
	"strconv"
	"strings"
)

// VrrpIntent is a VRRP triad for a vlan: the virtual gateway plus the
// addresses of the active switch and its peer.
type VrrpIntent struct {
	VlanID        int    `json:"vlan_id"`
	GatewayCIDR   string `json:"gateway_ip"`
	PrimaryCIDR   string `json:"primary_ip"`
	SecondaryCIDR string `json:"secondary_ip"`
	ActiveSwitch  string `json:"active_switch"`
}

const vrrpShape = "vlan,gateway_ip/prefix,primary_ip/prefix,secondary_ip/prefix,active_switch"

// ParseVrrp validates "vlan,gateway,primary,secondary,active_switch" rows.
// Vlans are unique, and all addresses are distinct across the whole file.
func ParseVrrp(text string, lists InventoryLists) ([]VrrpIntent, Diagnostics) {
	rows, ds := rowsOrEmpty(text)
	if ds != nil {
		return nil, ds
	}

	var out []VrrpIntent
	vlanSeen := map[int]int{}
	addrSeen := map[string]int{}
	for _, row := range rows {
		if !checkFieldCount(&ds, row, 5, vrrpShape) {
			continue
		}
		f := row.Fields
		vlan, ok := checkVlan(&ds, row.Line, f[0])
		if ok {
			if prev, dup := vlanSeen[vlan]; dup {
				ds.add(row.Line, "Duplicate vlan id %d at line number %d, already defined at line number %d",
					vlan, row.Line, prev)
				ok = false
			} else {
				vlanSeen[vlan] = row.Line
			}
		}
		for i, what := range []string{"gateway ip", "primary ip", "secondary ip"} {
			addr, _, valid := checkCIDR(&ds, row.Line, what, f[i+1])
			if !valid {
				ok = false
				continue
			}
			if prev, dup := addrSeen[addr]; dup {
				ds.add(row.Line, "Duplicate ip address %s at line number %d, already used at line number %d",
					addr, row.Line, prev)
				ok = false
				continue
			}
			addrSeen[addr] = row.Line
		}
		ok = checkSwitch(&ds, row.Line, "active switch", f[4], lists.Switches) && ok
		if ok {
			out = append(out, VrrpIntent{
				VlanID:        vlan,
				GatewayCIDR:   f[1],
				PrimaryCIDR:   f[2],
				SecondaryCIDR: f[3],
				ActiveSwitch:  f[4],
			})
		}
	}
	if !ds.OK() {
		return nil, ds
	}
	return out, nil
}

// SerializeVrrp renders intents in the format ParseVrrp accepts.
func SerializeVrrp(rows []VrrpIntent) string {
	var sb strings.Builder
	for _, r := range rows {
		sb.WriteString(strings.Join([]string{
			strconv.Itoa(r.VlanID), r.GatewayCIDR, r.PrimaryCIDR, r.SecondaryCIDR, r.ActiveSwitch,
		}, ","))
		sb.WriteString("\n")
	}
	return sb.String()
}
