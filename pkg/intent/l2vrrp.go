package intent

import (
	"fmt"
	"strconv"
	"strings"
)

// L2VrrpIntent declares a VRRP-protected gateway subnet for a vlan, with
// one spine acting as the VRRP master.
type L2VrrpIntent struct {
	IPCIDR       string `json:"ip"`
	VlanID       int    `json:"vlan_id"`
	ActiveSwitch string `json:"active_switch"`
}

const l2VrrpShape = "ip/prefix,vlan,active_switch"

// OneInterfacePerVlanMessage prefixes the duplicate (switch, vlan) diagnostic.
const OneInterfacePerVlanMessage = "A router can have only one interface per vlan"

// ParseL2Vrrp validates "ip/prefix,vlan,active_switch" rows. The active
// switch must be a spine and each (switch, vlan) pair may appear once.
func ParseL2Vrrp(text string, lists InventoryLists) ([]L2VrrpIntent, Diagnostics) {
	rows, ds := rowsOrEmpty(text)
	if ds != nil {
		return nil, ds
	}

	var out []L2VrrpIntent
	firstSeen := map[string]int{}
	for _, row := range rows {
		if !checkFieldCount(&ds, row, 3, l2VrrpShape) {
			continue
		}
		f := row.Fields
		_, _, ok := checkCIDR(&ds, row.Line, "ip address", f[0])
		vlan, vlanOK := checkVlan(&ds, row.Line, f[1])
		swOK := checkSwitch(&ds, row.Line, "active switch", f[2], lists.Spines)

		if vlanOK && swOK {
			key := fmt.Sprintf("%s|%d", f[2], vlan)
			if prev, dup := firstSeen[key]; dup {
				ds.add(row.Line, "%s: vlan %d on %s at line number %d is already used at line number %d",
					OneInterfacePerVlanMessage, vlan, f[2], row.Line, prev)
				vlanOK = false
			} else {
				firstSeen[key] = row.Line
			}
		}
		if ok && vlanOK && swOK {
			out = append(out, L2VrrpIntent{IPCIDR: f[0], VlanID: vlan, ActiveSwitch: f[2]})
		}
	}
	if !ds.OK() {
		return nil, ds
	}
	return out, nil
}

// SerializeL2Vrrp renders intents in the format ParseL2Vrrp accepts.
func SerializeL2Vrrp(rows []L2VrrpIntent) string {
	var sb strings.Builder
	for _, r := range rows {
		sb.WriteString(r.IPCIDR + "," + strconv.Itoa(r.VlanID) + "," + r.ActiveSwitch + "\n")
	}
	return sb.String()
}
