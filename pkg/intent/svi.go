package intent

import (
	"strconv"
	"strings"
)

// SviIntent is a vRouter interface on a vlan of the current switch.
type SviIntent struct {
	GatewayCIDR string `json:"gateway_ip"`
	VlanID      int    `json:"vlan_id"`
}

const sviShape = "gateway_ip/prefix,vlan_id"

// ParseSvis validates "gateway_ip/prefix,vlan_id" rows. A vlan may carry
// only one interface.
func ParseSvis(text string) ([]SviIntent, Diagnostics) {
	rows, ds := rowsOrEmpty(text)
	if ds != nil {
		return nil, ds
	}

	var out []SviIntent
	vlanSeen := map[int]int{}
	for _, row := range rows {
		if !checkFieldCount(&ds, row, 2, sviShape) {
			continue
		}
		_, _, ok := checkCIDR(&ds, row.Line, "gateway ip", row.Fields[0])
		vlan, vlanOK := checkVlan(&ds, row.Line, row.Fields[1])
		if vlanOK {
			if prev, dup := vlanSeen[vlan]; dup {
				ds.add(row.Line, "%s: vlan %d at line number %d is already used at line number %d",
					OneInterfacePerVlanMessage, vlan, row.Line, prev)
				vlanOK = false
			} else {
				vlanSeen[vlan] = row.Line
			}
		}
		if ok && vlanOK {
			out = append(out, SviIntent{GatewayCIDR: row.Fields[0], VlanID: vlan})
		}
	}
	if !ds.OK() {
		return nil, ds
	}
	return out, nil
}

// SerializeSvis renders intents in the format ParseSvis accepts.
func SerializeSvis(rows []SviIntent) string {
	var sb strings.Builder
	for _, r := range rows {
		sb.WriteString(r.GatewayCIDR + "," + strconv.Itoa(r.VlanID) + "\n")
	}
	return sb.String()
}
