package intent

import (
	"strconv"
	"strings"

	"github.com/newtron-network/ztpfab/pkg/util"
)

// VlanIntent is a fabric-scoped vlan with optional untagged ports.
type VlanIntent struct {
	VlanID        int   `json:"vlan_id"`
	UntaggedPorts []int `json:"untagged_ports,omitempty"`
}

// ParseVlans validates "vlan_id[,port[,port...]]" rows. Vlan ids must be
// unique across the file and ports unique within a row.
func ParseVlans(text string) ([]VlanIntent, Diagnostics) {
	rows, ds := rowsOrEmpty(text)
	if ds != nil {
		return nil, ds
	}

	var out []VlanIntent
	firstSeen := map[int]int{}
	for _, row := range rows {
		id, ok := checkVlan(&ds, row.Line, row.Fields[0])
		if ok {
			if prev, dup := firstSeen[id]; dup {
				ds.add(row.Line, "Duplicate vlan id %d at line number %d, already defined at line number %d",
					id, row.Line, prev)
				ok = false
			} else {
				firstSeen[id] = row.Line
			}
		}
		ports, portsOK := checkPorts(&ds, row.Line, row.Fields[1:])
		if ok && portsOK {
			v := VlanIntent{VlanID: id}
			if len(ports) > 0 {
				v.UntaggedPorts = ports
			}
			out = append(out, v)
		}
	}
	if !ds.OK() {
		return nil, ds
	}
	return out, nil
}

// SerializeVlans renders intents in the format ParseVlans accepts.
func SerializeVlans(vlans []VlanIntent) string {
	var sb strings.Builder
	for _, v := range vlans {
		sb.WriteString(strconv.Itoa(v.VlanID))
		if len(v.UntaggedPorts) > 0 {
			sb.WriteString(",")
			sb.WriteString(util.JoinInts(v.UntaggedPorts))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
