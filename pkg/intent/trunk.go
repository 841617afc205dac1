package intent

import (
	"strings"

	"github.com/newtron-network/ztpfab/pkg/util"
)

// TrunkIntent is a link aggregation of ports on one switch.
type TrunkIntent struct {
	Switch string `json:"switch"`
	Name   string `json:"trunk_name"`
	Ports  []int  `json:"ports"`
}

const trunkShape = "switch,trunk_name,port[,port...]"

// ParseTrunks validates "switch,trunk_name,port[,port...]" rows.
func ParseTrunks(text string, lists InventoryLists) ([]TrunkIntent, Diagnostics) {
	rows, ds := rowsOrEmpty(text)
	if ds != nil {
		return nil, ds
	}

	var out []TrunkIntent
	firstSeen := map[string]int{}
	for _, row := range rows {
		if len(row.Fields) < 3 {
			ds.add(row.Line, "Invalid entry at line number %d, expected format is %s", row.Line, trunkShape)
			continue
		}
		sw, name := row.Fields[0], row.Fields[1]
		ok := checkSwitch(&ds, row.Line, "switch", sw, lists.Switches)
		ok = checkName(&ds, row.Line, "trunk name", name) && ok
		ports, portsOK := checkPorts(&ds, row.Line, row.Fields[2:])
		if ok {
			key := sw + "|" + name
			if prev, dup := firstSeen[key]; dup {
				ds.add(row.Line, "Duplicate trunk %s on switch %s at line number %d, already defined at line number %d",
					name, sw, row.Line, prev)
				ok = false
			} else {
				firstSeen[key] = row.Line
			}
		}
		if ok && portsOK {
			out = append(out, TrunkIntent{Switch: sw, Name: name, Ports: ports})
		}
	}
	if !ds.OK() {
		return nil, ds
	}
	return out, nil
}

// SerializeTrunks renders intents in the format ParseTrunks accepts.
func SerializeTrunks(trunks []TrunkIntent) string {
	var sb strings.Builder
	for _, t := range trunks {
		sb.WriteString(t.Switch + "," + t.Name + "," + util.JoinInts(t.Ports) + "\n")
	}
	return sb.String()
}
