package intent

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/newtron-network/ztpfab/pkg/util"
)

// L3OspfIntent is a routed point-to-point port advertised into OSPF.
type L3OspfIntent struct {
	Switch        string `json:"switch"`
	LocalPort     int    `json:"local_port"`
	InterfaceCIDR string `json:"interface_ip"`
	AreaID        int    `json:"area_id"`
}

const l3OspfShape = "switch,local_port,interface_ip/prefix,area_id"

// ParseL3Ospf validates "switch,local_port,interface_ip/prefix,area_id" rows.
// Interface addresses must be unique across the file.
func ParseL3Ospf(text string, lists InventoryLists) ([]L3OspfIntent, Diagnostics) {
	rows, ds := rowsOrEmpty(text)
	if ds != nil {
		return nil, ds
	}

	var out []L3OspfIntent
	firstSeen := map[string]int{}
	for _, row := range rows {
		if !checkFieldCount(&ds, row, 4, l3OspfShape) {
			continue
		}
		f := row.Fields
		ok := checkSwitch(&ds, row.Line, "switch", f[0], lists.Switches)
		port, portOK := checkPort(&ds, row.Line, f[1], MaxL3Port)
		addr, _, cidrOK := checkCIDR(&ds, row.Line, "interface ip", f[2])
		if cidrOK {
			if prev, dup := firstSeen[addr]; dup {
				ds.add(row.Line, "Duplicate ip address %s at line number %d, already used at line number %d",
					addr, row.Line, prev)
				cidrOK = false
			} else {
				firstSeen[addr] = row.Line
			}
		}
		area, areaOK := checkArea(&ds, row.Line, f[3])
		if ok && portOK && cidrOK && areaOK {
			out = append(out, L3OspfIntent{Switch: f[0], LocalPort: port, InterfaceCIDR: f[2], AreaID: area})
		}
	}
	if !ds.OK() {
		return nil, ds
	}
	return out, nil
}

func checkArea(ds *Diagnostics, line int, field string) (int, bool) {
	if !util.IsDigits(field) {
		ds.add(line, "Invalid area id %q at line number %d, area id must be a number", field, line)
		return 0, false
	}
	area, err := strconv.Atoi(field)
	if err != nil || area > MaxAreaID {
		ds.add(line, "Invalid area id %s at line number %d, area id must be in range 0-%d",
			field, line, MaxAreaID)
		return 0, false
	}
	return area, true
}

// SerializeL3Ospf renders intents in the format ParseL3Ospf accepts.
func SerializeL3Ospf(rows []L3OspfIntent) string {
	var sb strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&sb, "%s,%d,%s,%d\n", r.Switch, r.LocalPort, r.InterfaceCIDR, r.AreaID)
	}
	return sb.String()
}
