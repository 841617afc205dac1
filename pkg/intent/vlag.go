package intent

import "strings"

// VlagIntent is a virtual LAG between a trunk on one switch and a trunk on
// its cluster peer.
type VlagIntent struct {
	Name        string `json:"name"`
	LocalSwitch string `json:"local_switch"`
	LocalPort   string `json:"local_port"`
	PeerSwitch  string `json:"peer_switch"`
	PeerPort    string `json:"peer_port"`
}

const vlagShape = "name,local_switch,local_port,peer_switch,peer_port"

// ParseVlags validates "name,local_sw,local_port,peer_sw,peer_port" rows.
func ParseVlags(text string, lists InventoryLists) ([]VlagIntent, Diagnostics) {
	rows, ds := rowsOrEmpty(text)
	if ds != nil {
		return nil, ds
	}

	var out []VlagIntent
	// A switch pair carries one vLAG; its name may repeat across pairs.
	firstSeen := map[string]int{}
	for _, row := range rows {
		if !checkFieldCount(&ds, row, 5, vlagShape) {
			continue
		}
		f := row.Fields
		ok := true
		for i, label := range []string{"vlag name", "local switch", "local port", "peer switch", "peer port"} {
			if f[i] == "" {
				ds.add(row.Line, "Missing %s at line number %d", label, row.Line)
				ok = false
			}
		}
		if !ok {
			continue
		}

		ok = checkName(&ds, row.Line, "vlag name", f[0])
		ok = checkSwitch(&ds, row.Line, "local switch", f[1], lists.Switches) && ok
		ok = checkName(&ds, row.Line, "local port", f[2]) && ok
		ok = checkSwitch(&ds, row.Line, "peer switch", f[3], lists.Switches) && ok
		ok = checkName(&ds, row.Line, "peer port", f[4]) && ok
		if f[1] == f[3] {
			ds.add(row.Line, "Invalid entry at line number %d, local switch and peer switch must differ", row.Line)
			ok = false
		}
		if ok {
			key := f[1] + "|" + f[3]
			if prev, dup := firstSeen[key]; dup {
				ds.add(row.Line, "Duplicate vlag between %s and %s at line number %d, already defined at line number %d",
					f[1], f[3], row.Line, prev)
				ok = false
			} else {
				firstSeen[key] = row.Line
			}
		}
		if ok {
			out = append(out, VlagIntent{
				Name:        f[0],
				LocalSwitch: f[1],
				LocalPort:   f[2],
				PeerSwitch:  f[3],
				PeerPort:    f[4],
			})
		}
	}
	if !ds.OK() {
		return nil, ds
	}
	return out, nil
}

// SerializeVlags renders intents in the format ParseVlags accepts.
func SerializeVlags(vlags []VlagIntent) string {
	var sb strings.Builder
	for _, v := range vlags {
		sb.WriteString(strings.Join([]string{v.Name, v.LocalSwitch, v.LocalPort, v.PeerSwitch, v.PeerPort}, ","))
		sb.WriteString("\n")
	}
	return sb.String()
}
