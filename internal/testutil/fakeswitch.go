// Package testutil provides an in-memory NOS-CLI fabric for unit tests and
// helpers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Interface is a vRouter interface held by the fake fabric.
type Interface struct {
	Vrouter  string
	IP       string
	Vlan     string
	L3Port   string
	Nic      string
	VrrpID   string
	Primary  string
	Priority string
}

type vlag struct {
	name     string
	peer     string
	port     string
	peerPort string
}

type cluster struct {
	name, node1, node2 string
}

// FakeSwitch simulates the NOS-CLI of a whole fabric. It implements
// nvos.Runner: it parses the argument vectors the client builds, answers
// show commands from its tables and applies create/add commands to them.
type FakeSwitch struct {
	// Local is the switch that commands without a selector run on.
	Local string

	Vlans      map[int][]int
	Clusters   []cluster
	Trunks     map[string]map[string]string
	Vlags      map[string][]vlag
	Vrouters   map[string]string
	Interfaces []Interface
	Ospf       map[string]map[string]string
	Loopbacks  map[string][]string
	Fabrics    map[string]string

	// Fail maps a subcommand to the stderr text it should produce.
	Fail map[string]string

	calls  []string
	nicSeq int
}

// NewFakeSwitch returns an empty fabric whose local switch is local.
func NewFakeSwitch(local string) *FakeSwitch {
	return &FakeSwitch{
		Local:     local,
		Vlans:     map[int][]int{},
		Trunks:    map[string]map[string]string{},
		Vlags:     map[string][]vlag{},
		Vrouters:  map[string]string{},
		Ospf:      map[string]map[string]string{},
		Loopbacks: map[string][]string{},
		Fabrics:   map[string]string{},
		Fail:      map[string]string{},
	}
}

// AddVlan seeds an existing vlan.
func (f *FakeSwitch) AddVlan(id int, untagged ...int) *FakeSwitch {
	f.Vlans[id] = untagged
	return f
}

// AddCluster seeds an existing cluster.
func (f *FakeSwitch) AddCluster(name, node1, node2 string) *FakeSwitch {
	f.Clusters = append(f.Clusters, cluster{name, node1, node2})
	return f
}

// AddTrunk seeds an existing trunk on sw.
func (f *FakeSwitch) AddTrunk(sw, name, ports string) *FakeSwitch {
	if f.Trunks[sw] == nil {
		f.Trunks[sw] = map[string]string{}
	}
	f.Trunks[sw][name] = ports
	return f
}

// AddVlag seeds an existing vLAG on sw towards peer.
func (f *FakeSwitch) AddVlag(sw, name, peer string) *FakeSwitch {
	f.Vlags[sw] = append(f.Vlags[sw], vlag{name: name, peer: peer})
	return f
}

// AddVrouter binds a vRouter to sw.
func (f *FakeSwitch) AddVrouter(sw, name string) *FakeSwitch {
	f.Vrouters[sw] = name
	return f
}

// AddInterface seeds an existing vRouter interface.
func (f *FakeSwitch) AddInterface(i Interface) *FakeSwitch {
	if i.Nic == "" {
		i.Nic = f.nextNic(i.Vlan)
	}
	f.Interfaces = append(f.Interfaces, i)
	return f
}

// AddFabric records that sw is already a member of fabric.
func (f *FakeSwitch) AddFabric(sw, fabric string) *FakeSwitch {
	f.Fabrics[sw] = fabric
	return f
}

// Calls returns every command received, without the CLI prefix.
func (f *FakeSwitch) Calls() []string {
	return append([]string(nil), f.calls...)
}

// Mutations returns the received commands that are not show commands.
func (f *FakeSwitch) Mutations() []string {
	var out []string
	for _, c := range f.calls {
		sub := c
		if strings.HasPrefix(sub, "switch ") {
			fields := strings.Fields(sub)
			sub = strings.Join(fields[2:], " ")
		} else if strings.HasPrefix(sub, "switch-local ") {
			sub = strings.TrimPrefix(sub, "switch-local ")
		}
		if !strings.Contains(strings.Fields(sub)[0], "-show") {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls, keeping fabric state.
func (f *FakeSwitch) Reset() {
	f.calls = nil
}

// Run implements nvos.Runner.
func (f *FakeSwitch) Run(_ context.Context, argv []string) (string, string, int, error) {
	i := 1
	for i < len(argv) && strings.HasPrefix(argv[i], "--") {
		if argv[i] == "--user" {
			i++
		}
		i++
	}
	rest := argv[i:]
	if len(rest) == 0 {
		return "", "", 1, fmt.Errorf("no subcommand in %v", argv)
	}
	f.calls = append(f.calls, strings.Join(rest, " "))

	target := f.Local
	switch rest[0] {
	case "switch":
		target = rest[1]
		rest = rest[2:]
	case "switch-local":
		rest = rest[1:]
	}

	sub := rest[0]
	opts := parseOpts(rest[1:])
	if msg, ok := f.Fail[sub]; ok {
		return "", msg, 1, nil
	}

	out, errText := f.dispatch(target, sub, opts)
	if errText != "" {
		return "", errText, 1, nil
	}
	return out, "", 0, nil
}

func parseOpts(args []string) map[string]string {
	opts := map[string]string{}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "no-show-headers", "count-output":
			opts[args[i]] = "true"
		default:
			if i+1 < len(args) {
				opts[args[i]] = args[i+1]
				i++
			}
		}
	}
	return opts
}

func lines(rows []string) string {
	if len(rows) == 0 {
		return ""
	}
	return strings.Join(rows, "\n") + "\n"
}

func (f *FakeSwitch) nextNic(vlan string) string {
	f.nicSeq++
	if vlan == "" {
		return fmt.Sprintf("eth%d.0", f.nicSeq)
	}
	return fmt.Sprintf("eth%d.%s", f.nicSeq, vlan)
}

func (f *FakeSwitch) dispatch(target, sub string, o map[string]string) (string, string) {
	switch sub {
	case "vlan-show":
		ids := make([]int, 0, len(f.Vlans))
		for id := range f.Vlans {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		rows := make([]string, len(ids))
		for i, id := range ids {
			rows[i] = strconv.Itoa(id)
		}
		return lines(rows), ""

	case "vlan-create":
		id, err := strconv.Atoi(o["id"])
		if err != nil {
			return "", "vlan-create: invalid id " + o["id"]
		}
		if _, ok := f.Vlans[id]; ok {
			return "", fmt.Sprintf("vlan-create: vlan %d already exists", id)
		}
		var ports []int
		for _, p := range strings.Split(o["untagged-ports"], ",") {
			if n, err := strconv.Atoi(p); err == nil {
				ports = append(ports, n)
			}
		}
		f.Vlans[id] = ports
		return "", ""

	case "cluster-show":
		var rows []string
		for _, c := range f.Clusters {
			if o["format"] == "name" {
				rows = append(rows, c.name)
			} else {
				rows = append(rows, c.node1+" "+c.node2)
			}
		}
		return lines(rows), ""

	case "cluster-create":
		for _, c := range f.Clusters {
			if c.name == o["name"] {
				return "", "cluster-create: cluster " + c.name + " already exists"
			}
		}
		f.Clusters = append(f.Clusters, cluster{o["name"], o["cluster-node-1"], o["cluster-node-2"]})
		return "", ""

	case "trunk-show":
		var rows []string
		for name := range f.Trunks[target] {
			rows = append(rows, name)
		}
		sort.Strings(rows)
		return lines(rows), ""

	case "trunk-create":
		if _, ok := f.Trunks[target][o["name"]]; ok {
			return "", "trunk-create: trunk " + o["name"] + " already exists"
		}
		f.AddTrunk(target, o["name"], o["ports"])
		return "", ""

	case "vlag-show":
		var rows []string
		for _, v := range f.Vlags[target] {
			rows = append(rows, target+" "+v.peer)
		}
		return lines(rows), ""

	case "vlag-create":
		if o["mode"] != "active-active" {
			return "", "vlag-create: unsupported mode " + o["mode"]
		}
		f.Vlags[target] = append(f.Vlags[target], vlag{
			name: o["name"], peer: o["peer-switch"], port: o["port"], peerPort: o["peer-port"],
		})
		return "", ""

	case "vrouter-show":
		if name, ok := f.Vrouters[o["location"]]; ok {
			return name + "\n", ""
		}
		return "", ""

	case "vrouter-interface-show":
		var rows []string
		for _, i := range f.Interfaces {
			if (o["ip"] != "" && i.IP != o["ip"]) ||
				(o["vlan"] != "" && i.Vlan != o["vlan"]) ||
				(o["vrouter-name"] != "" && i.Vrouter != o["vrouter-name"]) ||
				(o["l3-port"] != "" && i.L3Port != o["l3-port"]) {
				continue
			}
			switch o["format"] {
			case "nic":
				rows = append(rows, i.Nic)
			case "ip":
				rows = append(rows, i.IP)
			default:
				rows = append(rows, i.Vrouter)
			}
		}
		return lines(rows), ""

	case "vrouter-interface-add":
		for _, i := range f.Interfaces {
			if i.Vrouter == o["vrouter-name"] && i.IP == o["ip"] && i.Vlan == o["vlan"] && i.L3Port == o["l3-port"] {
				return "", "vrouter-interface-add: interface " + o["ip"] + " already exists"
			}
		}
		if o["vrrp-id"] != "" && o["vrrp-primary"] == "" {
			return "", "vrouter-interface-add: vrrp-primary is required with vrrp-id"
		}
		f.AddInterface(Interface{
			Vrouter:  o["vrouter-name"],
			IP:       o["ip"],
			Vlan:     o["vlan"],
			L3Port:   o["l3-port"],
			VrrpID:   o["vrrp-id"],
			Primary:  o["vrrp-primary"],
			Priority: o["vrrp-priority"],
		})
		return "", ""

	case "vrouter-ospf-show":
		var rows []string
		for network := range f.Ospf[o["vrouter-name"]] {
			rows = append(rows, network)
		}
		sort.Strings(rows)
		return lines(rows), ""

	case "vrouter-ospf-add":
		vr := o["vrouter-name"]
		if f.Ospf[vr] == nil {
			f.Ospf[vr] = map[string]string{}
		}
		if _, ok := f.Ospf[vr][o["network"]]; ok {
			return "", "vrouter-ospf-add: network " + o["network"] + " already exists"
		}
		f.Ospf[vr][o["network"]] = o["ospf-area"]
		return "", ""

	case "vrouter-loopback-interface-show":
		return lines(f.Loopbacks[o["vrouter-name"]]), ""

	case "vrouter-loopback-interface-add":
		vr := o["vrouter-name"]
		f.Loopbacks[vr] = append(f.Loopbacks[vr], o["ip"])
		return "", ""

	case "fabric-node-show":
		if name, ok := f.Fabrics[target]; ok {
			return name + "\n", ""
		}
		return "", ""

	case "fabric-create", "fabric-join":
		if _, ok := f.Fabrics[target]; ok {
			return "", sub + ": switch is already in a fabric"
		}
		f.Fabrics[target] = o["name"]
		return "", ""
	}
	return "", sub + ": unknown command"
}
