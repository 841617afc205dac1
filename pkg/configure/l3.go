package configure

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/newtron-network/ztpfab/pkg/intent"
	"github.com/newtron-network/ztpfab/pkg/nvos"
	"github.com/newtron-network/ztpfab/pkg/task"
	"github.com/newtron-network/ztpfab/pkg/util"
)

// VRRP priorities of the master and backup routers.
const (
	PriorityActive  = "110"
	PriorityStandby = "109"
)

// interfaceStep adds ip on vlan to vrouter unless vrouter already hosts it.
func interfaceStep(env *Env, sw, vrouter, ip, vlan string) Step {
	return Step{
		Switch: sw,
		Exists: member(func(ctx context.Context) (util.StringSet, error) {
			return env.State.ListVrouterInterfaces(ctx, ip, vlan)
		}, vrouter),
		Command: static(nvos.NewCommand("vrouter-interface-add").On(sw).
			Opt("vrouter-name", vrouter).
			Opt("ip", ip).
			Opt("vlan", vlan)),
		Message: fmt.Sprintf("Added interface %s on vlan %s to %s", ip, vlan, vrouter),
	}
}

// vipStep adds the VRRP virtual address vip on vlan, bound to the nic of the
// interface carrying host. The nic is resolved when the step runs since the
// host interface may have been created by the previous step.
func vipStep(env *Env, sw, vrouter, host, vip, vlan, vrrpID, priority string) Step {
	return Step{
		Switch: sw,
		Exists: member(func(ctx context.Context) (util.StringSet, error) {
			return env.State.ListVrouterInterfaces(ctx, vip, vlan)
		}, vrouter),
		Command: func(ctx context.Context) (*nvos.Command, error) {
			nic, err := env.State.InterfaceNic(ctx, vrouter, host, vlan)
			if err != nil {
				return nil, err
			}
			if nic == "" {
				return nil, fmt.Errorf("no interface %s on vlan %s of %s: %w", host, vlan, vrouter, util.ErrNotFound)
			}
			return nvos.NewCommand("vrouter-interface-add").On(sw).
				Opt("vrouter-name", vrouter).
				Opt("ip", vip).
				Opt("vlan", vlan).
				Opt("if", "data").
				Opt("vrrp-id", vrrpID).
				Opt("vrrp-primary", nic).
				Opt("vrrp-priority", priority), nil
		},
		Message: fmt.Sprintf("Added VRRP interface %s on vlan %s to %s with priority %s", vip, vlan, vrouter, priority),
	}
}

// Svis adds a gateway interface to the vRouter of the current switch.
var Svis = &Configurator[intent.SviIntent]{
	Task:   TaskSvi,
	Action: "svi configuration",
	Target: func(env *Env, _ intent.SviIntent) string { return env.Switch },
	Plan: func(ctx context.Context, env *Env, s intent.SviIntent) ([]Step, error) {
		vrouter, err := env.State.RequireVrouter(ctx, env.Switch)
		if err != nil {
			return nil, err
		}
		return []Step{interfaceStep(env, env.Switch, vrouter, s.GatewayCIDR, strconv.Itoa(s.VlanID))}, nil
	},
}

// ConfigureSvis validates and applies an SVI CSV.
func ConfigureSvis(ctx context.Context, env *Env, csv string) *task.Result {
	rows, ds := intent.ParseSvis(csv)
	return Svis.Run(ctx, env, rows, ds)
}

// subnetHost returns the n-th host of cidr's subnet, keeping the prefix.
func subnetHost(cidr string, n int) (string, error) {
	ip, mask, err := util.ParseIPWithMask(cidr)
	if err != nil {
		return "", util.NewConfigError("ip", "%v", err)
	}
	host := util.NthHost(ip.String(), mask, n)
	if host == "" {
		return "", util.NewConfigError("ip", "subnet %s has no host number %d", cidr, n)
	}
	return fmt.Sprintf("%s/%d", host, mask), nil
}

// checkSubnetHosts fails unless cidr's subnet has at least n usable hosts.
func checkSubnetHosts(cidr string, n int) error {
	_, mask, err := util.ParseIPWithMask(cidr)
	if err != nil {
		return util.NewConfigError("ip", "%v", err)
	}
	usable := (1 << uint(32-mask)) - 2
	if usable < n {
		return util.NewConfigError("ip", "subnet %s has %d usable hosts, %d needed", cidr, max(usable, 0), n)
	}
	return nil
}

// L2Vrrp builds the L2 VRRP configurator for the given spines. The virtual
// address is the first host of the subnet; spine i gets host i+2. The
// row's active spine is VRRP master.
func L2Vrrp(spines []string, vrrpID string) *Configurator[intent.L2VrrpIntent] {
	return &Configurator[intent.L2VrrpIntent]{
		Task:   TaskL2Vrrp,
		Action: "l2 vrrp configuration",
		Target: func(_ *Env, r intent.L2VrrpIntent) string { return r.ActiveSwitch },
		Prepare: func(_ *Env, rows []intent.L2VrrpIntent) error {
			if err := util.RequireParam("vrrp_id", vrrpID); err != nil {
				return err
			}
			// The virtual address plus one address per spine.
			for _, r := range rows {
				if err := checkSubnetHosts(r.IPCIDR, len(spines)+1); err != nil {
					return err
				}
			}
			return nil
		},
		Plan: func(ctx context.Context, env *Env, r intent.L2VrrpIntent) ([]Step, error) {
			vlan := strconv.Itoa(r.VlanID)
			vip, err := subnetHost(r.IPCIDR, 1)
			if err != nil {
				return nil, err
			}

			var steps []Step
			for i, spine := range spines {
				vrouter, err := env.State.RequireVrouter(ctx, spine)
				if err != nil {
					return nil, err
				}
				host, err := subnetHost(r.IPCIDR, i+2)
				if err != nil {
					return nil, err
				}
				priority := PriorityStandby
				if spine == r.ActiveSwitch {
					priority = PriorityActive
				}
				steps = append(steps,
					interfaceStep(env, spine, vrouter, host, vlan),
					vipStep(env, spine, vrouter, host, vip, vlan, vrrpID, priority))
			}
			return steps, nil
		},
	}
}

// ConfigureL2Vrrp validates and applies an L2 VRRP CSV across the spines.
func ConfigureL2Vrrp(ctx context.Context, env *Env, csv string, lists intent.InventoryLists, vrrpID string) *task.Result {
	rows, ds := intent.ParseL2Vrrp(csv, lists)
	return L2Vrrp(lists.Spines, vrrpID).Run(ctx, env, rows, ds)
}

// L3Ospf adds a routed port interface and advertises its network in OSPF.
// An advertised network is left alone even if its area differs.
var L3Ospf = &Configurator[intent.L3OspfIntent]{
	Task:   TaskL3Ospf,
	Action: "l3 ospf configuration",
	Target: func(_ *Env, r intent.L3OspfIntent) string { return r.Switch },
	Plan: func(ctx context.Context, env *Env, r intent.L3OspfIntent) ([]Step, error) {
		vrouter, err := env.State.RequireVrouter(ctx, r.Switch)
		if err != nil {
			return nil, err
		}
		port := strconv.Itoa(r.LocalPort)
		area := strconv.Itoa(r.AreaID)
		ip, mask := util.SplitIPMask(r.InterfaceCIDR)
		network := fmt.Sprintf("%s/%d", util.ComputeNetworkAddr(ip, mask), mask)

		return []Step{
			{
				Switch: r.Switch,
				Exists: member(func(ctx context.Context) (util.StringSet, error) {
					return env.State.ListL3PortInterfaces(ctx, vrouter, port)
				}, r.InterfaceCIDR),
				Command: static(nvos.NewCommand("vrouter-interface-add").On(r.Switch).
					Opt("vrouter-name", vrouter).
					Opt("l3-port", port).
					Opt("ip", r.InterfaceCIDR)),
				Message: fmt.Sprintf("Added interface %s on port %s to %s", r.InterfaceCIDR, port, vrouter),
			},
			{
				Switch: r.Switch,
				Exists: member(func(ctx context.Context) (util.StringSet, error) {
					return env.State.ListOspfNetworks(ctx, vrouter)
				}, network),
				Command: static(nvos.NewCommand("vrouter-ospf-add").On(r.Switch).
					Opt("vrouter-name", vrouter).
					Opt("network", network).
					Opt("ospf-area", area)),
				Message: fmt.Sprintf("Added OSPF network %s in area %s to %s", network, area, vrouter),
			},
		}, nil
	},
}

// ConfigureL3Ospf validates and applies an L3 OSPF CSV.
func ConfigureL3Ospf(ctx context.Context, env *Env, csv string, lists intent.InventoryLists) *task.Result {
	rows, ds := intent.ParseL3Ospf(csv, lists)
	return L3Ospf.Run(ctx, env, rows, ds)
}

// Vrrp builds the VRRP configurator. The active switch carries the primary
// address, its cluster peer the secondary, and both carry the gateway as
// VRRP virtual address. The vlan is created fabric-wide when missing.
func Vrrp(vrrpID string) *Configurator[intent.VrrpIntent] {
	return &Configurator[intent.VrrpIntent]{
		Task:   TaskVrrp,
		Action: "vrrp configuration",
		Target: func(_ *Env, r intent.VrrpIntent) string { return r.ActiveSwitch },
		Prepare: func(*Env, []intent.VrrpIntent) error {
			return util.RequireParam("vrrp_id", vrrpID)
		},
		Plan: func(ctx context.Context, env *Env, r intent.VrrpIntent) ([]Step, error) {
			peer, err := env.State.ClusterPeer(ctx, r.ActiveSwitch)
			if err != nil {
				return nil, err
			}
			if peer == "" {
				return nil, fmt.Errorf("switch %s is not part of a cluster: %w", r.ActiveSwitch, util.ErrNotFound)
			}

			vlan := strconv.Itoa(r.VlanID)
			steps := []Step{vlanStep(env, r.ActiveSwitch, intent.VlanIntent{VlanID: r.VlanID})}
			members := []struct{ sw, addr, priority string }{
				{r.ActiveSwitch, r.PrimaryCIDR, PriorityActive},
				{peer, r.SecondaryCIDR, PriorityStandby},
			}
			for _, m := range members {
				vrouter, err := env.State.RequireVrouter(ctx, m.sw)
				if err != nil {
					return nil, err
				}
				steps = append(steps,
					interfaceStep(env, m.sw, vrouter, m.addr, vlan),
					vipStep(env, m.sw, vrouter, m.addr, r.GatewayCIDR, vlan, vrrpID, m.priority))
			}
			return steps, nil
		},
	}
}

// ConfigureVrrp validates and applies a VRRP CSV.
func ConfigureVrrp(ctx context.Context, env *Env, csv string, lists intent.InventoryLists, vrrpID string) *task.Result {
	rows, ds := intent.ParseVrrp(csv, lists)
	return Vrrp(vrrpID).Run(ctx, env, rows, ds)
}

// LoopbackIntent is the loopback address of one switch's vRouter.
type LoopbackIntent struct {
	Switch string
	IP     string
}

// Loopbacks adds loopback addresses.
var Loopbacks = &Configurator[LoopbackIntent]{
	Task:   TaskLoopback,
	Action: "loopback configuration",
	Target: func(_ *Env, l LoopbackIntent) string { return l.Switch },
	Plan: func(ctx context.Context, env *Env, l LoopbackIntent) ([]Step, error) {
		vrouter, err := env.State.RequireVrouter(ctx, l.Switch)
		if err != nil {
			return nil, err
		}
		return []Step{{
			Switch: l.Switch,
			Exists: member(func(ctx context.Context) (util.StringSet, error) {
				return env.State.ListLoopbacks(ctx, vrouter)
			}, l.IP),
			Command: static(nvos.NewCommand("vrouter-loopback-interface-add").On(l.Switch).
				Opt("vrouter-name", vrouter).
				Opt("ip", l.IP)),
			Message: fmt.Sprintf("Added loopback %s to %s", l.IP, vrouter),
		}}, nil
	},
}

// ConfigureLoopbacks validates a switch to address map and applies it in
// switch name order.
func ConfigureLoopbacks(ctx context.Context, env *Env, loopbacks map[string]string) *task.Result {
	rec := task.NewRecorder(Loopbacks.Task, Loopbacks.Action)
	if len(loopbacks) == 0 {
		return rec.Fail(env.Switch, util.RequireParam("loopbacks", ""))
	}

	names := make([]string, 0, len(loopbacks))
	for sw := range loopbacks {
		names = append(names, sw)
	}
	sort.Strings(names)

	rows := make([]LoopbackIntent, 0, len(names))
	for _, sw := range names {
		ip := loopbacks[sw]
		if !util.IsDottedQuad(ip) {
			return rec.Fail(sw, util.NewConfigError("loopbacks", "invalid loopback address %q for %s", ip, sw))
		}
		rows = append(rows, LoopbackIntent{Switch: sw, IP: ip})
	}
	if env.Check {
		return rec.Validated(len(rows))
	}
	return Loopbacks.Reconcile(ctx, env, rows)
}
