package configure

import (
	"context"
	"fmt"
	"strconv"

	"github.com/newtron-network/ztpfab/pkg/intent"
	"github.com/newtron-network/ztpfab/pkg/nvos"
	"github.com/newtron-network/ztpfab/pkg/task"
	"github.com/newtron-network/ztpfab/pkg/util"
)

// ClusterIntent pairs two switches for HA.
type ClusterIntent struct {
	Node1 string
	Node2 string
}

// Name is the cluster name derived from its nodes.
func (c ClusterIntent) Name() string {
	return c.Node1 + "-" + c.Node2 + "-cluster"
}

// Clusters creates a cluster from node1's point of view.
var Clusters = &Configurator[ClusterIntent]{
	Task:   TaskCluster,
	Action: "cluster creation",
	Target: func(_ *Env, c ClusterIntent) string { return c.Node1 },
	Plan: func(_ context.Context, env *Env, c ClusterIntent) ([]Step, error) {
		name := c.Name()
		return []Step{{
			Switch: c.Node1,
			Exists: member(func(ctx context.Context) (util.StringSet, error) {
				return env.State.ListClusters(ctx, c.Node1)
			}, name),
			Command: static(nvos.NewCommand("cluster-create").On(c.Node1).
				Opt("name", name).
				Opt("cluster-node-1", c.Node1).
				Opt("cluster-node-2", c.Node2)),
			Message: fmt.Sprintf("%s created", name),
		}}, nil
	},
}

// CreateCluster creates the cluster of exactly two switches.
func CreateCluster(ctx context.Context, env *Env, nodes []string) *task.Result {
	rec := task.NewRecorder(Clusters.Task, Clusters.Action)
	if len(nodes) != 2 {
		return rec.Fail(env.Switch, util.NewConfigError("cluster_nodes",
			"exactly two switches are required, got %d", len(nodes)))
	}
	if nodes[0] == nodes[1] {
		return rec.Fail(env.Switch, util.NewConfigError("cluster_nodes",
			"a switch cannot be clustered with itself"))
	}
	if env.Check {
		return rec.Validated(1)
	}
	return Clusters.Reconcile(ctx, env, []ClusterIntent{{Node1: nodes[0], Node2: nodes[1]}})
}

// Vlans creates fabric-scoped vlans.
var Vlans = &Configurator[intent.VlanIntent]{
	Task:   TaskVlan,
	Action: "vlan creation",
	Target: func(env *Env, _ intent.VlanIntent) string { return env.Switch },
	Plan: func(_ context.Context, env *Env, v intent.VlanIntent) ([]Step, error) {
		return []Step{vlanStep(env, env.Switch, v)}, nil
	},
}

func vlanStep(env *Env, sw string, v intent.VlanIntent) Step {
	id := strconv.Itoa(v.VlanID)
	cmd := nvos.NewCommand("vlan-create").
		Opt("id", id).
		Opt("scope", "fabric").
		Opt("untagged-ports", util.JoinInts(v.UntaggedPorts))

	msg := fmt.Sprintf("Vlan %s created", id)
	if len(v.UntaggedPorts) > 0 {
		msg += " with untagged ports " + util.JoinInts(v.UntaggedPorts)
	}
	return Step{
		Switch:  sw,
		Exists:  member(env.State.ListVlans, id),
		Command: static(cmd),
		Message: msg,
	}
}

// CreateVlans validates and applies a vlan CSV.
func CreateVlans(ctx context.Context, env *Env, csv string) *task.Result {
	rows, ds := intent.ParseVlans(csv)
	return Vlans.Run(ctx, env, rows, ds)
}

// Trunks creates trunks; an existing trunk of the same name is left alone.
var Trunks = &Configurator[intent.TrunkIntent]{
	Task:   TaskTrunk,
	Action: "trunk creation",
	Target: func(_ *Env, t intent.TrunkIntent) string { return t.Switch },
	Plan: func(_ context.Context, env *Env, t intent.TrunkIntent) ([]Step, error) {
		ports := util.JoinInts(t.Ports)
		return []Step{{
			Switch: t.Switch,
			Exists: member(func(ctx context.Context) (util.StringSet, error) {
				return env.State.ListTrunks(ctx, t.Switch)
			}, t.Name),
			Command: static(nvos.NewCommand("trunk-create").On(t.Switch).
				Opt("name", t.Name).
				Opt("ports", ports)),
			Message: fmt.Sprintf("Trunk %s created with ports %s", t.Name, ports),
		}}, nil
	},
}

// CreateTrunks validates and applies a trunk CSV.
func CreateTrunks(ctx context.Context, env *Env, csv string, lists intent.InventoryLists) *task.Result {
	rows, ds := intent.ParseTrunks(csv, lists)
	return Trunks.Run(ctx, env, rows, ds)
}

// Vlags creates active-active vLAGs. A vLAG exists when the local switch
// already has one towards the peer switch.
var Vlags = &Configurator[intent.VlagIntent]{
	Task:   TaskVlag,
	Action: "vlag creation",
	Target: func(_ *Env, v intent.VlagIntent) string { return v.LocalSwitch },
	Plan: func(_ context.Context, env *Env, v intent.VlagIntent) ([]Step, error) {
		return []Step{{
			Switch: v.LocalSwitch,
			Exists: member(func(ctx context.Context) (util.StringSet, error) {
				return env.State.ListVlagPeers(ctx, v.LocalSwitch)
			}, v.PeerSwitch),
			Command: static(nvos.NewCommand("vlag-create").On(v.LocalSwitch).
				Opt("name", v.Name).
				Opt("port", v.LocalPort).
				Opt("peer-switch", v.PeerSwitch).
				Opt("peer-port", v.PeerPort).
				Opt("mode", "active-active")),
			Message: fmt.Sprintf("vLAG %s created towards %s", v.Name, v.PeerSwitch),
		}}, nil
	},
}

// CreateVlags validates and applies a vLAG CSV.
func CreateVlags(ctx context.Context, env *Env, csv string, lists intent.InventoryLists) *task.Result {
	rows, ds := intent.ParseVlags(csv, lists)
	return Vlags.Run(ctx, env, rows, ds)
}
