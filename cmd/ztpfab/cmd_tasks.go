package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/newtron-network/ztpfab/pkg/configure"
	"github.com/newtron-network/ztpfab/pkg/intent"
	"github.com/newtron-network/ztpfab/pkg/task"
	"github.com/newtron-network/ztpfab/pkg/util"
)

var (
	csvFile      string
	clusterNodes string
	fabricName   string
	fabricMode   string
	vrrpID       string
)

// csvTask wraps a task whose only input is a CSV document.
func csvTask(taskName, action string, fn func(ctx context.Context, rt *runtime, csv string) *task.Result) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return runTask(taskName, action, func(ctx context.Context, rt *runtime) *task.Result {
			if csvFile != "" {
				rt.params.CSVFile = csvFile
				rt.params.CSVData = ""
			}
			csv, err := rt.params.CSV()
			if err != nil {
				return rt.fail(err)
			}
			return fn(ctx, rt, csv)
		})
	}
}

// listsTask is a csvTask that also validates switch names against the
// inventory.
func listsTask(taskName, action string, fn func(ctx context.Context, rt *runtime, csv string, lists intent.InventoryLists) *task.Result) func(*cobra.Command, []string) error {
	return csvTask(taskName, action, func(ctx context.Context, rt *runtime, csv string) *task.Result {
		lists, err := rt.params.Lists()
		if err != nil {
			return rt.fail(err)
		}
		return fn(ctx, rt, csv, lists)
	})
}

func overrideVrrpID(rt *runtime) string {
	if vrrpID != "" {
		return vrrpID
	}
	return rt.params.VrrpID
}

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Create a cluster between two switches",
	Long: `Create a cluster between two switches.

The cluster is named "<node1>-<node2>-cluster" and is created from node1.

Examples:
  ztpfab cluster -p spine1.yaml --nodes spine1,spine2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTask(configure.TaskCluster, "cluster creation", func(ctx context.Context, rt *runtime) *task.Result {
			nodes := rt.params.ClusterNodes
			if clusterNodes != "" {
				nodes = util.SplitCommaSeparated(clusterNodes)
			}
			return configure.CreateCluster(ctx, rt.env, nodes)
		})
	},
}

var vlanCmd = &cobra.Command{
	Use:   "vlan",
	Short: "Create fabric-scoped vlans from a CSV file",
	Long: `Create fabric-scoped vlans from a CSV file.

Each row is "vlan_id[,untagged_port ...]".

Examples:
  ztpfab vlan -p leaf1.yaml --csv vlans.csv`,
	RunE: csvTask(configure.TaskVlan, "vlan creation", func(ctx context.Context, rt *runtime, csv string) *task.Result {
		return configure.CreateVlans(ctx, rt.env, csv)
	}),
}

var trunkCmd = &cobra.Command{
	Use:   "trunk",
	Short: "Create trunks (port channels) from a CSV file",
	Long: `Create trunks (port channels) from a CSV file.

Each row is "switch,trunk_name,port[,port...]".`,
	RunE: listsTask(configure.TaskTrunk, "trunk creation", func(ctx context.Context, rt *runtime, csv string, lists intent.InventoryLists) *task.Result {
		return configure.CreateTrunks(ctx, rt.env, csv, lists)
	}),
}

var vlagCmd = &cobra.Command{
	Use:   "vlag",
	Short: "Create active-active vLAGs from a CSV file",
	Long: `Create active-active vLAGs from a CSV file.

Each row is "name,local_switch,local_port,peer_switch,peer_port".`,
	RunE: listsTask(configure.TaskVlag, "vlag creation", func(ctx context.Context, rt *runtime, csv string, lists intent.InventoryLists) *task.Result {
		return configure.CreateVlags(ctx, rt.env, csv, lists)
	}),
}

var sviCmd = &cobra.Command{
	Use:   "svi",
	Short: "Add vrouter interfaces from a CSV file",
	Long: `Add vrouter interfaces on the current switch from a CSV file.

Each row is "gateway_ip/prefix,vlan_id".`,
	RunE: csvTask(configure.TaskSvi, "svi configuration", func(ctx context.Context, rt *runtime, csv string) *task.Result {
		return configure.ConfigureSvis(ctx, rt.env, csv)
	}),
}

var l2VrrpCmd = &cobra.Command{
	Use:   "l2-vrrp",
	Short: "Configure VRRP on the spines for layer-2 vlans",
	Long: `Configure VRRP on the spines for layer-2 vlans.

Each row is "ip/prefix,vlan,active_switch". The virtual IP is the first
host of the network; every spine gets its own interface address.`,
	RunE: listsTask(configure.TaskL2Vrrp, "l2 vrrp configuration", func(ctx context.Context, rt *runtime, csv string, lists intent.InventoryLists) *task.Result {
		return configure.ConfigureL2Vrrp(ctx, rt.env, csv, lists, overrideVrrpID(rt))
	}),
}

var l3OspfCmd = &cobra.Command{
	Use:   "l3-ospf",
	Short: "Configure layer-3 ports and OSPF from a CSV file",
	Long: `Configure layer-3 ports and OSPF from a CSV file.

Each row is "switch,local_port,interface_ip/prefix,area_id".`,
	RunE: listsTask(configure.TaskL3Ospf, "l3 ospf configuration", func(ctx context.Context, rt *runtime, csv string, lists intent.InventoryLists) *task.Result {
		return configure.ConfigureL3Ospf(ctx, rt.env, csv, lists)
	}),
}

var vrrpCmd = &cobra.Command{
	Use:   "vrrp",
	Short: "Configure VRRP between cluster peers from a CSV file",
	Long: `Configure VRRP between cluster peers from a CSV file.

Each row is "vlan,gateway_ip/prefix,primary_ip/prefix,secondary_ip/prefix,active_switch".`,
	RunE: listsTask(configure.TaskVrrp, "vrrp configuration", func(ctx context.Context, rt *runtime, csv string, lists intent.InventoryLists) *task.Result {
		return configure.ConfigureVrrp(ctx, rt.env, csv, lists, overrideVrrpID(rt))
	}),
}

var fabricCmd = &cobra.Command{
	Use:   "fabric",
	Short: "Create or join a fabric",
	Long: `Create or join a fabric.

Examples:
  ztpfab fabric -p spine1.yaml --name dc1
  ztpfab fabric -p leaf1.yaml --name dc1 --mode join`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTask(configure.TaskFabric, "fabric creation", func(ctx context.Context, rt *runtime) *task.Result {
			name, mode := rt.params.FabricName, rt.params.FabricMode
			if fabricName != "" {
				name = fabricName
			}
			if fabricMode != "" {
				mode = fabricMode
			}
			return configure.ConfigureFabric(ctx, rt.env, name, mode)
		})
	},
}

var loopbackCmd = &cobra.Command{
	Use:   "loopback",
	Short: "Assign loopback addresses to vrouters",
	Long: `Assign loopback addresses to vrouters.

The loopbacks parameter maps switch names to addresses.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTask(configure.TaskLoopback, "loopback configuration", func(ctx context.Context, rt *runtime) *task.Result {
			return configure.ConfigureLoopbacks(ctx, rt.env, rt.params.Loopbacks)
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{vlanCmd, trunkCmd, vlagCmd, sviCmd, l2VrrpCmd, l3OspfCmd, vrrpCmd} {
		cmd.Flags().StringVar(&csvFile, "csv", "", "CSV intent file (overrides csv_file)")
	}
	for _, cmd := range []*cobra.Command{l2VrrpCmd, vrrpCmd} {
		cmd.Flags().StringVar(&vrrpID, "vrrp-id", "", "VRRP group id (overrides vrrp_id)")
	}
	clusterCmd.Flags().StringVar(&clusterNodes, "nodes", "", "Comma-separated cluster nodes (overrides cluster_nodes)")
	fabricCmd.Flags().StringVar(&fabricName, "name", "", "Fabric name (overrides fabric_name)")
	fabricCmd.Flags().StringVar(&fabricMode, "mode", "", "create or join (overrides fabric_mode)")
}
