package configure

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/newtron-network/ztpfab/internal/testutil"
	"github.com/newtron-network/ztpfab/pkg/intent"
	"github.com/newtron-network/ztpfab/pkg/nvos"
	"github.com/newtron-network/ztpfab/pkg/task"
)

const testVrrpID = "18"

var testLists = intent.NewInventoryLists(
	[]string{"spine1", "spine2"},
	[]string{"leaf1", "leaf2", "s1", "s2", "s3"},
)

func newEnv(fake *testutil.FakeSwitch) *Env {
	return NewEnv(nvos.NewClient(fake, nil, nvos.Credentials{}), fake.Local)
}

// newFabric returns a fabric with vRouters on the spines and the leaf pair,
// and the leaves clustered.
func newFabric() *testutil.FakeSwitch {
	return testutil.NewFakeSwitch("leaf1").
		AddVrouter("spine1", "spine1-vr").
		AddVrouter("spine2", "spine2-vr").
		AddVrouter("leaf1", "leaf1-vr").
		AddVrouter("leaf2", "leaf2-vr").
		AddCluster("leaf1-leaf2-cluster", "leaf1", "leaf2")
}

func TestCreateVlansFreshSwitch(t *testing.T) {
	fake := testutil.NewFakeSwitch("leaf1")
	res := CreateVlans(context.Background(), newEnv(fake), "100,1,2\n200\n# comment\n")

	want := []string{
		"vlan-create id 100 scope fabric untagged-ports 1,2",
		"vlan-create id 200 scope fabric",
	}
	if diff := cmp.Diff(want, fake.Mutations()); diff != "" {
		t.Errorf("mutations mismatch (-want +got):\n%s", diff)
	}
	if !res.Changed || res.Failed {
		t.Errorf("changed=%v failed=%v, want changed and not failed", res.Changed, res.Failed)
	}
	if res.Summary.Len() != 2 {
		t.Fatalf("summary length = %d, want 2", res.Summary.Len())
	}
	wantFirst := task.Entry{Switch: "leaf1", Output: "Vlan 100 created with untagged ports 1,2"}
	if res.Summary.Entries[0] != wantFirst {
		t.Errorf("summary[0] = %+v, want %+v", res.Summary.Entries[0], wantFirst)
	}
	if res.Task != TaskVlan {
		t.Errorf("task = %q, want %q", res.Task, TaskVlan)
	}
}

func TestCreateVlansConverged(t *testing.T) {
	fake := testutil.NewFakeSwitch("leaf1").AddVlan(100, 1, 2).AddVlan(200)
	res := CreateVlans(context.Background(), newEnv(fake), "100,1,2\n200\n# comment\n")

	if m := fake.Mutations(); len(m) != 0 {
		t.Errorf("mutations = %v, want none", m)
	}
	if res.Changed {
		t.Error("changed = true, want false")
	}
	if res.Summary.Len() != 0 {
		t.Errorf("summary length = %d, want 0", res.Summary.Len())
	}
	if res.Msg != "vlan creation succeeded" {
		t.Errorf("msg = %q, want %q", res.Msg, "vlan creation succeeded")
	}
}

func TestCreateTrunksInvalidCSV(t *testing.T) {
	fake := testutil.NewFakeSwitch("spine1")
	res := CreateTrunks(context.Background(), newEnv(fake), "spine1,my_trunk,0,2", testLists)

	if !res.Failed || res.Changed {
		t.Errorf("failed=%v changed=%v, want failed and unchanged", res.Failed, res.Changed)
	}
	if res.Summary.Note != task.InvalidCSVSummary {
		t.Errorf("summary = %+v, want %q", res.Summary, task.InvalidCSVSummary)
	}
	if !strings.Contains(res.Msg, "Invalid port 0 at line number 1") {
		t.Errorf("msg = %q, want port 0 diagnostic on line 1", res.Msg)
	}
	if c := fake.Calls(); len(c) != 0 {
		t.Errorf("calls = %v, want none", c)
	}
}

func TestCreateVlagsReconcile(t *testing.T) {
	fake := testutil.NewFakeSwitch("s1").AddVlag("s1", "vlag0", "s2")
	res := CreateVlags(context.Background(), newEnv(fake),
		"vlag1,s1,t1,s2,t2\nvlag1,s1,t1,s3,t2", testLists)

	want := []string{
		"switch s1 vlag-create name vlag1 port t1 peer-switch s3 peer-port t2 mode active-active",
	}
	if diff := cmp.Diff(want, fake.Mutations()); diff != "" {
		t.Errorf("mutations mismatch (-want +got):\n%s", diff)
	}
	if !res.Changed || res.Summary.Len() != 1 {
		t.Errorf("changed=%v summary=%d, want changed with one entry", res.Changed, res.Summary.Len())
	}
}

func TestConfigureL2VrrpDuplicateVlan(t *testing.T) {
	fake := newFabric()
	res := ConfigureL2Vrrp(context.Background(), newEnv(fake),
		"10.1.1.0/24,10,spine1\n10.1.2.0/24,10,spine1", testLists, testVrrpID)

	if !res.Failed || res.Summary.Note != task.InvalidCSVSummary {
		t.Fatalf("result = %+v, want validation failure", res)
	}
	if !strings.Contains(res.Msg, intent.OneInterfacePerVlanMessage) {
		t.Errorf("msg = %q, want %q", res.Msg, intent.OneInterfacePerVlanMessage)
	}
	if c := fake.Calls(); len(c) != 0 {
		t.Errorf("calls = %v, want none", c)
	}
}

func TestValidateHostsMissingLeaf(t *testing.T) {
	text := "[spine]\nspine1 ansible_host=10.0.0.1 " + intent.ConnectionString + "\n"
	inv, res := ValidateHosts(text)
	if inv != nil {
		t.Errorf("inventory = %+v, want nil", inv)
	}
	if !res.Failed || res.Msg != intent.MissingLeafSectionMessage {
		t.Errorf("result = %+v, want failure %q", res, intent.MissingLeafSectionMessage)
	}
}

func TestValidateHosts(t *testing.T) {
	text := strings.Join([]string{
		"[spine]",
		"spine1 ansible_host=10.0.0.1 " + intent.ConnectionString,
		"[leaf]",
		"leaf1 ansible_host=10.0.0.11 " + intent.ConnectionString,
	}, "\n")
	inv, res := ValidateHosts(text)
	if res.Failed || inv == nil {
		t.Fatalf("result = %+v, want success", res)
	}
	want := []task.Entry{
		{Switch: "spine1", Output: "spine 10.0.0.1"},
		{Switch: "leaf1", Output: "leaf 10.0.0.11"},
	}
	if diff := cmp.Diff(want, res.Summary.Entries); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
	if res.Changed {
		t.Error("hosts validation reported a change")
	}
}

func TestCLIErrorAbortsTask(t *testing.T) {
	fake := testutil.NewFakeSwitch("leaf1")
	fake.Fail["vlan-create"] = "vlan-create: vlan 100 is reserved\n"
	res := CreateVlans(context.Background(), newEnv(fake), "100\n200")

	if !res.Failed || res.Changed {
		t.Errorf("failed=%v changed=%v, want failed and unchanged", res.Failed, res.Changed)
	}
	if res.Msg != "vlan creation failed" {
		t.Errorf("msg = %q", res.Msg)
	}
	if res.Exception != "vlan-create: vlan 100 is reserved" {
		t.Errorf("exception = %q", res.Exception)
	}
	want := []task.Entry{{Switch: "leaf1", Output: "vlan-create id 100 scope fabric"}}
	if diff := cmp.Diff(want, res.Summary.Entries); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
	if m := fake.Mutations(); len(m) != 1 {
		t.Errorf("mutations = %v, want only the failing one", m)
	}
}

func TestShowErrorAbortsTask(t *testing.T) {
	fake := testutil.NewFakeSwitch("spine1")
	fake.Fail["trunk-show"] = "trunk-show: switch spine1 not found"
	res := CreateTrunks(context.Background(), newEnv(fake), "spine1,t1,1,2", testLists)

	if !res.Failed || res.Exception != "trunk-show: switch spine1 not found" {
		t.Errorf("result = %+v, want show failure", res)
	}
	if m := fake.Mutations(); len(m) != 0 {
		t.Errorf("mutations = %v, want none", m)
	}
}

func TestCheckMode(t *testing.T) {
	fake := testutil.NewFakeSwitch("leaf1")
	env := newEnv(fake)
	env.Check = true
	res := CreateVlans(context.Background(), env, "100\n200")

	if res.Failed || res.Changed {
		t.Errorf("result = %+v, want unchanged success", res)
	}
	if res.Msg != "vlan creation validated, 2 rows" {
		t.Errorf("msg = %q", res.Msg)
	}
	if c := fake.Calls(); len(c) != 0 {
		t.Errorf("calls = %v, want none", c)
	}
}

func TestCreateCluster(t *testing.T) {
	fake := testutil.NewFakeSwitch("spine1")
	res := CreateCluster(context.Background(), newEnv(fake), []string{"spine1", "spine2"})

	want := []string{
		"switch spine1 cluster-create name spine1-spine2-cluster cluster-node-1 spine1 cluster-node-2 spine2",
	}
	if diff := cmp.Diff(want, fake.Mutations()); diff != "" {
		t.Errorf("mutations mismatch (-want +got):\n%s", diff)
	}
	if !res.Changed || res.Msg != "cluster creation succeeded" {
		t.Errorf("result = %+v", res)
	}
}

func TestCreateClusterParams(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
	}{
		{"one node", []string{"spine1"}},
		{"three nodes", []string{"spine1", "spine2", "spine3"}},
		{"same node twice", []string{"spine1", "spine1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeSwitch("spine1")
			res := CreateCluster(context.Background(), newEnv(fake), tt.nodes)
			if !res.Failed || !strings.Contains(res.Exception, "cluster_nodes") {
				t.Errorf("result = %+v, want cluster_nodes failure", res)
			}
			if c := fake.Calls(); len(c) != 0 {
				t.Errorf("calls = %v, want none", c)
			}
		})
	}
}

func TestConfigureSviMissingVrouter(t *testing.T) {
	fake := testutil.NewFakeSwitch("leaf1")
	res := ConfigureSvis(context.Background(), newEnv(fake), "10.9.9.1/24,30")

	if !res.Failed || !strings.Contains(res.Exception, "no vrouter found on switch leaf1") {
		t.Errorf("result = %+v, want missing vrouter failure", res)
	}
}

func TestConfigureSvis(t *testing.T) {
	fake := newFabric()
	res := ConfigureSvis(context.Background(), newEnv(fake), "10.9.9.1/24,30")

	want := []string{"switch leaf1 vrouter-interface-add vrouter-name leaf1-vr ip 10.9.9.1/24 vlan 30"}
	if diff := cmp.Diff(want, fake.Mutations()); diff != "" {
		t.Errorf("mutations mismatch (-want +got):\n%s", diff)
	}
	if !res.Changed {
		t.Error("changed = false")
	}
}

func TestConfigureL2Vrrp(t *testing.T) {
	fake := newFabric()
	res := ConfigureL2Vrrp(context.Background(), newEnv(fake), "10.1.1.0/24,10,spine2", testLists, testVrrpID)

	want := []string{
		"switch spine1 vrouter-interface-add vrouter-name spine1-vr ip 10.1.1.2/24 vlan 10",
		"switch spine1 vrouter-interface-add vrouter-name spine1-vr ip 10.1.1.1/24 vlan 10 if data vrrp-id 18 vrrp-primary eth1.10 vrrp-priority 109",
		"switch spine2 vrouter-interface-add vrouter-name spine2-vr ip 10.1.1.3/24 vlan 10",
		"switch spine2 vrouter-interface-add vrouter-name spine2-vr ip 10.1.1.1/24 vlan 10 if data vrrp-id 18 vrrp-primary eth3.10 vrrp-priority 110",
	}
	if diff := cmp.Diff(want, fake.Mutations()); diff != "" {
		t.Errorf("mutations mismatch (-want +got):\n%s", diff)
	}
	if !res.Changed || res.Summary.Len() != 4 {
		t.Errorf("changed=%v summary=%d, want 4 changes", res.Changed, res.Summary.Len())
	}
}

func TestConfigureL2VrrpRequiresVrrpID(t *testing.T) {
	fake := newFabric()
	res := ConfigureL2Vrrp(context.Background(), newEnv(fake), "10.1.1.0/24,10,spine2", testLists, "")
	if !res.Failed || !strings.Contains(res.Exception, "vrrp_id") {
		t.Errorf("result = %+v, want vrrp_id failure", res)
	}
	if m := fake.Mutations(); len(m) != 0 {
		t.Errorf("mutations = %v, want none", m)
	}
}

func TestConfigureL2VrrpSubnetTooSmall(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		wantErr string
	}{
		{"host route after valid row", "10.1.1.0/24,10,spine1\n10.2.2.1/32,20,spine1", "10.2.2.1/32"},
		{"point to point", "10.3.3.0/31,30,spine2", "10.3.3.0/31"},
		{"no room for both spines", "10.4.4.0/30,40,spine1", "subnet 10.4.4.0/30 has 2 usable hosts, 3 needed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, check := range []bool{false, true} {
				fake := newFabric()
				env := newEnv(fake)
				env.Check = check
				res := ConfigureL2Vrrp(context.Background(), env, tt.csv, testLists, testVrrpID)
				if !res.Failed || !strings.Contains(res.Exception, tt.wantErr) {
					t.Errorf("check=%v: result = %+v, want failure mentioning %q", check, res, tt.wantErr)
				}
				if c := fake.Calls(); len(c) != 0 {
					t.Errorf("check=%v: calls = %v, want none", check, c)
				}
			}
		})
	}

	// A /29 leaves room for the virtual address and both spines.
	fake := newFabric()
	res := ConfigureL2Vrrp(context.Background(), newEnv(fake), "10.5.5.0/29,50,spine1", testLists, testVrrpID)
	if res.Failed || len(fake.Mutations()) != 4 {
		t.Errorf("result = %+v, mutations = %v", res, fake.Mutations())
	}
}

func TestVrrpIDCheckedBeforeCLI(t *testing.T) {
	tests := []struct {
		name string
		run  func(env *Env) *task.Result
	}{
		{"l2 vrrp", func(env *Env) *task.Result {
			return ConfigureL2Vrrp(context.Background(), env, "10.1.1.0/24,10,spine2", testLists, "")
		}},
		{"vrrp", func(env *Env) *task.Result {
			return ConfigureVrrp(context.Background(), env, "20,10.2.2.1/24,10.2.2.2/24,10.2.2.3/24,leaf1", testLists, "")
		}},
	}
	for _, tt := range tests {
		for _, check := range []bool{false, true} {
			fake := newFabric()
			env := newEnv(fake)
			env.Check = check
			res := tt.run(env)
			if !res.Failed || !strings.Contains(res.Exception, "vrrp_id") {
				t.Errorf("%s check=%v: result = %+v, want vrrp_id failure", tt.name, check, res)
			}
			if c := fake.Calls(); len(c) != 0 {
				t.Errorf("%s check=%v: calls = %v, want none", tt.name, check, c)
			}
		}
	}
}

func TestConfigureL3Ospf(t *testing.T) {
	fake := newFabric()
	res := ConfigureL3Ospf(context.Background(), newEnv(fake), "spine1,5,172.16.0.1/30,7", testLists)

	want := []string{
		"switch spine1 vrouter-interface-add vrouter-name spine1-vr l3-port 5 ip 172.16.0.1/30",
		"switch spine1 vrouter-ospf-add vrouter-name spine1-vr network 172.16.0.0/30 ospf-area 7",
	}
	if diff := cmp.Diff(want, fake.Mutations()); diff != "" {
		t.Errorf("mutations mismatch (-want +got):\n%s", diff)
	}
	if !res.Changed {
		t.Error("changed = false")
	}
}

func TestConfigureVrrp(t *testing.T) {
	fake := newFabric()
	res := ConfigureVrrp(context.Background(), newEnv(fake),
		"20,10.2.2.1/24,10.2.2.2/24,10.2.2.3/24,leaf1", testLists, testVrrpID)

	want := []string{
		"vlan-create id 20 scope fabric",
		"switch leaf1 vrouter-interface-add vrouter-name leaf1-vr ip 10.2.2.2/24 vlan 20",
		"switch leaf1 vrouter-interface-add vrouter-name leaf1-vr ip 10.2.2.1/24 vlan 20 if data vrrp-id 18 vrrp-primary eth1.20 vrrp-priority 110",
		"switch leaf2 vrouter-interface-add vrouter-name leaf2-vr ip 10.2.2.3/24 vlan 20",
		"switch leaf2 vrouter-interface-add vrouter-name leaf2-vr ip 10.2.2.1/24 vlan 20 if data vrrp-id 18 vrrp-primary eth3.20 vrrp-priority 109",
	}
	if diff := cmp.Diff(want, fake.Mutations()); diff != "" {
		t.Errorf("mutations mismatch (-want +got):\n%s", diff)
	}
	if !res.Changed || res.Failed {
		t.Errorf("result = %+v", res)
	}
}

func TestConfigureVrrpWithoutCluster(t *testing.T) {
	fake := testutil.NewFakeSwitch("leaf1").AddVrouter("leaf1", "leaf1-vr")
	res := ConfigureVrrp(context.Background(), newEnv(fake),
		"20,10.2.2.1/24,10.2.2.2/24,10.2.2.3/24,leaf1", testLists, testVrrpID)

	if !res.Failed || !strings.Contains(res.Exception, "not part of a cluster") {
		t.Errorf("result = %+v, want cluster failure", res)
	}
	if res.Msg != "vrrp configuration failed" {
		t.Errorf("msg = %q", res.Msg)
	}
}

func TestConfigureFabric(t *testing.T) {
	tests := []struct {
		name     string
		seed     string
		mode     string
		want     []string
		wantFail string
	}{
		{"create", "", "", []string{"switch leaf1 fabric-create name fab1"}, ""},
		{"join", "", FabricJoin, []string{"switch leaf1 fabric-join name fab1"}, ""},
		{"already member", "fab1", FabricCreate, nil, ""},
		{"other fabric", "fab2", FabricCreate, nil, "already belongs to fabric fab2"},
		{"bad mode", "", "merge", nil, "fabric_mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeSwitch("leaf1")
			if tt.seed != "" {
				fake.AddFabric("leaf1", tt.seed)
			}
			res := ConfigureFabric(context.Background(), newEnv(fake), "fab1", tt.mode)
			if diff := cmp.Diff(tt.want, fake.Mutations()); diff != "" {
				t.Errorf("mutations mismatch (-want +got):\n%s", diff)
			}
			if tt.wantFail == "" {
				if res.Failed {
					t.Errorf("unexpected failure: %+v", res)
				}
				return
			}
			if !res.Failed || !strings.Contains(res.Exception, tt.wantFail) {
				t.Errorf("result = %+v, want failure containing %q", res, tt.wantFail)
			}
		})
	}
}

func TestConfigureLoopbacks(t *testing.T) {
	fake := newFabric()
	res := ConfigureLoopbacks(context.Background(), newEnv(fake),
		map[string]string{"spine2": "10.0.0.2", "spine1": "10.0.0.1"})

	want := []string{
		"switch spine1 vrouter-loopback-interface-add vrouter-name spine1-vr ip 10.0.0.1",
		"switch spine2 vrouter-loopback-interface-add vrouter-name spine2-vr ip 10.0.0.2",
	}
	if diff := cmp.Diff(want, fake.Mutations()); diff != "" {
		t.Errorf("mutations mismatch (-want +got):\n%s", diff)
	}
	if !res.Changed {
		t.Error("changed = false")
	}

	res = ConfigureLoopbacks(context.Background(), newEnv(fake), map[string]string{"spine1": "10.0.0"})
	if !res.Failed || !strings.Contains(res.Exception, "invalid loopback address") {
		t.Errorf("result = %+v, want invalid address failure", res)
	}
}

// Running any configurator a second time must not mutate the fabric.
func TestIdempotence(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		run  func(env *Env) *task.Result
	}{
		{"cluster", func(env *Env) *task.Result {
			return CreateCluster(ctx, env, []string{"spine1", "spine2"})
		}},
		{"vlan", func(env *Env) *task.Result {
			return CreateVlans(ctx, env, "100,1,2\n200\n300,4")
		}},
		{"trunk", func(env *Env) *task.Result {
			return CreateTrunks(ctx, env, "leaf1,t1,1,2\nleaf2,t1,1,2\nleaf1,t2,3", testLists)
		}},
		{"vlag", func(env *Env) *task.Result {
			return CreateVlags(ctx, env, "vlag1,leaf1,t1,leaf2,t1", testLists)
		}},
		{"svi", func(env *Env) *task.Result {
			return ConfigureSvis(ctx, env, "10.9.9.1/24,30\n10.9.8.1/24,31")
		}},
		{"l2 vrrp", func(env *Env) *task.Result {
			return ConfigureL2Vrrp(ctx, env, "10.1.1.0/24,10,spine1\n10.1.2.0/24,11,spine2", testLists, testVrrpID)
		}},
		{"l3 ospf", func(env *Env) *task.Result {
			return ConfigureL3Ospf(ctx, env, "spine1,5,172.16.0.1/30,0\nspine2,6,172.16.0.5/30,0", testLists)
		}},
		{"vrrp", func(env *Env) *task.Result {
			return ConfigureVrrp(ctx, env, "20,10.2.2.1/24,10.2.2.2/24,10.2.2.3/24,leaf1", testLists, testVrrpID)
		}},
		{"fabric", func(env *Env) *task.Result {
			return ConfigureFabric(ctx, env, "fab1", FabricCreate)
		}},
		{"loopback", func(env *Env) *task.Result {
			return ConfigureLoopbacks(ctx, env, map[string]string{"spine1": "10.0.0.1"})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFabric()
			env := newEnv(fake)

			first := tt.run(env)
			if first.Failed || !first.Changed {
				t.Fatalf("first run = %+v, want changed success", first)
			}
			fake.Reset()

			second := tt.run(env)
			if second.Failed || second.Changed {
				t.Errorf("second run = %+v, want unchanged success", second)
			}
			if m := fake.Mutations(); len(m) != 0 {
				t.Errorf("second run mutations = %v, want none", m)
			}
			if second.Summary.Len() != 0 {
				t.Errorf("second run summary = %+v, want empty", second.Summary)
			}
		})
	}
}

func TestMutationInvariants(t *testing.T) {
	ctx := context.Background()
	fake := newFabric()
	env := newEnv(fake)
	CreateVlans(ctx, env, "100,1\n200")
	ConfigureVrrp(ctx, env, "300,10.2.2.1/24,10.2.2.2/24,10.2.2.3/24,leaf1", testLists, testVrrpID)
	CreateVlags(ctx, env, "vlag1,leaf1,t1,leaf2,t1\nvlag2,spine1,t2,spine2,t2", testLists)

	var vlans, vlags int
	for _, m := range fake.Mutations() {
		if strings.Contains(m, "vlan-create") {
			vlans++
			if !strings.Contains(m, " scope fabric") {
				t.Errorf("vlan created without fabric scope: %s", m)
			}
		}
		if strings.Contains(m, "vlag-create") {
			vlags++
			if !strings.HasSuffix(m, " mode active-active") {
				t.Errorf("vlag created without active-active mode: %s", m)
			}
		}
	}
	if vlans != 3 || vlags != 2 {
		t.Errorf("saw %d vlan and %d vlag creates, want 3 and 2", vlans, vlags)
	}
}
