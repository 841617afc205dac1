// Package state holds the read-only "show" queries configurators consult
// before every mutation. Each query returns a normalized set; empty CLI
// output means no pre-existing entity.
package state

import (
	"context"
	"fmt"

	"github.com/newtron-network/ztpfab/pkg/nvos"
	"github.com/newtron-network/ztpfab/pkg/util"
)

// Querier issues show commands through a CLI client.
type Querier struct {
	cli *nvos.Client
}

// New creates a Querier over cli.
func New(cli *nvos.Client) *Querier {
	return &Querier{cli: cli}
}

func (q *Querier) set(ctx context.Context, cmd *nvos.Command) (util.StringSet, error) {
	tokens, err := q.cli.Query(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return util.NewStringSet(tokens...), nil
}

// ListClusters returns the cluster names visible on the given switch.
func (q *Querier) ListClusters(ctx context.Context, sw string) (util.StringSet, error) {
	return q.set(ctx, nvos.Show("cluster").On(sw).Format("name"))
}

// ClusterPeer returns the other node of the cluster sw belongs to, or ""
// when sw is not clustered.
func (q *Querier) ClusterPeer(ctx context.Context, sw string) (string, error) {
	tokens, err := q.cli.Query(ctx, nvos.Show("cluster").On(sw).Format("cluster-node-1", "cluster-node-2"))
	if err != nil {
		return "", err
	}
	for i := 0; i+1 < len(tokens); i += 2 {
		switch sw {
		case tokens[i]:
			return tokens[i+1], nil
		case tokens[i+1]:
			return tokens[i], nil
		}
	}
	return "", nil
}

// ListVlans returns the fabric-wide vlan ids as strings.
func (q *Querier) ListVlans(ctx context.Context) (util.StringSet, error) {
	return q.set(ctx, nvos.Show("vlan").Format("id"))
}

// ListTrunks returns the trunk names configured on the given switch.
func (q *Querier) ListTrunks(ctx context.Context, sw string) (util.StringSet, error) {
	return q.set(ctx, nvos.Show("trunk").On(sw).Format("name"))
}

// ListVlagPeers returns the tokens of "vlag-show format switch,peer-switch"
// on the given switch. Membership of a peer switch name means a vLAG towards
// it already exists.
func (q *Querier) ListVlagPeers(ctx context.Context, sw string) (util.StringSet, error) {
	return q.set(ctx, nvos.Show("vlag").On(sw).Format("switch", "peer-switch"))
}

// VrouterNameOn returns the vRouter bound to sw, or "" when there is none.
func (q *Querier) VrouterNameOn(ctx context.Context, sw string) (string, error) {
	tokens, err := q.cli.Query(ctx, nvos.Show("vrouter").Opt("location", sw).Format("name"))
	if err != nil {
		return "", err
	}
	switch len(tokens) {
	case 0:
		return "", nil
	case 1:
		return tokens[0], nil
	default:
		return "", fmt.Errorf("switch %s hosts %d vrouters, expected one", sw, len(tokens))
	}
}

// RequireVrouter is VrouterNameOn that treats a missing vRouter as an error.
func (q *Querier) RequireVrouter(ctx context.Context, sw string) (string, error) {
	name, err := q.VrouterNameOn(ctx, sw)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", fmt.Errorf("no vrouter found on switch %s: %w", sw, util.ErrNotFound)
	}
	return name, nil
}

// ListVrouterInterfaces returns the vRouters already hosting (ip, vlan).
func (q *Querier) ListVrouterInterfaces(ctx context.Context, ip, vlan string) (util.StringSet, error) {
	return q.set(ctx, nvos.Show("vrouter-interface").Opt("ip", ip).Opt("vlan", vlan).Format("name"))
}

// InterfaceNic returns the nic of the vRouter interface carrying ip on vlan,
// or "" when it does not exist.
func (q *Querier) InterfaceNic(ctx context.Context, vrouter, ip, vlan string) (string, error) {
	tokens, err := q.cli.Query(ctx, nvos.Show("vrouter-interface").
		Opt("vrouter-name", vrouter).Opt("ip", ip).Opt("vlan", vlan).Format("nic"))
	if err != nil || len(tokens) == 0 {
		return "", err
	}
	return tokens[0], nil
}

// ListL3PortInterfaces returns the addresses configured on vrouter for the
// given l3 port.
func (q *Querier) ListL3PortInterfaces(ctx context.Context, vrouter, port string) (util.StringSet, error) {
	return q.set(ctx, nvos.Show("vrouter-interface").
		Opt("vrouter-name", vrouter).Opt("l3-port", port).Format("ip"))
}

// ListOspfNetworks returns the networks advertised by vrouter.
func (q *Querier) ListOspfNetworks(ctx context.Context, vrouter string) (util.StringSet, error) {
	return q.set(ctx, nvos.Show("vrouter-ospf").Opt("vrouter-name", vrouter).Format("network"))
}

// ListLoopbacks returns the loopback addresses of vrouter.
func (q *Querier) ListLoopbacks(ctx context.Context, vrouter string) (util.StringSet, error) {
	return q.set(ctx, nvos.Show("vrouter-loopback-interface").Opt("vrouter-name", vrouter).Format("ip"))
}

// FabricOf returns the name of the fabric sw belongs to, or "".
func (q *Querier) FabricOf(ctx context.Context, sw string) (string, error) {
	tokens, err := q.cli.Query(ctx, nvos.Show("fabric-node").On(sw).Format("fab-name"))
	if err != nil || len(tokens) == 0 {
		return "", err
	}
	return tokens[0], nil
}
