// Package params loads task parameter files. A parameter file is YAML and
// carries what the fleet runner would pass to a single task invocation:
// credentials, the CSV input, inventory lists and task-specific values.
package params

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/newtron-network/ztpfab/pkg/intent"
	"github.com/newtron-network/ztpfab/pkg/nvos"
	"github.com/newtron-network/ztpfab/pkg/util"
)

// Params are the inputs of one task run.
type Params struct {
	CurrentSwitch string `yaml:"current_switch,omitempty"`
	Username      string `yaml:"username,omitempty"`
	Password      string `yaml:"password,omitempty"`
	// InitialPassword is the factory password used to log in for EULA
	// acceptance.
	InitialPassword string `yaml:"initial_password,omitempty"`

	CSVFile   string `yaml:"csv_file,omitempty"`
	CSVData   string `yaml:"csv_data,omitempty"`
	HostsFile string `yaml:"hosts_file,omitempty"`

	intent.InventoryLists `yaml:",inline"`

	ClusterNodes []string          `yaml:"cluster_nodes,omitempty"`
	FabricName   string            `yaml:"fabric_name,omitempty"`
	FabricMode   string            `yaml:"fabric_mode,omitempty"`
	VrrpID       string            `yaml:"vrrp_id,omitempty"`
	Loopbacks    map[string]string `yaml:"loopbacks,omitempty"`
}

// Load reads a parameter file. Unknown keys are rejected.
func Load(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading parameters: %w", err)
	}
	return Parse(data)
}

// Parse decodes parameter YAML.
func Parse(data []byte) (*Params, error) {
	p := &Params{}
	if len(bytes.TrimSpace(data)) == 0 {
		return p, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("parsing parameters: %w", err)
	}
	return p, nil
}

// Credentials returns the CLI credentials.
func (p *Params) Credentials() nvos.Credentials {
	return nvos.Credentials{Username: p.Username, Password: p.Password}
}

// CSV returns the inline CSV data or the contents of CSVFile.
func (p *Params) CSV() (string, error) {
	if p.CSVData != "" {
		return p.CSVData, nil
	}
	if err := util.RequireParam("csv_file", p.CSVFile); err != nil {
		return "", err
	}
	data, err := os.ReadFile(p.CSVFile)
	if err != nil {
		return "", fmt.Errorf("reading csv file: %w", err)
	}
	return string(data), nil
}

// Inventory parses HostsFile. It returns nil and no error when no hosts file
// is configured, and a *util.ValidationError when the file is invalid.
func (p *Params) Inventory() (*intent.Inventory, error) {
	if p.HostsFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(p.HostsFile)
	if err != nil {
		return nil, fmt.Errorf("reading hosts file: %w", err)
	}
	inv, ds := intent.ParseHosts(string(data))
	if !ds.OK() {
		return nil, ds.Err()
	}
	return inv, nil
}

// Lists returns the inventory lists validators check switch names against.
// A hosts file wins over explicit lists; a missing switch_list is the
// spines followed by the leaves.
func (p *Params) Lists() (intent.InventoryLists, error) {
	inv, err := p.Inventory()
	if err != nil {
		return intent.InventoryLists{}, err
	}
	if inv != nil {
		return inv.Lists(), nil
	}
	lists := p.InventoryLists
	if len(lists.Switches) == 0 {
		lists = intent.NewInventoryLists(lists.Spines, lists.Leaves)
	}
	return lists, nil
}

// Hosts returns the switches remote tasks act on: the hosts file entries,
// or else the switch list with names used as addresses.
func (p *Params) Hosts() ([]intent.Switch, error) {
	inv, err := p.Inventory()
	if err != nil {
		return nil, err
	}
	if inv != nil {
		return inv.Switches, nil
	}
	lists, err := p.Lists()
	if err != nil {
		return nil, err
	}
	hosts := make([]intent.Switch, len(lists.Switches))
	for i, name := range lists.Switches {
		hosts[i] = intent.Switch{Name: name}
	}
	return hosts, nil
}
