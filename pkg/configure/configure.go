// Package configure converges switches to validated intent. Every domain
// is a Configurator that turns an intent row into a plan of steps; each
// step is one existence query and, when the entity is absent, one mutating
// command. Re-running a configurator on a converged fabric issues no
// mutations.
package configure

import (
	"context"

	"github.com/newtron-network/ztpfab/pkg/intent"
	"github.com/newtron-network/ztpfab/pkg/nvos"
	"github.com/newtron-network/ztpfab/pkg/state"
	"github.com/newtron-network/ztpfab/pkg/task"
	"github.com/newtron-network/ztpfab/pkg/util"
)

// Task names reported in the envelope.
const (
	TaskCluster  = "Cluster creation"
	TaskVlan     = "Vlan creation"
	TaskTrunk    = "Trunk creation"
	TaskVlag     = "Vlag creation"
	TaskSvi      = "SVI configuration"
	TaskL2Vrrp   = "L2 VRRP configuration"
	TaskL3Ospf   = "L3 OSPF configuration"
	TaskVrrp     = "VRRP configuration"
	TaskFabric   = "Fabric creation"
	TaskLoopback = "Loopback configuration"
	TaskEula     = "EULA acceptance"
	TaskReset    = "Switch config reset"
	TaskHosts    = "Hosts validation"
)

// Env is what a configurator runs against: the CLI of the switch the task
// was started on, and the state queries over it.
type Env struct {
	CLI   *nvos.Client
	State *state.Querier
	// Switch is the current switch; rows that do not name one apply here.
	Switch string
	// Check stops after validation.
	Check bool
}

// NewEnv creates an Env for cli running on the switch named current.
func NewEnv(cli *nvos.Client, current string) *Env {
	return &Env{CLI: cli, State: state.New(cli), Switch: current}
}

// Step is one query-then-create unit of reconciliation.
type Step struct {
	// Switch keys the summary line and failure report.
	Switch string
	// Exists reports whether the entity is already present.
	Exists func(ctx context.Context) (bool, error)
	// Command builds the mutation. It runs only when Exists is false, after
	// every earlier step of the same plan has been applied.
	Command func(ctx context.Context) (*nvos.Command, error)
	// Message is the summary text recorded when the command succeeds.
	Message string
}

// Configurator reconciles one intent domain.
type Configurator[R any] struct {
	Task string
	// Action is the "<domain> <op>" phrase of the envelope msg.
	Action string
	// Target is the switch a row is reported against when planning fails.
	Target func(env *Env, row R) string
	// Plan expands a row into steps. It may query state.
	Plan func(ctx context.Context, env *Env, row R) ([]Step, error)
	// Prepare, when set, checks parameters and rows as a whole before any
	// CLI call, in check mode too.
	Prepare func(env *Env, rows []R) error
}

// Run validates the parse result and reconciles rows. Invalid input never
// reaches the CLI.
func (c *Configurator[R]) Run(ctx context.Context, env *Env, rows []R, ds intent.Diagnostics) *task.Result {
	rec := task.NewRecorder(c.Task, c.Action)
	if !ds.OK() {
		return rec.Invalid(ds.String())
	}
	if err := c.prepare(env, rows); err != nil {
		return rec.Fail(env.Switch, err)
	}
	if env.Check {
		return rec.Validated(len(rows))
	}
	return c.reconcile(ctx, env, rec, rows)
}

// Reconcile applies rows in order. The first error aborts the task.
func (c *Configurator[R]) Reconcile(ctx context.Context, env *Env, rows []R) *task.Result {
	rec := task.NewRecorder(c.Task, c.Action)
	if err := c.prepare(env, rows); err != nil {
		return rec.Fail(env.Switch, err)
	}
	return c.reconcile(ctx, env, rec, rows)
}

func (c *Configurator[R]) prepare(env *Env, rows []R) error {
	if c.Prepare == nil {
		return nil
	}
	return c.Prepare(env, rows)
}

func (c *Configurator[R]) reconcile(ctx context.Context, env *Env, rec *task.Recorder, rows []R) *task.Result {
	for _, row := range rows {
		steps, err := c.Plan(ctx, env, row)
		if err != nil {
			return rec.Fail(c.Target(env, row), err)
		}
		for _, s := range steps {
			if err := apply(ctx, env, rec, s); err != nil {
				return rec.Fail(s.Switch, err)
			}
		}
	}
	return rec.Success()
}

func apply(ctx context.Context, env *Env, rec *task.Recorder, s Step) error {
	present, err := s.Exists(ctx)
	if err != nil {
		return err
	}
	if present {
		util.WithSwitch(s.Switch).Debugf("already present: %s", s.Message)
		rec.Skipped()
		return nil
	}
	cmd, err := s.Command(ctx)
	if err != nil {
		return err
	}
	if _, err := env.CLI.Exec(ctx, cmd); err != nil {
		return err
	}
	rec.Changed(s.Switch, "%s", s.Message)
	return nil
}

// member builds an Exists func testing key against the set a query returns.
func member(query func(ctx context.Context) (util.StringSet, error), key string) func(context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		set, err := query(ctx)
		if err != nil {
			return false, err
		}
		return set.Has(key), nil
	}
}

// static wraps a prebuilt command.
func static(cmd *nvos.Command) func(context.Context) (*nvos.Command, error) {
	return func(context.Context) (*nvos.Command, error) {
		return cmd, nil
	}
}
