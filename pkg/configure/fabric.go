package configure

import (
	"context"
	"fmt"

	"github.com/newtron-network/ztpfab/pkg/nvos"
	"github.com/newtron-network/ztpfab/pkg/task"
	"github.com/newtron-network/ztpfab/pkg/util"
)

// Fabric membership modes.
const (
	FabricCreate = "create"
	FabricJoin   = "join"
)

// FabricIntent places the current switch in a fabric.
type FabricIntent struct {
	Name string
	Mode string
}

// Fabrics creates or joins a fabric. A switch already in the named fabric
// is left alone; one in a different fabric is an error.
var Fabrics = &Configurator[FabricIntent]{
	Task:   TaskFabric,
	Action: "fabric creation",
	Target: func(env *Env, _ FabricIntent) string { return env.Switch },
	Plan: func(_ context.Context, env *Env, f FabricIntent) ([]Step, error) {
		sw := env.Switch
		return []Step{{
			Switch: sw,
			Exists: func(ctx context.Context) (bool, error) {
				name, err := env.State.FabricOf(ctx, sw)
				if err != nil {
					return false, err
				}
				if name != "" && name != f.Name {
					return false, util.NewConfigError("fabric_name",
						"switch %s already belongs to fabric %s", sw, name)
				}
				return name == f.Name, nil
			},
			Command: static(nvos.NewCommand("fabric-"+f.Mode).On(sw).Opt("name", f.Name)),
			Message: fabricMessage(f),
		}}, nil
	},
}

func fabricMessage(f FabricIntent) string {
	if f.Mode == FabricJoin {
		return fmt.Sprintf("Joined fabric %s", f.Name)
	}
	return fmt.Sprintf("Created fabric %s", f.Name)
}

// ConfigureFabric checks the parameters and creates or joins the fabric.
func ConfigureFabric(ctx context.Context, env *Env, name, mode string) *task.Result {
	rec := task.NewRecorder(Fabrics.Task, Fabrics.Action)
	if err := util.RequireParam("fabric_name", name); err != nil {
		return rec.Fail(env.Switch, err)
	}
	if mode == "" {
		mode = FabricCreate
	}
	if mode != FabricCreate && mode != FabricJoin {
		return rec.Fail(env.Switch, util.NewConfigError("fabric_mode", "must be %s or %s, got %q", FabricCreate, FabricJoin, mode))
	}
	if env.Check {
		return rec.Validated(1)
	}
	return Fabrics.Reconcile(ctx, env, []FabricIntent{{Name: name, Mode: mode}})
}
