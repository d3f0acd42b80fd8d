// Package dba implements the cluster-administration façade object
// (spec.md §6): a fixed 14-member Object Bridge whose specification is
// limited to names, arity, and the option-validation rules for
// createCluster — the actual cluster orchestration is external,
// grounded on the teacher's server/dispatcher/query_dispatcher.go router
// pattern (name keyed into a small static table) rather than one method
// per Go type.
package dba

import (
	"sort"
	"strings"

	"github.com/zhukovaskychina/xmysql-shell/internal/bridge"
	"github.com/zhukovaskychina/xmysql-shell/internal/shellerr"
	"github.com/zhukovaskychina/xmysql-shell/internal/value"
)

const api = "Dba"

var allowedSslModes = map[string]bool{"AUTO": true, "DISABLED": true, "REQUIRED": true}

// Dba is the top-level dba module surface object.
type Dba struct {
	*bridge.Base
	verbose bool
}

// New constructs the dba façade with its full, fixed member set.
func New() *Dba {
	d := &Dba{}
	d.Base = bridge.NewBase("Dba")

	d.Method("createCluster", d.createCluster)
	d.Method("deleteSandboxInstance", d.noop("deleteSandboxInstance"))
	d.Method("deploySandboxInstance", d.noop("deploySandboxInstance"))
	d.Method("getCluster", d.getCluster)
	d.Method("help", d.help)
	d.Method("killSandboxInstance", d.noop("killSandboxInstance"))
	d.Method("resetSession", d.noop("resetSession"))
	d.Method("startSandboxInstance", d.noop("startSandboxInstance"))
	d.Method("checkInstanceConfiguration", d.noop("checkInstanceConfiguration"))
	d.Method("stopSandboxInstance", d.noop("stopSandboxInstance"))
	d.Method("dropMetadataSchema", d.noop("dropMetadataSchema"))
	d.Method("configureLocalInstance", d.noop("configureLocalInstance"))
	d.Data("verbose", func() (value.Value, error) { return value.FromBool(d.verbose), nil })
	d.Method("rebootClusterFromCompleteOutage", d.noop("rebootClusterFromCompleteOutage"))

	return d
}

func (d *Dba) noop(name string) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		return value.Undefined(), nil
	}
}

func (d *Dba) help(args []value.Value) (value.Value, error) {
	return value.FromString("Manages InnoDB clusters via the dba façade."), nil
}

func (d *Dba) getCluster(args []value.Value) (value.Value, error) {
	name := "default"
	if len(args) >= 1 {
		n, err := args[0].AsString()
		if err != nil {
			return value.Value{}, shellerr.ArgumentKindError(api+".getCluster", 1, "string")
		}
		name = n
	}
	return value.FromObject(NewCluster(name)), nil
}

// createCluster validates name and options per spec.md §6's S10-S12
// testable properties, then hands back a Cluster bridge.
func (d *Dba) createCluster(args []value.Value) (value.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return value.Value{}, shellerr.ArityError(api+".createCluster", 1, 2, len(args))
	}
	name, err := args[0].AsString()
	if err != nil {
		return value.Value{}, shellerr.ArgumentKindError(api+".createCluster", 1, "string")
	}
	if name == "" {
		return value.Value{}, shellerr.New(shellerr.ArgumentError, api+".createCluster", "The Cluster name cannot be empty")
	}

	if len(args) == 2 {
		opts, err := args[1].AsMap()
		if err != nil {
			return value.Value{}, shellerr.ArgumentKindError(api+".createCluster", 2, "Map")
		}
		if err := validateCreateClusterOptions(opts); err != nil {
			return value.Value{}, err
		}
	}

	return value.FromObject(NewCluster(name)), nil
}

func validateCreateClusterOptions(opts *value.Map) error {
	recognized := map[string]bool{"memberSslMode": true, "adoptFromGR": true, "ipWhitelist": true}
	var unknown []string
	for _, k := range opts.Keys() {
		if !recognized[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return shellerr.New(shellerr.ArgumentError, api+".createCluster", "Invalid values in the options: %s", strings.Join(unknown, ", "))
	}

	sslMode, hasSslMode := opts.Get("memberSslMode")
	adopt, hasAdopt := opts.Get("adoptFromGR")

	if hasSslMode {
		s, err := sslMode.AsString()
		if err != nil || !allowedSslModes[s] {
			return shellerr.New(shellerr.ArgumentError, api+".createCluster",
				"Invalid value for memberSslMode option. Supported values: AUTO,DISABLED,REQUIRED.")
		}
	}
	if hasAdopt {
		b, err := adopt.AsBool()
		if err != nil {
			return shellerr.ArgumentKindError(api+".createCluster", 2, "Bool for adoptFromGR")
		}
		if hasSslMode && b {
			return shellerr.New(shellerr.ArgumentError, api+".createCluster",
				"Cannot use memberSslMode option if adoptFromGR is set to true.")
		}
	}
	if ipw, ok := opts.Get("ipWhitelist"); ok {
		s, err := ipw.AsString()
		if err != nil || s == "" {
			return shellerr.New(shellerr.ArgumentError, api+".createCluster", "ipWhitelist must be a non-empty string")
		}
	}
	return nil
}
