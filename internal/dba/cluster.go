package dba

import (
	"github.com/zhukovaskychina/xmysql-shell/internal/bridge"
	"github.com/zhukovaskychina/xmysql-shell/internal/value"
)

// Cluster is the Object Bridge returned by createCluster/getCluster,
// printed as "<Cluster:NAME>" per spec.md §6's canonical text forms.
type Cluster struct {
	*bridge.Base
	Name string
}

func NewCluster(name string) *Cluster {
	c := &Cluster{Name: name}
	c.Base = bridge.NewBase("Cluster:" + name)
	c.Data("name", func() (value.Value, error) { return value.FromString(c.Name), nil })
	c.Method("status", func(args []value.Value) (value.Value, error) {
		m := value.NewMap()
		m.Set("clusterName", value.FromString(c.Name))
		return value.FromMap(m), nil
	})
	c.Method("disconnect", func(args []value.Value) (value.Value, error) { return value.Undefined(), nil })
	return c
}
