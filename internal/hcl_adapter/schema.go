package hcl_adapter

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot decodes every top-level block a task file may contain. Without a
// remain field gohcl rejects any other top-level attribute or block.
type fileRoot struct {
	Projects []*Project `hcl:"project,block"`
	Tasks    []*Task    `hcl:"task,block"`
}

// Project is the `project` block.
type Project struct {
	Package  string            `hcl:"package,optional"`
	BuildDir string            `hcl:"build_dir,optional"`
	EnvFile  string            `hcl:"env_file,optional"`
	Env      map[string]string `hcl:"env,optional"`
	Protos   []string          `hcl:"protos,optional"`
	Builtin  hcl.Expression    `hcl:"builtin,optional"`
	DefRange hcl.Range         `hcl:",def_range"`
}

// Task is a `task` block.
type Task struct {
	Name        string    `hcl:"name,label"`
	Description string    `hcl:"description,optional"`
	DependsOn   []string  `hcl:"depends_on,optional"`
	Options     []*Option `hcl:"option,block"`
	Steps       []*Step   `hcl:"step,block"`
	DefRange    hcl.Range `hcl:",def_range"`
}

// Option is an `option` block inside a task.
type Option struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Default     hcl.Expression `hcl:"default,optional"`
	Description string         `hcl:"description,optional"`
}

// Step is a `step` block inside a task. Its body is decoded lazily because
// the allowed attributes depend on the kind label.
type Step struct {
	Kind     string    `hcl:"kind,label"`
	Body     hcl.Body  `hcl:",remain"`
	DefRange hcl.Range `hcl:",def_range"`
}
