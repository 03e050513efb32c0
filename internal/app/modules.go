package app

import (
	"github.com/vk/taskgridgo/internal/registry"
	"github.com/vk/taskgridgo/modules/env_vars"
	"github.com/vk/taskgridgo/modules/gotasks"
)

// builtinModules is the list of task modules compiled into the binary. They
// are registered unless the configuration or the project block disables them.
var builtinModules = []registry.Module{
	&gotasks.Module{},
	&env_vars.Module{},
}
