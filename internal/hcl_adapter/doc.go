// Package hcl_adapter is the HCL implementation of config.Loader and
// config.Compiler.
//
// A task file contains at most one project block and any number of task
// blocks:
//
//	project {
//	  package  = "github.com/romnn/go-service"
//	  env_file = ".env"
//	}
//
//	task "test" {
//	  description = "Run tests"
//	  depends_on  = ["generate"]
//
//	  option "race" {
//	    type    = bool
//	    default = true
//	  }
//
//	  step "exec" {
//	    command = concat(["go", "test"], option.race ? ["-race"] : [], ["./..."])
//	  }
//	}
//
// Step attributes are kept as expressions and evaluated each time the task
// runs, with option, env and project in scope.
package hcl_adapter
