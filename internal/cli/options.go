package cli

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/vk/taskgridgo/internal/task"
	"github.com/zclconf/go-cty/cty"
)

// flagName is the command-line spelling of an option name.
func flagName(option string) string {
	return strings.ReplaceAll(option, "_", "-")
}

// bindOptionFlags declares one flag per task option, with the option's
// default as the flag default.
func bindOptionFlags(fs *pflag.FlagSet, def *task.Definition) {
	for _, opt := range def.Options {
		name := flagName(opt.Name)
		switch {
		case opt.Type.Equals(cty.Bool):
			fs.Bool(name, opt.Default.True(), opt.Description)
		case opt.Type.Equals(cty.Number):
			f, _ := opt.Default.AsBigFloat().Float64()
			fs.Float64(name, f, opt.Description)
		default:
			fs.String(name, opt.Default.AsString(), opt.Description)
		}
	}
}

// optionOverrides collects the option flags the user actually set. Flags left
// at their default are not overrides.
func optionOverrides(fs *pflag.FlagSet, def *task.Definition) (map[string]cty.Value, error) {
	overrides := make(map[string]cty.Value)
	var firstErr error
	for _, opt := range def.Options {
		name := flagName(opt.Name)
		if !fs.Changed(name) {
			continue
		}
		var (
			val cty.Value
			err error
		)
		switch {
		case opt.Type.Equals(cty.Bool):
			var b bool
			b, err = fs.GetBool(name)
			val = cty.BoolVal(b)
		case opt.Type.Equals(cty.Number):
			var f float64
			f, err = fs.GetFloat64(name)
			val = cty.NumberFloatVal(f)
		default:
			var s string
			s, err = fs.GetString(name)
			val = cty.StringVal(s)
		}
		if err != nil && firstErr == nil {
			firstErr = usageError(err)
		}
		overrides[opt.Name] = val
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return overrides, nil
}
