package task

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Option declares a named, typed parameter of a task. Only primitive types are
// supported because every option is also exposed as a command-line flag.
type Option struct {
	Name        string
	Type        cty.Type
	Default     cty.Value
	Description string
}

// BoolOption declares a boolean option.
func BoolOption(name string, def bool, description string) Option {
	return Option{Name: name, Type: cty.Bool, Default: cty.BoolVal(def), Description: description}
}

// StringOption declares a string option.
func StringOption(name, def, description string) Option {
	return Option{Name: name, Type: cty.String, Default: cty.StringVal(def), Description: description}
}

func (o *Option) normalize() error {
	if o.Name == "" {
		return fmt.Errorf("option name cannot be empty")
	}
	switch {
	case o.Type.Equals(cty.Bool), o.Type.Equals(cty.String), o.Type.Equals(cty.Number):
	default:
		return fmt.Errorf("option %q: unsupported type %s, want bool, string or number", o.Name, typeName(o.Type))
	}

	if o.Default == cty.NilVal || o.Default.IsNull() {
		o.Default = zeroValue(o.Type)
		return nil
	}
	v, err := convert.Convert(o.Default, o.Type)
	if err != nil {
		return fmt.Errorf("option %q: default does not match type %s: %w", o.Name, typeName(o.Type), err)
	}
	o.Default = v
	return nil
}

func zeroValue(t cty.Type) cty.Value {
	switch {
	case t.Equals(cty.Bool):
		return cty.False
	case t.Equals(cty.Number):
		return cty.Zero
	default:
		return cty.StringVal("")
	}
}

func typeName(t cty.Type) string {
	if t == cty.NilType {
		return "<none>"
	}
	return t.FriendlyName()
}

// Options holds the resolved option values a task body observes.
type Options map[string]cty.Value

// Value returns the raw value of an option.
func (o Options) Value(name string) (cty.Value, bool) {
	v, ok := o[name]
	return v, ok
}

// Bool returns the value of a boolean option, or false when it is unset.
func (o Options) Bool(name string) bool {
	v, ok := o[name]
	if !ok || v.IsNull() || !v.Type().Equals(cty.Bool) {
		return false
	}
	return v.True()
}

// String returns the value of a string option, or "" when it is unset.
func (o Options) String(name string) string {
	v, ok := o[name]
	if !ok || v.IsNull() || !v.Type().Equals(cty.String) {
		return ""
	}
	return v.AsString()
}

// Int returns the value of a numeric option truncated to an int.
func (o Options) Int(name string) int {
	v, ok := o[name]
	if !ok || v.IsNull() || !v.Type().Equals(cty.Number) {
		return 0
	}
	i, _ := v.AsBigFloat().Int64()
	return int(i)
}

// Float returns the value of a numeric option.
func (o Options) Float(name string) float64 {
	v, ok := o[name]
	if !ok || v.IsNull() || !v.Type().Equals(cty.Number) {
		return 0
	}
	f, _ := v.AsBigFloat().Float64()
	return f
}

// Object returns the options as a cty object, suitable for an HCL evaluation
// context.
func (o Options) Object() cty.Value {
	if len(o) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(map[string]cty.Value(o))
}

// Names returns the option names in sorted order.
func (o Options) Names() []string {
	names := make([]string, 0, len(o))
	for name := range o {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveOptions merges the declared defaults with the given overrides.
// Override values are converted to the declared option type.
func (d *Definition) ResolveOptions(overrides map[string]cty.Value) (Options, error) {
	resolved := make(Options, len(d.Options))
	for _, opt := range d.Options {
		resolved[opt.Name] = opt.Default
	}

	// Sorted for a stable first error.
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		opt, ok := d.Option(name)
		if !ok {
			return nil, &UnknownOptionError{Task: d.Name, Option: name}
		}
		v, err := convert.Convert(overrides[name], opt.Type)
		if err != nil || v.IsNull() || !v.IsKnown() {
			return nil, &InvalidOptionError{Task: d.Name, Option: name, Want: typeName(opt.Type), Err: err}
		}
		resolved[name] = v
	}
	return resolved, nil
}

// FormatValue renders an option value the way it would be typed on a
// command line.
func FormatValue(v cty.Value) string {
	if v == cty.NilVal || v.IsNull() {
		return ""
	}
	switch {
	case v.Type().Equals(cty.Bool):
		if v.True() {
			return "true"
		}
		return "false"
	case v.Type().Equals(cty.Number):
		return v.AsBigFloat().Text('f', -1)
	case v.Type().Equals(cty.String):
		return v.AsString()
	default:
		return v.GoString()
	}
}
