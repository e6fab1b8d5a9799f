package frontend

import (
	"fmt"
	"strings"
)

// Language is the source language of a translation unit.
type Language int

const (
	LangC Language = iota
	LangCXX
)

func (l Language) String() string {
	if l == LangCXX {
		return "c++"
	}
	return "c"
}

const (
	// DefaultSysroot matches a compiler invoked without --sysroot.
	DefaultSysroot = "/"
	// DefaultResourceDir holds the embedded builtin headers.
	DefaultResourceDir = "/usr/lib/type-extractor"
)

// MacroOp is a -D or -U from the command line, kept in order.
type MacroOp struct {
	Name  string
	Value string
	Undef bool
}

// Options are the compiler-style flags of one invocation.
type Options struct {
	Language    Language
	LanguageSet bool
	Std         string

	Sysroot     string
	ResourceDir string
	Target      string

	QuoteDirs   []string
	IncludeDirs []string
	SystemDirs  []string
	AfterDirs   []string

	Macros        []MacroOp
	ForceIncludes []string

	NoStdInc     bool
	NoStdLibInc  bool
	NoBuiltinInc bool

	SuppressWarnings bool
	WarningsAsErrors bool

	// Plugins lists actions requested with -plugin or -add-plugin.
	Plugins    []string
	PluginArgs map[string][]string

	Inputs []string
	// Unused collects flags that were accepted but have no effect.
	Unused []string
}

// DefaultOptions returns the options of a bare invocation.
func DefaultOptions() *Options {
	return &Options{
		Sysroot:     DefaultSysroot,
		ResourceDir: DefaultResourceDir,
		PluginArgs:  make(map[string][]string),
	}
}

// ParseArgs interprets compiler-style arguments.
func ParseArgs(args []string) (*Options, error) {
	opts := DefaultOptions()
	if err := opts.parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// separated are the flags whose value may follow as the next argument.
var separated = map[string]bool{
	"-I": true, "-D": true, "-U": true, "-x": true,
	"-isystem": true, "-iquote": true, "-idirafter": true,
	"-isysroot": true, "--sysroot": true, "-resource-dir": true,
	"-include": true, "-target": true, "--target": true,
	"-Xclang": true, "-plugin": true, "-add-plugin": true,
}

func (o *Options) parse(args []string) error {
	for i := 0; i < len(args); i++ {
		arg := args[i]

		next := func(flag string) (string, error) {
			if i+1 >= len(args) {
				return "", fmt.Errorf("argument to '%s' is missing (expected 1 value)", flag)
			}
			i++
			return args[i], nil
		}

		if arg == "-" || !strings.HasPrefix(arg, "-") {
			o.Inputs = append(o.Inputs, arg)
			continue
		}

		if strings.HasPrefix(arg, "-plugin-arg-") {
			name := strings.TrimPrefix(arg, "-plugin-arg-")
			v, err := next(arg)
			if err != nil {
				return err
			}
			o.PluginArgs[name] = append(o.PluginArgs[name], v)
			continue
		}

		flag, value, joined := splitFlag(arg)
		if !joined && separated[flag] {
			v, err := next(flag)
			if err != nil {
				return err
			}
			value = v
		}

		switch flag {
		case "-Xclang":
			if value == "-plugin" || value == "-add-plugin" || strings.HasPrefix(value, "-plugin-arg-") {
				if i+2 >= len(args) || args[i+1] != "-Xclang" {
					return fmt.Errorf("argument to '-Xclang %s' is missing (expected 1 value)", value)
				}
				o.applyPluginValue(value, args[i+2])
				i += 2
				continue
			}
			if err := o.parse([]string{value}); err != nil {
				return err
			}
		case "-plugin", "-add-plugin":
			o.Plugins = append(o.Plugins, value)
		case "-x":
			switch value {
			case "c", "c-header":
				o.Language = LangC
			case "c++", "c++-header":
				o.Language = LangCXX
			default:
				return fmt.Errorf("language not recognized: '%s'", value)
			}
			o.LanguageSet = true
		case "-std":
			o.Std = value
			if !o.LanguageSet {
				if strings.Contains(value, "++") {
					o.Language = LangCXX
				} else {
					o.Language = LangC
				}
			}
		case "-isysroot", "--sysroot":
			o.Sysroot = value
		case "-resource-dir":
			o.ResourceDir = value
		case "-target", "--target":
			o.Target = value
		case "-m32":
			o.Target = withPointerWidth(o.Target, 32)
		case "-m64":
			o.Target = withPointerWidth(o.Target, 64)
		case "-I":
			o.IncludeDirs = append(o.IncludeDirs, value)
		case "-isystem":
			o.SystemDirs = append(o.SystemDirs, value)
		case "-iquote":
			o.QuoteDirs = append(o.QuoteDirs, value)
		case "-idirafter":
			o.AfterDirs = append(o.AfterDirs, value)
		case "-D":
			name, val, ok := strings.Cut(value, "=")
			if !ok {
				val = "1"
			}
			o.Macros = append(o.Macros, MacroOp{Name: name, Value: val})
		case "-U":
			o.Macros = append(o.Macros, MacroOp{Name: value, Undef: true})
		case "-include":
			o.ForceIncludes = append(o.ForceIncludes, value)
		case "-nostdinc":
			o.NoStdInc = true
		case "-nostdlibinc", "-nostdinc++":
			o.NoStdLibInc = true
		case "-nobuiltininc":
			o.NoBuiltinInc = true
		case "-w":
			o.SuppressWarnings = true
		case "-Werror":
			o.WarningsAsErrors = true
		case "-fsyntax-only", "-c", "-E", "-g", "-pipe":
			// These select compilation phases the extractor never runs.
		default:
			o.Unused = append(o.Unused, arg)
		}
	}
	return nil
}

func (o *Options) applyPluginValue(flag, value string) {
	switch {
	case flag == "-plugin" || flag == "-add-plugin":
		o.Plugins = append(o.Plugins, value)
	case strings.HasPrefix(flag, "-plugin-arg-"):
		name := strings.TrimPrefix(flag, "-plugin-arg-")
		o.PluginArgs[name] = append(o.PluginArgs[name], value)
	}
}

// splitFlag separates the value of joined forms such as -Ifoo, -DX=1,
// --sysroot=/x and -std=c11.
func splitFlag(arg string) (flag, value string, joined bool) {
	if strings.HasPrefix(arg, "--") || strings.HasPrefix(arg, "-std=") || strings.HasPrefix(arg, "-resource-dir=") {
		if f, v, ok := strings.Cut(arg, "="); ok {
			return f, v, true
		}
		return arg, "", false
	}
	for _, p := range []string{"-isystem", "-iquote", "-idirafter", "-isysroot"} {
		if strings.HasPrefix(arg, p) && len(arg) > len(p) {
			return p, arg[len(p):], true
		}
	}
	if len(arg) > 2 {
		switch arg[:2] {
		case "-I", "-D", "-U":
			return arg[:2], arg[2:], true
		case "-x":
			return "-x", arg[2:], true
		}
	}
	return arg, "", false
}

func withPointerWidth(triple string, bits int) string {
	arch, rest, _ := strings.Cut(triple, "-")
	if rest == "" {
		rest = "unknown-linux-gnu"
	}
	switch {
	case bits == 32 && (arch == "" || arch == "x86_64"):
		arch = "i386"
	case bits == 64 && (arch == "" || arch == "i386" || arch == "i686"):
		arch = "x86_64"
	}
	return arch + "-" + rest
}
