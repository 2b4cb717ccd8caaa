// Package flagx helps several loaders share os.Args: each one keeps only the
// flags it owns and parses them with its own flag.FlagSet.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps the flags listed in valueFlags together with their
// values. Both "-f value" and "-f=value" are recognised; a following token
// that starts with "-" is never taken as a value.
func FilterArgs(args []string, valueFlags []string) []string {
	allowed := toSet(valueFlags)
	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// FilterBoolArgs keeps the boolean flags listed in boolFlags. Unlike
// FilterArgs it never consumes the next token, so positional arguments
// after a switch stay positional.
func FilterBoolArgs(args []string, boolFlags []string) []string {
	allowed := toSet(boolFlags)
	filtered := make([]string, 0, len(args))
	for _, arg := range args {
		name := strings.SplitN(arg, "=", 2)[0]
		if _, ok := allowed[name]; ok {
			filtered = append(filtered, arg)
		}
	}
	return filtered
}

// Positional returns the arguments that are neither flags nor values of the
// flags in valueFlags. A "--" ends flag processing.
func Positional(args []string, valueFlags []string) []string {
	takesValue := toSet(valueFlags)
	var out []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(out, args[i+1:]...)
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			out = append(out, arg)
			continue
		}
		if strings.Contains(arg, "=") {
			continue
		}
		if _, ok := takesValue[arg]; ok && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
		}
	}
	return out
}

// JsonConfigFlags returns the config file named by -c or -config, or "".
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
