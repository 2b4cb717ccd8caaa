package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/agileclient/internal/flagx"
)

var (
	valueFlags  = []string{"-u", "-U", "-P", "-t", "-r", "-s", "-n", "-m", "-l"}
	boolFlags   = []string{"-pretend", "-checksum"}
	configFlags = []string{"-c", "-config"}
)

// parseFlags populates Config fields from command-line flags.
//
//	-u string   API base URL
//	-U string   user name
//	-P string   password
//	-t int      request timeout (in seconds)
//	-r int      attempts per call
//	-s int      piece size (in bytes)
//	-n int      parallel uploads
//	-m string   manifest database path
//	-l string   log level
//	-pretend    report what would be synced without changing anything
//	-checksum   skip files whose digest matches the manifest
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], valueFlags)
	args = append(args, flagx.FilterBoolArgs(os.Args[1:], boolFlags)...)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIURL, "u", cfg.APIURL, "API base URL")
	fs.StringVar(&cfg.User, "U", cfg.User, "user name")
	fs.StringVar(&cfg.Password, "P", cfg.Password, "password")
	timeout := fs.Int("t", int(cfg.Timeout.Seconds()), "request timeout (in seconds)")
	fs.IntVar(&cfg.MaxTries, "r", cfg.MaxTries, "attempts per call")
	fs.Int64Var(&cfg.PieceSize, "s", cfg.PieceSize, "piece size (in bytes)")
	fs.IntVar(&cfg.Concurrency, "n", cfg.Concurrency, "parallel uploads")
	fs.StringVar(&cfg.ManifestPath, "m", cfg.ManifestPath, "manifest database path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.Pretend, "pretend", cfg.Pretend, "do not change anything")
	fs.BoolVar(&cfg.Checksum, "checksum", cfg.Checksum, "compare digests with the manifest")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// -t applies only when given, so a sub-second JSON timeout survives.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.Timeout = time.Duration(*timeout) * time.Second
		}
	})
}

// Args returns the positional command-line arguments.
func Args() []string {
	return flagx.Positional(os.Args[1:], append(append([]string(nil), valueFlags...), configFlags...))
}
