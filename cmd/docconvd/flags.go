package main

import (
	"fmt"
	"net"
	"strconv"

	flag "github.com/spf13/pflag"
)

// cliFlags are the command-line overrides. Flags win over both the
// environment and the YAML file.
type cliFlags struct {
	configPath string
	addr       string
	workers    int
	verbose    bool
	version    bool
}

func parseFlags(args []string) (*cliFlags, error) {
	fs := flag.NewFlagSet("docconvd", flag.ContinueOnError)

	f := &cliFlags{}
	fs.StringVarP(&f.configPath, "config", "c", "", "path to YAML config file")
	fs.StringVar(&f.addr, "addr", "", "listen address (host:port), overrides SERVER_HOST/SERVER_PORT")
	fs.IntVarP(&f.workers, "workers", "w", 0, "max concurrent conversions, overrides CONVERTER_WORKERS")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// apply folds flag overrides into an already-loaded config.
func (f *cliFlags) apply(cfg *Config) error {
	if f.addr != "" {
		host, port, err := splitAddr(f.addr)
		if err != nil {
			return err
		}
		cfg.Server.Host = host
		cfg.Server.Port = port
	}
	if f.workers > 0 {
		cfg.Converter.Workers = f.workers
	}
	if f.verbose {
		cfg.Log.Level = "debug"
	}
	return nil
}

func splitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in listen address %q", addr)
	}
	return host, port, nil
}
