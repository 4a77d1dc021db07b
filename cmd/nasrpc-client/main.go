// Command nasrpc-client talks to a storage appliance over its WebSocket RPC
// API.
//
// It runs in one of three modes:
//   - one-shot: call a single method and print the JSON result
//   - interactive: a readline shell with typed shortcuts
//   - discover: list appliances announced on the local network
//
// Usage:
//
//	nasrpc-client [flags] [method [json-args...]]
//
// Flags:
//
//	-config string        YAML configuration file
//	-address string       Host, host:port or ws(s):// URL
//	-protocol string      jsonrpc or legacy (default "jsonrpc")
//	-username string      Login user (prompts for the password)
//	-api-key string       Login API key
//	-insecure             Skip TLS certificate verification
//	-log-level string     debug, info, warn or error (default "info")
//	-protocol-log string  Write a protocol capture to this file
//	-interactive          Start the interactive shell
//	-discover             List appliances found with mDNS and exit
//
// Examples:
//
//	# Print system information
//	nasrpc-client -address nas.local -api-key 1-abc system.info
//
//	# Query one pool on an older appliance
//	nasrpc-client -address nas.local -protocol legacy -username root \
//	    pool.query '[["name","=","tank"]]'
//
//	# Interactive shell with a protocol capture
//	nasrpc-client -config client.yaml -interactive -protocol-log session.nlog
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/nasrpc/nasrpc-go/cmd/nasrpc-client/interactive"
	"github.com/nasrpc/nasrpc-go/pkg/config"
	"github.com/nasrpc/nasrpc-go/pkg/discovery"
	"github.com/nasrpc/nasrpc-go/pkg/log"
	"github.com/nasrpc/nasrpc-go/pkg/truenas"
	"github.com/nasrpc/nasrpc-go/pkg/wire"
)

// options holds the command-line flags.
type options struct {
	ConfigFile  string
	Address     string
	Protocol    string
	Username    string
	APIKey      string
	Insecure    bool
	LogLevel    string
	ProtocolLog string
	Interactive bool
	Discover    bool
}

func newFlagSet(opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet("nasrpc-client", flag.ContinueOnError)
	fs.StringVar(&opts.ConfigFile, "config", "", "YAML configuration file")
	fs.StringVar(&opts.Address, "address", "", "Host, host:port or ws(s):// URL")
	fs.StringVar(&opts.Protocol, "protocol", wire.VariantPlain.String(), "Protocol: jsonrpc or legacy")
	fs.StringVar(&opts.Username, "username", "", "Login user (prompts for the password)")
	fs.StringVar(&opts.APIKey, "api-key", "", "Login API key")
	fs.BoolVar(&opts.Insecure, "insecure", false, "Skip TLS certificate verification")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&opts.ProtocolLog, "protocol-log", "", "Write a protocol capture to this file")
	fs.BoolVar(&opts.Interactive, "interactive", false, "Start the interactive shell")
	fs.BoolVar(&opts.Discover, "discover", false, "List appliances found with mDNS and exit")
	return fs
}

// resolveConfig loads the configuration file, if any, and applies the
// flags that were set explicitly on top of it.
func resolveConfig(fs *flag.FlagSet, opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.ConfigFile != "" {
		loaded, err := config.Load(opts.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "address":
			cfg.Address = opts.Address
		case "protocol":
			cfg.Protocol = opts.Protocol
		case "username":
			cfg.Username = opts.Username
		case "api-key":
			cfg.APIKey = opts.APIKey
		case "insecure":
			cfg.TLS.Insecure = opts.Insecure
		case "log-level":
			cfg.LogLevel = opts.LogLevel
		case "protocol-log":
			cfg.ProtocolLog = opts.ProtocolLog
		}
	})
	return cfg, nil
}

// printValue writes v as indented JSON.
func printValue(w io.Writer, v wire.Value) error {
	data, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("password required but stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

func main() {
	opts := &options{}
	fs := newFlagSet(opts)
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	cfg, err := resolveConfig(fs, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(os.Stderr, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.Discover {
		if err := runDiscover(ctx, cfg, os.Stdout); err != nil {
			logger.Error("discovery failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg, opts, fs.Args(), logger); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts *options, args []string, logger *slog.Logger) error {
	if !opts.Interactive && len(args) == 0 {
		return errors.New("no method given (use -interactive for a shell)")
	}

	if cfg.NeedsPassword() {
		pw, err := promptPassword()
		if err != nil {
			return err
		}
		cfg.Password = pw
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var plog log.Logger
	if cfg.ProtocolLog != "" {
		fl, err := log.NewFileLogger(cfg.ProtocolLog, log.WithErrorLogger(logger))
		if err != nil {
			return err
		}
		defer fl.Close()
		sinks := []log.Logger{fl}
		if logger.Enabled(ctx, slog.LevelDebug) {
			sinks = append(sinks, log.NewSlogAdapter(logger))
		}
		plog = log.NewRedactingLogger(log.NewMultiLogger(sinks...), truenas.LoginMethods...)
		logger.Info("protocol logging enabled", "file", cfg.ProtocolLog)
	}

	engineCfg, err := cfg.EngineConfig(logger, plog)
	if err != nil {
		return err
	}

	dialCtx, dialCancel := context.WithTimeout(ctx, cfg.Timeouts.Dial+cfg.Timeouts.Handshake+10*time.Second)
	client, err := truenas.Dial(dialCtx, engineCfg, cfg.Credentials())
	dialCancel()
	if err != nil {
		return err
	}
	defer client.Close()

	logger.Debug("connected",
		"address", cfg.Address,
		"variant", client.Engine().Variant(),
		"connection", client.Engine().ConnectionID())

	if opts.Interactive {
		shell, err := interactive.New(client)
		if err != nil {
			return err
		}
		return shell.Run(ctx)
	}

	result, err := client.Call(ctx, args[0], wire.ParseArgs(args[1:])...)
	if err != nil {
		return err
	}
	return printValue(os.Stdout, result)
}

func runDiscover(ctx context.Context, cfg *config.Config, w io.Writer) error {
	variant, err := cfg.Variant()
	if err != nil {
		return err
	}

	browser := discovery.NewBrowser(discovery.DefaultBrowserConfig())
	servers, err := browser.Collect(ctx)
	if err != nil {
		return err
	}
	if len(servers) == 0 {
		fmt.Fprintln(w, "No appliances found")
		return nil
	}

	fmt.Fprintf(w, "Found %d appliance(s):\n", len(servers))
	for idx, s := range servers {
		fmt.Fprintf(w, "  %d. %s\n", idx+1, s.Instance)
		fmt.Fprintf(w, "      Address: %s\n", s.Address(variant))
		if len(s.Addresses) > 0 {
			fmt.Fprintf(w, "      IPs:     %v\n", s.Addresses)
		}
	}
	return nil
}
