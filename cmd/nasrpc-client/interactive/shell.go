// Package interactive provides the interactive command-line interface
// for nasrpc-client.
package interactive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/chzyer/readline"

	"github.com/nasrpc/nasrpc-go/pkg/rpc"
	"github.com/nasrpc/nasrpc-go/pkg/truenas"
	"github.com/nasrpc/nasrpc-go/pkg/wire"
)

// Shell is a readline command loop over one client connection.
type Shell struct {
	client *truenas.Client
	rl     *readline.Instance
	out    io.Writer
}

// New creates a shell for client.
func New(client *truenas.Client) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "nas> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{client: client, rl: rl, out: rl.Stdout()}, nil
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("info"),
		readline.PcItem("pools"),
		readline.PcItem("datasets"),
		readline.PcItem("users"),
		readline.PcItem("shares"),
		readline.PcItem("summary"),
		readline.PcItem("call",
			readline.PcItem(truenas.MethodSystemInfo),
			readline.PcItem(truenas.MethodPoolQuery),
			readline.PcItem(truenas.MethodDatasetQuery),
			readline.PcItem(truenas.MethodUserQuery),
			readline.PcItem(truenas.MethodSMBShareQuery),
		),
		readline.PcItem("state"),
		readline.PcItem("pending"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

// Stdout returns a writer that coordinates with the readline prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run reads commands until quit, EOF, ctx cancellation or loss of the
// connection.
func (s *Shell) Run(ctx context.Context) error {
	defer s.rl.Close()

	s.printHelp()

	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			line, err := s.rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if err != nil {
				readErr <- err
				return
			}
			select {
			case lines <- line:
			case <-done:
				return
			}
		}
	}()

	engine := s.client.Engine()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-engine.Done():
			fmt.Fprintf(s.out, "Connection closed: %v\n", engine.Err())
			return engine.Err()
		case <-readErr:
			fmt.Fprintln(s.out, "Exiting...")
			return nil
		case line := <-lines:
			if !s.execute(ctx, line) {
				fmt.Fprintln(s.out, "Exiting...")
				return nil
			}
		}
	}
}

// execute runs one command line. It returns false when the shell should
// exit.
func (s *Shell) execute(ctx context.Context, line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		s.printHelp()
	case "info":
		err = s.cmdInfo(ctx)
	case "pools":
		err = s.cmdPools(ctx)
	case "datasets", "ds":
		err = s.cmdDatasets(ctx)
	case "users":
		err = s.cmdUsers(ctx)
	case "shares":
		err = s.cmdShares(ctx)
	case "summary":
		err = s.cmdSummary(ctx)
	case "call", "c":
		err = s.cmdCall(ctx, args)
	case "state":
		s.cmdState()
	case "pending":
		s.cmdPending()
	case "quit", "exit", "q":
		return false
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}

	if err != nil {
		s.printError(err)
	}
	return true
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
Commands:
  Appliance:
    info                         - Show system information
    pools                        - List storage pools
    datasets                     - List datasets
    users                        - List local users
    shares                       - List SMB shares
    summary                      - System information and pools

  Raw calls:
    call <method> [json-args...] - Call any method and print the result

  Connection:
    state                        - Show connection state
    pending                      - List calls awaiting a reply

  General:
    help                         - Show this help
    quit                         - Exit`)
}

func (s *Shell) printError(err error) {
	var remote *rpc.RemoteError
	if errors.As(err, &remote) {
		fmt.Fprintf(s.out, "Remote error: %s\n", remote.Message)
		if !remote.Data.IsNull() {
			fmt.Fprintf(s.out, "  Data: %s\n", remote.Data)
		}
		return
	}
	fmt.Fprintf(s.out, "Error: %v\n", err)
}

func (s *Shell) cmdInfo(ctx context.Context) error {
	info, err := s.client.SystemInfo(ctx)
	if err != nil {
		return err
	}
	s.printInfo(info)
	return nil
}

func (s *Shell) printInfo(info *truenas.SystemInfo) {
	fmt.Fprintf(s.out, "Hostname: %s\n", info.Hostname)
	fmt.Fprintf(s.out, "Version:  %s\n", info.Version)
	if info.Model != "" {
		fmt.Fprintf(s.out, "Model:    %s\n", info.Model)
	}
	fmt.Fprintf(s.out, "Cores:    %d\n", info.Cores)
	fmt.Fprintf(s.out, "Memory:   %s\n", formatBytes(info.PhysMem))
	uptime := time.Duration(info.UptimeSeconds * float64(time.Second)).Round(time.Second)
	fmt.Fprintf(s.out, "Uptime:   %s\n", uptime)
	if len(info.LoadAvg) == 3 {
		fmt.Fprintf(s.out, "Load:     %.2f %.2f %.2f\n", info.LoadAvg[0], info.LoadAvg[1], info.LoadAvg[2])
	}
}

func (s *Shell) cmdPools(ctx context.Context) error {
	pools, err := s.client.Pools(ctx)
	if err != nil {
		return err
	}
	s.printPools(pools)
	return nil
}

func (s *Shell) printPools(pools []truenas.Pool) {
	if len(pools) == 0 {
		fmt.Fprintln(s.out, "No pools")
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATUS\tHEALTHY\tSIZE\tFREE")
	for _, p := range pools {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", p.Name, p.Status, p.Healthy, formatBytes(p.Size), formatBytes(p.Free))
	}
	tw.Flush()
}

func (s *Shell) cmdDatasets(ctx context.Context) error {
	ds, err := s.client.Datasets(ctx)
	if err != nil {
		return err
	}
	if len(ds) == 0 {
		fmt.Fprintln(s.out, "No datasets")
		return nil
	}
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tUSED\tAVAIL\tMOUNTPOINT")
	for _, d := range ds {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.Name, d.Type, d.Used.Value, d.Available.Value, d.Mountpoint)
	}
	return tw.Flush()
}

func (s *Shell) cmdUsers(ctx context.Context) error {
	users, err := s.client.Users(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tUID\tFULL NAME\tBUILTIN\tLOCKED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%t\t%t\n", u.Username, u.UID, u.FullName, u.Builtin, u.Locked)
	}
	return tw.Flush()
}

func (s *Shell) cmdShares(ctx context.Context) error {
	shares, err := s.client.SMBShares(ctx)
	if err != nil {
		return err
	}
	if len(shares) == 0 {
		fmt.Fprintln(s.out, "No SMB shares")
		return nil
	}
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPATH\tENABLED\tREAD-ONLY")
	for _, sh := range shares {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%t\n", sh.Name, sh.Path, sh.Enabled, sh.ReadOnly)
	}
	return tw.Flush()
}

func (s *Shell) cmdSummary(ctx context.Context) error {
	sum, err := s.client.Summary(ctx)
	if err != nil {
		return err
	}
	s.printInfo(sum.Info)
	fmt.Fprintln(s.out)
	s.printPools(sum.Pools)
	return nil
}

func (s *Shell) cmdCall(ctx context.Context, args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: call <method> [json-args...]")
		return nil
	}
	start := time.Now()
	result, err := s.client.Call(ctx, args[0], wire.ParseArgs(args[1:])...)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s\n(%s)\n", data, time.Since(start).Round(time.Microsecond))
	return nil
}

func (s *Shell) cmdState() {
	e := s.client.Engine()
	fmt.Fprintf(s.out, "State:      %s\n", e.State())
	fmt.Fprintf(s.out, "Variant:    %s\n", e.Variant())
	fmt.Fprintf(s.out, "Connection: %s\n", e.ConnectionID())
	fmt.Fprintf(s.out, "Pending:    %d\n", e.Pending())
	if err := e.Err(); err != nil {
		fmt.Fprintf(s.out, "Closed by:  %v\n", err)
	}
}

func (s *Shell) cmdPending() {
	ids := s.client.Engine().Outstanding()
	if len(ids) == 0 {
		fmt.Fprintln(s.out, "No calls pending")
		return
	}
	fmt.Fprintf(s.out, "Pending calls (%d):\n", len(ids))
	for _, id := range ids {
		fmt.Fprintf(s.out, "  %s\n", id)
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
