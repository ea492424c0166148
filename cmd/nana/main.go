// nana is a small conversational agent that grows an associative memory
// from what it is told.
//
// Subcommands:
//
//	nana chat      interactive REPL
//	nana state     print a growth summary
//	nana serve     HTTP API (POST /api/chat, GET /api/state)
//	nana discord   Discord bot
//	nana mcp       MCP tools over stdio
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vthunder/nana/internal/agent"
	"github.com/vthunder/nana/internal/brain"
	"github.com/vthunder/nana/internal/config"
	"github.com/vthunder/nana/internal/graph"
	"github.com/vthunder/nana/internal/httpapi"
	"github.com/vthunder/nana/internal/logging"
	"github.com/vthunder/nana/internal/lookup"
	"github.com/vthunder/nana/internal/mcpserver"
	"github.com/vthunder/nana/internal/profiling"
	"github.com/vthunder/nana/internal/senses"
	"github.com/vthunder/nana/internal/state"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "nana",
	Short:         "nana - a conversational agent with a growing associative memory",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to nana in the terminal",
	RunE:  runChat,
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print neurons, links, episodes, age and mood",
	RunE:  runState,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP chat API",
	RunE:  runServe,
}

var discordCmd = &cobra.Command{
	Use:   "discord",
	Short: "Run nana as a Discord bot",
	RunE:  runDiscord,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose nana as MCP tools over stdio",
	RunE:  runMCP,
}

var (
	writeTuningFlag     bool
	healthFlag          bool
	topFlag             int
	timingsFlag         int
	truncateTimingsFlag int
	addrFlag            string
)

func init() {
	stateCmd.Flags().BoolVar(&writeTuningFlag, "write-tuning", false, "Write the effective tuning to <state>/brain.yaml")
	stateCmd.Flags().BoolVar(&healthFlag, "health", false, "Run health checks")
	stateCmd.Flags().IntVar(&topFlag, "top", 0, "List the N strongest concepts")
	stateCmd.Flags().IntVar(&timingsFlag, "timings", 0, "Show the last N profiling entries")
	stateCmd.Flags().IntVar(&truncateTimingsFlag, "truncate-timings", -1, "Keep only the last N profiling entries")
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (default $NANA_HTTP_ADDR or :8080)")
	rootCmd.AddCommand(chatCmd, stateCmd, serveCmd, discordCmd, mcpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "nana: %v\n", err)
		os.Exit(1)
	}
}

// runtime bundles one opened state directory
type runtime struct {
	cfg      *config.Config
	db       *graph.DB
	agent    *agent.Agent
	profiler *profiling.Profiler
}

// openRuntime loads config, opens the database and wakes the agent
func openRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return openRuntimeWith(cfg)
}

func openRuntimeWith(cfg *config.Config) (*runtime, error) {
	db, err := graph.Open(cfg.StatePath, cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}

	store, err := db.LoadStore(cfg.Brain.Dim)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load memory: %w", err)
	}

	opts := agent.DefaultOptions()
	opts.WebLearning = cfg.WebLearning
	var looker agent.Looker
	if cfg.WebLearning {
		looker = lookup.NewClient(cfg.LookupURL)
	}

	a, err := agent.New(db, brain.NewEngine(cfg.Brain), store, looker, opts)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create agent: %w", err)
	}

	profiler, err := profiling.Open(cfg.Profile, filepath.Join(cfg.StatePath, "system", "timing.jsonl"))
	if err != nil {
		db.Close()
		return nil, err
	}
	a.SetProfiler(profiler)

	return &runtime{cfg: cfg, db: db, agent: a, profiler: profiler}, nil
}

// checkpoint saves the memory, logging instead of failing
func (r *runtime) checkpoint() {
	if err := r.agent.Save(); err != nil {
		logging.Warn("main", "checkpoint failed: %v", err)
	}
}

// Close saves and closes the database
func (r *runtime) Close() error {
	saveErr := r.agent.Save()
	closeErr := r.db.Close()
	r.profiler.Close()
	if saveErr != nil {
		return fmt.Errorf("save on shutdown: %w", saveErr)
	}
	return closeErr
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runChat(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signalContext()
	defer stop()

	return chatLoop(ctx, rt, cmd.InOrStdin(), cmd.OutOrStdout())
}

// chatLoop runs the REPL until exit, EOF or ctx is cancelled
func chatLoop(ctx context.Context, rt *runtime, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "nana is listening (/state for a summary, 'exit' to quit)")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, "\nyou> ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "/state":
			fmt.Fprintln(out, rt.agent.Stats().String())
			continue
		}

		thought, err := rt.agent.Respond(ctx, line)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("respond: %w", err)
		}
		fmt.Fprintf(out, "nana> %s\n", thought.Text)
		rt.checkpoint()
	}
}

func runState(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, rt.agent.Stats().String())

	inspector := state.NewInspector(rt.cfg.StatePath, rt.db)
	if err := printInspection(out, inspector); err != nil {
		return err
	}

	if writeTuningFlag {
		path := filepath.Join(rt.cfg.StatePath, "brain.yaml")
		if err := config.SaveParams(path, rt.cfg.Brain); err != nil {
			return fmt.Errorf("write tuning: %w", err)
		}
		fmt.Fprintf(out, "wrote %s\n", path)
	}
	return nil
}

// printInspection prints whatever the state flags asked for
func printInspection(out io.Writer, inspector *state.Inspector) error {
	if healthFlag {
		report, err := inspector.Health()
		if err != nil {
			return fmt.Errorf("health check: %w", err)
		}
		fmt.Fprintf(out, "health: %s\n", report.Status)
		for i, w := range report.Warnings {
			fmt.Fprintf(out, "  - %s (%s)\n", w, report.Recommendations[i])
		}
	}

	if topFlag > 0 {
		top, err := inspector.TopNeurons(topFlag)
		if err != nil {
			return fmt.Errorf("top neurons: %w", err)
		}
		for _, n := range top {
			fmt.Fprintf(out, "  %-20s strength=%.2f hits=%d links=%d\n", n.Token, n.Strength, n.Hits, n.Links)
		}
	}

	if timingsFlag > 0 {
		for _, entry := range inspector.TailTimings(timingsFlag) {
			fmt.Fprintf(out, "  %v %v %.2fms\n", entry["turn_id"], entry["stage"], entry["duration_ms"])
		}
	}

	if truncateTimingsFlag >= 0 {
		if err := inspector.TruncateTimings(truncateTimingsFlag); err != nil {
			return err
		}
		fmt.Fprintf(out, "kept last %d timing entries\n", truncateTimingsFlag)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	addr := rt.cfg.HTTPAddr
	if addrFlag != "" {
		addr = addrFlag
	}

	server := &http.Server{
		Addr:    addr,
		Handler: httpapi.New(rt.agent, rt.db).Handler(),
	}

	ctx, stop := signalContext()
	defer stop()

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logging.Info("main", "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logging.Info("main", "nana listening on %s (state: %s)", addr, rt.cfg.StatePath)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runDiscord(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	discord, err := senses.NewDiscordSense(rt.cfg.Discord, rt.agent, rt.checkpoint)
	if err != nil {
		return err
	}
	if err := discord.Start(); err != nil {
		return err
	}
	defer discord.Stop()

	ctx, stop := signalContext()
	defer stop()

	logging.Info("main", "nana is on Discord. Press Ctrl+C to stop.")
	<-ctx.Done()
	logging.Info("main", "shutting down...")
	return nil
}

func runMCP(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol; logs already go to stderr
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	return mcpserver.Serve(mcpserver.NewServer(rt.agent, version))
}
