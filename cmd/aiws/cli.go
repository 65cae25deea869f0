package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/yoavf/as-i-was-saying/config"
	"github.com/yoavf/as-i-was-saying/discovery"
	"github.com/yoavf/as-i-was-saying/model"
	"github.com/yoavf/as-i-was-saying/redact"
	"github.com/yoavf/as-i-was-saying/schema"
)

// app carries what every command needs once configuration is loaded.
type app struct {
	configPath string
	cfg        config.Config
	svc        *discovery.Service
	now        func() time.Time
}

func newApp() *app {
	return &app{now: time.Now}
}

// load reads the config file and builds the discovery service.
func (a *app) load() error {
	path := a.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path, true)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.svc = discovery.NewService(cfg)
	a.svc.Now = a.now
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "aiws",
		Short: "Find, read and redact AI coding assistant sessions",
		Long: `aiws finds sessions recorded by Claude Code, OpenAI Codex and Gemini CLI,
ranks them by recency or by how often a query occurs, resolves session IDs
and prints their events in one canonical format.

Run without arguments to serve the same features over MCP on stdio.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $AIWS_CONFIG or ~/.config/aiws/config.yaml)")

	root.AddCommand(newListCmd(a))
	root.AddCommand(newResolveCmd(a))
	root.AddCommand(newEventsCmd(a))
	root.AddCommand(newAnonymizeCmd())
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

// handleCLI runs the command line and exits non-zero on failure.
func handleCLI(args []string) {
	root := newRootCmd(newApp())
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "aiws: %v\n", err)
		os.Exit(1)
	}
}

func parseBackendFlag(value string) (model.Backend, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return model.ParseBackend(value)
}

func newListCmd(a *app) *cobra.Command {
	var (
		backendFlag string
		since       string
		limit       int
		formatFlag  string
	)

	cmd := &cobra.Command{
		Use:   "list [query...]",
		Short: "List recent sessions, or sessions matching a query",
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := parseBackendFlag(backendFlag)
			if err != nil {
				return err
			}
			if since == "" {
				since = a.cfg.Discovery.Since
			}
			lookback, err := config.ParseLookback(since)
			if err != nil {
				return err
			}

			query := discovery.Query{
				Backend:  backend,
				Lookback: lookback,
				Text:     strings.TrimSpace(strings.Join(args, " ")),
				Limit:    limit,
			}
			queryMode := query.Text != ""

			var s *spinner.Spinner
			if queryMode && isTerminal(os.Stderr) {
				s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
				s.Suffix = fmt.Sprintf("  Searching sessions for \033[36m%s\033[0m", query.Text)
				s.Start()
			}
			sessions := a.svc.Discover(query)
			if s != nil {
				s.Stop()
			}

			out := cmd.OutOrStdout()
			if formatFlag == "auto" {
				formatFlag = "tsv"
				if out == os.Stdout && isTerminal(os.Stdout) {
					formatFlag = "table"
				}
			}

			switch formatFlag {
			case "json":
				return writeJSON(out, map[string]any{
					"sessions": sessions,
					"count":    len(sessions),
				})
			case "tsv":
				writeTSV(out, sessions)
			case "table":
				if len(sessions) == 0 {
					fmt.Fprintln(cmd.ErrOrStderr(), "No sessions found.")
					return nil
				}
				writeTable(out, sessions, getTerminalWidth(), queryMode, a.now())
			default:
				return fmt.Errorf("unsupported format: %s (expected auto, table, tsv or json)", formatFlag)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&backendFlag, "backend", "b", "", "only list sessions from this backend (claude, codex, gemini)")
	flags.StringVar(&since, "since", "", "discovery horizon such as 12h, 3d, 2w or all (default from config)")
	flags.IntVarP(&limit, "limit", "n", 0, "sessions per backend (default from config)")
	flags.StringVar(&formatFlag, "format", "auto", "output format: auto, table, tsv or json")
	return cmd
}

func newResolveCmd(a *app) *cobra.Command {
	var (
		backendFlag string
		formatFlag  string
	)

	cmd := &cobra.Command{
		Use:   "resolve <session-id>",
		Short: "Find the session file for a full or partial session ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := parseBackendFlag(backendFlag)
			if err != nil {
				return err
			}
			session, err := a.svc.Resolve(args[0], backend)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch formatFlag {
			case "path":
				fmt.Fprintln(out, session.Path)
			case "json":
				return writeJSON(out, session)
			case "tsv":
				writeTSV(out, []model.SessionDescriptor{session})
			default:
				return fmt.Errorf("unsupported format: %s (expected path, tsv or json)", formatFlag)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&backendFlag, "backend", "b", "", "only search this backend (claude, codex, gemini)")
	flags.StringVar(&formatFlag, "format", "path", "output format: path, tsv or json")
	return cmd
}

// eventOptions selects and post-processes the events of one session.
type eventOptions struct {
	backend model.Backend
	head    int
	tail    int
	level   string
	maxLen  int
}

// sessionEvents reads the session identified by target, which is either an
// existing file path or a session ID.
func (a *app) sessionEvents(target string, opts eventOptions) (model.SessionDescriptor, []model.Event, error) {
	var session model.SessionDescriptor
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		backend := opts.backend
		if backend == "" {
			backend = a.svc.InferBackend(target)
		}
		session = model.SessionDescriptor{Path: target, Backend: backend, ModTime: info.ModTime(), Size: info.Size()}
	} else {
		resolved, err := a.svc.Resolve(target, opts.backend)
		if err != nil {
			return session, nil, err
		}
		session = resolved
	}

	events, err := a.svc.Events(session.Path, session.Backend)
	if err != nil {
		return session, nil, err
	}
	events = model.TextEvents(events, opts.head, opts.tail)

	level := strings.ToLower(strings.TrimSpace(opts.level))
	if level == "" {
		level = a.cfg.Redact.Level
	}
	maxLen := opts.maxLen
	if maxLen == 0 {
		maxLen = a.cfg.Redact.MaxLen
	}
	redactor, err := redact.ForLevel(level, maxLen)
	if err != nil {
		return session, nil, err
	}
	if redactor != nil {
		events = redactor.Events(events)
	}
	return session, events, nil
}

func newEventsCmd(a *app) *cobra.Command {
	var (
		backendFlag string
		opts        eventOptions
		validate    bool
		formatFlag  string
	)

	cmd := &cobra.Command{
		Use:   "events <session-id-or-path>",
		Short: "Print the canonical events of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := parseBackendFlag(backendFlag)
			if err != nil {
				return err
			}
			opts.backend = backend

			_, events, err := a.sessionEvents(args[0], opts)
			if err != nil {
				return err
			}
			if validate {
				if err := schema.ValidateEvents(events); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			switch formatFlag {
			case "jsonl":
				encoder := json.NewEncoder(out)
				for _, event := range events {
					if err := encoder.Encode(event); err != nil {
						return fmt.Errorf("failed to write event: %w", err)
					}
				}
				return nil
			case "json":
				if events == nil {
					events = []model.Event{}
				}
				return writeJSON(out, events)
			default:
				return fmt.Errorf("unsupported format: %s (expected jsonl or json)", formatFlag)
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&backendFlag, "backend", "b", "", "backend of the session (inferred from the path when omitted)")
	flags.IntVar(&opts.head, "head", 0, "only print the first N events that contain text")
	flags.IntVarP(&opts.tail, "tail", "t", 0, "only print the last N events that contain text")
	flags.StringVar(&opts.level, "redact", "", "redaction level: none, standard or strict (default from config)")
	flags.IntVar(&opts.maxLen, "max-len", 0, "truncate redacted strings longer than this (default from config)")
	flags.BoolVar(&validate, "validate", false, "check every event against the canonical event schema")
	flags.StringVar(&formatFlag, "format", "jsonl", "output format: jsonl or json")
	return cmd
}

func newAnonymizeCmd() *cobra.Command {
	var (
		maxLen int
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "anonymize <input> <output>",
		Short: "Write an anonymized copy of a session file for use as a fixture",
		Long: `Replaces home paths, hosts, email addresses, credentials and UUIDs with
stable tokens and truncates long strings. JSONL files are processed line by
line (malformed lines are dropped); .json documents are written indented.

Redaction is pattern based and not guaranteed to remove everything.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, output := args[0], args[1]
			if _, err := os.Stat(output); err == nil && !force {
				if !isTerminal(os.Stdin) {
					return fmt.Errorf("output %s already exists (use --force to overwrite)", output)
				}
				prompt := promptui.Prompt{
					Label:     fmt.Sprintf("Overwrite %s", output),
					IsConfirm: true,
				}
				if _, err := prompt.Run(); err != nil {
					if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
						return errors.New("cancelled")
					}
					return fmt.Errorf("failed to confirm overwrite: %w", err)
				}
			}

			stats, err := redact.AnonymizeFile(input, output, redact.AnonymizeOptions(maxLen))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d records to %s", stats.Records, output)
			if stats.Skipped > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), " (skipped %d malformed lines)", stats.Skipped)
			}
			fmt.Fprintln(cmd.ErrOrStderr())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&maxLen, "max-len", config.DefaultAnonymizeMaxLen, "truncate strings longer than this")
	flags.BoolVarP(&force, "force", "f", false, "overwrite the output file without asking")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve session tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), a)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "aiws version %s\n", version)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func init() {
	log.SetFlags(0)
	log.SetPrefix("aiws: ")
}
