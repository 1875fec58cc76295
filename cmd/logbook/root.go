package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/aretw0/logbook/internal/platform"
	"github.com/aretw0/logbook/pkg/core"
	"github.com/aretw0/logbook/pkg/git"
)

// app carries the state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	cfg     platform.Config
	logger  *slog.Logger
	closer  io.Closer
	cfgFile string
	verbose bool

	// interactive enables prompts and the editor. Off unless stdin and stdout are terminals.
	interactive bool
	render      *renderer
}

func newRootCmd() *cobra.Command {
	a := &app{v: platform.NewViper()}

	rootCmd := &cobra.Command{
		Use:   "logbook",
		Short: "A git-backed log of structured records",
		Long: `Logbook keeps small structured records (access logs, operation notes) as YAML files
in a git repository. Every change is a commit, and records sync through a shadow branch.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.closer != nil {
				a.closer.Close()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/logbook/config.yaml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringP("data-dir", "d", "", "data directory")
	flags.String("author", "", `author identity, "Name <email>"`)
	flags.String("schema", "", "TOML schema file")
	flags.String("log-file", "", "write logs to a rotating file")
	flags.Bool("no-input", false, "never prompt")
	a.v.BindPFlag("data_dir", flags.Lookup("data-dir"))
	a.v.BindPFlag("schema_file", flags.Lookup("schema"))
	a.v.BindPFlag("log_file", flags.Lookup("log-file"))

	rootCmd.AddCommand(
		newInitCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newRecentCmd(a),
		newHistoryCmd(a),
		newPushCmd(a),
		newFetchCmd(a),
		newWatchCmd(a),
		newStatusCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the command line and returns the process exit code.
func Execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "logbook: %v\n", err)
	}
	return exitCode(err)
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := platform.LoadConfig(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if author, _ := cmd.Flags().GetString("author"); author != "" {
		id := git.ParseIdentity(author)
		cfg.AuthorName, cfg.AuthorEmail = id.Name, id.Email
	}
	a.cfg = cfg

	level := platform.ParseLevel(cfg.LogLevel)
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger, a.closer = platform.NewLogger(cmd.ErrOrStderr(), cfg.LogFile, level)
	slog.SetDefault(a.logger)

	if !cmd.Flags().Changed("data-dir") {
		if wd, err := os.Getwd(); err == nil && platform.DiscoverDataDir(a.v, &a.cfg, wd) {
			a.logger.Debug("using enclosing logbook", "data_dir", a.cfg.DataDir)
		}
	}

	noInput, _ := cmd.Flags().GetBool("no-input")
	a.interactive = !noInput && isTerminal(os.Stdin) && isTerminal(os.Stdout)
	a.render = newRenderer(cmd.OutOrStdout(), a.interactive)
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func (a *app) options(autoInit bool) ([]platform.Option, error) {
	schema, err := platform.LoadSchema(a.cfg.SchemaFile)
	if err != nil {
		return nil, err
	}
	opts := []platform.Option{
		platform.WithLogger(a.logger),
		platform.WithAutoInit(autoInit),
		platform.WithAuthor(a.cfg.Identity()),
		platform.WithSchema(schema),
		platform.WithShadowBranch(a.cfg.ShadowBranch),
		platform.WithSyncRemote(a.cfg.SyncRemote),
		platform.WithWatcherErrorHandler(func(err error) {
			a.logger.Error("watch failed", "error", err)
		}),
	}
	if a.interactive {
		opts = append(opts,
			platform.WithCollector(formCollector{}),
			platform.WithPicker(selectPicker{}),
			platform.WithConfirmer(confirmPrompt{schema: schema}),
			platform.WithEditor(&commandEditor{command: a.cfg.Editor}),
		)
	}
	return opts, nil
}

// service opens the configured data directory.
func (a *app) service(ctx context.Context, autoInit bool) (*core.Service, error) {
	opts, err := a.options(autoInit)
	if err != nil {
		return nil, err
	}
	return platform.New(ctx, a.cfg.DataDir, opts...)
}

func (a *app) store(ctx context.Context) (core.Store, error) {
	opts, err := a.options(false)
	if err != nil {
		return nil, err
	}
	return platform.Init(ctx, a.cfg.DataDir, opts...)
}
