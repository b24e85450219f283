package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csheth/candyrag/internal/candyapi"
	"github.com/csheth/candyrag/internal/config"
	"github.com/csheth/candyrag/internal/i18n"
	"github.com/csheth/candyrag/internal/logging"
	"github.com/csheth/candyrag/internal/prefs"
	"github.com/csheth/candyrag/internal/tui"
)

// options collects flag values shared by every command. cfg is filled in by
// the root command's PersistentPreRunE.
type options struct {
	configFile  string
	verbose     bool
	apiURL      string
	logFile     string
	prefsDir    string
	interval    time.Duration
	noAltScreen bool

	cfg config.Config
}

// Execute runs the candyrag command line.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}

// NewRootCmd builds the command tree. The root command runs the terminal UI.
func NewRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "candyrag",
		Short: "AI Candy Store RAG demo in the terminal",
		Long: `candyrag asks the candy store backend a question and walks through
every stage of its retrieval-augmented answer: query processing, embedding,
vector search, context preparation and generation.

Keys:
  Enter     - Ask
  Tab       - Example questions
  ←/→ 1-9   - Move between steps
  Ctrl+T    - Toggle dark mode
  Ctrl+L    - Switch language
  Ctrl+R    - Reset the demo
  F1        - Help
  Ctrl+C    - Quit`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.load(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, o)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.configFile, "config", "", "config file (default: $CANDYRAG_CONFIG or the user config dir)")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "log at debug level")
	pf.StringVar(&o.apiURL, "api-url", "", "candy store backend URL")
	pf.StringVar(&o.logFile, "log-file", "", "log file path")
	pf.StringVar(&o.prefsDir, "prefs-dir", "", "directory holding preferences.json")

	f := root.Flags()
	f.DurationVar(&o.interval, "interval", 0, "autoplay delay between pipeline steps")
	f.BoolVar(&o.noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")

	root.AddCommand(newServeCmd(o), newAskCmd(o), newCandiesCmd(o))
	return root
}

// load layers flags over the file and environment settings.
func (o *options) load(cmd *cobra.Command) error {
	cfg, err := config.Load(config.LoadOptions{File: o.configFile})
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = o.apiURL
	}
	if flags.Changed("log-file") {
		cfg.LogFile = o.logFile
	}
	if flags.Changed("prefs-dir") {
		cfg.PrefsDir = o.prefsDir
	}
	if flags.Changed("interval") {
		cfg.Interval = config.Duration{Duration: o.interval}
	}
	if flags.Changed("no-alt-screen") {
		cfg.AltScreen = !o.noAltScreen
	}
	if o.verbose {
		cfg.LogLevel = "debug"
	}
	if flags.Changed("listen") {
		listen, _ := flags.GetString("listen")
		cfg.Listen = listen
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

func (o *options) fileLogger() (*zap.Logger, func() error, error) {
	logger, closeLog, err := logging.NewFile(o.cfg.LogFile, o.cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	return logger.Named("candyrag"), closeLog, nil
}

func (o *options) client(logger *zap.Logger) *candyapi.Client {
	return candyapi.New(candyapi.Config{BaseURL: o.cfg.APIURL, Logger: logger})
}

func runTUI(cmd *cobra.Command, o *options) error {
	logger, closeLog, err := o.fileLogger()
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	store := prefs.NewStore(o.cfg.PrefsDir, logger)
	saved := store.Load()
	logger.Info("starting",
		zap.String("api_url", o.cfg.APIURL),
		zap.String("prefs", store.Path()),
		zap.String("language", string(saved.Language)),
		zap.Bool("dark_mode", saved.DarkMode),
	)

	model := tui.New(tui.Config{
		Backend:        o.client(logger),
		Store:          store,
		Prefs:          saved,
		Table:          i18n.MustLoad(),
		Interval:       o.cfg.Interval.Duration,
		RequestTimeout: o.cfg.RequestTimeout.Duration,
		Logger:         logger,
	})

	programOpts := []tea.ProgramOption{
		tea.WithContext(cmd.Context()),
		tea.WithMouseCellMotion(),
	}
	if o.cfg.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	if _, err := tea.NewProgram(model, programOpts...).Run(); err != nil {
		logger.Error("program error", zap.Error(err))
		return fmt.Errorf("program error: %w", err)
	}
	logger.Info("exited")
	return nil
}

// resolveLanguage prefers an explicit --lang and otherwise uses the stored
// preference.
func (o *options) resolveLanguage(raw string, logger *zap.Logger) (i18n.Language, error) {
	if raw != "" {
		lang, ok := i18n.Parse(raw)
		if !ok {
			return "", fmt.Errorf("unsupported language %q (want en or fi)", raw)
		}
		return lang, nil
	}
	return prefs.NewStore(o.cfg.PrefsDir, logger).Load().Language, nil
}
