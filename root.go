package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"typehide/internal/config"
	"typehide/internal/logging"
	"typehide/internal/store"
	"typehide/internal/typespan"
	"typehide/internal/visibility"
)

var (
	configPath string
	logLevel   string
	logFile    string
	verbose    int
	quiet      bool
)

// session is what every command shares once flags and config are resolved.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []io.Closer
}

var sess = &session{logger: logging.NewDiscardLogger()}

var rootCmd = &cobra.Command{
	Use:   "typehide",
	Short: "Hide TypeScript type annotations",
	Long: `typehide finds the type-level parts of TypeScript and TSX sources (annotations,
generics, assertions, type declarations, type-only imports) and hides them, either in
a terminal viewer or as span listings for other tools.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: typehide.{toml,yaml,json} in the project or user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error or off")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "more logging (repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "no logging")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(kindsCmd)
}

// Execute runs the root command and releases whatever it opened.
func Execute() error {
	defer sess.close()
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, args []string) error {
	root, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(root, configPath)
	if err != nil {
		return err
	}
	sess.cfg = cfg

	level := resolveLevel(cmd, cfg)
	switch {
	case logFile != "":
		logger, f, err := logging.NewFileLogger(logFile, level)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		sess.logger = logger
		sess.closers = append(sess.closers, f)
	case cmd == viewCmd:
		// the terminal belongs to the viewer
		sess.logger = logging.NewDiscardLogger()
	default:
		sess.logger = logging.NewLogger(cmd.ErrOrStderr(), level)
	}
	sess.logger.Debug("config loaded", "enabled", cfg.Enabled, "hidden", cfg.Hidden, "workers", cfg.Workers)
	return nil
}

// resolveLevel prefers --log-level, then -v/-q, then the config file.
func resolveLevel(cmd *cobra.Command, cfg *config.Config) slog.Level {
	flags := cmd.Flags()
	switch {
	case logLevel != "":
		return logging.LevelFromString(logLevel)
	case quiet || flags.Changed("verbose"):
		return logging.LevelFromVerbosity(verbose, quiet)
	default:
		return logging.LevelFromString(cfg.LogLevel)
	}
}

func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
	s.closers = nil
}

func (s *session) analyzerOptions() []typespan.Option {
	return []typespan.Option{typespan.WithDiagnostics(typespan.LogSink(s.logger))}
}

// openStore opens the preference database and registers it for closing.
func (s *session) openStore() (*store.Store, error) {
	st, err := store.Open(s.cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	s.closers = append(s.closers, st)
	return st, nil
}

// coordinator builds a coordinator from config. The mode store is optional:
// when the state database is locked by another process the persisted mode
// is skipped with a warning.
func (s *session) coordinator(editor visibility.Editor, opts ...visibility.Option) (*visibility.Coordinator, error) {
	ignored, err := s.cfg.IgnoredKinds()
	if err != nil {
		return nil, err
	}
	opts = append([]visibility.Option{visibility.WithLogger(s.logger)}, opts...)
	if st, err := s.openStore(); err != nil {
		s.logger.Warn("persisted mode unavailable", "err", err)
	} else {
		opts = append(opts, visibility.WithModeStore(st))
	}
	return visibility.New(visibility.Config{
		CacheSize:     s.cfg.CacheSize,
		Workers:       s.cfg.Workers,
		FoldThreshold: s.cfg.FoldThresholdLines,
		Hidden:        s.cfg.Hidden,
		Ignored:       ignored,
	}, editor, opts...), nil
}
