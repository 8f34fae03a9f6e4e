package cmd

import (
	"os"
	"time"

	"github.com/grovetools/ark/cli"
	"github.com/grovetools/ark/config"
	"github.com/grovetools/ark/git"
	"github.com/grovetools/ark/logging"
	"github.com/grovetools/ark/pkg/callsign"
	"github.com/grovetools/ark/pkg/diary"
	"github.com/grovetools/ark/pkg/eventlog"
	"github.com/grovetools/ark/pkg/memory"
	"github.com/grovetools/ark/pkg/process"
	"github.com/grovetools/ark/pkg/profiling"
	"github.com/grovetools/ark/pkg/sessions"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// deps is everything a command needs to reach session state.
type deps struct {
	cfg     *config.Config
	fs      afero.Fs
	store   *sessions.FileStore
	events  *eventlog.Writer
	manager *sessions.Manager
	logger  *logrus.Entry
}

// newDeps loads configuration and wires a Manager against the real
// filesystem. A bad config file is logged and defaults are used.
func newDeps(cmd *cobra.Command) *deps {
	defer profiling.Start("deps").Stop()

	logger := cli.GetLogger(cmd)
	cfg := loadConfig(cmd, logger)

	fs := afero.NewOsFs()
	store := sessions.NewFileStore(fs, cfg.RegistryPath(), logging.NewLogger("ark.registry"))
	events := eventlog.NewWriter(fs, cfg.LogDirPath())

	opts := sessions.Options{
		Store:    store,
		Events:   events,
		Resolver: callsign.NewDefaultResolver(),
		Branches: git.NewBranchProber(),
		Prober:   process.NewSystemProber(),
		Now:      time.Now,
		PID:      os.Getppid,
		Getwd:    os.Getwd,
		Logger:   logging.NewLogger("ark.sessions"),
	}
	if cfg.DiaryEnabled() {
		opts.Diary = diary.NewWriter(fs)
	}
	if cfg.MemoryBridgeEnabled() {
		opts.Memory = memory.NewBridge(fs)
	}

	return &deps{
		cfg:     cfg,
		fs:      fs,
		store:   store,
		events:  events,
		manager: sessions.NewManager(opts),
		logger:  logger,
	}
}

func loadConfig(cmd *cobra.Command, logger *logrus.Entry) *config.Config {
	path := cli.GetOptions(cmd).ConfigFile
	if path == "" {
		cfg, err := config.LoadDefault()
		if err != nil {
			logger.WithError(err).Warn("Ignoring invalid configuration, using defaults")
		}
		return cfg
	}

	cfg, err := config.Load(path)
	if err != nil {
		logger.WithError(err).Warn("Ignoring configuration file, using defaults")
		return config.Default()
	}
	return cfg
}
