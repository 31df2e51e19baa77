// Command cloudsync-inspect drives a demo bidirectional sync between two
// in-memory providers and prints the resulting sync state, giving the
// ambient CLI/logging/config stack a runnable home. It is not a concrete
// provider implementation or a production sync client.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cloudsync-go/cloudsync/internal/cloudsync"
	"github.com/cloudsync-go/cloudsync/internal/cloudsync/configuration"
	"github.com/cloudsync-go/cloudsync/internal/cloudsync/logging"
	"github.com/cloudsync-go/cloudsync/internal/cloudsync/storage"
	"github.com/cloudsync-go/cloudsync/internal/cloudsync/testutil"
)

var rootConfiguration struct {
	configPath string
	envPath    string
	logLevel   string
	ticks      int
	seedFile   string
	quietDirs  bool
}

var rootCommand = &cobra.Command{
	Use:   "cloudsync-inspect",
	Short: "Run a demo two-sided in-memory sync and print the resulting state",
	RunE:  run,
}

func init() {
	flags := rootCommand.Flags()
	flags.StringVar(&rootConfiguration.configPath, "config", "cloudsync.yaml", "path to a YAML tunables file")
	flags.StringVar(&rootConfiguration.envPath, "env", ".env", "path to a .env overlay file")
	flags.StringVar(&rootConfiguration.logLevel, "log-level", "info", "log level: disabled, error, warn, info, debug")
	flags.IntVar(&rootConfiguration.ticks, "ticks", 50, "number of reconciliation ticks to run before printing state")
	flags.StringVar(&rootConfiguration.seedFile, "seed-path", "/hello.txt", "path to seed with demo content on the local side")
	flags.BoolVar(&rootConfiguration.quietDirs, "no-dirs", false, "omit directory entries from the printed state")
}

func run(command *cobra.Command, arguments []string) error {
	level, ok := logging.NameToLevel(rootConfiguration.logLevel)
	if !ok {
		return errors.Errorf("invalid log level: %q", rootConfiguration.logLevel)
	}
	log := logging.NewRoot(level)

	cfg, err := configuration.LoadWithEnvOverlay(rootConfiguration.configPath, rootConfiguration.envPath)
	if err != nil {
		return errors.Wrap(err, "unable to load configuration")
	}
	log.Debugf("loaded configuration: idle=%dms mkdirsRetries=%d conflictSuffix=%s",
		cfg.Polling.IdleIntervalMilliseconds, cfg.Mkdirs.MaxRetries, cfg.Conflict.Suffix)

	mem := storage.NewMemory()
	state, err := cloudsync.NewSyncState(mem, "demo", log.Sublogger("state"))
	if err != nil {
		return errors.Wrap(err, "unable to construct sync state")
	}

	local := testutil.NewMemoryProvider()
	remote := testutil.NewMemoryProvider()
	local.PutFile(rootConfiguration.seedFile, []byte("hello from the local side\n"))

	// Relocate anything under /docs to /shared/docs on the other side; every
	// other path passes through unchanged via the trailing catch-all rule.
	translate, err := configuration.BuildGlobTranslator([]configuration.GlobRule{
		{Pattern: "docs/**", FromPrefix: "/docs", ToPrefix: "/shared/docs"},
		{Pattern: "**", FromPrefix: "/", ToPrefix: "/"},
	})
	if err != nil {
		return errors.Wrap(err, "unable to build path translator")
	}

	opts := cloudsync.ManagerOptions{
		ConflictSuffix:   cfg.Conflict.Suffix,
		MkdirsMaxRetries: cfg.Mkdirs.MaxRetries,
	}
	manager, err := cloudsync.NewSyncManager(state, [2]cloudsync.Provider{local, remote}, translate, opts, log.Sublogger("manager"))
	if err != nil {
		return errors.Wrap(err, "unable to construct sync manager")
	}
	defer manager.Done()

	ctx, cancel := context.WithTimeout(command.Context(), 10*time.Second)
	defer cancel()

	pump(ctx, state, local, cloudsync.Local, log.Sublogger("ingest.local"))
	pump(ctx, state, remote, cloudsync.Remote, log.Sublogger("ingest.remote"))

	idleYield := time.Duration(cfg.Polling.IdleIntervalMilliseconds) * time.Millisecond
	ticksDone := 0
	cloudsync.Run(ctx, manager, state, idleYield, func() bool {
		ticksDone++
		return ticksDone > rootConfiguration.ticks
	})

	fmt.Println(state.PrettyPrint(rootConfiguration.quietDirs))
	return nil
}

func pump(ctx context.Context, state *cloudsync.SyncState, p cloudsync.Provider, side cloudsync.Side, log *logging.Logger) {
	root := p.PathConfig().Sep
	cloudsync.ColdWalk(ctx, state, p, side, root, log)
	go func() {
		if err := cloudsync.PumpEvents(ctx, state, p, side, root, log); err != nil {
			log.Error(errors.Wrap(err, "event pump stopped, provider session needs reconnecting"))
		}
	}()
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
