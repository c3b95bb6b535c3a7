package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/savezy/savezy"
	"github.com/savezy/savezy/pkg/config"
	"github.com/savezy/savezy/pkg/db"
	"github.com/savezy/savezy/pkg/logging"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config = config.LoadDefaults()
	logger logging.Logger = logging.Nop()
)

var rootCmd = &cobra.Command{
	Use:           "savezy",
	Short:         "Save videos, memes, news, websites, images and directions for later.",
	Version:       fmt.Sprintf("v%s", savezy.Version),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// loadConfig layers flags over the environment over the defaults.
func loadConfig(cmd *cobra.Command) error {
	loaded, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		loaded.DBPath, _ = flags.GetString("db")
	}
	if flags.Changed("wal") {
		loaded.WAL, _ = flags.GetBool("wal")
	}
	if flags.Changed("sync") {
		s, _ := flags.GetString("sync")
		loaded.SyncMode = strings.ToUpper(s)
	}
	if flags.Changed("remote-url") {
		loaded.RemoteURL, _ = flags.GetString("remote-url")
	}
	if flags.Changed("session") {
		loaded.SessionPath, _ = flags.GetString("session")
	}
	if flags.Changed("log-level") {
		loaded.LogLevel, _ = flags.GetString("log-level")
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	l, err := logging.New(os.Stderr, loaded.LogLevel)
	if err != nil {
		return err
	}
	cfg = loaded
	logger = l
	return nil
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

var completionCmd = &cobra.Command{
	Use:   fmt.Sprintf("completion %s", strings.Join(completionShells, "|")),
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for savezy.

Examples:

  Bash (current shell):
    $ source <(savezy completion bash)

  Zsh:
    $ savezy completion zsh > "${fpath[1]}/_savezy"

  Fish:
    $ savezy completion fish > ~/.config/fish/completions/savezy.fish

  PowerShell:
    PS> savezy completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             completionShells,
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of savezy",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), savezy.Version)
	},
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the savezy database",
}

var dbUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Create or upgrade the database schema",
	Long: `Opens the SQLite database (creating it if needed) and brings its schema to the
current version. Running it on an up-to-date database changes nothing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveDBPath()
		if err != nil {
			return err
		}

		conn, err := db.OpenDBConnection(cmd.Context(), path, cfg.WAL, cfg.SyncMode)
		if err != nil {
			return err
		}
		defer conn.Close()

		before, err := db.GetSchemaVersion(cmd.Context(), conn)
		if err != nil {
			return err
		}
		if err := db.UpgradeDB(cmd.Context(), conn, path, db.TargetSchemaVersion, logger); err != nil {
			return err
		}

		if before == db.TargetSchemaVersion {
			fmt.Fprintf(cmd.OutOrStdout(), "Database %s is already at schema version %d.\n", path, before)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Database %s upgraded from schema version %d to %d.\n", path, before, db.TargetSchemaVersion)
		}
		return nil
	},
}

func initCmd() {
	defaults := config.LoadDefaults()
	pf := rootCmd.PersistentFlags()
	pf.String("db", defaults.DBPath, "Path to the savezy SQLite database file (env SAVEZY_DB)")
	pf.Bool("wal", defaults.WAL, "Enable SQLite WAL mode (env SAVEZY_WAL)")
	pf.String("sync", defaults.SyncMode, "SQLite synchronous pragma: OFF, NORMAL, FULL, EXTRA (env SAVEZY_SYNC)")
	pf.String("remote-url", defaults.RemoteURL, "Base URL of the remote mirror (env SAVEZY_REMOTE_URL)")
	pf.String("session", defaults.SessionPath, "Where the remote session is stored (env SAVEZY_SESSION)")
	pf.String("log-level", defaults.LogLevel, "Log level: debug, info, warn, error (env SAVEZY_LOG_LEVEL)")

	dbCmd.AddCommand(dbUpgradeCmd)

	initContentsCmd()
	initRemoteCmd()

	rootCmd.AddCommand(completionCmd, versionCmd, dbCmd, contentsCmd, tagsCmd, searchCmd, remoteCmd, mcpCmd)
}

func main() {
	initCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		os.Exit(1)
	}
}
