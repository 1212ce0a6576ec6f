package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/daviddao/mailsheets/internal/config"
	"github.com/daviddao/mailsheets/internal/db"
)

// Version is set via ldflags at build time.
var Version = "dev"

var (
	cfgFile    string
	jsonOutput bool
	quietFlag  bool
	projectDir string
	cfg        *config.Config
	logger     = logrus.New()
)

// flagKeys maps config keys to the flags that override them.
var flagKeys = map[string]string{
	"sheet.id":          "sheet",
	"sheet.range":       "range",
	"gmail.user":        "user",
	"gmail.max_results": "max",
	"auth.credentials":  "credentials",
	"auth.token":        "token",
	"state.path":        "db",
	"watch.schedule":    "schedule",
	"metrics.file":      "metrics-file",
	"log.level":         "log-level",
}

var rootCmd = &cobra.Command{
	Use:   "ms",
	Short: "ms - copy unread Gmail messages into a Google Sheet",
	Long: `Mailsheets: append every unread inbox message to a Google Sheet as a
(from, subject, date, body) row and mark it read.

Running ms without a subcommand performs one pass, like 'ms run'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "help", "version", "quickstart":
			return nil
		}

		projectDir = db.FindProjectRoot()

		v := viper.New()
		if err := config.BindFlags(v, cmd.Flags(), flagKeys); err != nil {
			return err
		}
		var err error
		cfg, err = config.Load(v, cfgFile, projectDir)
		if err != nil {
			return err
		}
		cfg.Resolve(projectDir)
		if cfg.State.Path == "" {
			cfg.State.Path = db.DefaultPath(projectDir)
		}

		level, err := logrus.ParseLevel(cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
		}
		logger.SetLevel(level)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ms version %s\n", Version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize .mailsheets/ and a config file in the project root",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := db.Open(cfg.State.Path)
		if err != nil {
			return err
		}
		s.Close()

		cfgPath := filepath.Join(projectDir, config.FileName+".yaml")
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			if err := os.WriteFile(cfgPath, []byte(config.Sample), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", cfgPath, err)
			}
		}

		ensureGitignore(projectDir)

		if !quietFlag {
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized mailsheets at %s\n", projectDir)
			fmt.Fprintf(cmd.OutOrStdout(), "Set sheet.id in %s, then run 'ms auth'.\n", cfgPath)
		}
		return nil
	},
}

// ensureGitignore keeps local state and OAuth secrets out of git.
func ensureGitignore(root string) {
	gitignorePath := filepath.Join(root, ".gitignore")
	want := []string{db.StateDir + "/", "credentials/"}

	present := map[string]bool{}
	if f, err := os.Open(gitignorePath); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			present[strings.TrimSuffix(line, "/")+"/"] = true
		}
		f.Close()
	}

	var missing []string
	for _, entry := range want {
		if !present[entry] {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return // silently skip if can't write
	}
	defer f.Close()

	fmt.Fprintf(f, "\n# Mailsheets state and OAuth files\n%s\n", strings.Join(missing, "\n"))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: mailsheets.yaml in the project root)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().String("log-level", "", "Diagnostic log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("credentials", "", "Path to OAuth credentials.json")
	rootCmd.PersistentFlags().String("token", "", "Path to token.json (default: next to credentials.json)")
	rootCmd.PersistentFlags().String("db", "", "State database path (default: .mailsheets/state.db)")
	addRunFlags(rootCmd)

	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
