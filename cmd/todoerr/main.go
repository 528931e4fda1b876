package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/davidteren/tauri-todo/internal/datadir"
	"github.com/davidteren/tauri-todo/internal/log"
	"github.com/davidteren/tauri-todo/internal/model"
	"gopkg.in/yaml.v3"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const configName = "todoerr.yaml"

var (
	userConfigPath string // /default/config/path/todoerr on given OS
	configPath     string // actual config file used (if loaded)
	config         model.Config
	dirs           datadir.Dirs
	logSink        io.WriteCloser

	flagConfigFilePath string // value of --config flag
)

func init() {
	d, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}
	userConfigPath = filepath.Join(d, "todoerr")
}

func main() {
	// root flags
	rootCmd.PersistentFlags().StringVar(&flagConfigFilePath, "config", "", "Config file to load - default is "+configName+" in current directory or in "+userConfigPath)
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose logging")
	rootCmd.PersistentFlags().Bool("dev", false, "skip launching the backend and use the dev server")

	viper.SetEnvPrefix("TODOERR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("dev", rootCmd.PersistentFlags().Lookup("dev"))

	// never print messages
	rootCmd.SilenceErrors = true

	// parse or create a config, setup logging
	rootCmd.PersistentPreRunE = initLauncher

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("todoerr failed", "err", err)
	}
	if logSink != nil {
		_ = logSink.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "todoerr",
	Short:        "Desktop launcher for the TodoErr server",
	SilenceUsage: true,
	RunE:         doRun,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run starts the bundled server and opens the application window",
	RunE:  doRun,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "config prints the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", configPath)
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer func() {
			_ = enc.Close()
		}()
		return enc.Encode(config)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "version provide version of a todoerr",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			fmt.Println("todoerr: version info not available")
			return
		}

		if configPath != "" {
			fmt.Printf("config:  %s\n", configPath)
		}
		fmt.Printf("todoerr: %s\n", info.Main.Version)
		fmt.Printf("go:      %s\n", info.GoVersion)
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				fmt.Printf("commit:  %s\n", s.Value)
			case "vcs.time":
				fmt.Printf("date:    %s\n", s.Value)
			case "vcs.modified":
				fmt.Printf("dirty:   %s\n", s.Value)
			case "-tags":
				fmt.Printf("tags:    %s\n", s.Value)
			}
		}
		fmt.Println()
	},
}

func initLauncher(cmd *cobra.Command, _ []string) error {
	if envConfig, ok := os.LookupEnv("TODOERR_CONFIG"); ok {
		configPath = envConfig
	} else if flagConfigFilePath != "" {
		configPath = flagConfigFilePath
	} else {
		for _, d := range []string{userConfigPath, "."} {
			path := filepath.Join(d, configName)
			if exists(path) {
				configPath = path
				break
			}
		}
	}

	// store default configuration
	if configPath == "" {
		config = model.DefaultConfig()
		configPath = filepath.Join(userConfigPath, configName)
		if err := storeConfig(configPath, config); err != nil {
			return err
		}
	} else {
		f, err := os.Open(configPath)
		if err != nil {
			return fmt.Errorf("opening config file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		config, err = model.LoadConfig(f)
		if err != nil {
			for _, d := range model.CueErrDetails(err) {
				slog.Error("invalid config", d.Attr("detail"))
			}
			return fmt.Errorf("parsing config %s: %w", configPath, err)
		}
	}

	// --verbose has a precedence over config file
	if viper.GetBool("verbose") {
		config.Verbose = true
	}

	var dataDir, database string
	if config.Data != nil {
		dataDir, database = string(config.Data.Dir), config.Data.Database
	}
	var err error
	dirs, err = datadir.Resolve(dataDir, database)
	if err != nil {
		return fmt.Errorf("preparing data directory: %w", err)
	}

	// initialize logging
	dest := dirs.LogPath
	if config.Log != nil {
		dest = *config.Log
	}
	logSink, err = log.Sink(dest)
	if err != nil {
		return err
	}
	slog.SetDefault(log.New(logSink, config.Verbose))

	slog.Debug("todoerr run", "configPath", configPath)
	slog.Debug("todoerr run", "config", config, "dirs", dirs)
	return nil
}

func storeConfig(path string, cfg model.Config) error {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return fmt.Errorf("creating directory %s: %w", filepath.Dir(path), err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	enc := yaml.NewEncoder(f)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("storing configuration: %w", err)
	}
	return enc.Close()
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// logHint is the log location shown to the user.
func logHint() string {
	if config.Log == nil {
		return dirs.LogPath
	}
	switch *config.Log {
	case model.LogStderr, model.LogStdout, model.LogDiscard:
		return ""
	}
	if abs, err := filepath.Abs(*config.Log); err == nil {
		return abs
	}
	return *config.Log
}
