package cmd

import (
	"fmt"

	"github.com/cesto93/ai-agile-dev/internal/config"
	"github.com/cesto93/ai-agile-dev/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
	// jsonOutput switches command output to JSON.
	jsonOutput bool
	// storeDir overrides store.dir.
	storeDir string
	// version is the application version.
	version = "0.3.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "agiledev",
	Short: "agiledev - user stories from problem descriptions",
	Long: `agiledev turns a free-text problem description into agile user stories
with a language model, and keeps them in a local store you can list, read,
edit, rename and remove.

Stories live as markdown files under <store.dir>/stories, indexed by
<store.dir>/stories.db.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initRuntime(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		HandleFatalError(userMessage(err), err)
	}
}

// GetVersion returns the application version.
func GetVersion() string {
	return version
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.agiledev.yaml or $HOME/.agiledev.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&storeDir, "dir", "", "store directory (default .agiledev)")
}

// initRuntime loads configuration and sets up logging for the command about to run.
// Flags are bound here rather than in init so that a viper.Reset between runs
// does not drop them.
func initRuntime(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("json", flags.Lookup("json"))
	if flags.Changed("dir") {
		_ = viper.BindPFlag("store.dir", flags.Lookup("dir"))
	}

	if err := config.Init(cfgFile); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Setup(cmd.ErrOrStderr(), logger.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Verbose: isVerbose(),
	})
	logger.SetBasePath(config.GetCrashLogDir())
	logger.SetVersion(version)
	logger.SetCommand(cmd.CommandPath())
	return nil
}
