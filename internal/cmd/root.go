// Package cmd implements the glexport command-line interface.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/glexport/glexport/internal/config"
	"github.com/glexport/glexport/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "glexport",
	Short: "Back up and restore GitLab projects via the GitLab API",
	Long: `glexport exports whole GitLab projects with wikis, issues and repository
content through the server's asynchronous export API, downloads the resulting
archives for backup, and can re-import an archive into a target namespace.
Good for migration or simple backup of your GitLab projects.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var debugMode bool

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/glexport/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "debug mode")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("GLEXPORT")
	// Replace dots with underscores for nested keys in env vars
	// e.g., GLEXPORT_GITLAB_ACCESS_TOKEN for gitlab.access.token
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// newLogger builds the run logger honoring the debug flag.
func newLogger() *logging.Logger {
	level := logging.LevelInfo
	if debugMode {
		level = logging.LevelDebug
	}
	return logging.NewLogger(level)
}
