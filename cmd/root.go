package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pyneda/sukyan-fileupload/lib"
)

var cfgFile string
var debugLogging bool
var prettyLogs bool
var logFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sukyan-fileupload",
	Short: "Active scanner for file upload endpoints",
	Long: `Uploads crafted files through an observed multipart upload request, fetches them
back and reports the ones the target executes or serves as active content.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or /etc/sukyan/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "Use debug level logging")
	rootCmd.PersistentFlags().BoolVar(&prettyLogs, "pretty", true, "Use pretty logging instead JSON")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("pretty") {
			prettyLogs = viper.GetBool("logging.pretty")
		}
		if logFile == "" {
			logFile = viper.GetString("logging.file")
		}
		if logFile != "" {
			if err := lib.ZeroConsoleAndFileLog(logFile, prettyLogs); err != nil {
				return fmt.Errorf("could not open log file: %w", err)
			}
		} else {
			lib.ZeroConsoleLog(prettyLogs)
		}
		lib.SetLogLevel(debugLogging)
		return nil
	}
}

// initConfig reads the config file given with --config, if any
func initConfig() {
	if cfgFile == "" {
		return
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		log.Error().Err(err).Str("file", cfgFile).Msg("Could not read config file")
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
}
