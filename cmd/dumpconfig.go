package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var dumpconfigPath string

// dumpconfigCmd represents the dumpconfig command
var dumpconfigCmd = &cobra.Command{
	Use:   "dumpconfig",
	Short: "Dumps the effective configuration",
	Long:  `Writes the effective configuration, defaults included, to a YAML file. Existing files are not overwritten.`,
	Run: func(cmd *cobra.Command, args []string) {
		err := viper.SafeWriteConfigAs(dumpconfigPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", dumpconfigPath).Msg("Could not write config file")
		}
		log.Info().Str("path", dumpconfigPath).Msg("Config file written")
	},
}

func init() {
	rootCmd.AddCommand(dumpconfigCmd)
	dumpconfigCmd.Flags().StringVarP(&dumpconfigPath, "output", "o", "config.yaml", "Path of the file to write")
}
