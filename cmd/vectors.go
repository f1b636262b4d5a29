package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pyneda/sukyan-fileupload/lib"
	"github.com/pyneda/sukyan-fileupload/pkg/fileupload"
)

var vectorsFormat string
var vectorsDirectory string

// vectorsCmd represents the vectors command
var vectorsCmd = &cobra.Command{
	Use:   "vectors",
	Short: "Lists the available file upload attack vectors",
	Long:  `Lists the built-in attack vectors merged with the ones found in the vectors directory, showing the files each one uploads.`,
	Run: func(cmd *cobra.Command, args []string) {
		format, err := lib.ParseFormatType(vectorsFormat)
		if err != nil {
			log.Error().Err(err).Msg("Invalid output format")
			os.Exit(1)
		}
		if vectorsDirectory == "" {
			vectorsDirectory = viper.GetString("fileupload.vectors_directory")
		}
		registry, err := fileupload.LoadRegistry(vectorsDirectory, nil)
		if err != nil {
			log.Error().Err(err).Msg("Could not load attack vectors")
			os.Exit(1)
		}
		var summaries []fileupload.VectorSummary
		for _, vector := range registry.Vectors() {
			summaries = append(summaries, fileupload.Summarize(vector))
		}
		output, err := lib.FormatOutput(summaries, format)
		if err != nil {
			log.Error().Err(err).Msg("Error formatting output")
			os.Exit(1)
		}
		fmt.Println(output)
	},
}

func init() {
	rootCmd.AddCommand(vectorsCmd)
	vectorsCmd.Flags().StringVarP(&vectorsFormat, "format", "f", "table", "Output format (pretty, text, json, yaml, table)")
	vectorsCmd.Flags().StringVar(&vectorsDirectory, "vectors-dir", "", "Directory with extra vector definitions (overrides fileupload.vectors_directory)")
}
