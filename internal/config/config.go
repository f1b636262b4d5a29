package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func LoadConfig() {
	viper.SetConfigName("config")       // name of config file (without extension)
	viper.SetConfigType("yaml")         // REQUIRED if the config file does not have the extension in the name
	viper.AddConfigPath("/etc/sukyan/") // path to look for the config file in
	viper.AddConfigPath(".")            // optionally look for config in the working directory
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Debug().Msg("Config file not found, using defaults")
		} else {
			// Config file was found but another error was produced
			log.Panic().Err(err).Msg("Fatal error reading config file")
		}
	}
	SetDefaultConfig()
}

func SetDefaultConfig() {
	// Navigation
	viper.SetDefault("navigation.user_agent", "")
	viper.SetDefault("navigation.timeout", 15)
	viper.SetDefault("navigation.proxy", "")
	viper.SetDefault("navigation.http_version", "1.1")
	viper.SetDefault("navigation.max_requests_per_second", 0)
	viper.SetDefault("navigation.burst", 5)

	// Logging
	viper.SetDefault("logging.file", "")
	viper.SetDefault("logging.pretty", true)

	// File upload
	viper.SetDefault("fileupload.static_location_uri_regex", "")
	viper.SetDefault("fileupload.dynamic_location_uri_regex", "")
	viper.SetDefault("fileupload.dynamic_location_start_identifier", "")
	viper.SetDefault("fileupload.dynamic_location_end_identifier", "")
	viper.SetDefault("fileupload.vectors", []string{})
	viper.SetDefault("fileupload.vectors_directory", "")
	viper.SetDefault("fileupload.concurrency", 4)
	viper.SetDefault("fileupload.base_file_name", "")

	// Output
	viper.SetDefault("output.format", "pretty")
	viper.SetDefault("output.directory", "")
}
