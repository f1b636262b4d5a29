package fileupload

import "github.com/spf13/viper"

// LocatorConfigFromViper snapshots the location settings of the current configuration
func LocatorConfigFromViper() LocatorConfig {
	return LocatorConfig{
		StaticLocationURIRegex:         viper.GetString("fileupload.static_location_uri_regex"),
		DynamicLocationURIRegex:        viper.GetString("fileupload.dynamic_location_uri_regex"),
		DynamicLocationStartIdentifier: viper.GetString("fileupload.dynamic_location_start_identifier"),
		DynamicLocationEndIdentifier:   viper.GetString("fileupload.dynamic_location_end_identifier"),
	}
}
