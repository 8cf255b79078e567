// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "OpenMeters")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "openmeters.log")
	viper.SetDefault("main.log.level", "info")

	viper.SetDefault("audio.device", "default")
	viper.SetDefault("audio.queuedepth", 16)
	viper.SetDefault("audio.mirrormono", true)
	viper.SetDefault("audio.meterrefreshms", 50)

	viper.SetDefault("export.enabled", false)
	viper.SetDefault("export.path", "captures/")

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.listen", "localhost:8090")
}
