package util

import (
	"github.com/berfenger/tibber2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Tibber: config.TibberConfig{
			Token:         "test-token",
			Endpoint:      "https://api.tibber.com/v1-beta/gql",
			TimeoutMillis: 2000,
		},
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "tibber2mqtt",
		},
		MonitorConfig: config.MonitorConfig{
			PollIntervalMillis:          60000,
			PriceMinFetchIntervalMillis: 300000,
			PriceStaleWindowMillis:      18000000,
		},
		Port: 8080,
	}
}
