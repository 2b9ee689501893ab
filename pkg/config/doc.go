// Package config loads typed configuration from environment variables.
//
// It combines github.com/joho/godotenv, which reads an optional .env file, with
// github.com/caarlos0/env/v11, which fills structs from `env` tags. Load caches
// every configuration type after its first successful parse, so infrastructure
// packages can each own a small Config struct and the binary can assemble them
// without parsing the environment repeatedly.
//
//	type AppConfig struct {
//		HTTPAddr string       `env:"HTTP_ADDR" envDefault:":8080"`
//		Mongo    mongo.Config
//	}
//
//	var cfg AppConfig
//	if err := config.Load(&cfg); err != nil {
//		return fmt.Errorf("load config: %w", err)
//	}
//
// Parse skips the cache and is convenient in tests that change the
// environment between cases.
package config
