// Package config loads service configuration with Viper.
//
// Values come from a config.yml found in the usual locations (cmd/<service>,
// config/, the working directory), overlaid by environment variables and an
// optional .env file loaded with godotenv. Environment variables map onto
// nested keys by underscore: ORCHESTRATOR_RESTART_WORKERS sets
// orchestrator.restart_workers.
//
//	cfg, err := config.Load[AppConfig]("orchestrator", config.WithConfigFile(path))
package config
