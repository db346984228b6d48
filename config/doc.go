// Package config loads service configuration from a YAML file, an optional
// .env file and the process environment.
//
// It uses Viper underneath. Every environment variable is bound under several
// nested key variants, so WHISPER_MODELS_DIR reaches whisper.models_dir
// without explicit registration. Names that do not follow the nesting, such as
// WHISPER_PORT for server.port, are bound with WithEnvAlias.
//
// # Usage
//
//	var cfg AppConfig
//	err := config.LoadConfig("whisperd", &cfg,
//	    config.WithEnvAlias("WHISPER_PORT", "server.port"))
package config
