// Package config loads the eventlive configuration.
//
// Configuration is read from a YAML file, defaulted, overridden from the
// environment and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("eventlive.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow EVENTLIVE_SECTION_FIELD:
//
//   - EVENTLIVE_GENERATOR_API_KEY overrides generator.api_key
//   - EVENTLIVE_STORAGE_CAMPAIGNS_MONGO_URI overrides storage.campaigns.mongo.uri
//   - EVENTLIVE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// There is no package-level configuration; callers pass the *Config they
// loaded to the components that need it.
//
// # Example Configuration
//
//	engine:
//	  max_attempts: 3
//	  base_delay: "2s"
//
//	generator:
//	  enabled: true
//	  kind: "openai"
//	  base_url: "https://api.openai.com"
//	  model: "gpt-4o-mini"
//
//	storage:
//	  guidelines:
//	    sqlite:
//	      path: "data/guidelines.db"
//	  campaigns:
//	    backend: "mongo"
//	    mongo:
//	      uri: "mongodb://localhost:27017"
//
//	cache:
//	  backend: "redis"
//	  redis:
//	    address: "localhost:6379"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
