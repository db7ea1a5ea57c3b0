// Package config handles configuration loading for herald.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion. The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	discord:
//	  bot_token: "${HERALD_BOT_TOKEN}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"  # interactions endpoint
//	  reply_window: "3s"         # platform reply deadline
//
// Platform application credentials:
//
//	discord:
//	  public_key: "${HERALD_PUBLIC_KEY}"   # hex Ed25519 verification key
//	  bot_token: "${HERALD_BOT_TOKEN}"
//	  application_id: "123456789"
//	  owner_id: "987654321"                # always holds moderation capability
//
// Config store, one of two backends:
//
//	database:
//	  driver: "sqlite"
//	  path: "/var/lib/herald/herald.db"
//
//	database:
//	  driver: "redis"
//	  addr: "localhost:6379"
//	  password: "${HERALD_REDIS_PASSWORD}"
//	  db: 0
//
// Web dashboard sessions (optional):
//
//	dashboard:
//	  jwt_secret: "${HERALD_JWT_SECRET}"  # min 32 bytes
//	  base_url: "https://herald.example.com"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
