// Package config loads runtime configuration for the authctl CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional YAML file, ~/.sessionkeeper/authctl.yaml unless --config
//     names another one.
//  3. Command-line flags on the authctl root command, which override
//     earlier values.
//
// # YAML schema
//
//	server_addr: 127.0.0.1:50051
//	timeout: 10s
//	profile: default
package config
