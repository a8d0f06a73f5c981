// Package config loads typed configuration structs from environment variables.
//
// Structs declare their variables with caarlos0/env tags. Load reads an optional
// dotenv file first (".env" in the working directory unless WithEnvFiles says
// otherwise) and never overrides variables already present in the process
// environment.
//
//	type Daemon struct {
//		Addr    string `env:"HTTP_ADDR" envDefault:":8080"`
//		Backend string `env:"ROLLOUT_BACKEND" envDefault:"memory"`
//	}
//
//	var cfg Daemon
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// Tests can inject variables without touching the process environment through
// WithEnvironment.
package config
