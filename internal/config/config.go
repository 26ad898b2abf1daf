// Package config loads the configuration contract from spec §6 (port,
// loglevel, aof-enabled, aof-file, appendfsync) via the teacher's
// cobra+viper+godotenv stack (cmd/serve/root.go's PersistentFlags +
// viper.BindPFlags + godotenv.Load pattern), validating every field before
// cmd/redcored binds a listener.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config mirrors spec §6's contract table exactly.
type Config struct {
	Port        int
	LogLevel    string
	AOFEnabled  bool
	AOFFile     string
	AppendFsync string
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
var validFsyncPolicies = map[string]bool{"always": true, "everysec": true, "no": true}

// BindFlags registers the serve subcommand's flags, matching the teacher's
// key/default/help-text PersistentFlags calls.
func BindFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Int("port", 6379, "listen port (1-65535)")
	cmd.PersistentFlags().String("loglevel", "info", "log level: debug, info, warn, error")
	cmd.PersistentFlags().Bool("aof-enabled", false, "enable AOF durability and replay")
	cmd.PersistentFlags().String("aof-file", "appendonly.aof", "AOF file path")
	cmd.PersistentFlags().String("appendfsync", "everysec", "AOF fsync policy: always, everysec, no")
	cmd.PersistentFlags().String("config", "", "optional config file; its loglevel is hot-reloaded on write")
}

// Load reads .env/.env.local, binds environment variables under the
// REDCORED_ prefix, binds cmd's flags, and returns the validated Config.
// It is the PreRunE/RunE split collapsed into one call since this repo has
// a single subcommand's worth of configuration.
func Load(cmd *cobra.Command) (Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("redcored")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return Config{}, err
	}

	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
		_ = viper.ReadInConfig()
	}

	cfg := Config{
		Port:        viper.GetInt("port"),
		LogLevel:    viper.GetString("loglevel"),
		AOFEnabled:  viper.GetBool("aof-enabled"),
		AOFFile:     viper.GetString("aof-file"),
		AppendFsync: viper.GetString("appendfsync"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ReadLevel re-reads just the loglevel field from a config file, used by
// LevelWatcher after an fsnotify write event. It uses a scratch viper
// instance so it never disturbs the process's bound flags/env.
func ReadLevel(path string) (string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return "", err
	}
	return v.GetString("loglevel"), nil
}

// Validate checks every field against spec §6's contract table.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range 1..65535", c.Port)
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("config: invalid loglevel %q", c.LogLevel)
	}
	if !validFsyncPolicies[c.AppendFsync] {
		return fmt.Errorf("config: invalid appendfsync %q", c.AppendFsync)
	}
	if c.AOFFile == "" {
		return fmt.Errorf("config: aof-file must not be empty")
	}
	return nil
}
