package main

import (
	"flag"
	"fmt"
	"strconv"
	"time"
)

// ServerConfig holds the server configuration
type ServerConfig struct {
	Addr         string
	SessionID    string
	Width        float32
	Height       float32
	Depth        float32
	Seed         int64
	TickInterval time.Duration
	MaxDt        float32
	FrameEvery   int
	Autostart    bool
	RecipeFile   string
	WebhookURL   string
	LogLevel     string
}

// configResolver defines how to resolve a single configuration value
type configResolver struct {
	flagName    string
	envVarName  string
	defaultVal  string
	description string
	setter      func(*ServerConfig, string) error
}

func parseFloat32(v string) (float32, error) {
	f, err := strconv.ParseFloat(v, 32)
	return float32(f), err
}

var resolvers = []configResolver{
	{
		flagName:    "addr",
		envVarName:  "DOUGHSIM_ADDR",
		defaultVal:  ":8080",
		description: "HTTP listen address (e.g. :8080, 0.0.0.0:8080)",
		setter:      func(c *ServerConfig, v string) error { c.Addr = v; return nil },
	},
	{
		flagName:    "session-id",
		envVarName:  "DOUGHSIM_SESSION_ID",
		defaultVal:  "default",
		description: "ID of the session created at startup; empty disables it",
		setter:      func(c *ServerConfig, v string) error { c.SessionID = v; return nil },
	},
	{
		flagName:    "width",
		envVarName:  "DOUGHSIM_WIDTH",
		defaultVal:  "1000",
		description: "domain width",
		setter: func(c *ServerConfig, v string) (err error) {
			c.Width, err = parseFloat32(v)
			return err
		},
	},
	{
		flagName:    "height",
		envVarName:  "DOUGHSIM_HEIGHT",
		defaultVal:  "720",
		description: "domain height",
		setter: func(c *ServerConfig, v string) (err error) {
			c.Height, err = parseFloat32(v)
			return err
		},
	},
	{
		flagName:    "depth",
		envVarName:  "DOUGHSIM_DEPTH",
		defaultVal:  "1000",
		description: "domain depth",
		setter: func(c *ServerConfig, v string) (err error) {
			c.Depth, err = parseFloat32(v)
			return err
		},
	},
	{
		flagName:    "seed",
		envVarName:  "DOUGHSIM_SEED",
		defaultVal:  "0",
		description: "PRNG seed for new sessions; 0 seeds from the clock",
		setter: func(c *ServerConfig, v string) (err error) {
			c.Seed, err = strconv.ParseInt(v, 10, 64)
			return err
		},
	},
	{
		flagName:    "tick-interval-ms",
		envVarName:  "DOUGHSIM_TICK_INTERVAL_MS",
		defaultVal:  "16",
		description: "wall-clock interval between steps of a running session",
		setter: func(c *ServerConfig, v string) error {
			ms, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			if ms <= 0 {
				return fmt.Errorf("must be positive")
			}
			c.TickInterval = time.Duration(ms) * time.Millisecond
			return nil
		},
	},
	{
		flagName:    "max-dt",
		envVarName:  "DOUGHSIM_MAX_DT",
		defaultVal:  "0.05",
		description: "largest simulated step in seconds",
		setter: func(c *ServerConfig, v string) (err error) {
			c.MaxDt, err = parseFloat32(v)
			return err
		},
	},
	{
		flagName:    "frame-every",
		envVarName:  "DOUGHSIM_FRAME_EVERY",
		defaultVal:  "2",
		description: "publish a frame every N steps",
		setter: func(c *ServerConfig, v string) (err error) {
			c.FrameEvery, err = strconv.Atoi(v)
			return err
		},
	},
	{
		flagName:    "autostart",
		envVarName:  "DOUGHSIM_AUTOSTART",
		defaultVal:  "false",
		description: "start the startup session immediately",
		setter: func(c *ServerConfig, v string) (err error) {
			c.Autostart, err = strconv.ParseBool(v)
			return err
		},
	},
	{
		flagName:    "recipe-file",
		envVarName:  "DOUGHSIM_RECIPE_FILE",
		defaultVal:  "",
		description: "optional path to a JSON recipe used for new sessions",
		setter:      func(c *ServerConfig, v string) error { c.RecipeFile = v; return nil },
	},
	{
		flagName:    "webhook-url",
		envVarName:  "DOUGHSIM_WEBHOOK_URL",
		defaultVal:  "",
		description: "optional URL receiving ingredient, phase and reset events",
		setter:      func(c *ServerConfig, v string) error { c.WebhookURL = v; return nil },
	},
	{
		flagName:    "log-level",
		envVarName:  "DOUGHSIM_LOG_LEVEL",
		defaultVal:  "info",
		description: "Log level: debug, info, warn, error",
		setter:      func(c *ServerConfig, v string) error { c.LogLevel = v; return nil },
	},
}

// loadServerConfig resolves every option from its flag, then its
// environment variable, then its default.
func loadServerConfig(args []string, getenv func(string) string) (ServerConfig, error) {
	cfg := ServerConfig{}

	fs := flag.NewFlagSet("doughsim-server", flag.ContinueOnError)
	flagVars := make(map[string]*string)
	for _, resolver := range resolvers {
		flagVars[resolver.flagName] = fs.String(resolver.flagName, "", resolver.description)
	}
	if err := fs.Parse(args); err != nil {
		return ServerConfig{}, err
	}

	for _, resolver := range resolvers {
		var value string
		if *flagVars[resolver.flagName] != "" {
			value = *flagVars[resolver.flagName]
		} else if envValue := getenv(resolver.envVarName); envValue != "" {
			value = envValue
		} else {
			value = resolver.defaultVal
		}
		if err := resolver.setter(&cfg, value); err != nil {
			return ServerConfig{}, fmt.Errorf("invalid value for %s: %q: %w", resolver.flagName, value, err)
		}
	}

	return cfg, nil
}
