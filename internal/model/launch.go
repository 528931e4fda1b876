package model

import (
	"strconv"
)

// Environment variables forming the contract with the backend release.
const (
	EnvDatabasePath  = "DATABASE_PATH"
	EnvServerEnabled = "PHX_SERVER"
	EnvPort          = "PORT"
)

// LaunchConfig is built once at startup and passed by value afterwards.
type LaunchConfig struct {
	Executable   string
	Args         []string
	WorkDir      string
	DatabasePath string
	Mode         string // ModeDiscover | ModeStatic
	Port         int    // static mode only
	Env          map[string]string
	Dev          bool
}

// NewLaunchConfig derives the launch parameters from cfg. executable and
// databasePath are already resolved against the resource and data dirs.
func NewLaunchConfig(cfg Config, executable, databasePath, workDir string, dev bool) LaunchConfig {
	lc := LaunchConfig{
		Executable:   executable,
		WorkDir:      workDir,
		DatabasePath: databasePath,
		Mode:         cfg.Mode,
		Dev:          dev,
	}
	if lc.Mode == "" {
		lc.Mode = ModeDiscover
	}
	if lc.Mode == ModeStatic {
		lc.Port = cfg.Port
	}

	if cfg.Backend != nil && cfg.Backend.Args != nil {
		lc.Args = append([]string(nil), cfg.Backend.Args...)
	} else if lc.Mode == ModeDiscover {
		lc.Args = []string{"start"}
	}

	if cfg.Backend != nil && len(cfg.Backend.Env) > 0 {
		lc.Env = make(map[string]string, len(cfg.Backend.Env))
		for k, v := range cfg.Backend.Env {
			lc.Env[k] = v
		}
	}
	return lc
}

// PortDirective is the PORT value handed to the backend: 0 asks it to pick one.
func (c LaunchConfig) PortDirective() string {
	if c.Mode == ModeStatic {
		return strconv.Itoa(c.Port)
	}
	return "0"
}

// Environ returns the three contract variables in KEY=value form.
func (c LaunchConfig) Environ() []string {
	return []string{
		EnvDatabasePath + "=" + c.DatabasePath,
		EnvServerEnabled + "=true",
		EnvPort + "=" + c.PortDirective(),
	}
}
