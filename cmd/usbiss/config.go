package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// fileConfig holds defaults read from --config. Flags given on the command
// line or through the environment take precedence.
type fileConfig struct {
	Port    string `yaml:"port"`
	Baud    int    `yaml:"baud"`
	Mode    string `yaml:"mode"`
	Bus     string `yaml:"bus"`
	Verbose bool   `yaml:"verbose"`
	Brief   bool   `yaml:"brief"`
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config file: %w", err)
	}
	err = yaml.Unmarshal(raw, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// values lists the flag values the file supplies.
func (f fileConfig) values() map[string]string {
	v := map[string]string{}
	if f.Port != "" {
		v["port"] = f.Port
	}
	if f.Baud != 0 {
		v["baud"] = strconv.Itoa(f.Baud)
	}
	if f.Mode != "" {
		v["mode"] = f.Mode
	}
	if f.Bus != "" {
		v["bus"] = f.Bus
	}
	if f.Verbose {
		v["verbose"] = "true"
	}
	if f.Brief {
		v["brief"] = "true"
	}
	return v
}

// applyConfig loads the --config file, if any, into the flags not set
// explicitly.
func applyConfig(c *cli.Context) error {
	path := c.String("config")
	if path == "" {
		return nil
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	for name, value := range cfg.values() {
		if c.IsSet(name) {
			continue
		}
		err = c.Set(name, value)
		if err != nil {
			return fmt.Errorf("invalid %s in %s: %w", name, path, err)
		}
	}
	return nil
}
