package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "usbiss.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, "port: /dev/ttyACM1\nbaud: 115200\nmode: I2C_H_400KHZ\nverbose: true\n")
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, fileConfig{Port: "/dev/ttyACM1", Baud: 115200, Mode: "I2C_H_400KHZ", Verbose: true}, cfg)
	assert.Equal(t, map[string]string{
		"port":    "/dev/ttyACM1",
		"baud":    "115200",
		"mode":    "I2C_H_400KHZ",
		"verbose": "true",
	}, cfg.values())

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = loadConfig(writeConfig(t, "baud: [fast]\n"))
	assert.Error(t, err)
}

func TestApplyConfig(t *testing.T) {
	path := writeConfig(t, "port: /dev/ttyACM1\nmode: I2C_H_400KHZ\nbus: usbiss\n")

	set := flag.NewFlagSet("usbiss", flag.ContinueOnError)
	set.String("config", "", "")
	set.String("port", "", "")
	set.String("mode", "I2C_S_100KHZ", "")
	set.String("bus", defaultBus, "")
	require.NoError(t, set.Parse([]string{"--config", path, "--mode", "I2C_S_20KHZ"}))
	c := cli.NewContext(cli.NewApp(), set, nil)

	require.NoError(t, applyConfig(c))
	assert.Equal(t, "/dev/ttyACM1", c.String("port"), "file fills unset flags")
	assert.Equal(t, "I2C_S_20KHZ", c.String("mode"), "explicit flags win")
}
