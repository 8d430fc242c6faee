package config

import (
	"os"

	"github.com/spf13/pflag"
)

const defaultPath = "config.yaml"

// PathFromArgs resolves the config file from --config, then CONFIG_PATH,
// then config.yaml in the working directory.
func PathFromArgs(name string, args []string) (string, error) {
	fallback := os.Getenv("CONFIG_PATH")
	if fallback == "" {
		fallback = defaultPath
	}

	var path string
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.StringVarP(&path, "config", "c", fallback, "path to the YAML config file (env CONFIG_PATH)")
	if err := flagSet.Parse(args); err != nil {
		return "", err
	}
	return path, nil
}
