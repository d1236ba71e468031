package main

import (
	"errors"
	"os"

	"github.com/spf13/viper"
)

// Config drives the shell and the disk geometry used at format time. It is
// read from a TOML file with sensible defaults, so a missing file just
// boots the default system.
type Config struct {
	OS      string `mapstructure:"os"`
	Version string `mapstructure:"version"`
	Author  string `mapstructure:"author"`

	Prompt PromptConfig `mapstructure:"prompt"`

	ClusterSize   uint32 `mapstructure:"cluster_size"`
	ClusterCount  uint32 `mapstructure:"cluster_count"`
	TableWidth    uint8  `mapstructure:"table_width"`
	ImagePath     string `mapstructure:"image_path"`
	StdinFilePath string `mapstructure:"stdin_file_path"`
}

type PromptConfig struct {
	Host       string `mapstructure:"host"`
	Separator  string `mapstructure:"separator"`
	User       string `mapstructure:"user"`
	PathPrefix string `mapstructure:"path_prefix"`
	Terminator string `mapstructure:"terminator"`
}

func loadConfig(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("os", "RoDOS")
	v.SetDefault("version", "0.1.0")
	v.SetDefault("author", "rodos developers")
	v.SetDefault("prompt.host", "rodos")
	v.SetDefault("prompt.separator", "@")
	v.SetDefault("prompt.user", "rouser")
	v.SetDefault("prompt.path_prefix", ":")
	v.SetDefault("prompt.terminator", "$")
	v.SetDefault("cluster_size", 16)
	v.SetDefault("cluster_count", 4096)
	v.SetDefault("table_width", 16)
	v.SetDefault("image_path", "rodos.img")
	v.SetDefault("stdin_file_path", "stdin.txt")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return Config{}, err
			}
		}
	}

	config := Config{}
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, err
	}
	return config, nil
}
