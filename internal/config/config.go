// Package config loads export run configuration from a YAML file and
// CONVKIT_* environment variables, applying defaults for everything but the
// corpus, output and tokenizer paths.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/convkit/convkit/internal/export"
)

// defaultConfigName is the config file looked up in the working directory
// when no explicit path is given.
const defaultConfigName = "convkit"

// Load reads, merges and validates an export configuration.
//
// Precedence, highest first: environment variables (CONVKIT_ROOT_DIR,
// CONVKIT_SPECIAL_TOKENS_BOS, ...), the config file, built-in defaults.
// With an empty path, a convkit.{yaml,toml,json} in the working directory is
// used if present. All failures wrap export.ErrConfig.
func Load(path string) (export.Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CONVKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return export.Config{}, fmt.Errorf("%w: %w", export.ErrConfig, err)
		}
	} else {
		v.SetConfigName(defaultConfigName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return export.Config{}, fmt.Errorf("%w: %w", export.ErrConfig, err)
			}
		}
	}

	var cfg export.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return export.Config{}, fmt.Errorf("%w: %w", export.ErrConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return export.Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := export.DefaultConfig()

	// Unmarshal only materializes registered keys, so the path keys need
	// empty defaults for CONVKIT_ROOT_DIR and friends to take effect when a
	// config file omits them.
	v.SetDefault("root_dir", defaults.RootDir)
	v.SetDefault("output_path", defaults.OutputPath)
	v.SetDefault("tokenizer", defaults.Tokenizer)

	v.SetDefault("include_reasoning", defaults.IncludeReasoning)
	v.SetDefault("ignore_index", defaults.IgnoreIndex)
	v.SetDefault("assistant_name", defaults.AssistantName)

	v.SetDefault("special_tokens.bos", defaults.Tokens.Bos)
	v.SetDefault("special_tokens.eot", defaults.Tokens.Eot)
	v.SetDefault("special_tokens.header_start", defaults.Tokens.HeaderStart)
	v.SetDefault("special_tokens.header_end", defaults.Tokens.HeaderEnd)
	v.SetDefault("special_tokens.think_start", defaults.Tokens.ThinkStart)
	v.SetDefault("special_tokens.think_end", defaults.Tokens.ThinkEnd)
	v.SetDefault("special_tokens.tools_start", defaults.Tokens.ToolsStart)
	v.SetDefault("special_tokens.tools_end", defaults.Tokens.ToolsEnd)
	v.SetDefault("special_tokens.tool_call_start", defaults.Tokens.ToolCallStart)
	v.SetDefault("special_tokens.tool_call_end", defaults.Tokens.ToolCallEnd)
	v.SetDefault("special_tokens.tool_response_start", defaults.Tokens.ToolResponseStart)
	v.SetDefault("special_tokens.tool_response_end", defaults.Tokens.ToolResponseEnd)
}
