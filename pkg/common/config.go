package common

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
)

const (
	// ConfigPathEnv points at an optional JSON or YAML file merged over the defaults.
	ConfigPathEnv = "CONFIG_PATH"
	configTag     = "key"
)

//go:embed config.default.yaml
var defaultConfig []byte

// ConfigManager loads a config of type T from the embedded defaults and an
// optional override file.
type ConfigManager[T any] struct {
	kf     *koanf.Koanf
	config T
}

func NewConfigManager[T any]() (*ConfigManager[T], error) {
	return NewConfigManagerFromPath[T](os.Getenv(ConfigPathEnv))
}

// NewConfigManagerFromPath is NewConfigManager with an explicit override file.
// An empty path loads only the defaults.
func NewConfigManagerFromPath[T any](path string) (*ConfigManager[T], error) {
	cm := &ConfigManager[T]{kf: koanf.New(".")}

	if err := cm.kf.Load(rawbytes.Provider(defaultConfig), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load default config: %w", err)
	}

	if path != "" {
		if err := cm.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cm.unmarshal(); err != nil {
		return nil, err
	}

	return cm, nil
}

func (cm *ConfigManager[T]) loadFile(path string) error {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config file type: %s", path)
	}

	if err := cm.kf.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	log.Debug().Str("path", path).Msg("loaded config override")
	return nil
}

func (cm *ConfigManager[T]) unmarshal() error {
	var config T
	err := cm.kf.UnmarshalWithConf("", &config, koanf.UnmarshalConf{
		Tag: configTag,
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &config,
			TagName:          configTag,
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	cm.config = config
	return nil
}

// GetConfig returns a copy of the loaded config.
func (cm *ConfigManager[T]) GetConfig() T {
	return cm.config
}

// Keys lists every flattened config key, mostly for debugging.
func (cm *ConfigManager[T]) Keys() []string {
	return cm.kf.Keys()
}
