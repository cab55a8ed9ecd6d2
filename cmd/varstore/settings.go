package main

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/loykin/varstore/internal/constants"
	"github.com/loykin/varstore/internal/util"
	"github.com/spf13/viper"
)

// StorageKind selects the filestore backend.
type StorageKind string

const (
	StorageFile   StorageKind = "file"
	StorageSQLite StorageKind = "sqlite"
)

// Settings are the process-level options. The served config (port, token)
// lives in config.json instead.
type Settings struct {
	DataDir       string      `mapstructure:"data_dir"`
	Storage       StorageKind `mapstructure:"storage"`
	ConfigureAuth bool        `mapstructure:"configure_auth"`
	Metrics       bool        `mapstructure:"metrics"`

	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	MaskSensitive bool   `mapstructure:"mask_sensitive"`

	// remote subcommands
	Addr    string        `mapstructure:"addr"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", constants.DefaultDataDir)
	v.SetDefault("storage", string(StorageFile))
	v.SetDefault("configure_auth", false)
	v.SetDefault("metrics", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("mask_sensitive", true)
	v.SetDefault("addr", constants.DefaultClientAddr)
	v.SetDefault("token", "")
	v.SetDefault("timeout", constants.DefaultClientTimeout.String())
}

// storageKindHook normalizes and validates the storage setting.
func storageKindHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(StorageKind("")) {
			return data, nil
		}
		kind := StorageKind(util.TrimAndLower(reflect.ValueOf(data).String()))
		switch kind {
		case "":
			return StorageFile, nil
		case StorageFile, StorageSQLite:
			return kind, nil
		default:
			return nil, fmt.Errorf("invalid storage: %q (valid: file, sqlite)", data)
		}
	}
}

func loadSettings(v *viper.Viper) (Settings, error) {
	var s Settings
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		storageKindHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&s, hook); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	s.DataDir = util.TrimWithDefault(s.DataDir, constants.DefaultDataDir)
	return s, nil
}
