// Package literal provides iocdi.LiteralProvider implementations backed by koanf, so
// string dependencies such as paths and addresses can come from YAML configuration
// and environment variables instead of being registered by hand.
package literal

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/Station-Manager/iocdi/v2"
)

const delim = "."

var ErrKoanfIsNil = errors.New("koanf instance is nil")

// Config selects the sources loaded by Load.
type Config struct {
	// YAML is an optional YAML document. Keys are matched against lower-cased bean ids.
	YAML []byte
	// EnvPrefix selects environment variables that override YAML values. The prefix is
	// stripped, the remainder lower-cased and "__" mapped to the key delimiter:
	//
	//	APP_WORKINGDIR     -> workingdir
	//	APP_SERVER__LISTEN -> server.listen
	//
	// An empty prefix disables environment loading.
	EnvPrefix string
}

// Load builds a koanf instance from cfg. Environment variables take precedence over YAML.
func Load(cfg Config) (*koanf.Koanf, error) {
	k := koanf.New(delim)

	if len(cfg.YAML) > 0 {
		if err := k.Load(rawbytes.Provider(cfg.YAML), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load yaml literals: %w", err)
		}
	}

	if cfg.EnvPrefix != "" {
		prefix := cfg.EnvPrefix
		if err := k.Load(env.Provider(prefix, delim, func(s string) string {
			s = strings.TrimPrefix(s, prefix)
			return strings.ReplaceAll(strings.ToLower(s), "__", delim)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load environment literals: %w", err)
		}
	}

	return k, nil
}

// FromKoanf returns a LiteralProvider that looks bean ids up as koanf keys. Only string
// targets are served; keys are compared case-insensitively.
func FromKoanf(k *koanf.Koanf) (iocdi.LiteralProvider, error) {
	if k == nil {
		return nil, ErrKoanfIsNil
	}
	return func(id string, targetType reflect.Type) (any, bool, error) {
		if targetType == nil || targetType.Kind() != reflect.String {
			return nil, false, nil
		}
		key, ok := lookupKey(k, id)
		if !ok {
			return nil, false, nil
		}
		return reflect.ValueOf(k.String(key)).Convert(targetType).Interface(), true, nil
	}, nil
}

// Install loads cfg and installs the resulting provider with iocdi.SetLiteralProvider.
func Install(cfg Config) error {
	k, err := Load(cfg)
	if err != nil {
		return err
	}
	p, err := FromKoanf(k)
	if err != nil {
		return err
	}
	iocdi.SetLiteralProvider(p)
	return nil
}

func lookupKey(k *koanf.Koanf, id string) (string, bool) {
	if k.Exists(id) {
		return id, true
	}
	for _, key := range k.Keys() {
		if strings.EqualFold(key, id) {
			return key, true
		}
	}
	return "", false
}
