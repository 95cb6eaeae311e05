// Package config hydrates service configuration structs in three layers:
// `default:` struct tags seed values, an optional YAML file overlays them,
// and environment variables override everything.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variable naming the optional YAML config file.
const pathEnv = "KAROCHARGE_CONFIG"

// Load hydrates target, which must be a pointer to a struct. Env keys derive
// from the nesting path (PARENT_CHILD) unless an `env:"KEY"` tag names one;
// `env:"-"` opts a field out of environment overrides.
func Load(target interface{}) error {
	if target == nil {
		return errors.New("config: nil target")
	}
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return errors.New("config: target must be a pointer to a struct")
	}

	if err := applyDefaults(v.Elem()); err != nil {
		return err
	}
	if path := os.Getenv(pathEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, target); err != nil {
			return fmt.Errorf("config: decode %s: %w", path, err)
		}
	}
	return applyEnv(v.Elem(), "")
}

// applyDefaults seeds zero-valued leaf fields from their `default:` tag.
func applyDefaults(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			if err := applyDefaults(field); err != nil {
				return err
			}
			continue
		}
		def, ok := t.Field(i).Tag.Lookup("default")
		if !ok || !field.IsZero() {
			continue
		}
		if err := setField(field, def); err != nil {
			return fmt.Errorf("config: default for %s: %w", t.Field(i).Name, err)
		}
	}
	return nil
}

func applyEnv(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		spec := t.Field(i)
		if !field.CanSet() {
			continue
		}
		if spec.Anonymous {
			if err := applyEnv(field, prefix); err != nil {
				return err
			}
			continue
		}
		tag := spec.Tag.Get("env")
		if tag == "-" {
			continue
		}
		key := envKey(prefix, spec.Name)
		if tag != "" {
			key = envKey("", tag)
		}
		if field.Kind() == reflect.Struct {
			if err := applyEnv(field, key); err != nil {
				return err
			}
			continue
		}
		raw, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		if err := setField(field, raw); err != nil {
			return fmt.Errorf("config: parse %s: %w", key, err)
		}
	}
	return nil
}

func envKey(prefix, name string) string {
	name = strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

func setField(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(parsed)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		parsed, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(parsed)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		parsed, err := strconv.ParseUint(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(parsed)
	case reflect.Float32, reflect.Float64:
		parsed, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(parsed)
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}
