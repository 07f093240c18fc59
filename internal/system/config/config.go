/*
 * Copyright (c) 2026, the Node Engine authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package config provides structures and functions for loading and managing
// engine configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/nodeengine/engine/internal/system/utils"
)

// ServerConfig holds the HTTP service boundary's bind configuration.
type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// TLSConfig holds the TLS configuration details.
type TLSConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	MinVersion string `yaml:"min_version" json:"min_version"`
	CertFile   string `yaml:"cert_file" json:"cert_file"`
	KeyFile    string `yaml:"key_file" json:"key_file"`
}

// RegistryConfig holds the component registry's root directory.
type RegistryConfig struct {
	Root string `yaml:"root" json:"root"`
}

// EventBusConfig holds the event bus's queueing configuration.
type EventBusConfig struct {
	QueueSize int `yaml:"queue_size" json:"queue_size"`
}

// TunnelAuthConfig holds the tunnel-auth token signing configuration.
type TunnelAuthConfig struct {
	SigningKey string `yaml:"signing_key" json:"signing_key"`
	ValidityPeriod int64 `yaml:"validity_period" json:"validity_period"`
}

// OTelConfig holds OpenTelemetry exporter configuration.
type OTelConfig struct {
	Enabled        bool    `yaml:"enabled" json:"enabled"`
	ExporterType   string  `yaml:"exporter_type" json:"exporter_type"`
	OTLPEndpoint   string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	ServiceName    string  `yaml:"service_name" json:"service_name"`
	SampleRate     float64 `yaml:"sample_rate" json:"sample_rate"`
	Insecure       bool    `yaml:"insecure" json:"insecure"`
}

// LogConfig holds structured logging configuration.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	JSON  bool   `yaml:"json" json:"json"`
}

// Config holds the complete configuration of the node engine server.
type Config struct {
	Server     ServerConfig     `yaml:"server" json:"server"`
	TLS        TLSConfig        `yaml:"tls" json:"tls"`
	Registry   RegistryConfig   `yaml:"registry" json:"registry"`
	EventBus   EventBusConfig   `yaml:"event_bus" json:"event_bus"`
	TunnelAuth TunnelAuthConfig `yaml:"tunnel_auth" json:"tunnel_auth"`
	OTel       OTelConfig       `yaml:"opentelemetry" json:"opentelemetry"`
	Log        LogConfig        `yaml:"log" json:"log"`
}

// Default returns the configuration baseline applied before any file or flag
// overrides it.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Host: "0.0.0.0", Port: 8443},
		TLS:      TLSConfig{MinVersion: "1.3"},
		EventBus: EventBusConfig{QueueSize: 256},
		TunnelAuth: TunnelAuthConfig{
			SigningKey:     "",
			ValidityPeriod: 300,
		},
		OTel: OTelConfig{ExporterType: "stdout", ServiceName: "node-engine"},
		Log:  LogConfig{Level: "info"},
	}
}

// LoadConfig loads configuration starting from Default, overlaying configPath
// (if non-empty) parsed as YAML with environment-variable and file-path
// substitution applied first.
func LoadConfig(configPath string) (*Config, error) {
	cfg := Default()
	if configPath == "" {
		return cfg, nil
	}

	userCfg, err := loadUserConfig(configPath)
	if err != nil {
		return nil, err
	}
	mergeConfigs(cfg, &userCfg)
	return cfg, nil
}

func loadUserConfig(path string) (Config, error) {
	var cfg Config
	configPath := filepath.Clean(path)
	data, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	data, err = utils.SubstituteEnvironmentVariables(data)
	if err != nil {
		return Config{}, err
	}
	data, err = utils.SubstituteFilePaths(data, filepath.Dir(configPath))
	if err != nil {
		return Config{}, err
	}

	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// mergeConfigs merges user configuration into the base configuration.
// Non-zero values from userCfg override corresponding values in baseCfg.
func mergeConfigs(baseCfg, userCfg *Config) {
	mergeStructs(reflect.ValueOf(baseCfg).Elem(), reflect.ValueOf(userCfg).Elem())
}

// mergeStructs recursively merges struct fields.
func mergeStructs(base, user reflect.Value) {
	if !base.IsValid() || !user.IsValid() {
		return
	}

	switch base.Kind() {
	case reflect.Struct:
		for i := 0; i < base.NumField(); i++ {
			baseField := base.Field(i)
			userField := user.Field(i)
			if !baseField.CanSet() || !userField.IsValid() {
				continue
			}
			if baseField.Kind() == reflect.Struct && userField.Kind() == reflect.Struct {
				mergeStructs(baseField, userField)
			} else if !isZeroValue(userField) {
				baseField.Set(userField)
			}
		}
	default:
		if !isZeroValue(user) {
			base.Set(user)
		}
	}
}

// isZeroValue checks if a reflect.Value represents the zero value for its type.
func isZeroValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}

	switch v.Kind() {
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.String:
		return v.String() == ""
	default:
		return false
	}
}
