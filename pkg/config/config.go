// Copyright 2021 - 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"github.com/BurntSushi/toml"

	"github.com/matrixorigin/powerlist/pkg/common/moerr"
	"github.com/matrixorigin/powerlist/pkg/logutil"
)

// Config is the demo driver configuration, loaded from a TOML file.
type Config struct {
	Log       logutil.LogConfig `toml:"log"`
	Allocator AllocatorConfig   `toml:"allocator"`
	Workload  WorkloadConfig    `toml:"workload"`
}

// AllocatorConfig tunes the scatter allocators the driver creates.
type AllocatorConfig struct {
	// StartingSize is the minimum capacity of the first pool. Must be a power of two.
	StartingSize int `toml:"starting-size"`
	// DisablePoison turns off the use-after-free poison fill.
	DisablePoison bool `toml:"disable-poison"`
	// UseMmap backs pools with anonymous mappings (pointer-free types only).
	UseMmap bool `toml:"use-mmap"`
}

// WorkloadConfig sizes the demo workload.
type WorkloadConfig struct {
	Elements int `toml:"elements"`
	Readers  int `toml:"readers"`
	Lookups  int `toml:"lookups"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log: logutil.LogConfig{Level: "info", Format: "console"},
		Allocator: AllocatorConfig{
			StartingSize: 16,
		},
		Workload: WorkloadConfig{
			Elements: 1 << 16,
			Readers:  8,
			Lookups:  1 << 12,
		},
	}
}

// Load parses the TOML file at path over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, moerr.NewBadConfigNoCtx("parse %s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the driver cannot honor.
func (c *Config) Validate() error {
	if c.Allocator.StartingSize <= 0 {
		return moerr.NewBadConfigNoCtx("allocator starting-size must be positive, got %d", c.Allocator.StartingSize)
	}
	if s := c.Allocator.StartingSize; s&(s-1) != 0 {
		return moerr.NewBadConfigNoCtx("allocator starting-size must be a power of two, got %d", s)
	}
	if c.Workload.Elements <= 0 {
		return moerr.NewBadConfigNoCtx("workload elements must be positive, got %d", c.Workload.Elements)
	}
	if c.Workload.Readers <= 0 {
		return moerr.NewBadConfigNoCtx("workload readers must be positive, got %d", c.Workload.Readers)
	}
	return nil
}
