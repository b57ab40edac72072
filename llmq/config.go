// Copyright (c) 2025 The LLMQ Rotation developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package llmq

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// RegistryConfig is the on-disk, YAML-encoded form of a consensus
// parameter set (§6's Consensus::Params): the per-type LLMQParams plus
// the two scalar fields that gate rotation. Operators of a custom or
// test network supply this alongside genesis to pin the quorum layout.
type RegistryConfig struct {
	RotationActivationHeight int           `yaml:"dip0024Height"`
	InstantSendType          Type          `yaml:"llmqTypeInstantSend"`
	Types                    []ParamConfig `yaml:"llmqs"`
}

// ParamConfig is the YAML shape of one Params entry.
type ParamConfig struct {
	Type                     Type   `yaml:"type"`
	Name                     string `yaml:"name"`
	Size                     int    `yaml:"size"`
	DKGInterval              int    `yaml:"dkgInterval"`
	SigningActiveQuorumCount int    `yaml:"signingActiveQuorumCount"`
	Rotated                  bool   `yaml:"rotated"`
}

// LoadRegistry decodes a RegistryConfig from r and builds a Registry,
// returning a decode error rather than panicking — unlike NewRegistry,
// malformed operator-supplied YAML is a runtime condition, not a bug.
func LoadRegistry(r io.Reader) (*Registry, error) {
	var cfg RegistryConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("llmq: decode registry config: %w", err)
	}
	return cfg.Build()
}

// Build validates every configured type and assembles the Registry,
// returning an error on an invalid Params entry instead of letting
// NewRegistry panic on it.
func (c RegistryConfig) Build() (*Registry, error) {
	params := make([]Params, 0, len(c.Types))
	for _, tc := range c.Types {
		p := Params{
			Type:                     tc.Type,
			Name:                     tc.Name,
			Size:                     tc.Size,
			DKGInterval:              tc.DKGInterval,
			SigningActiveQuorumCount: tc.SigningActiveQuorumCount,
			Rotated:                  tc.Rotated,
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("llmq: registry config: %w", err)
		}
		params = append(params, p)
	}
	registry := NewRegistry(params...)
	registry.RotationActivationHeight = c.RotationActivationHeight
	registry.InstantSendType = c.InstantSendType
	return registry, nil
}
