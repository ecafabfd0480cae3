// Package config loads the description of the simulated
// network that a worker group runs on.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/unixpickle/distmax/simulator"
	"github.com/unixpickle/essentials"
	"gopkg.in/yaml.v3"
)

// Network kinds.
const (
	KindRandom  = "random"
	KindFixed   = "fixed"
	KindOrdered = "ordered"
)

// ErrInvalidNetwork is returned for a network description
// that cannot be built.
var ErrInvalidNetwork = errors.New("config: invalid network")

// Network describes the network model connecting the
// workers.
//
// An example file:
//
//	kind: ordered
//	rate: 1e6
//	max_latency: 0.01
type Network struct {
	Kind string `yaml:"kind"`

	// Latency is the constant delay of a fixed network.
	Latency float64 `yaml:"latency"`

	// Rate is the transfer rate in bytes per unit of
	// virtual time. Optional for fixed networks.
	Rate float64 `yaml:"rate"`

	// MaxLatency bounds the random delay of an ordered
	// network.
	MaxLatency float64 `yaml:"max_latency"`
}

// DefaultNetwork is a network with random delays.
func DefaultNetwork() *Network {
	return &Network{Kind: KindRandom}
}

// LoadNetwork reads a YAML network description.
func LoadNetwork(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, essentials.AddCtx("load network", err)
	}
	return ParseNetwork(data)
}

// ParseNetwork decodes and validates a YAML network
// description. Unknown fields are rejected.
func ParseNetwork(data []byte) (*Network, error) {
	res := DefaultNetwork()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(res); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNetwork, err)
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

// Validate checks that the description can be built.
func (n *Network) Validate() error {
	if n.Latency < 0 || n.Rate < 0 || n.MaxLatency < 0 {
		return fmt.Errorf("%w: negative latency or rate", ErrInvalidNetwork)
	}
	switch n.Kind {
	case KindRandom, KindFixed:
	case KindOrdered:
		if n.Rate == 0 {
			return fmt.Errorf("%w: ordered network needs a rate", ErrInvalidNetwork)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidNetwork, n.Kind)
	}
	return nil
}

// Build creates the simulated network.
func (n *Network) Build() (simulator.Network, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	switch n.Kind {
	case KindFixed:
		return simulator.FixedNetwork{Latency: n.Latency, Rate: n.Rate}, nil
	case KindOrdered:
		return simulator.NewOrderedNetwork(n.Rate, n.MaxLatency), nil
	default:
		return simulator.RandomNetwork{}, nil
	}
}
