package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/unixpickle/distmax/simulator"
)

func TestParseNetwork(t *testing.T) {
	n, err := ParseNetwork([]byte("kind: ordered\nrate: 1e6\nmax_latency: 0.01\n"))
	if err != nil {
		t.Fatal(err)
	}
	if n.Kind != KindOrdered || n.Rate != 1e6 || n.MaxLatency != 0.01 {
		t.Errorf("unexpected network: %+v", n)
	}
	built, err := n.Build()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := built.(*simulator.OrderedNetwork); !ok {
		t.Errorf("unexpected network type: %T", built)
	}
}

func TestParseNetworkDefaults(t *testing.T) {
	n, err := ParseNetwork(nil)
	if err != nil {
		t.Fatal(err)
	}
	built, err := n.Build()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := built.(simulator.RandomNetwork); !ok {
		t.Errorf("unexpected network type: %T", built)
	}
}

func TestParseNetworkFixed(t *testing.T) {
	n, err := ParseNetwork([]byte("kind: fixed\nlatency: 0.5\n"))
	if err != nil {
		t.Fatal(err)
	}
	built, err := n.Build()
	if err != nil {
		t.Fatal(err)
	}
	if built != (simulator.FixedNetwork{Latency: 0.5}) {
		t.Errorf("unexpected network: %#v", built)
	}
}

func TestParseNetworkInvalid(t *testing.T) {
	docs := []string{
		"kind: carrier-pigeon\n",
		"kind: ordered\n",
		"kind: fixed\nlatency: -1\n",
		"kind: random\nbandwidth: 3\n",
		"kind: [\n",
	}
	for _, doc := range docs {
		if _, err := ParseNetwork([]byte(doc)); !errors.Is(err, ErrInvalidNetwork) {
			t.Errorf("%q: expected ErrInvalidNetwork but got %v", doc, err)
		}
	}
}

func TestLoadNetwork(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network.yaml")
	if err := os.WriteFile(path, []byte("kind: fixed\nlatency: 2\nrate: 10\n"), 0644); err != nil {
		t.Fatal(err)
	}
	n, err := LoadNetwork(path)
	if err != nil {
		t.Fatal(err)
	}
	if n.Kind != KindFixed || n.Latency != 2 || n.Rate != 10 {
		t.Errorf("unexpected network: %+v", n)
	}
	if _, err := LoadNetwork(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
