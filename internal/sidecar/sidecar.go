// Package sidecar loads the out-of-band geographic/capacity JSON file
// that supplements controller-reported topology with distances and
// bandwidths the controller has no concept of.
package sidecar

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Data is the parsed sidecar document: a mapping from "A-B" pair keys
// (A, B being either a datapath id or an IPv4 dotted-quad string) to a
// distance and, informationally, a bandwidth.
type Data struct {
	Distances map[string]float64 `json:"distances"`
	Bandwidth map[string]float64 `json:"bandwidth"`
}

// Empty returns a Data value with no entries, used whenever the sidecar
// file is absent so the rest of the system can degrade to default edge
// weights without a nil-map check at every call site.
func Empty() *Data {
	return &Data{Distances: map[string]float64{}, Bandwidth: map[string]float64{}}
}

// Load reads and parses the sidecar file at path. A missing file is not
// an error: it degrades to Empty(), since this is an optional input.
// Any other read or parse failure is returned wrapped.
func Load(path string, logger *slog.Logger) (*Data, error) {
	if path == "" {
		return Empty(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if logger != nil {
				logger.Warn("sidecar file missing, using default edge weights", "path", path)
			}
			return Empty(), nil
		}
		return nil, fmt.Errorf("reading sidecar file %q: %w", path, err)
	}

	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parsing sidecar file %q: %w", path, err)
	}
	if d.Distances == nil {
		d.Distances = map[string]float64{}
	}
	if d.Bandwidth == nil {
		d.Bandwidth = map[string]float64{}
	}
	return &d, nil
}

// Distance looks up the distance between a and b, trying "A-B" then
// "B-A" since sidecar authors do not guarantee a canonical key order.
func (d *Data) Distance(a, b string) (float64, bool) {
	if v, ok := d.Distances[a+"-"+b]; ok {
		return v, true
	}
	if v, ok := d.Distances[b+"-"+a]; ok {
		return v, true
	}
	return 0, false
}
