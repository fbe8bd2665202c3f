// Package descriptor reads package.json descriptors from the repository mirror.
package descriptor

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"tux/pkg/tuxerr"
)

// FileName is the descriptor file name inside each package directory.
const FileName = "package.json"

// requiredKeys lists the keys every descriptor must carry.
var requiredKeys = []string{"name", "version", "patches", "filename", "url", "depends"}

// Descriptor is the installable metadata of one package.
// A Descriptor is never mutated after Parse returns it.
type Descriptor struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Patches  bool     `json:"patches"`
	Filename string   `json:"filename"`
	URL      string   `json:"url"`
	Depends  []string `json:"depends"`
}

// Read opens the descriptor at path and parses it.
func Read(path string) (*Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, tuxerr.Wrap(tuxerr.KindIO, err, "failed to open package JSON file %s", path)
	}
	defer f.Close()

	d, err := Parse(f)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Parse decodes a descriptor from r. Field values are not validated.
func Parse(r io.Reader) (*Descriptor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, tuxerr.Wrap(tuxerr.KindIO, err, "failed to read package JSON")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, tuxerr.Wrap(tuxerr.KindParse, err, "malformed package JSON")
	}

	for _, key := range requiredKeys {
		v, ok := raw[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return nil, tuxerr.New(tuxerr.KindParse, "malformed package JSON: missing field %q", key)
		}
	}

	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, tuxerr.Wrap(tuxerr.KindParse, err, "malformed package JSON")
	}

	return &d, nil
}
