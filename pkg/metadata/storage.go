package metadata

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/bridgemeta/bridgemeta/pkg/errors"
)

// File permissions for saved record sets.
const (
	dirPermissions  = 0o755
	filePermissions = 0o644
)

// stripComments drops leading '#' comment lines so hand-edited files can
// carry an explanatory header above the document.
func stripComments(data []byte) []byte {
	for bytes.HasPrefix(data, []byte("#")) {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			return nil
		}
		data = data[idx+1:]
	}
	return data
}

// LoadScan reads one per-variant scan file.
func LoadScan(path string) (*Scan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var scan Scan
	if err := yaml.Unmarshal(stripComments(data), &scan); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	if err := scan.Validate(); err != nil {
		return nil, err
	}
	return &scan, nil
}

// LoadExceptions reads the hand-authored exception set for a framework.
func LoadExceptions(path string) (*ExceptionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var exc ExceptionSet
	if err := yaml.Unmarshal(stripComments(data), &exc); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return &exc, nil
}

// LoadFramework reads a previously saved merged record set.
func LoadFramework(path string) (*Framework, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var fw Framework
	if err := yaml.Unmarshal(stripComments(data), &fw); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return &fw, nil
}

// SaveFramework writes the merged record set. Output is deterministic:
// identical input produces a byte-identical file, and save(load(x)) == x.
// An optional header is written as comment lines above the document.
func SaveFramework(path, header string, fw *Framework) error {
	data, err := MarshalFramework(fw)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	var buf bytes.Buffer
	if header != "" {
		for _, line := range bytes.Split([]byte(header), []byte("\n")) {
			if len(line) == 0 {
				continue
			}
			buf.WriteString("# ")
			buf.Write(line)
			buf.WriteByte('\n')
		}
	}
	buf.Write(data)

	if err := os.WriteFile(path, buf.Bytes(), filePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// MarshalFramework encodes a merged record set. goccy/go-yaml emits map
// keys in sorted order, which gives the entity-name-then-field-key
// ordering the downstream generator depends on.
func MarshalFramework(fw *Framework) ([]byte, error) {
	data, err := yaml.Marshal(fw)
	if err != nil {
		return nil, errors.WrapParse("yaml", fw.Name, err)
	}
	return data, nil
}
