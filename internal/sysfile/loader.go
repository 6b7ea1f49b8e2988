package sysfile

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates the system file at path.
func Load(path string) (System, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return System{}, &OpError{
			Op:   "sysfile.load",
			Kind: KindNotFound,
			Path: path,
			Err:  err,
		}
	}
	return Parse(path, b)
}

// Parse decodes and validates a system file already read into memory.
// path is only used in errors and as the default name.
func Parse(path string, data []byte) (System, error) {
	var dto YAMLSystem
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return System{}, &OpError{
			Op:   "sysfile.load",
			Kind: KindInvalidSystem,
			Path: path,
			Err:  err,
		}
	}
	return MapSystem(path, dto)
}
