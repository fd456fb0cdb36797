package icons

import (
	_ "embed"
	"fmt"
	"os"
)

//go:embed assets/package.png
var embeddedDefault []byte

// DefaultIcon returns the bundled fallback icon.
func DefaultIcon() []byte {
	return append([]byte(nil), embeddedDefault...)
}

// LoadDefaultIcon reads the fallback icon from path, or returns the bundled
// one when path is empty.
func LoadDefaultIcon(path string) ([]byte, error) {
	if path == "" {
		return DefaultIcon(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read default icon: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("default icon %s is empty", path)
	}
	return data, nil
}
