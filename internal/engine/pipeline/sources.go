package pipeline

import (
	"embed"
	"os"
	"path/filepath"
)

//go:embed glsl/*.vert glsl/*.frag
var builtin embed.FS

// loadSource returns the shader source for a file name, preferring the
// override directory (when configured) over the embedded copy.
func (c *Cache) loadSource(name string) (string, error) {
	if c.overrideDir != "" {
		path := filepath.Join(c.overrideDir, name)
		if data, err := os.ReadFile(path); err == nil {
			return string(data), nil
		}
	}
	data, err := builtin.ReadFile("glsl/" + name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
