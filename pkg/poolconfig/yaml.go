package poolconfig

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tunables holds the subset of pool configuration that makes sense as
// static, file-driven settings. An allocator is a function value and can
// never come from YAML; callers load Tunables and then apply them onto a
// Builder that already has an allocator installed.
type Tunables struct {
	MaxPending     int    `yaml:"max_pending"`
	MaxLive        int32  `yaml:"max_live"`
	Ordering       string `yaml:"ordering"`
	ThreadAffinity bool   `yaml:"thread_affinity"`
	InitialSize    int    `yaml:"initial_size"`
}

// LoadTunables reads a YAML file, substitutes ${VAR} references against
// the process environment, and unmarshals the result into a Tunables.
func LoadTunables(path string) (*Tunables, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	expanded := substituteEnvVars(string(raw))
	var t Tunables
	if err := yaml.Unmarshal([]byte(expanded), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// SaveTunables writes t to path as YAML.
func SaveTunables(path string, t *Tunables) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Apply layers t's settings onto b. The allocation strategy and max
// pending are always overwritten, and ordering is overwritten when it is
// "lifo", "fifo" or empty; any other ordering value leaves b's ordering
// as it was. Thread affinity is only switched on (a false value does not
// switch it off), and initial size is only set when positive.
func Apply[R any](b *Builder[R], t *Tunables) *Builder[R] {
	if t.MaxLive > 0 {
		b.WithBoundedStrategy(t.MaxLive)
	} else {
		b.WithUnboundedStrategy()
	}
	b.WithMaxPending(t.MaxPending)
	switch strings.ToLower(t.Ordering) {
	case "lifo":
		b.WithLIFO()
	case "fifo", "":
		b.WithFIFO()
	}
	if t.ThreadAffinity {
		b.WithThreadAffinity()
	}
	if t.InitialSize > 0 {
		b.WithInitialSize(t.InitialSize)
	}
	return b
}

// substituteEnvVars replaces every ${VAR_NAME} occurrence in content with
// the value of the named environment variable, looping until no further
// substitutions remain so nested references resolve fully.
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			return content
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			return content
		}
		end += start
		varName := content[start+2 : end]
		value := os.Getenv(varName)
		content = content[:start] + value + content[end+1:]
	}
}
