package pipeline

import (
	"fmt"
	"strings"

	"github.com/gardar/gridocr/pkg/extract"
	"github.com/gardar/gridocr/pkg/locate"
	"github.com/gardar/gridocr/pkg/preprocess"
)

// Method selects how tables are found on a page.
type Method string

const (
	// MethodLines traces ruling lines; pages without them yield text only.
	MethodLines Method = "lines"
	// MethodWords arranges recognised words into rows and columns, for
	// tables drawn without rulings. Needs an ocr.HOCREngine.
	MethodWords Method = "words"
	// MethodAll runs both, ruled tables first.
	MethodAll Method = "all"
)

// ParseMethod accepts a method name, case-insensitively. Empty means lines.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MethodLines, nil
	case MethodLines, MethodWords, MethodAll:
		return m, nil
	default:
		return "", fmt.Errorf("pipeline: unknown table method %q", s)
	}
}

// UnmarshalText lets YAML configs name the method.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Method) ruled() bool { return m != MethodWords }
func (m Method) words() bool { return m == MethodWords || m == MethodAll }

// Config gathers the tunables of every stage. The zero value of a stage's
// config is not meaningful; start from DefaultConfig.
type Config struct {
	Method     Method             `yaml:"method"`
	Preprocess preprocess.Config  `yaml:"preprocess"`
	Locate     locate.Config      `yaml:"locate"`
	Extract    extract.Config     `yaml:"extract"`
	Words      extract.WordConfig `yaml:"words"`
}

// DefaultConfig returns the defaults of each stage, tuned for 200 DPI scans.
func DefaultConfig() Config {
	return Config{
		Method:     MethodLines,
		Preprocess: preprocess.DefaultConfig(),
		Locate:     locate.DefaultConfig(),
		Extract:    extract.DefaultConfig(),
		Words:      extract.DefaultWordConfig(),
	}
}
