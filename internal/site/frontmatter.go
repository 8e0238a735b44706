package site

import (
	"bytes"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/basalt-ssg/basalt/internal/errors"
)

var (
	yamlSep = []byte("---\n")
	tomlSep = []byte("+++\n")
)

// SplitFrontMatter separates a source file into its metadata block and body.
// A leading "---" block is parsed as YAML, a leading "+++" block as TOML.
// Files without front matter return an empty metadata map and the full body.
func SplitFrontMatter(raw []byte) (map[string]interface{}, []byte, error) {
	meta := map[string]interface{}{}

	sep, decode := yamlSep, yamlDecode
	if !bytes.HasPrefix(raw, yamlSep) {
		if !bytes.HasPrefix(raw, tomlSep) {
			return meta, raw, nil
		}
		sep, decode = tomlSep, tomlDecode
	}

	rest := raw[len(sep):]
	if bytes.HasPrefix(rest, sep) {
		return meta, rest[len(sep):], nil
	}
	end := bytes.Index(rest, append([]byte("\n"), sep...))
	if end < 0 {
		// Opening delimiter without a closing one: treat the whole file as
		// body, like a stray horizontal rule.
		return meta, raw, nil
	}

	block := rest[:end]
	body := rest[end+1+len(sep):]

	if err := decode(block, &meta); err != nil {
		return nil, nil, errors.Resource("could not parse front matter", err)
	}
	return meta, body, nil
}

func yamlDecode(block []byte, dst *map[string]interface{}) error {
	return yaml.Unmarshal(block, dst)
}

func tomlDecode(block []byte, dst *map[string]interface{}) error {
	return toml.Unmarshal(block, dst)
}
