package cmark

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/hesusruiz/vcutils/yaml"
)

// ErrUnterminatedFrontMatter is returned when the closing "---" line of
// the front matter is missing.
var ErrUnterminatedFrontMatter = errors.New("end of file reached but no end of YAML section found")

var frontMatterDelimiter = []byte("---")

// SplitFrontMatter separates a YAML header delimited by "---" lines from the
// Markdown body. Without a header the config is empty and the body is src.
func SplitFrontMatter(src []byte) (*yaml.YAML, []byte, error) {
	// Initialise the config just in case we do not find a suitable one
	config, err := yaml.ParseYaml("")
	if err != nil {
		return nil, nil, err
	}

	// We accept YAML data only at the beginning of the file
	if !bytes.HasPrefix(src, frontMatterDelimiter) {
		return config, src, nil
	}

	// Skip the first line
	rest := src
	if i := bytes.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[i+1:]
	} else {
		rest = nil
	}

	// Build a string with all subsequent lines up to the next "---"
	var yamlString bytes.Buffer
	endYamlFound := false
	for len(rest) > 0 {
		line := rest
		rest = nil
		if i := bytes.IndexByte(line, '\n'); i >= 0 {
			line, rest = line[:i+1], line[i+1:]
		}

		if bytes.HasPrefix(line, frontMatterDelimiter) {
			endYamlFound = true
			break
		}
		yamlString.Write(bytes.TrimRight(line, "\r\n"))
		yamlString.WriteByte('\n')
	}

	if !endYamlFound {
		return nil, nil, ErrUnterminatedFrontMatter
	}

	config, err = yaml.ParseYaml(yamlString.String())
	if err != nil {
		return nil, nil, fmt.Errorf("malformed YAML metadata: %w", err)
	}
	return config, rest, nil
}
