package model

import (
	"io"

	"github.com/creasty/defaults"
	"github.com/goccy/go-yaml"
)

// ParseRoot decodes a configuration document.
func ParseRoot(reader io.Reader) (*Root, error) {
	dec := yaml.NewDecoder(reader)
	var v Root
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (w *Watch) UnmarshalYAML(data []byte) error {
	if err := defaults.Set(w); err != nil {
		return err
	}
	type plain Watch
	return yaml.Unmarshal(data, (*plain)(w))
}

func (s *HTTPServer) UnmarshalYAML(data []byte) error {
	if err := defaults.Set(s); err != nil {
		return err
	}
	type plain HTTPServer
	return yaml.Unmarshal(data, (*plain)(s))
}
