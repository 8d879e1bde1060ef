// Package yaml provides a YAML format implementation.
package yaml

import (
	"github.com/zoobzio/docmodel"
	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/yaml.v3"
)

// yamlFormat implements docmodel.Format for YAML.
type yamlFormat struct{}

// New returns a YAML format.
func New() docmodel.Format {
	return &yamlFormat{}
}

// ContentType returns the MIME type for YAML.
func (f *yamlFormat) ContentType() string {
	return "application/yaml"
}

// Marshal encodes v as YAML. Documents are written as mappings.
func (f *yamlFormat) Marshal(v any) ([]byte, error) {
	if doc, ok := docmodel.AsDocument(v); ok {
		return yaml.Marshal(docmodel.ToMap(doc))
	}
	return yaml.Marshal(v)
}

// Unmarshal decodes YAML data into v. Mappings decoded into a *bson.D have
// their keys sorted. Untagged timestamps decode as strings; typed properties
// parse them when the document is decoded.
func (f *yamlFormat) Unmarshal(data []byte, v any) error {
	doc, ok := v.(*bson.D)
	if !ok {
		return yaml.Unmarshal(data, v)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return err
	}
	var m map[string]any
	if root.Kind != 0 {
		plainTimestamps(&root, make(map[*yaml.Node]bool))
		if err := root.Decode(&m); err != nil {
			return err
		}
	}
	*doc = docmodel.FromMap(m)
	return nil
}

// plainTimestamps retags implicit timestamp scalars as strings.
func plainTimestamps(n *yaml.Node, seen map[*yaml.Node]bool) {
	if n == nil || seen[n] {
		return
	}
	seen[n] = true
	if n.Kind == yaml.ScalarNode && n.Tag != "!!timestamp" && n.ShortTag() == "!!timestamp" {
		n.Tag = "!!str"
		return
	}
	plainTimestamps(n.Alias, seen)
	for _, c := range n.Content {
		plainTimestamps(c, seen)
	}
}
