// Package yamlflow loads flow definitions from YAML documents:
//
//	name: pipeline
//	nodes:
//	  - id: source
//	    type: inject
//	    config:
//	      value: 42
//	  - id: sink
//	    type: debug
//	    depends_on: [source]
//	edges:
//	  - from: source
//	    to: sink
//	    source_port: payload
//
// depends_on is shorthand for plain edges with no port routing; both forms
// may be mixed in one document.
package yamlflow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/edgeflow/internal/flow"
)

type yamlDocument struct {
	Name  string      `yaml:"name"`
	Nodes []*yamlNode `yaml:"nodes"`
	Edges []*yamlEdge `yaml:"edges"`
}

type yamlNode struct {
	ID        string         `yaml:"id"`
	Type      string         `yaml:"type"`
	Config    map[string]any `yaml:"config"`
	DependsOn []string       `yaml:"depends_on"`
}

type yamlEdge struct {
	From       string `yaml:"from"`
	To         string `yaml:"to"`
	SourcePort string `yaml:"source_port"`
	TargetPort string `yaml:"target_port"`
}

// ParseFile loads the flow defined in a YAML file.
func ParseFile(path string) (*flow.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow file %s: %w", path, err)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("flow file %s: %w", path, err)
	}
	return g, nil
}

// Parse loads the flow defined in an in-memory YAML document.
func Parse(src []byte) (*flow.Graph, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode YAML flow: %w", err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("flow name is required")
	}

	nodes := make([]flow.Node, 0, len(doc.Nodes))
	var edges []flow.Edge
	for _, n := range doc.Nodes {
		nodes = append(nodes, flow.Node{ID: n.ID, Type: n.Type, Config: n.Config})
		for _, dep := range n.DependsOn {
			edges = append(edges, flow.Edge{Source: dep, Target: n.ID})
		}
	}
	for _, e := range doc.Edges {
		edges = append(edges, flow.Edge{
			Source:     e.From,
			Target:     e.To,
			SourcePort: e.SourcePort,
			TargetPort: e.TargetPort,
		})
	}

	return flow.NewGraph(doc.Name, nodes, edges)
}
