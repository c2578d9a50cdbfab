// Package hclflow loads flow definitions from HCL documents. A document
// holds one or more flow blocks, each made of node and edge blocks:
//
//	flow "pipeline" {
//	  node "inject" "source" {
//	    config = { value = 42 }
//	  }
//	  node "debug" "sink" {}
//	  edge {
//	    from = "source"
//	    to   = "sink"
//	  }
//	}
//
// Node config is an arbitrary HCL object evaluated at load time.
package hclflow

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/edgeflow/internal/flow"
)

type hclDocument struct {
	Flows []*hclFlow `hcl:"flow,block"`
}

type hclFlow struct {
	Name  string     `hcl:"name,label"`
	Nodes []*hclNode `hcl:"node,block"`
	Edges []*hclEdge `hcl:"edge,block"`
}

type hclNode struct {
	Type   string         `hcl:"type,label"`
	ID     string         `hcl:"id,label"`
	Config hcl.Expression `hcl:"config,optional"`
}

type hclEdge struct {
	From       string `hcl:"from"`
	To         string `hcl:"to"`
	SourcePort string `hcl:"source_port,optional"`
	TargetPort string `hcl:"target_port,optional"`
}

// ParseFile loads every flow defined in an HCL file.
func ParseFile(path string) ([]*flow.Graph, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return decode(path, file)
}

// Parse loads every flow defined in an in-memory HCL document. The filename
// is used for diagnostics only.
func Parse(filename string, src []byte) ([]*flow.Graph, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL document %s: %w", filename, diags)
	}
	return decode(filename, file)
}

func decode(filename string, file *hcl.File) ([]*flow.Graph, error) {
	var doc hclDocument
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL document %s: %w", filename, diags)
	}

	graphs := make([]*flow.Graph, 0, len(doc.Flows))
	for _, f := range doc.Flows {
		g, err := buildGraph(f)
		if err != nil {
			return nil, fmt.Errorf("flow %q in %s: %w", f.Name, filename, err)
		}
		graphs = append(graphs, g)
	}
	return graphs, nil
}

func buildGraph(f *hclFlow) (*flow.Graph, error) {
	nodes := make([]flow.Node, 0, len(f.Nodes))
	for _, n := range f.Nodes {
		config, err := decodeConfig(n)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, flow.Node{ID: n.ID, Type: n.Type, Config: config})
	}

	edges := make([]flow.Edge, 0, len(f.Edges))
	for _, e := range f.Edges {
		edges = append(edges, flow.Edge{
			Source:     e.From,
			Target:     e.To,
			SourcePort: e.SourcePort,
			TargetPort: e.TargetPort,
		})
	}

	return flow.NewGraph(f.Name, nodes, edges)
}

func decodeConfig(n *hclNode) (map[string]any, error) {
	if n.Config == nil {
		return nil, nil
	}
	val, diags := n.Config.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("node %q: invalid config: %w", n.ID, diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	converted, err := ctyValueToInterface(val)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", n.ID, err)
	}
	config, ok := converted.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("node %q: config must be an object", n.ID)
	}
	return config, nil
}

// ctyValueToInterface converts a cty.Value to a Go interface{}.
func ctyValueToInterface(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	if val.Type().IsPrimitiveType() {
		switch val.Type() {
		case cty.String:
			return val.AsString(), nil
		case cty.Number:
			f, _ := val.AsBigFloat().Float64()
			return f, nil
		case cty.Bool:
			return val.True(), nil
		default:
			return nil, fmt.Errorf("unsupported primitive type: %s", val.Type().FriendlyName())
		}
	}
	if val.Type().IsObjectType() || val.Type().IsMapType() {
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			converted, err := ctyValueToInterface(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = converted
		}
		return out, nil
	}
	if val.Type().IsTupleType() || val.Type().IsListType() || val.Type().IsSetType() {
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			converted, err := ctyValueToInterface(v)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported type: %s", val.Type().FriendlyName())
}
