package nodetypes

import (
	"fmt"
	"sort"
)

// Postprocessor adjusts the merged configuration of a node type after all
// definitions are loaded.
type Postprocessor interface {
	Process(nt *NodeType, configuration map[string]interface{})
}

// PostprocessorFunc adapts a function to Postprocessor.
type PostprocessorFunc func(nt *NodeType, configuration map[string]interface{})

// Process calls f.
func (f PostprocessorFunc) Process(nt *NodeType, configuration map[string]interface{}) {
	f(nt, configuration)
}

var postprocessors = map[string]Postprocessor{
	"integrator-help": IntegratorHelpMessage{},
}

// Postprocessors resolves configured postprocessor names.
func Postprocessors(names []string) ([]Postprocessor, error) {
	out := make([]Postprocessor, 0, len(names))
	for _, name := range names {
		p, ok := postprocessors[name]
		if !ok {
			return nil, fmt.Errorf("unknown node type postprocessor %q", name)
		}
		out = append(out, p)
	}
	return out, nil
}

// IntegratorHelpMessage shows integrators the technical name of node types
// and properties in the editor help texts.
type IntegratorHelpMessage struct{}

// Process sets ui.help.message on the type when it has a ui section, and on
// every property that has both ui and type.
func (IntegratorHelpMessage) Process(nt *NodeType, configuration map[string]interface{}) {
	if ui, ok := configuration["ui"].(map[string]interface{}); ok {
		setHelp(ui, "NodeType: "+nt.Name())
	}

	props, _ := configuration["properties"].(map[string]interface{})
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop, ok := props[name].(map[string]interface{})
		if !ok {
			continue
		}
		ui, hasUI := prop["ui"].(map[string]interface{})
		propType, hasType := prop["type"]
		if !hasUI || !hasType {
			continue
		}
		setHelp(ui, fmt.Sprintf("property: %s ,type: %v", name, propType))
	}
}

func setHelp(ui map[string]interface{}, message string) {
	help, ok := ui["help"].(map[string]interface{})
	if !ok {
		help = map[string]interface{}{}
		ui["help"] = help
	}
	help["message"] = message
}
