package plan

import (
	"gopkg.in/yaml.v2"
)

// explainSource and explainStep are flattened, YAML-friendly mirrors of
// Plan's fields: the AST node pointers aren't meaningful to a human
// reading `explain` output, so only the parts relevant to query shape
// are projected out.
type explainSource struct {
	Type string `yaml:"type"`
	Name string `yaml:"name,omitempty"`
}

type explainStep struct {
	Command string   `yaml:"command"`
	By      []string `yaml:"by,omitempty"`
}

type explainDoc struct {
	Source explainSource `yaml:"source"`
	Steps  []explainStep `yaml:"steps"`
}

// Explain renders the plan as a human-readable YAML document, used by
// the CLI's explain subcommand and by Engine.Explain.
func (p *Plan) Explain() (string, error) {
	doc := explainDoc{}
	if p.Source != nil {
		doc.Source = explainSource{Type: p.Source.SourceType, Name: p.Source.SourceName}
	}
	for _, s := range p.Steps {
		step := explainStep{Command: s.CommandName}
		if s.Node != nil {
			step.By = s.Node.ByFields
		}
		doc.Steps = append(doc.Steps, step)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
