package schemafile

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/modelkit/internal/model"
)

// propertyNode is the long form of a property declaration.
type propertyNode struct {
	Type          string `yaml:"type"`
	Required      bool   `yaml:"required,omitempty"`
	ReadOnly      bool   `yaml:"readOnly,omitempty"`
	Private       bool   `yaml:"private,omitempty"`
	PrivateSetter bool   `yaml:"privateSetter,omitempty"`
	AutoAdjust    bool   `yaml:"autoAdjust,omitempty"`
	Default       any    `yaml:"defaultValue,omitempty"`
}

// Encode writes classes in the file format. Each class lists only the
// properties it declares itself, in long form; classes whose parent is the
// base class omit extends.
func Encode(classes []*model.Class) ([]byte, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, cls := range classes {
		n, err := classNodeOf(cls)
		if err != nil {
			return nil, err
		}
		seq.Content = append(seq.Content, n)
	}

	root := mapping()
	appendPair(root, "classes", seq)
	return yaml.Marshal(root)
}

func classNodeOf(cls *model.Class) (*yaml.Node, error) {
	n := mapping()
	appendPair(n, "name", scalar(cls.Name()))

	parent := cls.Parent()
	if parent != nil && parent.Parent() != nil {
		appendPair(n, "extends", scalar(parent.Name()))
	}
	if cls.Role() != "" && (parent == nil || cls.Role() != parent.Role()) {
		appendPair(n, "role", scalar(cls.Role()))
	}

	if own := cls.OwnProperties(); len(own) > 0 {
		props := mapping()
		for _, spec := range own {
			value := &yaml.Node{}
			err := value.Encode(propertyNode{
				Type:          spec.Type,
				Required:      spec.Required,
				ReadOnly:      spec.ReadOnly,
				Private:       spec.Private,
				PrivateSetter: spec.PrivateSetter,
				AutoAdjust:    spec.AutoAdjust,
				Default:       spec.Default,
			})
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", cls.Name(), spec.Name, err)
			}
			value.Style = yaml.FlowStyle
			appendPair(props, spec.Name, value)
		}
		appendPair(n, "properties", props)
	}
	return n, nil
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode}
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: v}
}

func appendPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, scalar(key), value)
}
