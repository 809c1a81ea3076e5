package registry

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Extension is a community-extension record supplied by the external
// governance process. It is the declarative counterpart of ShapeDescriptor:
// because extension files cannot carry code, the shape is described by a
// small constraint vocabulary from which a validator is derived.
//
// Example:
//
//	extensions:
//	  - namespace: acme
//	    type: plus-code
//	    major_version: 1
//	    aliases: [plus-code]
//	    shape:
//	      kind: text
//	      pattern: "^[23456789CFGHJMPQRVWX]{4,8}\\+[23456789CFGHJMPQRVWX]{2,3}$"
type Extension struct {
	Namespace    string   `yaml:"namespace"`
	Type         string   `yaml:"type"`
	MajorVersion int      `yaml:"major_version"`
	Aliases      []string `yaml:"aliases,omitempty"`
	Shape        Shape    `yaml:"shape"`
}

// Shape is the declarative constraint set for an extension location type.
type Shape struct {
	// Kind is one of "text", "number-array", "object".
	Kind string `yaml:"kind"`
	// Pattern constrains text values (RE2 syntax). Optional.
	Pattern string `yaml:"pattern,omitempty"`
	// MinItems/MaxItems constrain number-array arity. Zero means unconstrained.
	MinItems int `yaml:"min_items,omitempty"`
	MaxItems int `yaml:"max_items,omitempty"`
	// Required lists object members that must be present.
	Required []string `yaml:"required,omitempty"`
}

// Name returns the versioned registry name for the record.
func (e Extension) Name() string {
	return fmt.Sprintf("%s.%s.v%d", e.Namespace, e.Type, e.MajorVersion)
}

// Descriptor derives a ShapeDescriptor from the declarative record.
func (e Extension) Descriptor() (ShapeDescriptor, error) {
	if e.Namespace == "" || e.Type == "" || e.MajorVersion < 1 {
		return ShapeDescriptor{}, fmt.Errorf("registry: extension requires namespace, type and major_version >= 1")
	}
	switch e.Shape.Kind {
	case "text":
		var re *regexp.Regexp
		if e.Shape.Pattern != "" {
			var err error
			re, err = regexp.Compile(e.Shape.Pattern)
			if err != nil {
				return ShapeDescriptor{}, fmt.Errorf("registry: extension %s: invalid pattern: %w", e.Name(), err)
			}
		}
		return ShapeDescriptor{Name: e.Name(), Kind: KindText, Validate: func(value any) error {
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("expected a text value, got %T", value)
			}
			if s == "" {
				return fmt.Errorf("text must be non-empty")
			}
			if re != nil && !re.MatchString(s) {
				return fmt.Errorf("%q does not match the declared pattern", s)
			}
			return nil
		}}, nil
	case "number-array":
		min, max := e.Shape.MinItems, e.Shape.MaxItems
		return ShapeDescriptor{Name: e.Name(), Kind: KindNumberArray, Validate: func(value any) error {
			arr, ok := value.([]any)
			if !ok {
				return fmt.Errorf("expected a number array, got %T", value)
			}
			if min > 0 && len(arr) < min {
				return fmt.Errorf("expected at least %d elements, got %d", min, len(arr))
			}
			if max > 0 && len(arr) > max {
				return fmt.Errorf("expected at most %d elements, got %d", max, len(arr))
			}
			for i, v := range arr {
				if _, err := finiteFloat(v); err != nil {
					return fmt.Errorf("element %d: %w", i, err)
				}
			}
			return nil
		}}, nil
	case "object":
		required := append([]string(nil), e.Shape.Required...)
		return ShapeDescriptor{Name: e.Name(), Kind: KindObject, Validate: func(value any) error {
			obj, ok := value.(map[string]any)
			if !ok {
				return fmt.Errorf("expected an object, got %T", value)
			}
			for _, k := range required {
				if _, ok := obj[k]; !ok {
					return fmt.Errorf("missing %q member", k)
				}
			}
			return nil
		}}, nil
	default:
		return ShapeDescriptor{}, fmt.Errorf("registry: extension %s: unknown shape kind %q", e.Name(), e.Shape.Kind)
	}
}

type extensionFile struct {
	Extensions []Extension `yaml:"extensions"`
}

// LoadExtensions parses extension records from YAML bytes and registers
// them. Registration stops at the first failure.
func (r *Registry) LoadExtensions(data []byte) error {
	var f extensionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("registry: invalid extension file: %w", err)
	}
	for _, ext := range f.Extensions {
		desc, err := ext.Descriptor()
		if err != nil {
			return err
		}
		if err := r.Register(desc, ext.Aliases...); err != nil {
			return err
		}
	}
	return nil
}

// LoadExtensionsFile reads and registers extension records from a file.
func (r *Registry) LoadExtensionsFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return r.LoadExtensions(data)
}
