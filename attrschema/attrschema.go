// Package attrschema validates a payload's attributes string against its
// referenced attributes_schema.
//
// Schema documents are supplied by a caller-provided resolver (the core
// never fetches over the network); compiled schemas are cached per
// reference so repeated validation is cheap.
package attrschema

import (
	"bytes"
	"errors"
	"fmt"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Resolver supplies the raw JSON Schema document for a schema reference
// string. Implementations decide what references mean (file paths, CIDs,
// embedded catalogs); resolution failures surface to the caller.
type Resolver interface {
	ResolveSchema(ref string) ([]byte, error)
}

// StaticResolver resolves schema references from an in-memory table.
type StaticResolver map[string][]byte

func (s StaticResolver) ResolveSchema(ref string) ([]byte, error) {
	doc, ok := s[ref]
	if !ok {
		return nil, fmt.Errorf("attrschema: unknown schema reference %q", ref)
	}
	return doc, nil
}

// ErrNoResolver reports validation attempted without a resolver configured.
var ErrNoResolver = errors.New("attrschema: no schema resolver configured")

// ErrSchemaUnavailable reports a schema reference the resolver could not
// supply. Distinct from a schema violation so permissive callers can
// degrade it to a warning.
var ErrSchemaUnavailable = errors.New("attrschema: schema unavailable")

// Validator compiles draft-07 schemas on demand and validates attribute
// payloads against them.
type Validator struct {
	resolver Resolver
	cache    cmap.ConcurrentMap[string, *jsonschema.Schema]
}

// NewValidator returns a Validator backed by the given resolver.
func NewValidator(r Resolver) *Validator {
	return &Validator{
		resolver: r,
		cache:    cmap.New[*jsonschema.Schema](),
	}
}

// Validate checks the attributes JSON string against the schema named by
// schemaRef. The attributes value must itself be valid JSON.
func (v *Validator) Validate(attributes, schemaRef string) error {
	if v == nil || v.resolver == nil {
		return ErrNoResolver
	}
	sch, err := v.compiled(schemaRef)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(attributes)))
	if err != nil {
		return fmt.Errorf("attrschema: attributes is not valid JSON: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("attrschema: attributes do not satisfy %q: %w", schemaRef, err)
	}
	return nil
}

func (v *Validator) compiled(schemaRef string) (*jsonschema.Schema, error) {
	if sch, ok := v.cache.Get(schemaRef); ok {
		return sch, nil
	}
	raw, err := v.resolver.ResolveSchema(schemaRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrSchemaUnavailable, schemaRef, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("attrschema: schema %q is not valid JSON: %w", schemaRef, err)
	}
	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft7)
	if err := c.AddResource(schemaRef, doc); err != nil {
		return nil, fmt.Errorf("attrschema: schema %q: %w", schemaRef, err)
	}
	sch, err := c.Compile(schemaRef)
	if err != nil {
		return nil, fmt.Errorf("attrschema: schema %q does not compile: %w", schemaRef, err)
	}
	v.cache.Set(schemaRef, sch)
	return sch, nil
}
