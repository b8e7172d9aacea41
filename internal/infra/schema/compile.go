// Package schema turns inferred or hand-written JSON Schemas into portable
// 2020-12 documents.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// Dialect is the meta-schema every compiled document declares.
const Dialect = "https://json-schema.org/draft/2020-12/schema"

const (
	legacyDefsKey = "definitions"
	defsKey       = "$defs"
	refKey        = "$ref"
)

// Document is a compiled schema as a generic JSON object.
type Document map[string]any

// Compile converts a schema value into a 2020-12 document.
//
// Any JSON-marshalable value is accepted: a *jsonschema.Schema, a map, raw
// JSON bytes. Every "definitions" bucket is renamed to "$defs" and local
// references are repointed. References are not checked for targets.
func Compile(schema any) (Document, error) {
	if schema == nil {
		return nil, errors.New("schema is required")
	}
	tree, err := toTree(schema)
	if err != nil {
		return nil, err
	}
	obj, ok := tree.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema must be a JSON object, got %T", tree)
	}
	out := rewriteObject(obj)
	out["$schema"] = Dialect
	return Document(out), nil
}

// MustCompile is Compile for package-level schemas known to be valid.
func MustCompile(schema any) Document {
	doc, err := Compile(schema)
	if err != nil {
		panic(err)
	}
	return doc
}

// For infers a schema from T and compiles it.
func For[T any]() (Document, error) {
	inferred, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, fmt.Errorf("infer schema for %T: %w", *new(T), err)
	}
	return Compile(inferred)
}

func toTree(schema any) (any, error) {
	var raw []byte
	switch v := schema.(type) {
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		encoded, err := json.Marshal(schema)
		if err != nil {
			return nil, fmt.Errorf("marshal schema: %w", err)
		}
		raw = encoded
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return tree, nil
}

// namedChildren are keywords whose object keys are user names, not keywords.
var namedChildren = map[string]bool{
	"properties":        true,
	"patternProperties": true,
	"dependentSchemas":  true,
	defsKey:             true,
	legacyDefsKey:       true,
}

func rewrite(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return rewriteObject(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = rewrite(item)
		}
		return out
	default:
		return v
	}
}

func rewriteObject(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for _, key := range sortedKeys(obj) {
		val := obj[key]
		switch {
		case key == refKey:
			out[key] = rewriteRef(val)
		case namedChildren[key]:
			target := key
			if key == legacyDefsKey {
				target = defsKey
			}
			out[target] = mergeNamed(out[target], rewriteNamed(val))
		default:
			out[key] = rewrite(val)
		}
	}
	return out
}

// rewriteNamed rewrites each value of a name -> schema map while leaving the
// names untouched.
func rewriteNamed(value any) any {
	named, ok := value.(map[string]any)
	if !ok {
		return rewrite(value)
	}
	out := make(map[string]any, len(named))
	for name, sub := range named {
		out[name] = rewrite(sub)
	}
	return out
}

// mergeNamed folds a "definitions" bucket into an existing "$defs" one;
// entries already under "$defs" win.
func mergeNamed(existing, incoming any) any {
	current, ok := existing.(map[string]any)
	if !ok {
		return incoming
	}
	add, ok := incoming.(map[string]any)
	if !ok {
		return current
	}
	for name, sub := range add {
		if _, taken := current[name]; !taken {
			current[name] = sub
		}
	}
	return current
}

// indexedChildren are keywords whose children are addressed by array index.
var indexedChildren = map[string]bool{
	"allOf":       true,
	"anyOf":       true,
	"oneOf":       true,
	"prefixItems": true,
}

type pointerSlot int

const (
	keywordSlot pointerSlot = iota
	nameSlot
	indexSlot
)

// rewriteRef repoints a local reference the same way rewriteObject renames
// keys: a "definitions" segment is renamed only where it is a keyword, never
// where it names a property or a definition.
func rewriteRef(value any) any {
	ref, ok := value.(string)
	if !ok || !strings.HasPrefix(ref, "#/") {
		return value
	}
	segments := strings.Split(strings.TrimPrefix(ref, "#/"), "/")
	slot := keywordSlot
	for i, segment := range segments {
		if slot != keywordSlot {
			slot = keywordSlot
			continue
		}
		switch {
		case namedChildren[segment]:
			if segment == legacyDefsKey {
				segments[i] = defsKey
			}
			slot = nameSlot
		case indexedChildren[segment]:
			slot = indexSlot
		}
	}
	return "#/" + strings.Join(segments, "/")
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	// "$defs" sorts before "definitions", so native $defs entries are placed first.
	sort.Strings(keys)
	return keys
}
