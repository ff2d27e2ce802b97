package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "embed"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ErrDuplicateEntity marks two definitions normalizing to the same registry
// key. Unlike a malformed definition this is fatal to setup.
var ErrDuplicateEntity = errors.New("duplicate entity name")

//go:embed definition_schema.json
var definitionSchemaJSON string

var definitionSchema = jsonschema.MustCompileString("entity-definition.json", definitionSchemaJSON)

// Discover enumerates every entity definition under dir and extracts a
// descriptor for each. Malformed definitions are skipped with a warning so
// one bad file never blocks generation for the others. Two definitions
// mapping to the same key fail discovery.
func Discover(dir string) ([]*Entity, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read models dir %s: %w", dir, err)
	}

	var entities []*Entity
	byKey := make(map[string]string) // key -> file it came from

	for _, f := range files {
		if f.IsDir() || !isDefinitionFile(f.Name()) {
			continue
		}
		path := filepath.Join(dir, f.Name())

		entity, err := loadDefinition(path)
		if err != nil {
			log.Printf("WARN: skipping %s: %v", f.Name(), err)
			continue
		}

		key := Key(entity.Name)
		if prev, ok := byKey[key]; ok {
			return nil, fmt.Errorf("%w: %s (from %s and %s)", ErrDuplicateEntity, key, prev, f.Name())
		}
		byKey[key] = f.Name()
		entities = append(entities, entity)
	}

	return entities, nil
}

func loadDefinition(path string) (*Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := decodeDocument(path, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if err := definitionSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	var def Definition
	if err := decodeInto(path, data, &def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return Extract(&def)
}

// decodeDocument decodes raw bytes into the generic shape the JSON Schema
// validator expects.
func decodeDocument(path string, data []byte) (any, error) {
	var doc any
	if isYAML(path) {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeInto(path string, data []byte, def *Definition) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, def)
	}
	return json.Unmarshal(data, def)
}

func isDefinitionFile(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return false
	}
	switch filepath.Ext(name) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func isYAML(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}
