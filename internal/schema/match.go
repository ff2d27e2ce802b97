package schema

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/go-openapi/inflect"
	"gopkg.in/yaml.v3"

	"autobridge/internal/metadata"
)

// Resolved pairs an entity's schema set with where it came from.
type Resolved struct {
	Set    Set
	Origin Origin
}

// Resolve matches user-supplied schema definitions under dir to the given
// descriptors and synthesizes whatever is missing. Matching is purely by
// naming convention: a file whose stem equals the entity key, containing
// top-level documents <EntityName>Create, <EntityName>Update,
// <EntityName>Response. User-supplied shapes are used verbatim; they are not
// structurally validated against the descriptor.
//
// An empty dir resolves every entity by synthesis; its absence is not an error.
func Resolve(entities []*metadata.Entity, dir string) map[string]Resolved {
	supplied := loadSchemaFiles(dir)

	resolved := make(map[string]Resolved, len(entities))
	for _, e := range entities {
		key := metadata.Key(e.Name)
		resolved[key] = resolveOne(e, supplied[key])
	}
	return resolved
}

func resolveOne(e *metadata.Entity, docs map[string]Shape) Resolved {
	synthesized := Synthesize(e)
	if len(docs) == 0 {
		return Resolved{Set: synthesized, Origin: OriginSynthesized}
	}

	prefix := inflect.Camelize(metadata.Key(e.Name))
	create, haveCreate := docs[prefix+"Create"]
	update, haveUpdate := docs[prefix+"Update"]
	response, haveResponse := docs[prefix+"Response"]

	if !haveCreate && !haveUpdate && !haveResponse {
		return Resolved{Set: synthesized, Origin: OriginSynthesized}
	}

	set := synthesized
	if haveCreate {
		set.Create = create
	}
	if haveUpdate {
		set.Update = update
	}
	if haveResponse {
		set.Response = response
	}

	origin := OriginMixed
	if haveCreate && haveUpdate && haveResponse {
		origin = OriginUser
	}
	return Resolved{Set: set, Origin: origin}
}

// loadSchemaFiles reads every schema definition file under dir, keyed by the
// lower-cased file stem. A missing dir or an unreadable file only logs.
func loadSchemaFiles(dir string) map[string]map[string]Shape {
	files := make(map[string]map[string]Shape)
	if dir == "" {
		return files
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("WARN: schemas dir %s not readable, synthesizing all schemas: %v", dir, err)
		return files
	}

	for _, f := range entries {
		if f.IsDir() {
			continue
		}
		ext := filepath.Ext(f.Name())
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}

		docs, err := loadSchemaFile(filepath.Join(dir, f.Name()), ext)
		if err != nil {
			log.Printf("WARN: skipping schema file %s: %v", f.Name(), err)
			continue
		}
		key := metadata.Key(stem(f.Name(), ext))
		files[key] = docs
	}
	return files
}

func loadSchemaFile(path, ext string) (map[string]Shape, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	docs := make(map[string]Shape)
	if ext == ".json" {
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		return docs, nil
	}
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return docs, nil
}

func stem(name, ext string) string {
	return name[:len(name)-len(ext)]
}
