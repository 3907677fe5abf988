package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// importSchema validates bulk knowledge imports before any item is stored,
// so a bad document cannot half-load.
const importSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["title", "content", "category"],
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"content": {"type": "string", "minLength": 1},
			"category": {"type": "string", "minLength": 1},
			"tags": {"type": "array", "items": {"type": "string"}}
		},
		"additionalProperties": false
	}
}`

var importSchemaCompiled = jsonschema.MustCompileString("knowledge-import.json", importSchema)

type importItem struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// Import validates a JSON array of items against the import schema and adds
// them all to the store. Returns the ids of the added items.
func Import(ctx context.Context, s Store, data []byte) ([]string, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse import: %w", err)
	}
	if err := importSchemaCompiled.Validate(raw); err != nil {
		return nil, fmt.Errorf("validate import: %w", err)
	}

	var items []importItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse import: %w", err)
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		id, err := s.Add(ctx, Item{
			Title:    strings.TrimSpace(it.Title),
			Content:  it.Content,
			Category: it.Category,
			Tags:     it.Tags,
		})
		if err != nil {
			return ids, fmt.Errorf("add %q: %w", it.Title, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
