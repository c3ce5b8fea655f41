package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Section names, in the order the normalizer checks them.
const (
	SectionNumericalData     = "numericalData"
	SectionKeyFindings       = "keyFindings"
	SectionRecommendations   = "recommendations"
	SectionUrgentConcerns    = "urgentConcerns"
	SectionSimplifiedSummary = "simplifiedSummary"
)

var Sections = []string{
	SectionNumericalData,
	SectionKeyFindings,
	SectionRecommendations,
	SectionUrgentConcerns,
	SectionSimplifiedSummary,
}

// Item kinds, each with its own schema.
const (
	ItemMetric         = "metric"
	ItemVisualization  = "visualization"
	ItemKeyFinding     = "keyFinding"
	ItemRecommendation = "recommendation"
	ItemUrgentConcern  = "urgentConcern"
	ItemMedicalTerm    = "medicalTerm"
)

// fieldKind says which JSON types a field accepts and how a misfit is repaired.
type fieldKind int

const (
	// textField accepts string or null.
	textField fieldKind = iota
	// scalarField accepts string, number or null.
	scalarField
)

var itemFields = map[string]map[string]fieldKind{
	ItemMetric: {
		"name": textField, "value": scalarField, "unit": textField,
		"normalRange": textField, "status": textField, "trend": textField,
	},
	ItemVisualization:  {"type": textField, "title": textField, "description": textField},
	ItemKeyFinding:     {"finding": textField, "severity": textField, "category": textField, "explanation": textField},
	ItemRecommendation: {"recommendation": textField, "priority": textField, "timeframe": textField, "rationale": textField},
	ItemUrgentConcern:  {"concern": textField, "action": textField, "impact": textField},
	ItemMedicalTerm:    {"term": textField, "definition": textField},
}

var arrayOrNull = map[string]any{"type": []string{"array", "null"}}

// sectionSchemas constrain container shapes only. Items are checked one at a
// time against itemSchema so a bad item never costs its siblings.
var sectionSchemas = map[string]map[string]any{
	SectionNumericalData: {
		"type": "object",
		"properties": map[string]any{
			"metrics":                 arrayOrNull,
			"suggestedVisualizations": arrayOrNull,
		},
	},
	SectionKeyFindings:     {"type": "array"},
	SectionRecommendations: {"type": "array"},
	SectionUrgentConcerns:  {"type": "array"},
	SectionSimplifiedSummary: {
		"type": "object",
		"properties": map[string]any{
			"mainPoints":   arrayOrNull,
			"nextSteps":    arrayOrNull,
			"medicalTerms": arrayOrNull,
		},
	},
}

// itemSchema builds the schema of one list item. Required fields and enum
// membership are not enforced.
func itemSchema(kind string) map[string]any {
	properties := make(map[string]any, len(itemFields[kind]))
	for name, fk := range itemFields[kind] {
		switch fk {
		case scalarField:
			properties[name] = map[string]any{"type": []string{"string", "number", "null"}}
		default:
			properties[name] = map[string]any{"type": []string{"string", "null"}}
		}
	}
	return map[string]any{"type": "object", "properties": properties}
}

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

// schemaFor returns the compiled schema for a section or item kind.
func schemaFor(name string) (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		all := make(map[string]map[string]any, len(sectionSchemas)+len(itemFields))
		for section, schemaMap := range sectionSchemas {
			all["section_"+section] = schemaMap
		}
		for kind := range itemFields {
			all["item_"+kind] = itemSchema(kind)
		}
		compiled = make(map[string]*jsonschema.Schema, len(all))
		for key, schemaMap := range all {
			s, err := compileSchema(key, schemaMap)
			if err != nil {
				compileErr = err
				return
			}
			compiled[key] = s
		}
	})
	if compileErr != nil {
		return nil, compileErr
	}
	s, ok := compiled[name]
	if !ok {
		return nil, fmt.Errorf("no schema for %q", name)
	}
	return s, nil
}

func compileSchema(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal %s schema: %w", name, err)
	}
	url := name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add %s schema: %w", name, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", name, err)
	}
	return schema, nil
}

// ValidateSection checks the container shape of one decoded section value.
func ValidateSection(name string, v any) error {
	schema, err := schemaFor("section_" + name)
	if err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%s does not match schema: %w", name, err)
	}
	return nil
}

// ValidateItem checks one decoded list item against its kind's schema.
func ValidateItem(kind string, v any) error {
	schema, err := schemaFor("item_" + kind)
	if err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%s does not match schema: %w", kind, err)
	}
	return nil
}
