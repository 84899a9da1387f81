// Package codec reads and writes quiz graph documents. JSON is the
// canonical form; YAML is accepted for hand-authored quizzes. Documents in
// the legacy node shape are upgraded on the way in.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/migrate"
)

// Format selects the document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	// FormatAuto sniffs the first non-blank byte: '{' means JSON.
	FormatAuto Format = ""
)

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	}
	return FormatAuto
}

// document is the serialized shape of a Graph.
type document struct {
	SchemaVersion int                        `json:"schemaVersion" mapstructure:"schemaVersion"`
	ID            string                     `json:"id" mapstructure:"id"`
	Version       string                     `json:"version,omitempty" mapstructure:"version"`
	Title         string                     `json:"title,omitempty" mapstructure:"title"`
	Nodes         []nodeDoc                  `json:"nodes" mapstructure:"nodes"`
	Edges         []domain.Edge              `json:"edges" mapstructure:"edges"`
	ScoreRanges   []domain.ScoreRange        `json:"scoreRanges,omitempty" mapstructure:"scoreRanges"`
	Gamification  *domain.GamificationConfig `json:"gamification,omitempty" mapstructure:"gamification"`
}

type nodeDoc struct {
	ID       string           `json:"id" mapstructure:"id"`
	Kind     domain.NodeKind  `json:"kind" mapstructure:"kind"`
	Label    string           `json:"label,omitempty" mapstructure:"label"`
	Elements []map[string]any `json:"-" mapstructure:"elements"`

	encoded []domain.Element
}

func (n nodeDoc) MarshalJSON() ([]byte, error) {
	type plain struct {
		ID       string           `json:"id"`
		Kind     domain.NodeKind  `json:"kind"`
		Label    string           `json:"label,omitempty"`
		Elements []domain.Element `json:"elements,omitempty"`
	}
	return json.Marshal(plain{ID: n.ID, Kind: n.Kind, Label: n.Label, Elements: n.encoded})
}

// Decode parses a quiz document into a Graph, upgrading legacy shapes first.
func Decode(data []byte, format Format) (*domain.Graph, migrate.Report, error) {
	raw, err := parse(data, format)
	if err != nil {
		return nil, migrate.Report{}, err
	}

	rep, err := migrate.Upgrade(raw)
	if err != nil {
		return nil, rep, fmt.Errorf("upgrade document: %w", err)
	}

	var doc document
	if err := decode(raw, &doc); err != nil {
		return nil, rep, fmt.Errorf("decode document: %w", err)
	}

	nodes := make([]domain.Node, 0, len(doc.Nodes))
	for _, nd := range doc.Nodes {
		n := domain.Node{ID: nd.ID, Kind: nd.Kind, Label: nd.Label}
		for i, rawEl := range nd.Elements {
			el, err := DecodeElement(rawEl)
			if err != nil {
				return nil, rep, fmt.Errorf("node %q element #%d: %w", nd.ID, i, err)
			}
			n.Elements = append(n.Elements, el)
		}
		nodes = append(nodes, n)
	}

	g := domain.NewGraph(doc.ID, nodes, doc.Edges)
	g.Version = doc.Version
	g.Title = doc.Title
	g.Ranges = doc.ScoreRanges
	g.Gamification = doc.Gamification
	return g, rep, nil
}

// DecodeElement builds the concrete element named by raw["type"].
func DecodeElement(raw map[string]any) (domain.Element, error) {
	variant, _ := raw["type"].(string)
	var el domain.Element
	switch domain.ElementVariant(variant).Family() {
	case domain.FamilyChoice:
		if domain.ElementVariant(variant) == domain.VariantSwipe {
			el = &domain.SwipeElement{}
		} else {
			el = &domain.ChoiceElement{}
		}
	case domain.FamilyOpen:
		if domain.ElementVariant(variant) == domain.VariantRating {
			el = &domain.RatingElement{}
		} else {
			el = &domain.OpenTextElement{}
		}
	case domain.FamilyCapture:
		el = &domain.LeadFormElement{}
	case domain.FamilyContent:
		el = &domain.ContentElement{}
	case domain.FamilyGame:
		el = &domain.GameElement{}
	default:
		id, _ := raw["id"].(string)
		return nil, &domain.StructuralError{Code: "unknown_element", NodeID: id, Detail: fmt.Sprintf("unknown element type %q", variant)}
	}
	if err := decode(raw, el); err != nil {
		return nil, err
	}
	return el, nil
}

// Encode writes g in the requested format. FormatAuto encodes JSON.
func Encode(g *domain.Graph, format Format) ([]byte, error) {
	doc := document{
		SchemaVersion: migrate.CurrentSchema,
		ID:            g.ID,
		Version:       g.Version,
		Title:         g.Title,
		Edges:         g.Edges,
		ScoreRanges:   g.Ranges,
		Gamification:  g.Gamification,
	}
	if doc.Edges == nil {
		doc.Edges = []domain.Edge{}
	}
	for _, n := range g.Nodes {
		doc.Nodes = append(doc.Nodes, nodeDoc{ID: n.ID, Kind: n.Kind, Label: n.Label, encoded: n.Elements})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if format != FormatYAML {
		return data, nil
	}
	return jsonToYAML(data)
}

func parse(data []byte, format Format) (map[string]any, error) {
	v, err := parseValue(data, format)
	if err != nil {
		return nil, err
	}
	raw, ok := v.(map[string]any)
	if !ok || raw == nil {
		return nil, fmt.Errorf("expected a document object, got %T", v)
	}
	return raw, nil
}

func parseValue(data []byte, format Format) (any, error) {
	if format == FormatAuto {
		format = FormatYAML
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
			format = FormatJSON
		}
	}

	var raw any
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if raw == nil {
		return nil, fmt.Errorf("empty document")
	}
	return raw, nil
}

// DecodeRanges parses a standalone score range list. It accepts a bare
// list or an object with a scoreRanges key.
func DecodeRanges(data []byte, format Format) ([]domain.ScoreRange, error) {
	v, err := parseValue(data, format)
	if err != nil {
		return nil, err
	}
	if m, ok := v.(map[string]any); ok {
		v = m["scoreRanges"]
	}
	var ranges []domain.ScoreRange
	if err := decode(v, &ranges); err != nil {
		return nil, fmt.Errorf("decode ranges: %w", err)
	}
	return ranges, nil
}

// jsonToYAML re-emits JSON as block-style YAML, keeping key order.
func jsonToYAML(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	blockStyle(&node)
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func blockStyle(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style = 0
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func decode(input, output any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           output,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
