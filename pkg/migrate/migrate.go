// Package migrate upgrades serialized quiz documents from the legacy
// one-question-per-node shape to the composite-element shape. It works on
// the decoded generic document and never touches a built Graph.
package migrate

import (
	"fmt"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// CurrentSchema is the document schema version produced by Upgrade.
const CurrentSchema = 2

// Report summarizes what Upgrade changed.
type Report struct {
	From          int
	NodesUpgraded int
	EdgesRewired  int
}

// Changed reports whether the document was modified.
func (r Report) Changed() bool {
	return r.NodesUpgraded > 0 || r.EdgesRewired > 0
}

// legacyNode is the old builder shape: the node type is the question type
// and the question lives under data.
type legacyNode struct {
	ID   string         `mapstructure:"id"`
	Type string         `mapstructure:"type"`
	Kind string         `mapstructure:"kind"`
	Data map[string]any `mapstructure:"data"`
}

type legacyOption struct {
	ID      string `mapstructure:"id"`
	Text    string `mapstructure:"text"`
	Label   string `mapstructure:"label"`
	Score   int    `mapstructure:"score"`
	Correct bool   `mapstructure:"correct"`
}

// Upgrade rewrites doc in place to CurrentSchema and reports the changes.
// Documents already at CurrentSchema are returned untouched.
func Upgrade(doc map[string]any) (Report, error) {
	rep := Report{From: schemaVersion(doc)}
	if rep.From >= CurrentSchema {
		return rep, nil
	}

	rawNodes, _ := doc["nodes"].([]any)
	// element id chosen for each upgraded node, used to rewire option handles
	elementOf := map[string]string{}

	for i, raw := range rawNodes {
		m, ok := raw.(map[string]any)
		if !ok {
			return rep, fmt.Errorf("node #%d: expected an object, got %T", i, raw)
		}
		var n legacyNode
		if err := decode(m, &n); err != nil {
			return rep, fmt.Errorf("node #%d: %w", i, err)
		}
		if n.Kind != "" {
			continue
		}

		upgraded, elementID, err := upgradeNode(n)
		if err != nil {
			return rep, fmt.Errorf("node %q: %w", n.ID, err)
		}
		rawNodes[i] = upgraded
		if elementID != "" {
			elementOf[n.ID] = elementID
		}
		rep.NodesUpgraded++
	}

	rawEdges, _ := doc["edges"].([]any)
	for _, raw := range rawEdges {
		e, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if rewireEdge(e, elementOf) {
			rep.EdgesRewired++
		}
	}

	doc["schemaVersion"] = CurrentSchema
	return rep, nil
}

func schemaVersion(doc map[string]any) int {
	switch v := doc["schemaVersion"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case fmt.Stringer:
		if n, err := strconv.Atoi(v.String()); err == nil {
			return n
		}
	}
	return 1
}

func upgradeNode(n legacyNode) (map[string]any, string, error) {
	switch n.Type {
	case "start", "result":
		return map[string]any{"id": n.ID, "kind": n.Type, "label": str(n.Data, "label")}, "", nil
	case "composite", "":
		elements, _ := n.Data["elements"].([]any)
		return map[string]any{"id": n.ID, "kind": "composite", "label": str(n.Data, "label"), "elements": elements}, "", nil
	}

	elementID := n.ID + "-el"
	el := map[string]any{"id": elementID, "type": n.Type}
	for k, v := range n.Data {
		switch k {
		case "question":
			el["title"] = v
		case "options":
			continue
		default:
			el[k] = v
		}
	}

	if rawOpts, ok := n.Data["options"].([]any); ok {
		var opts []legacyOption
		if err := decode(rawOpts, &opts); err != nil {
			return nil, "", err
		}
		upgraded := make([]any, 0, len(opts))
		for i, o := range opts {
			id := o.ID
			if id == "" {
				id = fmt.Sprintf("option-%d", i)
			}
			label := o.Label
			if label == "" {
				label = o.Text
			}
			upgraded = append(upgraded, map[string]any{
				"id": id, "label": label, "score": o.Score, "correct": o.Correct,
			})
		}
		el["options"] = upgraded
	}

	return map[string]any{
		"id":       n.ID,
		"kind":     "composite",
		"elements": []any{el},
	}, elementID, nil
}

// rewireEdge maps legacy handles onto element-scoped ones: "option-N"
// becomes "<elementID>-option-N" and an empty or "default" handle on an
// upgraded node becomes the general handle.
func rewireEdge(e map[string]any, elementOf map[string]string) bool {
	src, _ := e["source"].(string)
	elementID, ok := elementOf[src]
	if !ok {
		return false
	}
	handle, _ := e["sourceHandle"].(string)
	switch {
	case handle == "" || handle == "default":
		e["sourceHandle"] = "general"
	case len(handle) > len("option-") && handle[:len("option-")] == "option-":
		e["sourceHandle"] = elementID + "-" + handle
	default:
		return false
	}
	return true
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
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
