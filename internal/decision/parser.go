package decision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	"fundbot/internal/pkg/jsonutil"
)

// decisionSchema pins down the minimum structure the collaborator must
// return: an object keyed by instrument whose values carry an action string.
// Quantities and confidences are coerced leniently afterwards.
const decisionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "minProperties": 1,
  "additionalProperties": {
    "type": "object",
    "required": ["action"],
    "properties": {
      "action": {"type": "string"}
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("decisions.json", decisionSchema)

// ParseProposals extracts the decision object from free-form model output
// and validates its structure. Models wrap the payload in prose or fences
// more often than not.
func ParseProposals(raw string) (map[string]Proposal, error) {
	payload, ok := jsonutil.ExtractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("no JSON found in model output")
	}
	if !gjson.Valid(payload) {
		return nil, fmt.Errorf("model output is not valid JSON")
	}

	parsed := gjson.Parse(payload)
	// Tolerate a {"decisions": {...}} wrapper.
	if inner := parsed.Get("decisions"); inner.Exists() && inner.IsObject() {
		parsed = inner
		payload = inner.Raw
	}
	if !parsed.IsObject() {
		return nil, fmt.Errorf("decision payload must be a JSON object keyed by instrument")
	}

	var doc any
	if err := jsonschemaUnmarshal(payload, &doc); err != nil {
		return nil, err
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("decision payload failed schema validation: %w", err)
	}

	out := make(map[string]Proposal)
	parsed.ForEach(func(key, value gjson.Result) bool {
		instrument := strings.ToUpper(strings.TrimSpace(key.String()))
		if instrument == "" || !value.IsObject() {
			return true
		}
		out[instrument] = Proposal{
			Action:     value.Get("action").String(),
			Quantity:   coerceInt(value.Get("quantity")),
			Confidence: value.Get("confidence").Float(),
			Reasoning:  firstNonEmpty(value.Get("reasoning").String(), value.Get("rationale").String()),
		}
		return true
	})
	if len(out) == 0 {
		return nil, fmt.Errorf("decision payload contains no instruments")
	}
	return out, nil
}

// coerceInt accepts numbers or numeric strings; anything else is 0.
func coerceInt(v gjson.Result) int64 {
	switch v.Type {
	case gjson.Number:
		return v.Int()
	case gjson.String:
		return int64(v.Float())
	default:
		return 0
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func jsonschemaUnmarshal(payload string, out *any) error {
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("decoding decision payload: %w", err)
	}
	return nil
}
