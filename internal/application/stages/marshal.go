package stages

import "encoding/json"

// marshalIndent renders v as pretty-printed JSON for inclusion in a
// prompt; stage prompts embed whole Strategy/Charter/Scorecard values so
// the model sees exactly what later validation will see.
func marshalIndent(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
