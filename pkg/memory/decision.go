package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrDecision indicates the extraction response could not be decoded.
var ErrDecision = errors.New("failed to decode memory decision")

// Decision is the model's verdict on whether a turn contains facts worth
// remembering.
type Decision struct {
	ShouldSave   bool     `json:"should_save"`
	UserFacts    []string `json:"user_facts"`
	CompanyFacts []string `json:"company_facts"`
	Confidence   float64  `json:"confidence"`
}

// ParseDecision decodes a decision from raw model output. Markdown code
// fences around the JSON are tolerated; anything else unparseable is an
// error.
func ParseDecision(raw string) (Decision, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var d Decision
	if err := json.Unmarshal([]byte(cleaned), &d); err != nil {
		return Decision{}, fmt.Errorf("%w: %w", ErrDecision, err)
	}

	return d, nil
}
