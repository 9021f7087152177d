package summarizer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sessionmind/milestoned/internal/config"
)

// MilestoneResult is one parsed, validated enrichment the LLM produced for
// a single milestone id.
type MilestoneResult struct {
	ID                   string
	Title                string
	Description          string
	Type                 config.MilestoneType
	Outcome              string
	Facts                []string
	Concepts             []string
	ArchitectureRelevant bool
}

// MergeDirective instructs the caller to fold AbsorbedIDs into SurvivorID
// instead of treating them as separate milestones.
type MergeDirective struct {
	SurvivorID  string
	AbsorbedIDs []string
}

// rawResult mirrors the wire shape the LLM is instructed to emit.
type rawResult struct {
	ID                   string   `json:"id"`
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	Type                 string   `json:"type"`
	Outcome              string   `json:"outcome"`
	Facts                []string `json:"facts"`
	Concepts             []string `json:"concepts"`
	ArchitectureRelevant bool     `json:"architectureRelevant"`
}

type rawMergeDirective struct {
	SurvivorID  string   `json:"survivorId"`
	AbsorbedIDs []string `json:"absorbedIds"`
}

type rawEnvelope struct {
	Results         []rawResult         `json:"results"`
	MergeDirectives []rawMergeDirective `json:"mergeDirectives"`
}

// stripFences removes a surrounding ```json ... ``` or ``` ... ``` fence,
// which models reliably add even when told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseResponse decodes raw LLM output into validated results and merge
// directives. A single-object response (one milestone batch of size 1) and
// an array-mode envelope are both accepted.
func ParseResponse(raw string) ([]MilestoneResult, []MergeDirective, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, nil, fmt.Errorf("empty LLM response")
	}

	var env rawEnvelope
	if strings.HasPrefix(cleaned, "[") {
		var results []rawResult
		if err := json.Unmarshal([]byte(cleaned), &results); err != nil {
			return nil, nil, fmt.Errorf("parsing LLM response array: %w", err)
		}
		env.Results = results
	} else {
		// A bare result object also decodes into the envelope without error
		// (its fields are simply unknown there), so an envelope with neither
		// results nor merge directives is re-read as a single result.
		err := json.Unmarshal([]byte(cleaned), &env)
		if err != nil || (env.Results == nil && env.MergeDirectives == nil) {
			var single rawResult
			if err2 := json.Unmarshal([]byte(cleaned), &single); err2 != nil {
				if err == nil {
					err = err2
				}
				return nil, nil, fmt.Errorf("parsing LLM response object: %w", err)
			}
			env.Results = []rawResult{single}
		}
	}

	catalog := config.GetBuiltinCatalog()
	conceptSet := catalog.ConceptSet()

	results := make([]MilestoneResult, 0, len(env.Results))
	for _, r := range env.Results {
		validated, err := validateResult(r, conceptSet)
		if err != nil {
			return nil, nil, fmt.Errorf("milestone %q: %w", r.ID, err)
		}
		results = append(results, validated)
	}

	directives := make([]MergeDirective, 0, len(env.MergeDirectives))
	for _, d := range env.MergeDirectives {
		if d.SurvivorID == "" || len(d.AbsorbedIDs) == 0 {
			return nil, nil, fmt.Errorf("merge directive missing survivorId or absorbedIds")
		}
		directives = append(directives, MergeDirective{SurvivorID: d.SurvivorID, AbsorbedIDs: d.AbsorbedIDs})
	}

	return results, directives, nil
}

func validateResult(r rawResult, conceptSet map[string]struct{}) (MilestoneResult, error) {
	if r.ID == "" {
		return MilestoneResult{}, fmt.Errorf("missing id")
	}

	mtype := config.MilestoneType(strings.TrimSpace(r.Type))
	if !mtype.IsValid() {
		return MilestoneResult{}, fmt.Errorf("invalid milestone type %q", r.Type)
	}

	if len(r.Facts) == 0 {
		return MilestoneResult{}, fmt.Errorf("no facts supplied")
	}

	concepts := make([]string, 0, len(r.Concepts))
	for _, c := range r.Concepts {
		c = strings.TrimSpace(c)
		if _, ok := conceptSet[c]; !ok {
			continue // drop concepts outside the closed vocabulary rather than fail the whole result
		}
		concepts = append(concepts, c)
	}

	return MilestoneResult{
		ID:                   r.ID,
		Title:                strings.TrimSpace(r.Title),
		Description:          strings.TrimSpace(r.Description),
		Type:                 mtype,
		Outcome:              strings.TrimSpace(r.Outcome),
		Facts:                r.Facts,
		Concepts:             concepts,
		ArchitectureRelevant: r.ArchitectureRelevant,
	}, nil
}
