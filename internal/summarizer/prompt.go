package summarizer

import (
	"fmt"
	"strings"

	"github.com/sessionmind/milestoned/internal/config"
	"github.com/sessionmind/milestoned/internal/milestone"
)

// BuildSystemPrompt renders the fixed system prompt the LLM contract
// depends on: the six milestone types, their definitions, the closed
// concept vocabulary, and the field rules a response must follow. This
// document is a stable contract — widening the vocabulary here would widen
// what the response validator must also accept.
func BuildSystemPrompt() string {
	catalog := config.GetBuiltinCatalog()

	var b strings.Builder
	b.WriteString("You summarize one or more development milestones into structured facts.\n\n")
	b.WriteString("Classify each milestone's `type` as exactly one of:\n")
	for _, t := range []config.MilestoneType{
		config.MilestoneTypeDiscovery, config.MilestoneTypeImplementation, config.MilestoneTypeBugfix,
		config.MilestoneTypeRefactor, config.MilestoneTypeDecision, config.MilestoneTypeConfiguration,
	} {
		fmt.Fprintf(&b, "- %s: %s\n", t, catalog.TypeDefinitions[t])
	}

	b.WriteString("\nChoose 2-5 `concepts` per milestone, only from this list:\n")
	b.WriteString(strings.Join(catalog.Concepts, ", "))
	b.WriteString("\n\n")

	b.WriteString("Field rules:\n")
	b.WriteString("- title: <=10 words, imperative mood\n")
	b.WriteString("- description: <=24 words\n")
	b.WriteString("- facts: 3 to 8 short factual statements\n")
	b.WriteString("- architectureRelevant: true only when the milestone changed a system boundary, data model, or cross-cutting contract; otherwise false\n")
	b.WriteString("- when milestones should be merged into one, return a mergeDirectives entry instead of separate results\n")

	return b.String()
}

// BuildUserPrompt renders the batch of milestones being summarized in this
// call as the single/array-mode payload the response parser expects back.
func BuildUserPrompt(batch []*milestone.Milestone) string {
	var b strings.Builder
	if len(batch) == 1 {
		b.WriteString("Summarize this milestone:\n\n")
	} else {
		fmt.Fprintf(&b, "Summarize these %d milestones, each identified by its id:\n\n", len(batch))
	}

	for _, m := range batch {
		fmt.Fprintf(&b, "id: %s\n", m.ID())
		fmt.Fprintf(&b, "user prompts: %s\n", strings.Join(m.UserPrompts, " | "))
		fmt.Fprintf(&b, "files modified: %s\n", strings.Join(m.FilesModified, ", "))
		fmt.Fprintf(&b, "files read: %s\n", strings.Join(m.FilesRead, ", "))
		fmt.Fprintf(&b, "task completions: %d\n\n", m.TaskCompletions)
	}

	return b.String()
}
