package artifact

import (
	"fmt"
	"strings"
)

// section is one "## Heading" block of a rendered document.
type section struct {
	heading string
	body    string
}

// writeDocument writes the title, the bold field lines, the sections and the
// usage guidelines in that order.
func writeDocument(b *strings.Builder, title string, fields [][2]string, sections []section) {
	fmt.Fprintf(b, "# %s\n\n", title)
	for _, f := range fields {
		fmt.Fprintf(b, "**%s:** %s\n", f[0], f[1])
	}
	for _, s := range sections {
		fmt.Fprintf(b, "\n## %s\n\n%s\n", s.heading, s.body)
	}
}

func writeGuidelines(b *strings.Builder, intro string, items ...string) {
	fmt.Fprintf(b, "\n## Usage Guidelines\n\n%s\n", intro)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n" + generatedFooter)
}

// RenderPersona renders a persona document.
func RenderPersona(p *Persona) string {
	var b strings.Builder
	writeDocument(&b, p.Name,
		[][2]string{{"Type", p.Type}, {"Description", p.Description}},
		[]section{
			{"Communication Style", p.CommunicationStyle},
			{"Key Responsibilities", p.Responsibilities},
			{"Goals and Priorities", p.Goals},
			{"Decision Making Approach", p.DecisionApproach},
			{"Communication Patterns", p.CommonPhrases},
		})
	writeGuidelines(&b, "When communicating as this persona:",
		"Maintain the specified communication style",
		"Focus on the defined responsibilities and goals",
		"Use the characteristic language patterns",
		"Make decisions according to the stated approach",
	)
	return b.String()
}

// RenderPattern renders a pattern document.
func RenderPattern(p *Pattern) string {
	var b strings.Builder
	writeDocument(&b, p.Name,
		[][2]string{{"Category", p.Category}, {"Type", p.Type}, {"Description", p.Description}},
		[]section{
			{"When to Use", p.WhenToUse},
			{"How to Apply", p.HowToApply},
			{"Expected Outcomes", p.ExpectedOutcomes},
			{"Examples", p.Examples},
		})
	writeGuidelines(&b, "When applying this pattern:",
		`Consider the context and ensure it matches "When to Use" criteria`,
		`Follow the "How to Apply" steps carefully`,
		"Monitor for the expected outcomes",
		"Adjust as needed based on team feedback",
	)
	return b.String()
}

// RenderWorkflow renders a workflow document. Steps become a numbered list
// under "Process Steps".
func RenderWorkflow(w *Workflow) string {
	var b strings.Builder
	writeDocument(&b, w.Name,
		[][2]string{{"Type", w.Type}, {"Description", w.Description}},
		[]section{
			{"Trigger Conditions", w.Triggers},
			{"Process Steps", NumberedList(w.Steps)},
			{"Required Roles", w.RequiredRoles},
			{"Expected Duration", w.ExpectedDuration},
			{"Success Criteria", w.SuccessCriteria},
		})
	writeGuidelines(&b, "When executing this workflow:",
		"Ensure all trigger conditions are met before starting",
		"Follow each step in sequence",
		"Involve the required roles/personas as specified",
		"Monitor progress against expected duration",
		"Verify success criteria are met upon completion",
	)
	return b.String()
}

// NumberedList renders items as "1. a\n2. b" without a trailing newline.
func NumberedList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, item)
	}
	return strings.Join(lines, "\n")
}
