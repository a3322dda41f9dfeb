package cmd

import "github.com/kennyg/persona-kit/internal/artifact"

var patternKind = &assetKind[*artifact.Pattern]{
	spec:     artifact.PatternSpec,
	singular: "pattern",
	plural:   "patterns",
	short:    "Manage communication and decision-making patterns",
	examples: `  persona-kit patterns create communication daily-standup
  persona-kit patterns create feedback-loops retro --from-file retro.yaml
  persona-kit patterns show decision-making risk-assessment`,

	newRecord: func(key artifact.Key) *artifact.Pattern {
		return &artifact.Pattern{Category: key.Category, Header: artifact.Header{Type: key.Type}}
	},
	form: func(p *artifact.Pattern) []formField {
		return []formField{
			{Title: "Pattern name/title", Value: &p.Name, Required: true},
			{Title: "Brief description of this pattern", Value: &p.Description},
			{Title: "When to Use", Description: "When should this pattern be applied?", Value: &p.WhenToUse},
			{Title: "How to Apply", Description: "How should this pattern be implemented?", Value: &p.HowToApply},
			{Title: "Expected Outcomes", Description: "What results should this pattern produce?", Value: &p.ExpectedOutcomes},
			{Title: "Examples", Description: "Provide examples of this pattern in use", Value: &p.Examples},
		}
	},
	details: func(p *artifact.Pattern) [][2]string {
		return [][2]string{
			{"When To Use", p.WhenToUse},
			{"How To Apply", p.HowToApply},
			{"Expected Outcomes", p.ExpectedOutcomes},
			{"Examples", p.Examples},
		}
	},
}
