package cmd

import "github.com/kennyg/persona-kit/internal/artifact"

var workflowKind = &assetKind[*artifact.Workflow]{
	spec:     artifact.WorkflowSpec,
	singular: "workflow",
	plural:   "workflows",
	short:    "Manage development workflows",
	examples: `  persona-kit workflows create feature-development
  persona-kit workflows create bug-fixes --from-file bug-fixes.yaml
  persona-kit workflows show code-reviews`,

	newRecord: func(key artifact.Key) *artifact.Workflow {
		return &artifact.Workflow{Header: artifact.Header{Type: key.Type}}
	},
	form: func(w *artifact.Workflow) []formField {
		return []formField{
			{Title: "Workflow name/title", Value: &w.Name, Required: true},
			{Title: "Brief description of this workflow", Value: &w.Description},
			{Title: "Trigger Conditions", Description: "When should this workflow be initiated?", Value: &w.Triggers},
			{Title: "Process Steps", Description: "One step per line", Lines: &w.Steps, Required: true},
			{Title: "Required Roles", Description: "Which personas/roles are typically involved in this workflow?", Value: &w.RequiredRoles},
			{Title: "Timeline", Description: "What is the expected duration for this workflow?", Value: &w.ExpectedDuration},
			{Title: "Success Criteria", Description: "How do you measure success for this workflow?", Value: &w.SuccessCriteria},
		}
	},
	details: func(w *artifact.Workflow) [][2]string {
		return [][2]string{
			{"Triggers", w.Triggers},
			{"Process Steps", artifact.NumberedList(w.Steps)},
			{"Required Roles", w.RequiredRoles},
			{"Expected Duration", w.ExpectedDuration},
			{"Success Criteria", w.SuccessCriteria},
		}
	},
}
