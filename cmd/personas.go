package cmd

import "github.com/kennyg/persona-kit/internal/artifact"

var personaKind = &assetKind[*artifact.Persona]{
	spec:     artifact.PersonaSpec,
	singular: "persona",
	plural:   "personas",
	short:    "Manage team member personas",
	examples: `  persona-kit personas create product-manager
  persona-kit personas create technical-lead --from-file technical-lead.yaml
  persona-kit personas show product-manager`,

	newRecord: func(key artifact.Key) *artifact.Persona {
		return &artifact.Persona{Header: artifact.Header{Type: key.Type}}
	},
	form: func(p *artifact.Persona) []formField {
		return []formField{
			{Title: "Persona name/title", Value: &p.Name, Required: true},
			{Title: "Brief description of this role", Value: &p.Description},
			{Title: "Communication Style", Description: "How does this persona typically communicate? (formal, casual, technical, etc.)", Value: &p.CommunicationStyle},
			{Title: "Key Responsibilities", Description: "What are the main responsibilities of this role?", Value: &p.Responsibilities},
			{Title: "Goals and Priorities", Description: "What are the primary goals and priorities for this role?", Value: &p.Goals},
			{Title: "Decision Making", Description: "How does this persona typically make decisions?", Value: &p.DecisionApproach},
			{Title: "Communication Patterns", Description: "What kind of language or phrases does this persona commonly use?", Value: &p.CommonPhrases},
		}
	},
	details: func(p *artifact.Persona) [][2]string {
		return [][2]string{
			{"Communication Style", p.CommunicationStyle},
			{"Responsibilities", p.Responsibilities},
			{"Goals", p.Goals},
			{"Decision Approach", p.DecisionApproach},
			{"Common Phrases", p.CommonPhrases},
		}
	},
}
