package artifact

// Directory, index and map names for each kind. The map name is the top-level
// JSON key that holds the records inside an index file.
const (
	// PersonasDirName is the directory (and index map name) for personas
	PersonasDirName = "personas"

	// PatternsDirName is the directory (and index map name) for patterns
	PatternsDirName = "patterns"

	// WorkflowsDirName is the directory (and index map name) for workflows
	WorkflowsDirName = "workflows"

	// DocumentExt is the extension of rendered documents
	DocumentExt = ".md"

	// SchemaVersion is stamped on every record and index
	SchemaVersion = "1.0"

	// generatedFooter closes every rendered document
	generatedFooter = "---\n*Generated by Persona Kit CLI*\n"
)
