package entities

// Preset is a named bundle of default settings and a system prompt tuned for
// a class of documents. Presets are constant configurations, not inheritance;
// caller overrides are applied on top at pipeline creation.
type Preset struct {
	Settings     Settings
	SystemPrompt string
}

const basePromptRules = "Answer using ONLY the provided context. " +
	"Cite sources by their [n] index where relevant."

var presets = map[string]Preset{
	"default": {
		Settings: Settings{ChunkSize: 512, ChunkOverlap: 64, TopK: 4, MinScore: 0.30, Temperature: 0.7, ContextWindow: 6},
		SystemPrompt: "You are a helpful assistant. " + basePromptRules +
			" If the context does not contain the answer, say you don't know.",
	},
	"technical": {
		Settings: Settings{ChunkSize: 768, ChunkOverlap: 96, TopK: 5, MinScore: 0.35, Temperature: 0.3, ContextWindow: 6},
		SystemPrompt: "You are a technical documentation assistant. " + basePromptRules +
			" Prefer exact terminology from the context. If the context is insufficient, say so explicitly.",
	},
	"legal": {
		Settings: Settings{ChunkSize: 1024, ChunkOverlap: 128, TopK: 6, MinScore: 0.40, Temperature: 0.1, ContextWindow: 4},
		SystemPrompt: "You are a legal document assistant. " + basePromptRules +
			" Quote clauses verbatim where possible and never speculate beyond the provided text.",
	},
	"code": {
		Settings: Settings{ChunkSize: 640, ChunkOverlap: 80, TopK: 5, MinScore: 0.30, Temperature: 0.2, ContextWindow: 8},
		SystemPrompt: "You are a code assistant. " + basePromptRules +
			" Preserve identifiers and code formatting exactly as they appear in the context.",
	},
	"research": {
		Settings: Settings{ChunkSize: 896, ChunkOverlap: 128, TopK: 6, MinScore: 0.35, Temperature: 0.5, ContextWindow: 6},
		SystemPrompt: "You are a research assistant. " + basePromptRules +
			" Distinguish findings from methodology and note when sources disagree.",
	},
	"tabular": {
		Settings: Settings{ChunkSize: 384, ChunkOverlap: 32, TopK: 8, MinScore: 0.25, Temperature: 0.2, ContextWindow: 4},
		SystemPrompt: "You are a data assistant working over row-oriented records. " + basePromptRules +
			" Answer with the exact field values from the context; do not aggregate unless asked.",
	},
}

// PresetFor returns the preset registered under name, falling back to the
// default preset for unknown names.
func PresetFor(name string) Preset {
	if p, ok := presets[name]; ok {
		return p
	}
	return presets["default"]
}

// PresetNames lists all registered preset names.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	return names
}
