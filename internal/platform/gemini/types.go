package gemini

import "google.golang.org/genai"

// promptData represents the data passed to the prompt templates.
type promptData struct {
	PrimaryText string
	Context     string
	SourceLang  string
	TargetLang  string
	OutputCount int
	Level       string
}

// ResponseSchema represents the expected JSON body of a Gemini response.
type ResponseSchema struct {
	Items []ItemSchema `json:"items"`
}

// ItemSchema represents a single generated item in the response.
type ItemSchema struct {
	// Text is the translation or sentence.
	Text string `json:"text"`

	// Quality is an optional label such as "common", "formal" or "rare".
	Quality string `json:"quality,omitempty"`
}

// responseSchema is the structured output schema sent with every request.
var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"items": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"text":    {Type: genai.TypeString},
					"quality": {Type: genai.TypeString},
				},
				Required: []string{"text"},
			},
		},
	},
	Required: []string{"items"},
}
