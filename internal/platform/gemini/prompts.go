package gemini

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/phrazzld/scry-lexicon/internal/generation"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var promptTemplates = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

// templateFor returns the template name used for task.
func templateFor(task generation.Task) (string, error) {
	switch task {
	case generation.TaskTranslation:
		return "translation.tmpl", nil
	case generation.TaskSentences:
		return "sentences.tmpl", nil
	default:
		return "", fmt.Errorf("unsupported task %q", task)
	}
}

// renderPrompt executes the template of req's task.
func renderPrompt(req generation.Request, outputCount int) (string, error) {
	name, err := templateFor(req.Params.Task)
	if err != nil {
		return "", err
	}

	data := promptData{
		PrimaryText: req.PrimaryText,
		Context:     req.Context,
		SourceLang:  req.Params.SourceLang,
		TargetLang:  req.Params.TargetLang,
		OutputCount: outputCount,
		Level:       req.Params.Level,
	}

	var buf bytes.Buffer
	if err := promptTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template %s: %w", name, err)
	}
	return buf.String(), nil
}
