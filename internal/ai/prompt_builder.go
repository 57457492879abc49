package ai

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	decomposeFile = "decompose.txt"
	phraseFile    = "phrase.txt"

	fallbackDecompose = "Break down this task: {{task}} into a JSON list of strings."
	fallbackPhrase    = "Rephrase: {{subtask}} size: {{size}}"
)

// Prompts reads the templates from disk on every call so they can be edited
// while the server runs.
type Prompts struct {
	dir    string
	logger *zap.Logger
}

func NewPrompts(dir string, logger *zap.Logger) *Prompts {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prompts{dir: dir, logger: logger}
}

func (p *Prompts) Decompose(task string) string {
	tmpl := p.load(decomposeFile, fallbackDecompose)
	return strings.ReplaceAll(tmpl, "{{task}}", task)
}

func (p *Prompts) Phrase(subtask, size string) string {
	tmpl := p.load(phraseFile, fallbackPhrase)
	out := strings.ReplaceAll(tmpl, "{{subtask}}", subtask)
	return strings.ReplaceAll(out, "{{size}}", size)
}

func (p *Prompts) load(name, fallback string) string {
	if p.dir == "" {
		return fallback
	}

	b, err := os.ReadFile(filepath.Join(p.dir, name))
	if err != nil {
		p.logger.Warn("prompt template unavailable, using fallback", zap.String("file", name), zap.Error(err))
		return fallback
	}
	if strings.TrimSpace(string(b)) == "" {
		return fallback
	}
	return string(b)
}
