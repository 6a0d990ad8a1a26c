package trivia

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Question is one entry of the question pool.
type Question struct {
	Text   string `yaml:"question"`
	Answer string `yaml:"answer"`
}

// LoadQuestions reads a question pool from path. Files ending in .yaml or .yml are
// parsed as a YAML list; anything else is read as "question:answer" lines.
func LoadQuestions(path string) ([]Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open question file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(f)
	default:
		return ParseText(f)
	}
}

// ParseText parses "question:answer" lines. The line is split on the first colon;
// lines without a colon or with an empty side are skipped.
func ParseText(r io.Reader) ([]Question, error) {
	var questions []Question
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		text, answer, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		q := Question{Text: strings.TrimSpace(text), Answer: strings.TrimSpace(answer)}
		if q.Text == "" || q.Answer == "" {
			continue
		}
		questions = append(questions, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read questions: %w", err)
	}
	return questions, nil
}

// ParseYAML parses a YAML list of {question, answer} entries, skipping incomplete ones.
func ParseYAML(r io.Reader) ([]Question, error) {
	var raw []Question
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}

	questions := make([]Question, 0, len(raw))
	for _, q := range raw {
		q.Text = strings.TrimSpace(q.Text)
		q.Answer = strings.TrimSpace(q.Answer)
		if q.Text == "" || q.Answer == "" {
			continue
		}
		questions = append(questions, q)
	}
	return questions, nil
}
