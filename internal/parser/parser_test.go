package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/conorfennell/knoldeck/internal/domain"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []domain.Note
	}{
		{
			name:     "Simple Q&A",
			input:    "Q: What is the capital of France?\nA: Paris",
			expected: []domain.Note{{Question: "What is the capital of France?", Answer: "Paris", Line: 1}},
		},
		{
			name:     "Simple Q, A, and C",
			input:    "Q: What is 1+1?\nA: 2\nC: Basic arithmetic",
			expected: []domain.Note{{Question: "What is 1+1?", Answer: "2", Context: "Basic arithmetic", Line: 1}},
		},
		{
			name: "Multiline Answer",
			input: `
Q: What are the primary colors?
A: Red
Blue
Yellow
`,
			expected: []domain.Note{{Question: "What are the primary colors?", Answer: "Red\nBlue\nYellow", Line: 2}},
		},
		{
			name: "Two Cards",
			input: `
Q: First question
A: First answer

Q: Second question
A: Second answer
`,
			expected: []domain.Note{
				{Question: "First question", Answer: "First answer", Line: 2},
				{Question: "Second question", Answer: "Second answer", Line: 5},
			},
		},
		{
			name:  "Separator ends a note",
			input: "Q: One\nA: 1\n---\ntrailing prose\nQ: Two\nA: 2",
			expected: []domain.Note{
				{Question: "One", Answer: "1", Line: 1},
				{Question: "Two", Answer: "2", Line: 5},
			},
		},
		{
			name:     "Question without answer",
			input:    "Q: Unanswered",
			expected: []domain.Note{{Question: "Unanswered", Line: 1}},
		},
		{
			name:     "Answer outside a note is ignored",
			input:    "A: stray\nQ: Real\nA: yes",
			expected: []domain.Note{{Question: "Real", Answer: "yes", Line: 2}},
		},
		{
			name:     "CRLF line endings",
			input:    "Q: Windows?\r\nA: Yes\r\n",
			expected: []domain.Note{{Question: "Windows?", Answer: "Yes", Line: 1}},
		},
		{
			name:     "No cards, just text",
			input:    "This is a file with no questions.",
			expected: nil,
		},
		{
			name:     "Prefixes with no space",
			input:    "Q:Question\nA:Answer",
			expected: []domain.Note{{Question: "Question", Answer: "Answer", Line: 1}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			notes, err := Parse(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("Parse() returned an unexpected error: %v", err)
			}
			if len(notes) != len(tc.expected) {
				t.Fatalf("Expected %d notes, but got %d: %+v", len(tc.expected), len(notes), notes)
			}
			for i, want := range tc.expected {
				if notes[i] != want {
					t.Errorf("note %d: expected %+v, got %+v", i, want, notes[i])
				}
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.md")
	if err := os.WriteFile(path, []byte("Q: hola\nA: hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	notes, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() returned an unexpected error: %v", err)
	}
	if len(notes) != 1 || notes[0].Answer != "hello" {
		t.Errorf("unexpected notes: %+v", notes)
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
