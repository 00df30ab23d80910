// Package parser extracts question/answer notes from markdown.
//
// A note starts at a line beginning with "Q:" and continues through optional
// "A:" and "C:" blocks. Lines without a prefix extend the current block. A
// line consisting of "---" ends the current note.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/knoldeck/internal/domain"
)

type field int

const (
	none field = iota
	question
	answer
	context
)

var prefixes = []struct {
	prefix string
	field  field
}{
	{"Q:", question},
	{"A:", answer},
	{"C:", context},
}

const separator = "---"

// ParseFile reads a file from the given path and extracts all notes.
func ParseFile(path string) ([]domain.Note, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

type noteBuilder struct {
	notes   []domain.Note
	current domain.Note
	field   field
	block   []string
}

// flush stores the pending block in the field being read.
func (b *noteBuilder) flush() {
	if len(b.block) == 0 {
		return
	}
	content := strings.TrimRight(strings.Join(b.block, "\n"), "\n")
	switch b.field {
	case question:
		b.current.Question = content
	case answer:
		b.current.Answer = content
	case context:
		b.current.Context = content
	}
	b.block = nil
}

// finish closes the current note. Notes without a question are dropped.
func (b *noteBuilder) finish() {
	b.flush()
	if b.current.Question != "" {
		b.notes = append(b.notes, b.current)
	}
	b.current = domain.Note{}
	b.field = none
}

func (b *noteBuilder) start(f field, rest string, lineNo int) {
	b.flush()
	if f == question {
		if b.field != none {
			b.finish()
		}
		b.current.Line = lineNo
	}
	b.field = f
	b.block = append(b.block, strings.TrimPrefix(rest, " "))
}

// Parse reads from an io.Reader and extracts all notes.
func Parse(r io.Reader) ([]domain.Note, error) {
	scanner := bufio.NewScanner(r)
	var b noteBuilder
	lineNo := 0

lines:
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if line == separator {
			b.finish()
			continue
		}
		for _, p := range prefixes {
			if rest, ok := strings.CutPrefix(line, p.prefix); ok {
				// Answers and context only count inside a note.
				if p.field == question || b.field != none {
					b.start(p.field, rest, lineNo)
				}
				continue lines
			}
		}
		if b.field != none {
			b.block = append(b.block, line)
		}
	}
	b.finish()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return b.notes, nil
}
