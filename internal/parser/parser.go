// Package parser extracts flashcards from markdown deck files. A card is a
// Q: line followed by an A: line and an optional T: tag line; blocks may
// span multiple lines and cards are separated by a new Q: or a --- rule.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Entry is one parsed card's content, before any scheduling state exists.
type Entry struct {
	Front string
	Back  string
	Tag   string
}

const (
	frontPrefix = "Q:"
	backPrefix  = "A:"
	tagPrefix   = "T:"
)

type state int

const (
	seeking state = iota
	readingFront
	readingBack
	readingTag
)

// ParseFile reads a deck file from the given path and extracts all entries.
func ParseFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads deck markup from r and extracts all entries. Entries without
// a front are dropped; a missing tag yields an empty Tag for the caller to
// fill from its source configuration.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var entries []Entry
	var current Entry
	var block []string
	st := seeking

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.Join(block, "\n")
		switch st {
		case readingFront:
			current.Front = content
		case readingBack:
			current.Back = content
		case readingTag:
			// Tags are single labels; collapse any stray newlines.
			current.Tag = strings.TrimSpace(strings.ReplaceAll(content, "\n", " "))
		}
		block = nil
	}

	finishEntry := func() {
		flushBlock()
		if current.Front != "" {
			entries = append(entries, current)
		}
		current = Entry{}
		st = seeking
	}

	stripPrefix := func(line, prefix string) string {
		content := line[len(prefix):]
		return strings.TrimPrefix(content, " ")
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "---":
			finishEntry()
		case strings.HasPrefix(line, frontPrefix):
			// A new front always starts a new card.
			if st != seeking {
				finishEntry()
			} else {
				flushBlock()
			}
			st = readingFront
			block = append(block, stripPrefix(line, frontPrefix))
		case strings.HasPrefix(line, backPrefix):
			flushBlock()
			st = readingBack
			block = append(block, stripPrefix(line, backPrefix))
		case strings.HasPrefix(line, tagPrefix):
			flushBlock()
			st = readingTag
			block = append(block, stripPrefix(line, tagPrefix))
		default:
			if st != seeking {
				block = append(block, line)
			}
		}
	}

	finishEntry() // Finish the very last card in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
