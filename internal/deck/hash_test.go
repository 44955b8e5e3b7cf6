package deck

import (
	"testing"

	"github.com/ogunacik/kartbox/internal/parser"
)

func TestNormalize(t *testing.T) {
	e := parser.Entry{
		Front: "  Who founded the Republic? \r\n",
		Back:  "Mustafa Kemal Atatürk.",
		Tag:   "Tarih",
	}
	expected := "who founded the republic?\nmustafa kemal atatürk.\ntarih"
	if got := Normalize(e); got != expected {
		t.Errorf("Expected normalized string '%s', got '%s'", expected, got)
	}
}

func TestHash(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := parser.Entry{Front: "Test"}
		b := parser.Entry{Front: "Test"}
		if Hash(a) != Hash(b) {
			t.Error("Expected identical entries to hash the same")
		}
	})

	t.Run("normalization produces same hash", func(t *testing.T) {
		a := parser.Entry{Front: "  what is go? ", Back: "A programming language."}
		b := parser.Entry{Front: "What Is Go?", Back: "A programming language."}
		if Hash(a) != Hash(b) {
			t.Error("Expected hashes to match after normalization")
		}
	})

	t.Run("different entries differ", func(t *testing.T) {
		a := parser.Entry{Front: "Card 1"}
		b := parser.Entry{Front: "Card 2"}
		if Hash(a) == Hash(b) {
			t.Error("Expected different entries to hash differently")
		}
	})

	t.Run("tag is part of identity", func(t *testing.T) {
		a := parser.Entry{Front: "Q", Back: "A", Tag: "pack-one"}
		b := parser.Entry{Front: "Q", Back: "A", Tag: "pack-two"}
		if Hash(a) == Hash(b) {
			t.Error("Expected the tag to change the hash")
		}
	})
}
