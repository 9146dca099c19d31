package segment

import (
	"errors"
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "paragraph break",
			input:    "Hello world.\n\nBye now!",
			expected: []string{"Hello world.", "Bye now!"},
		},
		{
			name:     "three short sentences",
			input:    "A. B. C.",
			expected: []string{"A.", "B.", "C."},
		},
		{
			name:     "whitespace collapsed inside sentence",
			input:    "  But its   blood\npulses\twith venom.  ",
			expected: []string{"But its blood pulses with venom."},
		},
		{
			name:     "question and exclamation runs",
			input:    "Really?! Yes. Wait...   Go on!",
			expected: []string{"Really?!", "Yes.", "Wait...", "Go on!"},
		},
		{
			name:     "quote after terminator",
			input:    `He said "stop." Then he left.`,
			expected: []string{`He said "stop."`, "Then he left."},
		},
		{
			name:     "lower-case continuation is not a boundary",
			input:    "It is made inside E. coli bacteria. Before 1978 it was not.",
			expected: []string{"It is made inside E. coli bacteria.", "Before 1978 it was not."},
		},
		{
			name:     "decimal numbers stay intact",
			input:    "About 1.5 percent of its weight. Every four weeks.",
			expected: []string{"About 1.5 percent of its weight.", "Every four weeks."},
		},
		{
			name:     "heading without punctuation",
			input:    "Biopharming\n\nSome practices go back millennia.",
			expected: []string{"Biopharming", "Some practices go back millennia."},
		},
		{
			name:     "single newline is just whitespace",
			input:    "The same goes\nfor most medicines.",
			expected: []string{"The same goes for most medicines."},
		},
		{
			name:     "blank lines with spaces",
			input:    "One.\n   \n\n\tTwo.",
			expected: []string{"One.", "Two."},
		},
		{
			name:     "no trailing punctuation",
			input:    "Tyrian purple was reserved for the elite",
			expected: []string{"Tyrian purple was reserved for the elite"},
		},
		{
			name:     "scene break without words is dropped",
			input:    "Hello there.\n\n* * *\n\nBye now.",
			expected: []string{"Hello there.", "Bye now."},
		},
		{
			name:     "lone dash paragraph is dropped",
			input:    "It ended.\n\n—\n\nThen silence.",
			expected: []string{"It ended.", "Then silence."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.input)
			if err != nil {
				t.Fatalf("Split() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Split(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSplitEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\n\t\n", "* * *\n\n...", "—"} {
		got, err := Split(input)
		if !errors.Is(err, ErrNoSentences) {
			t.Errorf("Split(%q) error = %v, want ErrNoSentences", input, err)
		}
		if got != nil {
			t.Errorf("Split(%q) = %q, want nil", input, got)
		}
	}
}

func TestSplitDeterministic(t *testing.T) {
	input := "Every year, over 700,000 horseshoe crabs are caught and bled. Their blood is used to test for contamination.\n\nSome of these practices go back millennia."

	var splitter Splitter = SentenceSplitter{}
	first, err := splitter.Split(input)
	if err != nil {
		t.Fatalf("Split() unexpected error: %v", err)
	}

	for i := 0; i < 5; i++ {
		again, _ := splitter.Split(input)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Split() not deterministic: %q vs %q", first, again)
		}
	}

	for _, s := range first {
		if s == "" {
			t.Error("Split() returned an empty sentence")
		}
	}
}
