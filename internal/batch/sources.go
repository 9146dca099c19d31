package batch

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadSourceList reads the articles to read aloud from a file.
// One source per line: a URL, a file path or "-" for stdin.
// Blank lines and lines starting with "#" are skipped, and a " #" starts a
// trailing comment.
func ReadSourceList(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read source list: %w", err)
	}
	defer f.Close()

	var sources []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if source := parseLine(scanner.Text()); source != "" {
			sources = append(sources, source)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source list: %w", err)
	}

	return sources, nil
}

func parseLine(line string) string {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return ""
	}
	// URLs may carry a fragment, so only a space-separated "#" is a comment
	if i := strings.Index(line, " #"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
