package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadURLList reads the input file: a JSON array of URL strings. URLs are
// kept verbatim (they are the index keys); blank entries are rejected so a
// malformed list fails the run at startup rather than midway.
func LoadURLList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read url list %s: %w", path, err)
	}
	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, fmt.Errorf("parse url list %s: %w", path, err)
	}
	for i, u := range urls {
		if strings.TrimSpace(u) == "" {
			return nil, fmt.Errorf("url list %s: entry %d is blank", path, i)
		}
	}
	return urls, nil
}
