package moderation

import (
	"bufio"
	"bytes"
	"chat-relay/errors"
	"io/fs"
	"path"
	"strings"

	"github.com/samber/lo"
)

// Dictionary carries the loaded words and the languages they come from.
type Dictionary struct {
	Words     []string
	Languages []string
}

// Loader reads censored word lists, one .txt file per language.
type Loader struct {
	fs fs.FS
}

func NewLoader(f fs.FS) *Loader {
	return &Loader{fs: f}
}

// LoadAll parses every .txt file of dir into a unique list of words.
// extra words are merged in, typically coming from the configuration.
func (l *Loader) LoadAll(dir string, extra ...string) (*Dictionary, error) {
	entries, err := fs.ReadDir(l.fs, dir)
	if err != nil {
		return nil, err
	}

	var languages []string
	unique := make(map[string]struct{})
	for _, w := range extra {
		if w = strings.TrimSpace(w); w != "" {
			unique[strings.ToLower(w)] = struct{}{}
		}
	}

	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".txt" {
			continue
		}
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := fs.ReadFile(l.fs, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		// Scanner copes with \r\n line endings
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" && !strings.HasPrefix(line, "#") {
				unique[strings.ToLower(line)] = struct{}{}
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(unique) == 0 {
		return nil, errors.ErrEmptyWords
	}
	return &Dictionary{Words: lo.Keys(unique), Languages: languages}, nil
}
