package sequencer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	patternExt      = ".mid"
	timestampLayout = "2006-01-02_15-04-05"
)

// PatternInfo describes a saved pattern file (for listing)
type PatternInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
}

// PatternsDir returns the default patterns directory path
func PatternsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-morp", "patterns"), nil
}

// ListPatterns returns the timestamped pattern files in dir, newest first
func ListPatterns(dir string) ([]PatternInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []PatternInfo{}, nil
		}
		return nil, err
	}

	var patterns []PatternInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), patternExt) {
			continue
		}
		if info, ok := parsePatternFilename(entry.Name()); ok {
			patterns = append(patterns, info)
		}
	}

	sort.Slice(patterns, func(i, j int) bool {
		return patterns[i].Timestamp.After(patterns[j].Timestamp)
	})
	return patterns, nil
}

// parsePatternFilename reads 2024-01-15_14-30-00.mid or 2024-01-15_14-30-00_name.mid
func parsePatternFilename(filename string) (PatternInfo, bool) {
	base := strings.TrimSuffix(filename, patternExt)
	if len(base) < len(timestampLayout) {
		return PatternInfo{}, false
	}
	ts, err := time.ParseInLocation(timestampLayout, base[:len(timestampLayout)], time.Local)
	if err != nil {
		return PatternInfo{}, false
	}
	info := PatternInfo{Filename: filename, Timestamp: ts}
	if rest := base[len(timestampLayout):]; len(rest) > 1 && rest[0] == '_' {
		info.Name = rest[1:]
	}
	return info, true
}

// SavePattern writes p into dir under a timestamped filename and returns its path
func SavePattern(dir, name string, p Pattern, m Meter) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating pattern dir: %w", err)
	}

	filename := time.Now().Format(timestampLayout)
	if name = sanitizeFilename(strings.TrimSpace(name)); name != "" {
		filename += "_" + name
	}
	path := filepath.Join(dir, filename+patternExt)
	if err := WritePatternFile(path, p, m); err != nil {
		return "", err
	}
	return path, nil
}

// LoadLatestPattern reads the newest pattern in dir
func LoadLatestPattern(dir string) (Pattern, Meter, error) {
	patterns, err := ListPatterns(dir)
	if err != nil {
		return Pattern{}, Meter{}, err
	}
	if len(patterns) == 0 {
		return Pattern{}, Meter{}, fmt.Errorf("no patterns found in %s", dir)
	}
	return ReadPatternFile(filepath.Join(dir, patterns[0].Filename))
}

// DeletePattern removes a pattern file from dir
func DeletePattern(dir, filename string) error {
	return os.Remove(filepath.Join(dir, filename))
}

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, " ", "-")
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '-'
		case '*', '?', '"', '<', '>', '|':
			return -1
		}
		return r
	}, name)
}
