package vault

import (
	"context"
	"sort"
	"strings"

	"github.com/nberglund/othala/internal/markdown"
	"github.com/nberglund/othala/internal/models"
)

// LineMatch is one matching line with its surrounding context window.
type LineMatch struct {
	LineNumber int    `json:"line_number"`
	Line       string `json:"line"`
	Context    string `json:"context"`
}

// FileMatches aggregates the matches found in a single file.
type FileMatches struct {
	Path       string      `json:"file_path"`
	MatchCount int         `json:"match_count"`
	Matches    []LineMatch `json:"matches"`
}

// SearchResult is the payload of a text search across the vault.
type SearchResult struct {
	Query         string        `json:"query"`
	CaseSensitive bool          `json:"case_sensitive"`
	Matches       []FileMatches `json:"matches"`
	FileCount     int           `json:"file_count"`
}

// RecentResult is the payload of a recency query.
type RecentResult struct {
	Files         []models.FileInfo `json:"files"`
	Count         int               `json:"count"`
	Days          int               `json:"days"`
	TotalMatching int               `json:"total_matching"`
}

// TagMatch is one file carrying the queried tag.
type TagMatch struct {
	Path string   `json:"file_path"`
	Tags []string `json:"tags"`
}

// TagResult is the payload of a tag search.
type TagResult struct {
	Tag     string     `json:"tag"`
	Matches []TagMatch `json:"matches"`
	Count   int        `json:"count"`
}

// SearchVault performs a substring search over every .md file in the
// vault. There is no persistent index: each call scans the tree, which is
// acceptable for personal-vault sizes. Files that cannot be read are
// skipped. At most maxMatchesPerFile detailed matches are reported per
// file; MatchCount always reflects the full count.
func (s *Service) SearchVault(_ context.Context, query string, caseSensitive bool) (SearchResult, error) {
	infos, err := s.store.List("", true)
	if err != nil {
		return SearchResult{}, err
	}

	needle := query
	if !caseSensitive {
		needle = strings.ToLower(needle)
	}

	result := SearchResult{Query: query, CaseSensitive: caseSensitive}
	for _, fi := range infos {
		data, readErr := s.store.Read(fi.Path)
		if readErr != nil {
			continue
		}
		content := string(data)
		haystack := content
		if !caseSensitive {
			haystack = strings.ToLower(haystack)
		}
		if !strings.Contains(haystack, needle) {
			continue
		}

		lines := strings.Split(content, "\n")
		fm := FileMatches{Path: fi.Path}
		for i, line := range lines {
			check := line
			if !caseSensitive {
				check = strings.ToLower(check)
			}
			if !strings.Contains(check, needle) {
				continue
			}
			fm.MatchCount++
			if len(fm.Matches) >= maxMatchesPerFile {
				continue
			}
			start := max(0, i-searchContextLines)
			end := min(len(lines), i+searchContextLines+1)
			fm.Matches = append(fm.Matches, LineMatch{
				LineNumber: i + 1,
				Line:       line,
				Context:    strings.Join(lines[start:end], "\n"),
			})
		}
		if fm.MatchCount > 0 {
			result.Matches = append(result.Matches, fm)
		}
	}
	result.FileCount = len(result.Matches)
	return result, nil
}

// GetRecentFiles returns the most recently modified files within the
// given day window, newest first. Non-positive limit and days fall back
// to the documented defaults.
func (s *Service) GetRecentFiles(_ context.Context, limit, days int) (RecentResult, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if days <= 0 {
		days = DefaultRecentDays
	}

	infos, err := s.store.List("", true)
	if err != nil {
		return RecentResult{}, err
	}

	cutoff := s.now().AddDate(0, 0, -days)
	var recent []models.FileInfo
	for _, fi := range infos {
		if !fi.ModTime.Before(cutoff) {
			recent = append(recent, fi)
		}
	}
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].ModTime.After(recent[j].ModTime)
	})

	total := len(recent)
	if len(recent) > limit {
		recent = recent[:limit]
	}
	return RecentResult{
		Files:         recent,
		Count:         len(recent),
		Days:          days,
		TotalMatching: total,
	}, nil
}

// SearchByTag returns every file whose tag set (inline #tags plus the
// frontmatter tags key) contains tag. A leading '#' on the query is
// stripped.
func (s *Service) SearchByTag(_ context.Context, tag string) (TagResult, error) {
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")

	infos, err := s.store.List("", true)
	if err != nil {
		return TagResult{}, err
	}

	result := TagResult{Tag: tag}
	for _, fi := range infos {
		data, readErr := s.store.Read(fi.Path)
		if readErr != nil {
			continue
		}
		tags := markdown.Tags(string(data))
		for _, t := range tags {
			if t == tag {
				result.Matches = append(result.Matches, TagMatch{Path: fi.Path, Tags: tags})
				break
			}
		}
	}
	result.Count = len(result.Matches)
	return result, nil
}
