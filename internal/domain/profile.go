// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"bytes"
	"encoding/json"
)

// User is the profile record returned by a data source.
// Every field is optional upstream, so every field is a pointer.
type User struct {
	Name        *string
	Bio         *string
	Location    *string
	PublicRepos *int
	Followers   *int
	Email       *string
	Company     *string
	Blog        *string
	AvatarURL   *string
}

// Repository is a single repository record returned by a data source.
type Repository struct {
	Name        string
	Description *string
	Stars       int
	Language    *string
	URL         string
}

// RepositorySummary is the presentation form of a ranked repository.
type RepositorySummary struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Stars       int     `json:"stars"`
	Language    *string `json:"language"`
	URL         string  `json:"url"`
}

// LanguageCount is one entry of a LanguageHistogram.
type LanguageCount struct {
	Language string
	Count    int
}

// LanguageHistogram maps a primary language to the number of repositories using it.
// The slice order is the display order; it serialises as a JSON object
// whose keys appear in that order.
type LanguageHistogram []LanguageCount

// Count returns the number of repositories for the given language.
func (h LanguageHistogram) Count(language string) int {
	for _, lc := range h {
		if lc.Language == language {
			return lc.Count
		}
	}
	return 0
}

// MarshalJSON writes the histogram as an ordered JSON object.
func (h LanguageHistogram) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, lc := range h {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(lc.Language)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(lc.Count)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// StarStats holds per-repository star distribution figures.
type StarStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// AnalysisResult is the aggregated view of a user's profile and repositories.
// It is the core domain entity of this application.
type AnalysisResult struct {
	Name        string              `json:"name"`
	Bio         *string             `json:"bio"`
	Location    *string             `json:"location"`
	PublicRepos *int                `json:"public_repos"`
	Followers   *int                `json:"followers"`
	TotalStars  int                 `json:"total_stars"`
	Languages   LanguageHistogram   `json:"languages"`
	TopRepos    []RepositorySummary `json:"top_repos"`
	StarStats   StarStats           `json:"star_stats"`
	Email       *string             `json:"email"`
	Company     *string             `json:"company"`
	Blog        *string             `json:"blog"`
	AvatarURL   *string             `json:"avatar_url"`
}
