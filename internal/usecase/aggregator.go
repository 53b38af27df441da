// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"log"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/github-profile/internal/domain"
	"github.com/naka-gawa/github-profile/internal/gateway"
)

// topRepoLimit is the number of repositories kept in AnalysisResult.TopRepos.
const topRepoLimit = 5

// ProfileAggregator is the use case for analysing a GitHub profile.
// It holds no per-call state and may be shared between goroutines.
type ProfileAggregator struct {
	source gateway.ProfileSource
	logger *log.Logger
}

// NewProfileAggregator creates a new ProfileAggregator instance.
func NewProfileAggregator(source gateway.ProfileSource, logger *log.Logger) *ProfileAggregator {
	return &ProfileAggregator{
		source: source,
		logger: logger,
	}
}

// Aggregate fetches the profile and repositories of username and reduces them
// into an AnalysisResult. Any returned error is a *domain.AggregationError;
// no partial result is returned alongside it.
// The caller is expected to have rejected an empty username.
func (a *ProfileAggregator) Aggregate(ctx context.Context, username string) (*domain.AnalysisResult, error) {
	a.logger.Printf("Usecase: Starting profile aggregation for %s...", username)

	user, err := a.source.FetchUser(ctx, username)
	if err != nil {
		return nil, classifyUserError(username, err)
	}

	var (
		totalStars int
		allStars   []int
		candidates []domain.RepositorySummary
		histogram  domain.LanguageHistogram
		langIndex  = make(map[string]int)
	)
	for repo, err := range a.source.ListRepositories(ctx, username) {
		if err != nil {
			return nil, classifyRepositoryError(err)
		}
		totalStars += repo.Stars
		allStars = append(allStars, repo.Stars)

		if repo.Language != nil && *repo.Language != "" {
			if i, ok := langIndex[*repo.Language]; ok {
				histogram[i].Count++
			} else {
				langIndex[*repo.Language] = len(histogram)
				histogram = append(histogram, domain.LanguageCount{Language: *repo.Language, Count: 1})
			}
		}

		if repo.Stars > 0 {
			candidates = append(candidates, domain.RepositorySummary{
				Name:        repo.Name,
				Description: repo.Description,
				Stars:       repo.Stars,
				Language:    repo.Language,
				URL:         repo.URL,
			})
		}
	}
	a.logger.Printf("Usecase: Processed %d repositories.", len(allStars))

	return &domain.AnalysisResult{
		Name:        displayName(user, username),
		Bio:         user.Bio,
		Location:    user.Location,
		PublicRepos: user.PublicRepos,
		Followers:   user.Followers,
		TotalStars:  totalStars,
		Languages:   rankLanguages(histogram),
		TopRepos:    topRepositories(candidates, topRepoLimit),
		StarStats:   starStats(allStars),
		Email:       user.Email,
		Company:     user.Company,
		Blog:        user.Blog,
		AvatarURL:   user.AvatarURL,
	}, nil
}

// topRepositories orders candidates by stars, keeping encounter order on ties,
// and keeps at most limit of them.
func topRepositories(candidates []domain.RepositorySummary, limit int) []domain.RepositorySummary {
	sorted := make([]domain.RepositorySummary, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Stars > sorted[j].Stars
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// rankLanguages orders the histogram by count, keeping first-seen order on ties.
func rankLanguages(histogram domain.LanguageHistogram) domain.LanguageHistogram {
	ranked := make(domain.LanguageHistogram, len(histogram))
	copy(ranked, histogram)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}

func starStats(allStars []int) domain.StarStats {
	if len(allStars) == 0 {
		return domain.StarStats{}
	}
	data := make(stats.Float64Data, len(allStars))
	for i, n := range allStars {
		data[i] = float64(n)
	}
	// Both only fail on empty input.
	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	return domain.StarStats{Mean: mean, Median: median}
}

func displayName(user *domain.User, username string) string {
	if user.Name == nil || *user.Name == "" {
		return username
	}
	return *user.Name
}

func classifyUserError(username string, err error) *domain.AggregationError {
	switch {
	case isContextError(err):
		return domain.NewUpstreamError(err)
	case isAuthFailure(err):
		return domain.NewAuthenticationFailed(err)
	default:
		return domain.NewUserNotFound(username, err)
	}
}

func classifyRepositoryError(err error) *domain.AggregationError {
	if !isContextError(err) && isAuthFailure(err) {
		return domain.NewAuthenticationFailed(err)
	}
	return domain.NewUpstreamError(err)
}

func isContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// isAuthFailure reports whether the data source rejected the credential.
// Sources signal this by wrapping domain.ErrBadCredentials.
func isAuthFailure(err error) bool {
	return errors.Is(err, domain.ErrBadCredentials)
}
