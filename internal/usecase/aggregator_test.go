package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/github-profile/internal/domain"
)

// mockSource is a mock implementation of the gateway.ProfileSource interface.
// It allows us to simulate the behavior of the GitHub gateway without making real API calls.
type mockSource struct {
	mock.Mock
}

func (m *mockSource) FetchUser(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockSource) ListRepositories(ctx context.Context, username string) iter.Seq2[*domain.Repository, error] {
	args := m.Called(ctx, username)
	return args.Get(0).(iter.Seq2[*domain.Repository, error])
}

// onceSeq yields repos followed by err (if any) and fails the test if ranged over twice.
func onceSeq(t *testing.T, repos []*domain.Repository, err error) iter.Seq2[*domain.Repository, error] {
	consumed := false
	return func(yield func(*domain.Repository, error) bool) {
		if consumed {
			t.Error("repository sequence consumed more than once")
			return
		}
		consumed = true
		for _, repo := range repos {
			if !yield(repo, nil) {
				return
			}
		}
		if err != nil {
			yield(nil, err)
		}
	}
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func repo(name string, stars int, language string) *domain.Repository {
	r := &domain.Repository{Name: name, Stars: stars, URL: "https://github.com/octocat/" + name}
	if language != "" {
		r.Language = strPtr(language)
	}
	return r
}

func newTestAggregator(source *mockSource) *ProfileAggregator {
	return NewProfileAggregator(source, log.New(io.Discard, "", 0))
}

func topStars(result *domain.AnalysisResult) []int {
	stars := make([]int, 0, len(result.TopRepos))
	for _, r := range result.TopRepos {
		stars = append(stars, r.Stars)
	}
	return stars
}

func topNames(result *domain.AnalysisResult) []string {
	names := make([]string, 0, len(result.TopRepos))
	for _, r := range result.TopRepos {
		names = append(names, r.Name)
	}
	return names
}

func TestProfileAggregator_Aggregate(t *testing.T) {
	testCases := []struct {
		name              string
		user              *domain.User
		repos             []*domain.Repository
		expectedName      string
		expectedTotal     int
		expectedLanguages domain.LanguageHistogram
		expectedTopStars  []int
		expectedTopNames  []string
		expectedStarStats domain.StarStats
	}{
		{
			name: "happy path - mixed stars and languages",
			user: &domain.User{Name: strPtr("The Octocat"), Followers: intPtr(10), PublicRepos: intPtr(7)},
			repos: []*domain.Repository{
				repo("r0", 0, ""),
				repo("r1", 5, "Go"),
				repo("r2", 5, "Go"),
				repo("r3", 3, "Rust"),
				repo("r4", 0, ""),
				repo("r5", 10, "Go"),
				repo("r6", 1, "Python"),
			},
			expectedName:      "The Octocat",
			expectedTotal:     24,
			expectedLanguages: domain.LanguageHistogram{{Language: "Go", Count: 3}, {Language: "Rust", Count: 1}, {Language: "Python", Count: 1}},
			expectedTopStars:  []int{10, 5, 5, 3, 1},
			expectedTopNames:  []string{"r5", "r1", "r2", "r3", "r6"},
			expectedStarStats: domain.StarStats{Mean: 24.0 / 7.0, Median: 3},
		},
		{
			name:              "missing name falls back to the username",
			user:              &domain.User{},
			repos:             []*domain.Repository{},
			expectedName:      "octocat",
			expectedLanguages: domain.LanguageHistogram{},
			expectedTopStars:  []int{},
			expectedTopNames:  []string{},
		},
		{
			name:              "empty name falls back to the username",
			user:              &domain.User{Name: strPtr("")},
			repos:             []*domain.Repository{repo("only", 0, "Go")},
			expectedName:      "octocat",
			expectedLanguages: domain.LanguageHistogram{{Language: "Go", Count: 1}},
			expectedTopStars:  []int{},
			expectedTopNames:  []string{},
		},
		{
			name: "top repositories are truncated to five",
			user: &domain.User{Name: strPtr("x")},
			repos: []*domain.Repository{
				repo("a", 1, ""), repo("b", 2, ""), repo("c", 3, ""), repo("d", 4, ""),
				repo("e", 5, ""), repo("f", 6, ""), repo("g", 7, ""),
			},
			expectedName:      "x",
			expectedTotal:     28,
			expectedLanguages: domain.LanguageHistogram{},
			expectedTopStars:  []int{7, 6, 5, 4, 3},
			expectedTopNames:  []string{"g", "f", "e", "d", "c"},
			expectedStarStats: domain.StarStats{Mean: 4, Median: 4},
		},
		{
			name: "language ties keep first-seen order",
			user: &domain.User{Name: strPtr("x")},
			repos: []*domain.Repository{
				repo("a", 0, "Rust"), repo("b", 0, "Go"), repo("c", 0, "Go"),
				repo("d", 0, "Rust"), repo("e", 0, "C"),
			},
			expectedName:      "x",
			expectedLanguages: domain.LanguageHistogram{{Language: "Rust", Count: 2}, {Language: "Go", Count: 2}, {Language: "C", Count: 1}},
			expectedTopStars:  []int{},
			expectedTopNames:  []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			source := new(mockSource)
			source.On("FetchUser", mock.Anything, "octocat").Return(tc.user, nil)
			source.On("ListRepositories", mock.Anything, "octocat").Return(onceSeq(t, tc.repos, nil))

			result, err := newTestAggregator(source).Aggregate(context.Background(), "octocat")

			require.NoError(t, err)
			assert.Equal(t, tc.expectedName, result.Name)
			assert.Equal(t, tc.expectedTotal, result.TotalStars)
			assert.Equal(t, tc.expectedLanguages, result.Languages)
			assert.Equal(t, tc.expectedTopStars, topStars(result))
			assert.Equal(t, tc.expectedTopNames, topNames(result))
			assert.InDelta(t, tc.expectedStarStats.Mean, result.StarStats.Mean, 1e-9)
			assert.InDelta(t, tc.expectedStarStats.Median, result.StarStats.Median, 1e-9)
			assert.Equal(t, tc.user.Followers, result.Followers)
			assert.Equal(t, tc.user.PublicRepos, result.PublicRepos)
			source.AssertExpectations(t)
		})
	}
}

func TestProfileAggregator_Aggregate_Errors(t *testing.T) {
	testCases := []struct {
		name            string
		userErr         error
		repos           []*domain.Repository
		reposErr        error
		expectedKind    domain.ErrorKind
		expectedMessage string
	}{
		{
			name:            "user lookup fails with not found",
			userErr:         fmt.Errorf("failed to get user: %w", domain.ErrNotFound),
			expectedKind:    domain.UserNotFound,
			expectedMessage: "GitHub user 'octocat' not found or API error: failed to get user: not found",
		},
		{
			name:            "user lookup fails with a transport error",
			userErr:         errors.New("dial tcp: connection refused"),
			expectedKind:    domain.UserNotFound,
			expectedMessage: "GitHub user 'octocat' not found or API error: dial tcp: connection refused",
		},
		{
			name:            "user lookup rejects the credential",
			userErr:         fmt.Errorf("failed to get user: %w", domain.ErrBadCredentials),
			expectedKind:    domain.AuthenticationFailed,
			expectedMessage: "GitHub API authentication failed. Please check your token.",
		},
		{
			name:            "unclassified error mentioning 401 is not a credential rejection",
			userErr:         errors.New(`Get "https://api.github.com/users/dev-401": EOF`),
			expectedKind:    domain.UserNotFound,
			expectedMessage: `GitHub user 'octocat' not found or API error: Get "https://api.github.com/users/dev-401": EOF`,
		},
		{
			name:            "not found for a username containing 401",
			userErr:         fmt.Errorf("GET /users/octo401: 404 Not Found: %w", domain.ErrNotFound),
			expectedKind:    domain.UserNotFound,
			expectedMessage: "GitHub user 'octocat' not found or API error: GET /users/octo401: 404 Not Found: not found",
		},
		{
			name:            "deadline during user lookup",
			userErr:         fmt.Errorf("failed to get user: %w", context.DeadlineExceeded),
			expectedKind:    domain.UpstreamError,
			expectedMessage: "failed to get user: context deadline exceeded",
		},
		{
			name:            "repository listing fails mid-stream",
			repos:           []*domain.Repository{repo("a", 3, "Go")},
			reposErr:        errors.New("unexpected EOF"),
			expectedKind:    domain.UpstreamError,
			expectedMessage: "unexpected EOF",
		},
		{
			name:            "repository listing fails with an error mentioning 401",
			reposErr:        errors.New(`Get "https://api.github.com/users/dev-401/repos?page=2": EOF`),
			expectedKind:    domain.UpstreamError,
			expectedMessage: `Get "https://api.github.com/users/dev-401/repos?page=2": EOF`,
		},
		{
			name:            "repository listing rejects the credential",
			reposErr:        fmt.Errorf("failed to list: %w", domain.ErrBadCredentials),
			expectedKind:    domain.AuthenticationFailed,
			expectedMessage: "GitHub API authentication failed. Please check your token.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			source := new(mockSource)
			if tc.userErr != nil {
				source.On("FetchUser", mock.Anything, "octocat").Return(nil, tc.userErr)
			} else {
				source.On("FetchUser", mock.Anything, "octocat").Return(&domain.User{}, nil)
				source.On("ListRepositories", mock.Anything, "octocat").Return(onceSeq(t, tc.repos, tc.reposErr))
			}

			result, err := newTestAggregator(source).Aggregate(context.Background(), "octocat")

			assert.Nil(t, result)
			var aggErr *domain.AggregationError
			require.ErrorAs(t, err, &aggErr)
			assert.Equal(t, tc.expectedKind, aggErr.Kind)
			assert.Equal(t, tc.expectedMessage, aggErr.Message)
			source.AssertExpectations(t)
			if tc.userErr != nil {
				source.AssertNotCalled(t, "ListRepositories", mock.Anything, mock.Anything)
			}
		})
	}
}

// TestProfileAggregator_Properties checks the aggregation invariants over random repository lists.
func TestProfileAggregator_Properties(t *testing.T) {
	languages := []string{"", "Go", "Rust", "Python", "C"}
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 200; i++ {
		n := rng.IntN(20)
		repos := make([]*domain.Repository, n)
		sum := 0
		wantLang := make(map[string]int)
		for j := range repos {
			stars := rng.IntN(6)
			lang := languages[rng.IntN(len(languages))]
			repos[j] = repo(fmt.Sprintf("r%d", j), stars, lang)
			sum += stars
			if lang != "" {
				wantLang[lang]++
			}
		}

		source := new(mockSource)
		source.On("FetchUser", mock.Anything, "octocat").Return(&domain.User{}, nil)
		source.On("ListRepositories", mock.Anything, "octocat").Return(onceSeq(t, repos, nil))

		result, err := newTestAggregator(source).Aggregate(context.Background(), "octocat")
		require.NoError(t, err)

		assert.Equal(t, sum, result.TotalStars)

		require.LessOrEqual(t, len(result.TopRepos), topRepoLimit)
		position := make(map[string]int, n)
		for j, r := range repos {
			position[r.Name] = j
		}
		for j, r := range result.TopRepos {
			assert.Positive(t, r.Stars)
			if j > 0 {
				prev := result.TopRepos[j-1]
				assert.GreaterOrEqual(t, prev.Stars, r.Stars)
				if prev.Stars == r.Stars {
					assert.Less(t, position[prev.Name], position[r.Name])
				}
			}
		}

		assert.Len(t, result.Languages, len(wantLang))
		for lang, count := range wantLang {
			assert.Equal(t, count, result.Languages.Count(lang))
		}
		for j := 1; j < len(result.Languages); j++ {
			assert.GreaterOrEqual(t, result.Languages[j-1].Count, result.Languages[j].Count)
		}
	}
}

// staticSource serves a fixed profile to many concurrent callers.
type staticSource struct {
	repos []*domain.Repository
}

func (s staticSource) FetchUser(ctx context.Context, username string) (*domain.User, error) {
	return &domain.User{}, nil
}

func (s staticSource) ListRepositories(ctx context.Context, username string) iter.Seq2[*domain.Repository, error] {
	return func(yield func(*domain.Repository, error) bool) {
		for _, r := range s.repos {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func TestProfileAggregator_ConcurrentCalls(t *testing.T) {
	source := staticSource{repos: []*domain.Repository{repo("a", 2, "Go"), repo("b", 3, "Go"), repo("c", 0, "C")}}
	aggregator := NewProfileAggregator(source, log.New(io.Discard, "", 0))

	var eg errgroup.Group
	results := make([]*domain.AnalysisResult, 16)
	for i := range results {
		eg.Go(func() error {
			var err error
			results[i], err = aggregator.Aggregate(context.Background(), fmt.Sprintf("user-%d", i))
			return err
		})
	}
	require.NoError(t, eg.Wait())

	for i, result := range results {
		assert.Equal(t, fmt.Sprintf("user-%d", i), result.Name)
		assert.Equal(t, 5, result.TotalStars)
		assert.Equal(t, domain.LanguageHistogram{{Language: "Go", Count: 2}, {Language: "C", Count: 1}}, result.Languages)
		assert.Equal(t, []string{"b", "a"}, topNames(result))
	}
}
