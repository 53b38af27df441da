// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"iter"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/github-profile/internal/domain"
)

// Kinds of gateway accepted by NewGateway.
const (
	KindREST    = "rest"
	KindGraphQL = "graphql"
)

const perPage = 100

// ProfileSource defines the behavior of a gateway for fetching profile data from GitHub.
type ProfileSource interface {
	FetchUser(ctx context.Context, username string) (*domain.User, error)
	// ListRepositories yields the user's repositories page by page.
	// The sequence can be ranged over once; it stops after the first error.
	ListRepositories(ctx context.Context, username string) iter.Seq2[*domain.Repository, error]
}

// RESTGateway is the ProfileSource backed by the GitHub REST API.
type RESTGateway struct {
	restClient *github.Client
	logger     *log.Logger
}

// NewGateway is a constructor that creates the ProfileSource named by kind.
// baseURL may be empty for github.com, or point at a GitHub Enterprise host.
func NewGateway(kind, token, baseURL string, logger *log.Logger) (ProfileSource, error) {
	httpClient, err := newHTTPClient(token)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindREST, "":
		restClient := github.NewClient(httpClient)
		if baseURL != "" {
			restClient, err = restClient.WithEnterpriseURLs(baseURL, baseURL)
			if err != nil {
				return nil, fmt.Errorf("failed to set enterprise URL: %w", err)
			}
		}
		return &RESTGateway{restClient: restClient, logger: logger}, nil
	case KindGraphQL:
		graphqlClient := githubv4.NewClient(httpClient)
		if baseURL != "" {
			endpoint, err := url.JoinPath(baseURL, "api", "graphql")
			if err != nil {
				return nil, fmt.Errorf("failed to build GraphQL endpoint: %w", err)
			}
			graphqlClient = githubv4.NewEnterpriseClient(endpoint, httpClient)
		}
		return &GraphQLGateway{graphqlClient: graphqlClient, logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown gateway kind %q", kind)
	}
}

func newHTTPClient(token string) (*http.Client, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}, nil
}

func (g *RESTGateway) FetchUser(ctx context.Context, username string) (*domain.User, error) {
	g.logger.Printf("[1/2] Fetching profile of %s using REST API...", username)
	u, _, err := g.restClient.Users.Get(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user with REST API: %w", classifyRESTError(err))
	}
	return &domain.User{
		Name:        nonEmpty(u.Name),
		Bio:         nonEmpty(u.Bio),
		Location:    nonEmpty(u.Location),
		PublicRepos: u.PublicRepos,
		Followers:   u.Followers,
		Email:       nonEmpty(u.Email),
		Company:     nonEmpty(u.Company),
		Blog:        nonEmpty(u.Blog),
		AvatarURL:   nonEmpty(u.AvatarURL),
	}, nil
}

func (g *RESTGateway) ListRepositories(ctx context.Context, username string) iter.Seq2[*domain.Repository, error] {
	return func(yield func(*domain.Repository, error) bool) {
		g.logger.Printf("[2/2] Fetching repositories of %s using REST API...", username)
		opts := &github.RepositoryListByUserOptions{
			Type:        "owner",
			ListOptions: github.ListOptions{PerPage: perPage},
		}
		for {
			repos, resp, err := g.restClient.Repositories.ListByUser(ctx, username, opts)
			if err != nil {
				yield(nil, fmt.Errorf("failed to list repositories with REST API: %w", classifyRESTError(err)))
				return
			}
			for _, repo := range repos {
				if !yield(&domain.Repository{
					Name:        repo.GetName(),
					Description: repo.Description,
					Stars:       repo.GetStargazersCount(),
					Language:    nonEmpty(repo.Language),
					URL:         repo.GetHTMLURL(),
				}, nil) {
					return
				}
			}
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
			g.logger.Println("  Fetching next page of repositories...")
		}
		g.logger.Println("Completed fetching repositories.")
	}
}

// nonEmpty treats an empty string the same as an absent field.
func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
