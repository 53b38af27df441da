package gateway

import (
	"context"
	"fmt"
	"iter"
	"log"

	"github.com/shurcooL/githubv4"

	"github.com/naka-gawa/github-profile/internal/domain"
)

// GraphQLGateway is the ProfileSource backed by the GitHub GraphQL API.
type GraphQLGateway struct {
	graphqlClient *githubv4.Client
	logger        *log.Logger
}

// userQuery fetches the profile fields in a single round trip.
type userQuery struct {
	User struct {
		Name         *string
		Bio          *string
		Location     *string
		Email        string
		Company      *string
		WebsiteURL   *string `graphql:"websiteUrl"`
		AvatarURL    string  `graphql:"avatarUrl"`
		Followers    struct{ TotalCount int }
		Repositories struct{ TotalCount int } `graphql:"repositories(privacy: PUBLIC, ownerAffiliations: [OWNER])"`
	} `graphql:"user(login: $login)"`
}

// repositoriesQuery pages through the repositories owned by a user.
type repositoriesQuery struct {
	User struct {
		Repositories struct {
			PageInfo struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Nodes []struct {
				Name            string
				Description     *string
				StargazerCount  int
				URL             string `graphql:"url"`
				PrimaryLanguage *struct {
					Name string
				}
			}
		} `graphql:"repositories(first: 100, after: $cursor, privacy: PUBLIC, ownerAffiliations: [OWNER])"`
	} `graphql:"user(login: $login)"`
}

func (g *GraphQLGateway) FetchUser(ctx context.Context, username string) (*domain.User, error) {
	g.logger.Printf("[1/2] Fetching profile of %s using GraphQL API...", username)
	var q userQuery
	variables := map[string]interface{}{"login": githubv4.String(username)}
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, fmt.Errorf("failed to execute GraphQL query for user: %w", classifyGraphQLError(err))
	}
	u := q.User
	return &domain.User{
		Name:        nonEmpty(u.Name),
		Bio:         nonEmpty(u.Bio),
		Location:    nonEmpty(u.Location),
		PublicRepos: &u.Repositories.TotalCount,
		Followers:   &u.Followers.TotalCount,
		Email:       nonEmpty(&u.Email),
		Company:     nonEmpty(u.Company),
		Blog:        nonEmpty(u.WebsiteURL),
		AvatarURL:   nonEmpty(&u.AvatarURL),
	}, nil
}

func (g *GraphQLGateway) ListRepositories(ctx context.Context, username string) iter.Seq2[*domain.Repository, error] {
	return func(yield func(*domain.Repository, error) bool) {
		g.logger.Printf("[2/2] Fetching repositories of %s using GraphQL API...", username)
		variables := map[string]interface{}{
			"login":  githubv4.String(username),
			"cursor": (*githubv4.String)(nil),
		}
		for {
			var q repositoriesQuery
			if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
				yield(nil, fmt.Errorf("failed to execute GraphQL query for repositories: %w", classifyGraphQLError(err)))
				return
			}
			for _, node := range q.User.Repositories.Nodes {
				repo := &domain.Repository{
					Name:        node.Name,
					Description: node.Description,
					Stars:       node.StargazerCount,
					URL:         node.URL,
				}
				if node.PrimaryLanguage != nil {
					repo.Language = nonEmpty(&node.PrimaryLanguage.Name)
				}
				if !yield(repo, nil) {
					return
				}
			}
			if !q.User.Repositories.PageInfo.HasNextPage {
				break
			}
			variables["cursor"] = githubv4.NewString(q.User.Repositories.PageInfo.EndCursor)
			g.logger.Println("  Fetching next page of repositories...")
		}
		g.logger.Println("Completed fetching repositories.")
	}
}
