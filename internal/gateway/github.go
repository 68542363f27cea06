// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/rs/zerolog"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/repo-insights/internal/domain"
)

// Fetcher defines the behavior of a gateway for fetching repository history.
// Implementations return raw records; validation happens in the domain layer.
type Fetcher interface {
	FetchMergedPullRequests(ctx context.Context, repo domain.Repository, dateRange domain.DateRange) ([]domain.RawPullRequest, error)
	FetchDeployments(ctx context.Context, repo domain.Repository, dateRange domain.DateRange) ([]domain.RawDeployment, error)
	FetchReleases(ctx context.Context, repo domain.Repository, dateRange domain.DateRange) ([]domain.RawDeployment, error)
	FetchTags(ctx context.Context, repo domain.Repository, dateRange domain.DateRange) ([]domain.RawDeployment, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        zerolog.Logger
}

// mergedPRQuery fetches the change counts and timestamps of merged pull requests.
type mergedPRQuery struct {
	Search struct {
		PageInfo struct {
			HasNextPage bool
			EndCursor   githubv4.String
		}
		Edges []struct {
			Node struct {
				Typename    string `graphql:"__typename"`
				PullRequest struct {
					Number       githubv4.Int
					CreatedAt    githubv4.DateTime
					MergedAt     *githubv4.DateTime
					Additions    githubv4.Int
					Deletions    githubv4.Int
					ChangedFiles githubv4.Int
				} `graphql:"... on PullRequest"`
			}
		}
	} `graphql:"search(query: $query, type: ISSUE, first: 50, after: $cursor)"`
}

// tagRefsQuery fetches tags with the date of the commit or annotation they point at.
type tagRefsQuery struct {
	Repository struct {
		Refs struct {
			PageInfo struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Nodes []struct {
				Name   string
				Target struct {
					Typename string `graphql:"__typename"`
					Commit   struct {
						CommittedDate githubv4.DateTime
					} `graphql:"... on Commit"`
					Tag struct {
						Tagger struct {
							Date githubv4.GitTimestamp
						}
					} `graphql:"... on Tag"`
				}
			}
		} `graphql:"refs(refPrefix: \"refs/tags/\", first: 100, after: $cursor)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, logger zerolog.Logger) (Fetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

// FetchMergedPullRequests searches merged pull requests with GraphQL.
func (g *GitHubGateway) FetchMergedPullRequests(ctx context.Context, repo domain.Repository, dateRange domain.DateRange) ([]domain.RawPullRequest, error) {
	query := fmt.Sprintf("repo:%s is:pr is:merged%s", repo.FullName(), dateRange.SearchQualifier("merged"))
	g.logger.Debug().Str("query", query).Msg("Fetching merged pull requests...")

	variables := map[string]interface{}{
		"query":  githubv4.String(query),
		"cursor": (*githubv4.String)(nil),
	}

	var prs []domain.RawPullRequest
	for {
		var q mergedPRQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to execute GraphQL query for pull requests: %w", err)
		}

		for _, edge := range q.Search.Edges {
			node := edge.Node.PullRequest
			if edge.Node.Typename != "PullRequest" || node.MergedAt == nil {
				continue // Skip if not a merged PR.
			}
			createdAt := node.CreatedAt.Format(time.RFC3339Nano)
			mergedAt := node.MergedAt.Format(time.RFC3339Nano)
			additions, deletions, changedFiles := int(node.Additions), int(node.Deletions), int(node.ChangedFiles)
			prs = append(prs, domain.RawPullRequest{
				Number:       int(node.Number),
				CreatedAt:    &createdAt,
				MergedAt:     &mergedAt,
				Additions:    &additions,
				Deletions:    &deletions,
				ChangedFiles: &changedFiles,
			})
		}

		if !q.Search.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Search.PageInfo.EndCursor)
		g.logger.Debug().Int("fetched", len(prs)).Msg("  Fetching next page of pull requests...")
	}
	g.logger.Info().Int("count", len(prs)).Msg("Completed fetching merged pull requests.")
	return prs, nil
}

// FetchDeployments lists deployments with the REST API. The endpoint has no date filter,
// so the range is applied client side.
func (g *GitHubGateway) FetchDeployments(ctx context.Context, repo domain.Repository, dateRange domain.DateRange) ([]domain.RawDeployment, error) {
	g.logger.Debug().Str("repo", repo.FullName()).Msg("Fetching deployments...")
	opts := &github.DeploymentsListOptions{ListOptions: github.ListOptions{PerPage: 100}}
	var deployments []domain.RawDeployment
	for {
		result, resp, err := g.restClient.Repositories.ListDeployments(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list deployments with REST API: %w", err)
		}
		for _, d := range result {
			createdAt := d.GetCreatedAt().Time
			if createdAt.IsZero() || !dateRange.Contains(createdAt) {
				continue
			}
			deployments = append(deployments, domain.RawDeployment{
				ID:        strconv.FormatInt(d.GetID(), 10),
				Timestamp: createdAt.Format(time.RFC3339Nano),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Debug().Msg("  Fetching next page of deployments...")
	}
	g.logger.Info().Int("count", len(deployments)).Msg("Completed fetching deployments.")
	return deployments, nil
}

// FetchReleases lists published releases. Drafts have no publish date and are skipped.
func (g *GitHubGateway) FetchReleases(ctx context.Context, repo domain.Repository, dateRange domain.DateRange) ([]domain.RawDeployment, error) {
	g.logger.Debug().Str("repo", repo.FullName()).Msg("Fetching releases...")
	opts := &github.ListOptions{PerPage: 100}
	var releases []domain.RawDeployment
	for {
		result, resp, err := g.restClient.Repositories.ListReleases(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list releases with REST API: %w", err)
		}
		for _, r := range result {
			publishedAt := r.GetPublishedAt().Time
			if r.GetDraft() || publishedAt.IsZero() || !dateRange.Contains(publishedAt) {
				continue
			}
			releases = append(releases, domain.RawDeployment{
				ID:        r.GetTagName(),
				Timestamp: publishedAt.Format(time.RFC3339Nano),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Debug().Msg("  Fetching next page of releases...")
	}
	g.logger.Info().Int("count", len(releases)).Msg("Completed fetching releases.")
	return releases, nil
}

// FetchTags lists tags with GraphQL, dated by their annotation or, for lightweight tags,
// by the commit they point at.
func (g *GitHubGateway) FetchTags(ctx context.Context, repo domain.Repository, dateRange domain.DateRange) ([]domain.RawDeployment, error) {
	g.logger.Debug().Str("repo", repo.FullName()).Msg("Fetching tags...")
	variables := map[string]interface{}{
		"owner":  githubv4.String(repo.Owner),
		"name":   githubv4.String(repo.Name),
		"cursor": (*githubv4.String)(nil),
	}

	var tags []domain.RawDeployment
	for {
		var q tagRefsQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to execute GraphQL query for tags: %w", err)
		}

		for _, node := range q.Repository.Refs.Nodes {
			var taggedAt time.Time
			switch node.Target.Typename {
			case "Tag":
				taggedAt = node.Target.Tag.Tagger.Date.Time
			case "Commit":
				taggedAt = node.Target.Commit.CommittedDate.Time
			}
			if taggedAt.IsZero() || !dateRange.Contains(taggedAt) {
				continue
			}
			tags = append(tags, domain.RawDeployment{
				ID:        node.Name,
				Timestamp: taggedAt.Format(time.RFC3339Nano),
			})
		}

		if !q.Repository.Refs.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Repository.Refs.PageInfo.EndCursor)
		g.logger.Debug().Msg("  Fetching next page of tags...")
	}
	g.logger.Info().Int("count", len(tags)).Msg("Completed fetching tags.")
	return tags, nil
}
