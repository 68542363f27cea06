package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/naka-gawa/repo-insights/internal/domain"
)

// Snapshot is an exported copy of a repository's history, in the same shape the
// GitHub gateway produces. It lets the analytics run offline.
type Snapshot struct {
	PullRequests []domain.RawPullRequest `json:"pullRequests"`
	Deployments  []domain.RawDeployment  `json:"deployments"`
	Releases     []domain.RawDeployment  `json:"releases"`
	Tags         []domain.RawDeployment  `json:"tags"`
}

// SnapshotGateway serves records from a Snapshot. The repository argument is ignored;
// date ranges are left to the caller.
type SnapshotGateway struct {
	snapshot Snapshot
	logger   zerolog.Logger
}

// LoadSnapshot decodes a snapshot from r.
func LoadSnapshot(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return s, nil
}

// NewSnapshotGateway reads a snapshot from path, or from stdin when path is "-".
func NewSnapshotGateway(path string, logger zerolog.Logger) (Fetcher, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	s, err := LoadSnapshot(r)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Str("path", path).
		Int("pullRequests", len(s.PullRequests)).
		Int("deployments", len(s.Deployments)).
		Int("releases", len(s.Releases)).
		Int("tags", len(s.Tags)).
		Msg("Loaded snapshot")
	return &SnapshotGateway{snapshot: s, logger: logger}, nil
}

func (g *SnapshotGateway) FetchMergedPullRequests(ctx context.Context, _ domain.Repository, _ domain.DateRange) ([]domain.RawPullRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]domain.RawPullRequest(nil), g.snapshot.PullRequests...), nil
}

func (g *SnapshotGateway) FetchDeployments(ctx context.Context, _ domain.Repository, _ domain.DateRange) ([]domain.RawDeployment, error) {
	return copyDeployments(ctx, g.snapshot.Deployments)
}

func (g *SnapshotGateway) FetchReleases(ctx context.Context, _ domain.Repository, _ domain.DateRange) ([]domain.RawDeployment, error) {
	return copyDeployments(ctx, g.snapshot.Releases)
}

func (g *SnapshotGateway) FetchTags(ctx context.Context, _ domain.Repository, _ domain.DateRange) ([]domain.RawDeployment, error) {
	return copyDeployments(ctx, g.snapshot.Tags)
}

func copyDeployments(ctx context.Context, src []domain.RawDeployment) ([]domain.RawDeployment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]domain.RawDeployment(nil), src...), nil
}
