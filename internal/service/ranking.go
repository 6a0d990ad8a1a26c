// Package service provides business logic on top of the score ledger.
package service

import (
	"context"
	"fmt"
	"sort"

	"harvester-bot/internal/model"
	"harvester-bot/internal/repository"
)

// DefaultPageSize is the number of leaderboard rows per page.
const DefaultPageSize = 10

// RankedScore is a score with its 1-based position on the leaderboard.
type RankedScore struct {
	Rank int
	model.Score
}

// LeaderboardPage is one page of the leaderboard.
type LeaderboardPage struct {
	Page    int
	Entries []RankedScore
	HasPrev bool
	HasNext bool
}

// Empty reports whether the page has no rows.
func (p LeaderboardPage) Empty() bool {
	return len(p.Entries) == 0
}

// RankingService handles ranking and leaderboard operations.
type RankingService struct {
	scores   repository.ScoreRepository
	pageSize int
}

// NewRankingService creates a new RankingService instance.
func NewRankingService(scores repository.ScoreRepository, pageSize int) *RankingService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &RankingService{scores: scores, pageSize: pageSize}
}

// Rank orders scores by points descending. Equal scores keep their ledger order.
func Rank(scores []model.Score) []RankedScore {
	sorted := make([]model.Score, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Points > sorted[j].Points
	})

	out := make([]RankedScore, len(sorted))
	for i, s := range sorted {
		out[i] = RankedScore{Rank: i + 1, Score: s}
	}
	return out
}

// Paginate cuts page (0-based) out of ranked. Pages past the end are empty.
func Paginate(ranked []RankedScore, page, pageSize int) LeaderboardPage {
	if page < 0 {
		page = 0
	}
	start := page * pageSize
	end := start + pageSize
	p := LeaderboardPage{Page: page, HasPrev: page > 0}
	if start >= len(ranked) {
		return p
	}
	if end > len(ranked) {
		end = len(ranked)
	}
	p.Entries = ranked[start:end]
	p.HasNext = end < len(ranked)
	return p
}

// GetPage returns one page of the leaderboard.
func (s *RankingService) GetPage(ctx context.Context, page int) (LeaderboardPage, error) {
	all, err := s.scores.All(ctx)
	if err != nil {
		return LeaderboardPage{}, fmt.Errorf("failed to load scores: %w", err)
	}
	return Paginate(Rank(all), page, s.pageSize), nil
}

// GetScore returns a single user's score.
func (s *RankingService) GetScore(ctx context.Context, userID int64) (int64, error) {
	return s.scores.Get(ctx, userID)
}
