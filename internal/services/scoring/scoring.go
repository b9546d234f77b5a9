package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/lead-marketplace/internal/models"
)

// Repository определяет методы хранилища для скоринга.
type Repository interface {
	// GetBorrowerFinancials возвращает финансовый профиль заёмщика.
	GetBorrowerFinancials(ctx context.Context, borrowerUID string) (*models.BorrowerFinancials, error)
	// GetLinguisticAnalysis возвращает лингвистический анализ, nil если его нет.
	GetLinguisticAnalysis(ctx context.Context, borrowerUID string) (*models.LinguisticAnalysis, error)
	// UpsertScoreProfile перезаписывает скоринговый профиль заёмщика.
	UpsertScoreProfile(ctx context.Context, profile models.ScoreProfile) error
	// GetScoreProfile возвращает сохранённый скоринговый профиль.
	GetScoreProfile(ctx context.Context, borrowerUID string) (*models.ScoreProfile, error)
}

// Cache описывает методы кэша скоринговых профилей.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service пересчитывает и отдаёт скоринговые профили.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создаёт новый экземпляр Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

func cacheKey(borrowerUID string) string {
	return fmt.Sprintf("score:%s", borrowerUID)
}

// Recompute пересчитывает профиль из актуальных входов и сохраняет его.
// Побочных эффектов, кроме записи профиля и инвалидации кэша, нет:
// ошибка означает некорректный вход и отдаётся вызывающему без ретраев.
func (s *Service) Recompute(ctx context.Context, borrowerUID string) (*models.ScoreProfile, error) {
	const op = "scoring.Recompute"

	financials, err := s.repo.GetBorrowerFinancials(ctx, borrowerUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	analysis, err := s.repo.GetLinguisticAnalysis(ctx, borrowerUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	profile := models.ScoreProfile{
		BorrowerUID:    borrowerUID,
		FinancialScore: FinancialScore(*financials),
		ComputedAt:     time.Now().UTC(),
	}
	if analysis != nil {
		profile.LinguisticScore = analysis.Score
		profile.IndicatorBonus = IndicatorBonus(analysis.Indicators)
	}
	profile.FinalScore = FinalScore(profile.FinancialScore, profile.LinguisticScore, profile.IndicatorBonus)

	if err := s.repo.UpsertScoreProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	key := cacheKey(borrowerUID)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to invalidate score cache", slog.String("key", key), slog.Any("err", err))
	}

	s.log.Info("recomputed score profile",
		slog.String("borrower_uid", borrowerUID),
		slog.Float64("final_score", profile.FinalScore))

	return &profile, nil
}

// Get возвращает сохранённый профиль, используя кэш.
func (s *Service) Get(ctx context.Context, borrowerUID string) (*models.ScoreProfile, error) {
	const op = "scoring.Get"

	var cached *models.ScoreProfile
	key := cacheKey(borrowerUID)
	found, err := s.cache.Get(key, &cached)
	if err != nil {
		s.log.Warn("score cache read failed", slog.String("key", key), slog.Any("err", err))
	}
	if found && cached != nil {
		return cached, nil
	}

	profile, err := s.repo.GetScoreProfile(ctx, borrowerUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(key, profile, time.Hour); err != nil {
		s.log.Warn("failed to cache score profile", slog.String("key", key), slog.Any("err", err))
	}
	return profile, nil
}
