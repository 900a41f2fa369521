// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

package recommend

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/okhomenko/moodflick/internal/learning"
	"github.com/okhomenko/moodflick/internal/models"
	"github.com/okhomenko/moodflick/internal/rationale"
	"github.com/okhomenko/moodflick/internal/tags"
)

// Deps bundles the engine's collaborators.
type Deps struct {
	Catalog    CatalogStore
	Selections SelectionStore
	Weights    WeightSource
	Excluder   Excluder
	Events     EventLogger
	Rationales *rationale.Generator

	// Translator is optional; nil disables LLM hint translation.
	Translator HintTranslator
}

// Engine selects one item per request using tag matching, learned
// weights, and epsilon-greedy exploration. Stateless between requests:
// all persistence goes through its stores, so concurrent requests are
// safe.
type Engine struct {
	cfg        Config
	catalog    CatalogStore
	selections SelectionStore
	weights    WeightSource
	excluder   Excluder
	events     EventLogger
	translator HintTranslator
	rationales *rationale.Generator
	logger     zerolog.Logger
	now        func() time.Time
}

// NewEngine creates a recommendation engine.
func NewEngine(cfg Config, deps Deps, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recommend config: %w", err)
	}
	return &Engine{
		cfg:        cfg,
		catalog:    deps.Catalog,
		selections: deps.Selections,
		weights:    deps.Weights,
		excluder:   deps.Excluder,
		events:     deps.Events,
		translator: deps.Translator,
		rationales: deps.Rationales,
		logger:     logger.With().Str("component", "recommend").Logger(),
		now:        time.Now,
	}, nil
}

// Recommend produces one recommendation for the request, or (nil, nil)
// when no eligible candidates exist.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Result, error) {
	mode := req.Mode
	if mode == "" {
		mode = models.ModeNormal
	}

	hint := tags.ParseHint(req.Answers.Hint)
	if req.Answers.Hint != "" && e.translator != nil {
		keywords, err := e.translator.TranslateHintKeywords(ctx, req.Answers.Hint)
		if err != nil {
			e.logger.Debug().Err(err).Msg("hint translation unavailable")
		} else {
			hint.LLMKeywords = append(hint.LLMKeywords, keywords...)
		}
	}

	// Hint overrides beat button answers; defaults fill the rest.
	effective := req.Answers.Apply(hint.Overrides).WithDefaults()

	var (
		delta          *models.DeltaInfo
		deltaExplainer string
	)
	if mode == models.ModeAnother && req.LastContext != nil {
		delta, effective, deltaExplainer = e.applyAnotherDelta(effective, req.LastContext)
	}

	excluded, err := e.excluder.ExcludedItemIDs(ctx, req.UserID, req.ExcludeItemIDs, e.cfg.AntiRepeatDays)
	if err != nil {
		return nil, fmt.Errorf("build exclusion set: %w", err)
	}

	candidates, err := e.fetchCandidates(ctx, effective.Format, excluded)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	if len(candidates) == 0 {
		e.logger.Warn().
			Str("user_id", req.UserID).
			Str("item_type", effective.Format).
			Msg("no candidates available")
		return nil, nil
	}

	seed := deterministicSeed(req.UserID, mode, e.now())
	rng := rand.New(rand.NewSource(seed))

	userWeight, err := e.weights.Weight(ctx, req.UserID, tags.ContextKey(effective))
	if err != nil {
		return nil, fmt.Errorf("lookup user weight: %w", err)
	}

	scored := e.scoreCandidates(candidates, effective, userWeight, seed, hint)
	if len(scored) == 0 {
		e.logger.Warn().
			Str("user_id", req.UserID).
			Msg("no candidates survived scoring")
		return nil, nil
	}

	selected := EpsilonGreedy(scored, e.cfg.Epsilon, e.cfg.TopK, rng)

	sel := &models.Selection{
		ID:     uuid.NewString(),
		UserID: req.UserID,
		ItemID: selected.Item.ID,
		Context: models.SelectionContext{
			State:          effective.State,
			Pace:           effective.Pace,
			Format:         effective.Format,
			Mode:           mode,
			EpsilonUsed:    e.cfg.Epsilon,
			CandidateCount: len(scored),
			SelectedScore:  selected.Score,
			ToneBucket:     tags.ToneBucket(selected.Tags, effective.State),
			Hint:           req.Answers.Hint,
			Delta:          delta,
		},
	}
	if err := e.selections.CreateSelection(ctx, sel); err != nil {
		return nil, fmt.Errorf("persist selection: %w", err)
	}

	result := &Result{
		SelectionID:    sel.ID,
		ItemID:         selected.Item.ID,
		Title:          selected.Item.Title,
		Rationale:      e.rationales.Rationale(sel.ID, effective.State, effective.Pace),
		WhenToWatch:    e.rationales.WhenToWatch(sel.ID, effective.State, effective.Pace),
		PosterURL:      selected.Item.PosterURL,
		Rating:         selected.Item.VoteAverage,
		DeltaExplainer: deltaExplainer,
		Meta: Meta{
			Mode:           mode,
			EpsilonUsed:    e.cfg.Epsilon,
			CandidateCount: len(scored),
			SourceMix:      countSources(scored),
			Score:          selected.Score,
		},
	}
	if req.Answers.Hint != "" {
		result.HintRationale = e.rationales.HintRationale(ctx, req.Answers.Hint, selected.Item.Title, selected.Item.Overview)
	}

	e.emitCreated(ctx, req.UserID, sel.ID, mode, selected)

	e.logger.Info().
		Str("selection_id", sel.ID).
		Str("user_id", req.UserID).
		Str("item_id", selected.Item.ID).
		Str("mode", mode).
		Float64("score", selected.Score).
		Msg("recommendation created")

	return result, nil
}

// applyAnotherDelta varies exactly one dimension for an "another"
// follow-up: flip the pace first; once the previous round already
// flipped it, shift tone instead (a scoring-level nudge, answers stay
// put).
func (e *Engine) applyAnotherDelta(effective tags.Answers, last *models.SelectionContext) (*models.DeltaInfo, tags.Answers, string) {
	paceRecentlyFlipped := last.Delta != nil && last.Delta.PaceFlipped

	if !paceRecentlyFlipped {
		newPace := flipPace(effective.Pace)
		effective.Pace = newPace
		explainer := e.rationales.DeltaExplainer(rationale.DeltaPaceFlipped, newPace, "delta")
		return &models.DeltaInfo{PaceFlipped: true}, effective, explainer
	}

	explainer := e.rationales.DeltaExplainer(rationale.DeltaToneShifted, "", "delta")
	return &models.DeltaInfo{ToneShifted: true}, effective, explainer
}

// fetchCandidates pulls candidate items, preferring the curated pool
// and supplementing from TMDB when it is thin.
func (e *Engine) fetchCandidates(ctx context.Context, itemType string, excluded map[string]struct{}) ([]models.Item, error) {
	limit := e.cfg.MaxCandidates

	if !e.cfg.PreferCurated {
		return e.catalog.ListCandidates(ctx, itemType, "", excluded, limit)
	}

	curated, err := e.catalog.ListCandidates(ctx, itemType, models.SourceCurated, excluded, limit)
	if err != nil {
		return nil, err
	}
	if len(curated) > 0 && len(curated) >= e.cfg.MinCuratedPool {
		return curated, nil
	}

	allExcluded := make(map[string]struct{}, len(excluded)+len(curated))
	for id := range excluded {
		allExcluded[id] = struct{}{}
	}
	for _, item := range curated {
		allExcluded[item.ID] = struct{}{}
	}

	tmdb, err := e.catalog.ListCandidates(ctx, itemType, models.SourceTMDB, allExcluded, limit-len(curated))
	if err != nil {
		return nil, err
	}
	return append(curated, tmdb...), nil
}

// scoreCandidates computes the total score for each candidate:
// base + tag match + weight bonus + novelty + hint bonus. Items failing
// a strict tag requirement are dropped. The result is sorted by score
// descending, ties broken by item id for determinism.
func (e *Engine) scoreCandidates(candidates []models.Item, effective tags.Answers, userWeight int, seed int64, hint tags.HintResult) []ScoredCandidate {
	weightBonus := learning.WeightBonus(userWeight, learning.DefaultBonusMultiplier)

	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, item := range candidates {
		itemTags := tags.ParseTags(item.TagsJSON)

		matchScore := tags.MatchScore(itemTags, effective, e.cfg.RequireTags)
		if math.IsInf(matchScore, -1) {
			continue
		}

		noveltyBonus := noveltyBonus(seed, item.ID)
		hintBonus := tags.HintMatchScore(item.Title, itemTags, hint, item.Overview, item.GenresJSON, item.CreditsJSON)

		scored = append(scored, ScoredCandidate{
			Item:         item,
			Tags:         itemTags,
			Score:        item.BaseScore + matchScore + weightBonus + noveltyBonus + hintBonus,
			MatchScore:   matchScore,
			WeightBonus:  weightBonus,
			NoveltyBonus: noveltyBonus,
			HintBonus:    hintBonus,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})

	return scored
}

// defaultTopK bounds the exploration pool when the caller passes a
// non-positive topK.
const defaultTopK = 20

// EpsilonGreedy selects from a score-sorted candidate list: with
// probability epsilon a uniform draw from the top topK candidates,
// otherwise the best score. scored must be non-empty.
func EpsilonGreedy(scored []ScoredCandidate, epsilon float64, topK int, rng *rand.Rand) ScoredCandidate {
	if rng.Float64() < epsilon {
		if topK <= 0 {
			topK = defaultTopK
		}
		if topK > len(scored) {
			topK = len(scored)
		}
		return scored[rng.Intn(topK)]
	}
	return scored[0]
}

// EpsilonGreedySeeded is the deterministic form of EpsilonGreedy for a
// known seed.
func EpsilonGreedySeeded(scored []ScoredCandidate, epsilon float64, topK int, seed int64) ScoredCandidate {
	return EpsilonGreedy(scored, epsilon, topK, rand.New(rand.NewSource(seed)))
}

func (e *Engine) emitCreated(ctx context.Context, userID, selectionID, mode string, selected ScoredCandidate) {
	ev := models.Event{
		Name:        "rec_created",
		UserID:      userID,
		SelectionID: selectionID,
		Payload: map[string]any{
			"item_id":      selected.Item.ID,
			"title":        selected.Item.Title,
			"mode":         mode,
			"score":        selected.Score,
			"match_score":  selected.MatchScore,
			"weight_bonus": selected.WeightBonus,
		},
	}
	if err := e.events.LogEvent(ctx, ev); err != nil {
		e.logger.Warn().Err(err).Msg("failed to log rec_created event")
	}
}

// deterministicSeed derives the per-request RNG seed from user, day,
// and mode: the same user asking in the same mode on the same day
// explores identically.
func deterministicSeed(userID, mode string, now time.Time) int64 {
	combined := userID + ":" + now.Format("2006-01-02") + ":" + mode
	sum := sha256.Sum256([]byte(combined))
	return int64(binary.BigEndian.Uint64(sum[:8]) &^ (1 << 63))
}

// noveltyBonus is a small deterministic per-item variation in
// [0.0, 0.2) that breaks score ties and rotates the top of the list
// between days.
func noveltyBonus(seed int64, itemID string) float64 {
	h := fnv.New64a()
	h.Write([]byte(itemID))
	itemSeed := seed ^ int64(h.Sum64()&^(1<<63))
	return rand.New(rand.NewSource(itemSeed)).Float64() * 0.2
}

func flipPace(pace string) string {
	if pace == "slow" {
		return "fast"
	}
	return "slow"
}

func countSources(scored []ScoredCandidate) SourceMix {
	var mix SourceMix
	for _, s := range scored {
		if s.Item.Source == models.SourceCurated {
			mix.Curated++
		} else {
			mix.TMDB++
		}
	}
	return mix
}
