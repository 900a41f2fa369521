// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

package tags

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Maximum total hint bonus a single item can earn.
const maxHintBonus = 8.0

// Overrides are answer-dimension overrides extracted from a hint.
// Empty fields mean "no override".
type Overrides struct {
	State  string `json:"state,omitempty"`
	Pace   string `json:"pace,omitempty"`
	Format string `json:"format,omitempty"`
}

// HintResult is the structured form of a free-text hint.
type HintResult struct {
	// Overrides are state/pace/format overrides implied by the hint.
	Overrides Overrides

	// ToneKeywords are tone labels to boost during scoring, sorted.
	ToneKeywords []string

	// SearchWords are the remaining meaningful tokens for title matching.
	SearchWords []string

	// LLMKeywords are translated keywords added later by the optional
	// LLM enhancement; empty until then.
	LLMKeywords []string
}

// Empty reports whether the hint produced nothing usable.
func (h HintResult) Empty() bool {
	return h.Overrides == (Overrides{}) &&
		len(h.ToneKeywords) == 0 && len(h.SearchWords) == 0 && len(h.LLMKeywords) == 0
}

// hintRule maps a hint keyword vocabulary onto answer overrides and
// tone keywords. Rules are not first-match: every matching rule's
// overrides and tones are applied, so multiple genres can combine.
type hintRule struct {
	keywords  []string
	overrides Overrides
	tones     []string
}

var hintRules = []hintRule{
	// Detective / crime
	{
		keywords:  []string{"детектив", "detective", "кримінал", "crime", "розслідування"},
		overrides: Overrides{State: "heavy", Pace: "slow"},
		tones:     []string{"dark", "mysterious", "tense"},
	},
	// Action
	{
		keywords:  []string{"екшн", "action", "бойовик", "бій", "стрілянина"},
		overrides: Overrides{State: "escape", Pace: "fast"},
		tones:     []string{"adventure", "thrilling"},
	},
	// Comedy
	{
		keywords:  []string{"комедія", "comedy", "смішне", "смішний", "веселе", "веселий"},
		overrides: Overrides{State: "light", Pace: "fast"},
		tones:     []string{"funny", "warm"},
	},
	// Drama
	{
		keywords:  []string{"драма", "drama", "драматичне", "драматичний"},
		overrides: Overrides{State: "heavy", Pace: "slow"},
		tones:     []string{"melancholy", "emotional"},
	},
	// Horror / thriller
	{
		keywords:  []string{"хорор", "horror", "жахи", "страшне", "трилер", "thriller"},
		overrides: Overrides{State: "heavy", Pace: "fast"},
		tones:     []string{"dark", "tense"},
	},
	// Romance
	{
		keywords:  []string{"романтика", "romance", "романтичне", "кохання", "love"},
		overrides: Overrides{State: "light", Pace: "slow"},
		tones:     []string{"warm", "romantic"},
	},
	// Fantasy / sci-fi
	{
		keywords:  []string{"фантастика", "fantasy", "фентезі", "sci-fi", "наукова фантастика", "космос"},
		overrides: Overrides{State: "escape"},
		tones:     []string{"weird", "adventure"},
	},
	// Animation
	{
		keywords:  []string{"мультфільм", "мультик", "анімація", "animation", "anime", "аніме"},
		overrides: Overrides{State: "light"},
		tones:     []string{"cozy", "warm"},
	},
	// Korean (search words only, no structural override)
	{
		keywords: []string{"корейське", "корейська", "корейський", "korean", "k-drama", "кдрама", "дорама"},
	},
	// Chinese
	{
		keywords: []string{"китайське", "китайська", "китайський", "chinese", "china"},
	},
	// Documentary
	{
		keywords:  []string{"документальне", "документалка", "documentary"},
		overrides: Overrides{State: "heavy", Pace: "slow"},
		tones:     []string{"thought-provoking"},
	},
	// Slow / contemplative
	{
		keywords:  []string{"повільне", "повільний", "спокійне", "вдумливе"},
		overrides: Overrides{Pace: "slow"},
	},
	// Dynamic / fast
	{
		keywords:  []string{"динамічне", "динамічний", "швидке", "драйв", "адреналін"},
		overrides: Overrides{Pace: "fast"},
	},
}

var (
	seriesWords = toSet("серіал", "серіали", "series", "show", "шоу", "дорама")
	movieWords  = toSet("фільм", "фільми", "movie", "кіно")
)

// hintStopWords are tokens too generic to be useful as search words.
var hintStopWords = toSet(
	"щось", "як", "на", "з", "із", "та", "і", "або", "чи",
	"схоже", "подібне", "типу", "класний", "класне", "класна",
	"гарний", "гарне", "гарна", "крутий", "круте", "крута",
	"хороший", "хороше", "хороша", "цікавий", "цікаве", "цікава",
	"something", "like", "similar", "good", "cool", "nice", "great",
	"want", "хочу", "хочеться", "давай", "може", "можливо",
	"про", "about", "with",
	"фільм", "серіал", "movie", "series", "show",
)

// ParseHint tokenizes a free-text hint (Ukrainian or English) and
// derives answer overrides, tone keywords, and title search words.
// An explicit series/movie word overrides the format answer.
func ParseHint(hint string) HintResult {
	text := strings.ToLower(strings.TrimSpace(hint))
	if text == "" {
		return HintResult{}
	}

	words := strings.Fields(text)
	wordSet := toSet(words...)

	var result HintResult

	if anyIn(words, seriesWords) {
		result.Overrides.Format = "series"
	} else if anyIn(words, movieWords) {
		result.Overrides.Format = "movie"
	}

	toneSet := make(map[string]struct{})
	for _, rule := range hintRules {
		if !ruleMatches(rule, wordSet, text) {
			continue
		}
		// Later rules overwrite earlier ones, mirroring map-union
		// semantics: the last matching genre wins each dimension.
		if rule.overrides.State != "" {
			result.Overrides.State = rule.overrides.State
		}
		if rule.overrides.Pace != "" {
			result.Overrides.Pace = rule.overrides.Pace
		}
		for _, tone := range rule.tones {
			toneSet[tone] = struct{}{}
		}
	}

	for tone := range toneSet {
		result.ToneKeywords = append(result.ToneKeywords, tone)
	}
	sort.Strings(result.ToneKeywords)

	for _, w := range words {
		if utf8.RuneCountInString(w) < 3 {
			continue
		}
		if _, stop := hintStopWords[w]; stop {
			continue
		}
		result.SearchWords = append(result.SearchWords, w)
	}

	return result
}

// ruleMatches checks a rule's vocabulary against the tokenized hint.
// Multi-word keywords are matched as substrings of the full text.
func ruleMatches(rule hintRule, wordSet map[string]struct{}, text string) bool {
	for _, kw := range rule.keywords {
		if strings.Contains(kw, " ") {
			if strings.Contains(text, kw) {
				return true
			}
			continue
		}
		if _, ok := wordSet[kw]; ok {
			return true
		}
	}
	return false
}

// HintMatchScore computes the bonus an item earns for matching the
// parsed hint, capped at 8.0.
//
// Title matches (+3.0 per word) and tone matches (+1.5 per keyword)
// work from the raw hint alone. Overview (+1.0), genre (+2.0), and
// credits (+3.0) matches require translated LLM keywords; without them
// the function degrades gracefully to title/tone matching only.
func HintMatchScore(title string, t *Tags, h HintResult, overview, genresJSON, creditsJSON string) float64 {
	allWords := make([]string, 0, len(h.SearchWords)+len(h.LLMKeywords))
	allWords = append(allWords, h.SearchWords...)
	allWords = append(allWords, h.LLMKeywords...)

	if len(allWords) == 0 && len(h.ToneKeywords) == 0 {
		return 0.0
	}

	score := 0.0
	titleLower := strings.ToLower(title)

	for _, word := range allWords {
		if strings.Contains(titleLower, word) {
			score += 3.0
		}
	}

	if t != nil && len(h.ToneKeywords) > 0 {
		itemTones := toSet(t.Tone...)
		for _, tone := range h.ToneKeywords {
			if _, ok := itemTones[tone]; ok {
				score += 1.5
			}
		}
	}

	if len(h.LLMKeywords) == 0 {
		return math.Min(score, maxHintBonus)
	}

	if overview != "" {
		overviewLower := strings.ToLower(overview)
		for _, word := range h.LLMKeywords {
			if strings.Contains(overviewLower, word) {
				score += 1.0
			}
		}
	}

	if genresJSON != "" {
		genresLower := strings.ToLower(genresJSON)
		for _, word := range h.LLMKeywords {
			if strings.Contains(genresLower, word) {
				score += 2.0
			}
		}
	}

	if creditsJSON != "" {
		creditsLower := strings.ToLower(creditsJSON)
		for _, word := range h.LLMKeywords {
			if strings.Contains(creditsLower, word) {
				score += 3.0
			}
		}
	}

	return math.Min(score, maxHintBonus)
}
