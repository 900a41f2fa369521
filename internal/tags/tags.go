// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

// Package tags implements the semantic tag model: parsing and
// normalization of catalog item attributes (pace, mood, tone,
// intensity) and preference-match scoring against user answers.
//
// All functions in this package are total: malformed input degrades to
// zero values (nil tags, empty lists, zero score), never to an error.
// The single exception is MatchScore, which returns -Inf for untagged
// items when strict tag mode is requested so the caller can drop them.
package tags

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Canonical answer defaults applied wherever a dimension is missing.
const (
	DefaultState  = "escape"
	DefaultPace   = "slow"
	DefaultFormat = "movie"
)

// Answers is a user's preference answers for one recommendation request.
type Answers struct {
	// State is the emotional state answer (light, heavy, escape).
	State string `json:"state"`

	// Pace is the pace answer (slow, fast).
	Pace string `json:"pace"`

	// Format is the format answer (movie, series).
	Format string `json:"format"`

	// Hint is an optional free-text request.
	Hint string `json:"hint,omitempty"`
}

// WithDefaults returns a copy with missing dimensions filled with the
// canonical defaults (escape/slow/movie).
func (a Answers) WithDefaults() Answers {
	if a.State == "" {
		a.State = DefaultState
	}
	if a.Pace == "" {
		a.Pace = DefaultPace
	}
	if a.Format == "" {
		a.Format = DefaultFormat
	}
	return a
}

// Apply returns a copy with non-empty override fields applied.
func (a Answers) Apply(o Overrides) Answers {
	if o.State != "" {
		a.State = o.State
	}
	if o.Pace != "" {
		a.Pace = o.Pace
	}
	if o.Format != "" {
		a.Format = o.Format
	}
	return a
}

// ContextKey derives the canonical weight-accounting key from answers.
// The hint never participates: two answer sets with the same
// (state, pace, format) share a weight bucket.
func ContextKey(a Answers) string {
	a = a.WithDefaults()
	return fmt.Sprintf("state:%s|pace:%s|format:%s", a.State, a.Pace, a.Format)
}

// Tags is the normalized semantic record for a catalog item.
// A nil *Tags means the item has not been tagged yet.
type Tags struct {
	// Pace is "slow", "fast", or "" when absent/unrecognized.
	Pace string `json:"pace,omitempty"`

	// Mood holds canonical mood values (light, heavy, escape), deduplicated.
	Mood []string `json:"mood,omitempty"`

	// Tone holds lowercased free-form tone labels.
	Tone []string `json:"tone,omitempty"`

	// Intensity is 1-5, or 0 when absent.
	Intensity int `json:"intensity,omitempty"`
}

// ParseTags parses a raw tag blob into a normalized record.
// Returns nil for empty input, invalid JSON, or a non-object payload.
func ParseTags(raw string) *Tags {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil
	}

	t := &Tags{
		Pace: NormalizePace(m["pace"]),
		Mood: NormalizeMood(m["mood"]),
		Tone: NormalizeTone(m["tone"]),
	}
	if v, ok := NormalizeIntensity(m["intensity"]); ok {
		t.Intensity = v
	}
	return t
}

// NormalizePace maps a raw pace value onto the canonical slow/fast
// vocabulary. Medium-ish values map to slow as the conservative
// default. Unrecognized input returns "".
func NormalizePace(v any) string {
	if v == nil {
		return ""
	}

	switch strings.ToLower(strings.TrimSpace(stringify(v))) {
	case "slow", "meditative", "contemplative", "leisurely":
		return "slow"
	case "fast", "quick", "rapid", "dynamic", "intense":
		return "fast"
	case "medium", "moderate", "balanced":
		return "slow"
	}
	return ""
}

// NormalizeMood maps a raw mood value (string or list) onto the
// canonical light/heavy/escape set, deduplicated in first-seen order.
func NormalizeMood(v any) []string {
	var result []string
	seen := make(map[string]struct{}, 3)

	for _, raw := range listify(v) {
		var canonical string
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "light", "uplifting", "fun", "cheerful", "cozy", "warm", "hopeful":
			canonical = "light"
		case "heavy", "dark", "intense", "dramatic", "serious", "deep", "profound":
			canonical = "heavy"
		case "escape", "escapist", "immersive", "adventure", "fantasy", "otherworldly":
			canonical = "escape"
		default:
			continue
		}
		if _, dup := seen[canonical]; !dup {
			seen[canonical] = struct{}{}
			result = append(result, canonical)
		}
	}
	return result
}

// NormalizeTone lowercases a raw tone value (string or list) without
// further mapping.
func NormalizeTone(v any) []string {
	var result []string
	for _, raw := range listify(v) {
		result = append(result, strings.ToLower(strings.TrimSpace(raw)))
	}
	return result
}

// NormalizeIntensity parses a raw intensity value and clamps it to the
// 1-5 scale. The second return is false when the value is absent or
// unparseable.
func NormalizeIntensity(v any) (int, bool) {
	if v == nil {
		return 0, false
	}

	var n int
	switch val := v.(type) {
	case int:
		n = val
	case int64:
		n = int(val)
	case float64:
		n = int(val)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}

	if n < 1 {
		n = 1
	}
	if n > 5 {
		n = 5
	}
	return n, true
}

// preferredTones lists the tone labels that earn the +0.5 bonus for
// each user state.
var preferredTones = map[string]map[string]struct{}{
	"light":  toSet("cozy", "warm", "heartfelt", "funny", "romantic", "sweet"),
	"heavy":  toSet("dark", "tense", "thought-provoking", "emotional", "profound"),
	"escape": toSet("adventure", "mysterious", "fantastical", "thrilling", "epic"),
}

// MatchScore computes how well an item's tags match the user's answers.
//
// Scoring: +2.0 for a pace match, +2.0 when the item's mood set
// contains the state's target mood, +0.5 for any preferred-tone
// overlap, +0.3 when intensity falls in the state's preferred band.
// Untagged items score 0, or -Inf when requireTags is set.
func MatchScore(t *Tags, a Answers, requireTags bool) float64 {
	if t == nil {
		if requireTags {
			return math.Inf(-1)
		}
		return 0.0
	}

	a = a.WithDefaults()
	score := 0.0

	if t.Pace != "" && t.Pace == a.Pace {
		score += 2.0
	}

	// State-to-mood mapping is identity (light->light, heavy->heavy,
	// escape->escape).
	for _, m := range t.Mood {
		if m == a.State {
			score += 2.0
			break
		}
	}

	if anyIn(t.Tone, preferredTones[a.State]) {
		score += 0.5
	}

	if t.Intensity != 0 && intensityInBand(a.State, t.Intensity) {
		score += 0.3
	}

	return score
}

// intensityInBand reports whether an intensity value falls in the
// state's preferred band: light <=2, heavy >=4, escape 2-4.
func intensityInBand(state string, intensity int) bool {
	switch state {
	case "light":
		return intensity <= 2
	case "heavy":
		return intensity >= 4
	case "escape":
		return intensity >= 2 && intensity <= 4
	}
	return false
}

// Tone bucket membership sets, checked in priority order.
var (
	cozyTones      = toSet("cozy", "warm", "heartfelt", "romantic", "sweet")
	darkTones      = toSet("dark", "tense", "thriller", "noir", "moody")
	adventureTones = toSet("adventure", "action", "thrilling", "epic")
)

// ToneBucket classifies an item's tone list into a coarse label used
// only for human-readable delta messaging, never for scoring.
func ToneBucket(t *Tags, state string) string {
	if t == nil {
		return "varied"
	}

	switch {
	case anyIn(t.Tone, cozyTones):
		return "cozy/warm"
	case anyIn(t.Tone, darkTones):
		return "dark/tense"
	case anyIn(t.Tone, adventureTones):
		return "adventure"
	}
	return "varied"
}

// anyIn reports whether any value is a member of the set.
func anyIn(values []string, set map[string]struct{}) bool {
	for _, v := range values {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

func toSet(values ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// stringify renders scalar JSON values the way the tagging pipeline
// writes them.
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// listify coerces a raw JSON value into a string list: scalars become
// single-element lists, arrays are flattened element-wise.
func listify(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return []string{val}
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, stringify(item))
		}
		return out
	}
	return nil
}
