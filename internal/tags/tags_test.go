// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

package tags

import (
	"math"
	"testing"
)

func TestNormalizePace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"slow", "slow", "slow"},
		{"meditative", "meditative", "slow"},
		{"contemplative synonym", "Contemplative", "slow"},
		{"fast", "fast", "fast"},
		{"dynamic synonym", "dynamic", "fast"},
		{"intense synonym", "intense", "fast"},
		{"medium maps to slow", "medium", "slow"},
		{"moderate maps to slow", "moderate", "slow"},
		{"whitespace trimmed", "  quick  ", "fast"},
		{"unknown", "frenetic", ""},
		{"non-string", 42.0, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizePace(tt.in); got != tt.want {
				t.Errorf("NormalizePace(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeMood(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"nil", nil, nil},
		{"single string", "uplifting", []string{"light"}},
		{"list", []any{"dark", "immersive"}, []string{"heavy", "escape"}},
		{"dedup", []any{"fun", "cheerful", "cozy"}, []string{"light"}},
		{"unknown dropped", []any{"sparkly", "profound"}, []string{"heavy"}},
		{"wrong type", 3.5, nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NormalizeMood(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("NormalizeMood(%v) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("NormalizeMood(%v)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNormalizeIntensity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     any
		want   int
		wantOK bool
	}{
		{"nil", nil, 0, false},
		{"in range", 3.0, 3, true},
		{"clamped high", 9.0, 5, true},
		{"clamped low", 0.0, 1, true},
		{"string digit", "4", 4, true},
		{"garbage string", "very", 0, false},
		{"wrong type", []any{}, 0, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := NormalizeIntensity(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("NormalizeIntensity(%v) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseTags(t *testing.T) {
	t.Parallel()

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		if got := ParseTags(""); got != nil {
			t.Errorf("expected nil for empty input, got %+v", got)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()
		if got := ParseTags("{not json"); got != nil {
			t.Errorf("expected nil for invalid JSON, got %+v", got)
		}
	})

	t.Run("non-object", func(t *testing.T) {
		t.Parallel()
		if got := ParseTags(`["a","b"]`); got != nil {
			t.Errorf("expected nil for non-object payload, got %+v", got)
		}
	})

	t.Run("full record", func(t *testing.T) {
		t.Parallel()
		got := ParseTags(`{"pace":"meditative","mood":["dark","fun"],"tone":["Cozy","TENSE"],"intensity":7}`)
		if got == nil {
			t.Fatal("expected parsed tags")
		}
		if got.Pace != "slow" {
			t.Errorf("Pace = %q, want slow", got.Pace)
		}
		if len(got.Mood) != 2 || got.Mood[0] != "heavy" || got.Mood[1] != "light" {
			t.Errorf("Mood = %v, want [heavy light]", got.Mood)
		}
		if len(got.Tone) != 2 || got.Tone[0] != "cozy" || got.Tone[1] != "tense" {
			t.Errorf("Tone = %v, want [cozy tense]", got.Tone)
		}
		if got.Intensity != 5 {
			t.Errorf("Intensity = %d, want 5 (clamped)", got.Intensity)
		}
	})
}

func TestMatchScore(t *testing.T) {
	t.Parallel()

	answers := Answers{State: "light", Pace: "slow", Format: "movie"}

	tests := []struct {
		name        string
		tags        *Tags
		answers     Answers
		requireTags bool
		want        float64
	}{
		{
			name: "nil tags lenient",
			want: 0.0,
		},
		{
			name:        "nil tags strict",
			requireTags: true,
			want:        math.Inf(-1),
		},
		{
			name:    "pace only",
			tags:    &Tags{Pace: "slow"},
			answers: answers,
			want:    2.0,
		},
		{
			name:    "pace absent contributes zero",
			tags:    &Tags{Mood: []string{"light"}},
			answers: answers,
			want:    2.0,
		},
		{
			name:    "pace and mood",
			tags:    &Tags{Pace: "slow", Mood: []string{"light"}},
			answers: answers,
			want:    4.0,
		},
		{
			name:    "tone bonus",
			tags:    &Tags{Pace: "slow", Mood: []string{"light"}, Tone: []string{"cozy"}},
			answers: answers,
			want:    4.5,
		},
		{
			name:    "full match with intensity band",
			tags:    &Tags{Pace: "slow", Mood: []string{"light"}, Tone: []string{"cozy"}, Intensity: 2},
			answers: answers,
			want:    4.8,
		},
		{
			name:    "intensity out of band",
			tags:    &Tags{Pace: "slow", Mood: []string{"light"}, Tone: []string{"cozy"}, Intensity: 4},
			answers: answers,
			want:    4.5,
		},
		{
			name:    "heavy intensity band",
			tags:    &Tags{Intensity: 5},
			answers: Answers{State: "heavy", Pace: "fast", Format: "movie"},
			want:    0.3,
		},
		{
			name:    "escape intensity band",
			tags:    &Tags{Intensity: 3},
			answers: Answers{State: "escape", Pace: "fast", Format: "movie"},
			want:    0.3,
		},
		{
			name:    "empty answers take defaults",
			tags:    &Tags{Pace: "slow", Mood: []string{"escape"}},
			answers: Answers{},
			want:    4.0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := MatchScore(tt.tags, tt.answers, tt.requireTags)
			if got != tt.want {
				t.Errorf("MatchScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContextKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		answers Answers
		want    string
	}{
		{
			name:    "full answers",
			answers: Answers{State: "light", Pace: "fast", Format: "series"},
			want:    "state:light|pace:fast|format:series",
		},
		{
			name:    "defaults applied",
			answers: Answers{},
			want:    "state:escape|pace:slow|format:movie",
		},
		{
			name:    "hint does not affect key",
			answers: Answers{State: "heavy", Pace: "slow", Format: "movie", Hint: "щось цікаве"},
			want:    "state:heavy|pace:slow|format:movie",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ContextKey(tt.answers); got != tt.want {
				t.Errorf("ContextKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToneBucket(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tags *Tags
		want string
	}{
		{"nil tags", nil, "varied"},
		{"cozy", &Tags{Tone: []string{"warm"}}, "cozy/warm"},
		{"dark", &Tags{Tone: []string{"noir"}}, "dark/tense"},
		{"adventure", &Tags{Tone: []string{"epic", "action"}}, "adventure"},
		{"cozy beats dark", &Tags{Tone: []string{"dark", "sweet"}}, "cozy/warm"},
		{"unmatched", &Tags{Tone: []string{"quirky"}}, "varied"},
		{"no tones", &Tags{}, "varied"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ToneBucket(tt.tags, "light"); got != tt.want {
				t.Errorf("ToneBucket = %q, want %q", got, tt.want)
			}
		})
	}
}
