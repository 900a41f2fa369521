// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

// Package rationale produces the Ukrainian-language explanation texts
// attached to a recommendation: why this item, when to watch it, and
// what changed on an "another" follow-up.
//
// All template selection is deterministic: the same recommendation id
// always yields the same texts, so retries and re-renders never flicker.
package rationale

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// MaxLength is the hard cap on any rationale text.
const MaxLength = 320

// maxHintRationaleLength caps the LLM-written hint explanation.
const maxHintRationaleLength = 150

// Delta explainer kinds.
const (
	DeltaPaceFlipped   = "pace_flipped"
	DeltaToneShifted   = "tone_shifted"
	DeltaFormatFlipped = "format_flipped"
)

// spoilerKeywords are scrubbed from every generated text, English and
// Ukrainian alike.
var spoilerKeywords = []string{
	"twist",
	"ending",
	"killer",
	"dies",
	"murderer",
	"plot twist",
	"finale",
	"death",
	"killed",
	"betrayal",
	"reveal",
	"shocking",
	"surprise ending",
	"поворот",
	"кінцівка",
	"вбивця",
	"помирає",
	"гине",
	"зрада",
	"фінал",
}

var spoilerPatterns = compileSpoilerPatterns()

func compileSpoilerPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(spoilerKeywords))
	for _, kw := range spoilerKeywords {
		patterns = append(patterns, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(kw)))
	}
	return patterns
}

// rationaleTemplates are indexed by mood state.
var rationaleTemplates = map[string][]string{
	"light": {
		"Легке кіно, яке не навантажує. Саме те, щоб розслабитись після довгого дня.",
		"Простий і приємний перегляд. Сідай зручніше і насолоджуйся.",
		"Щось світле, щоб підняти настрій. Ніякого напруження.",
		"Тепла, невимушена історія — те, що зараз потрібно.",
		"Комфортний перегляд. Дозволь собі щось просте і приємне.",
	},
	"heavy": {
		"Глибока історія, яка залишається з тобою надовго.",
		"Серйозне кіно для тих, хто готовий відчути щось справжнє.",
		"Потужний наратив, що винагороджує увагу.",
		"Багатошарова розповідь, що запрошує до роздумів.",
		"Вагоме кіно, яке залишає слід. Варте твоєї повної уваги.",
	},
	"escape": {
		"Чистий ескейпізм. Дозволь собі повністю загубитись в іншому світі.",
		"Подорож далеко від буденності, як ти й просив. Занурюйся.",
		"Захоплива історія, що переносить кудись зовсім інакше.",
		"Повне занурення в іншу реальність. Забудь про все на якийсь час.",
		"Пригода чекає. Крокни крізь екран і залиш свій світ позаду.",
	},
}

// paceModifiers are appended to the rationale about half the time.
var paceModifiers = map[string][]string{
	"slow": {
		"Кіно не поспішає, і це добре.",
		"Неквапливий темп, що дає моментам дихати.",
		"Споглядальний ритм для вдумливого перегляду.",
	},
	"fast": {
		"Жвавий темп, що тримає в напрузі.",
		"Динаміка, яка не відпускає.",
		"Енергійно від початку до кінця.",
	},
}

// whenToWatch is indexed by state, then pace.
var whenToWatch = map[string]map[string][]string{
	"light": {
		"slow": {
			"Найкраще без відволікань, з теплим напоєм.",
			"Ідеально для тихого вечора, коли хочеш розслабитись.",
			"Для спокійного завершення дня.",
		},
		"fast": {
			"Коли хочеш легких розваг з енергією.",
			"Для вихідних, коли потрібен драйв без напруги.",
			"Коли хочеш чогось легкого, але жвавого.",
		},
	},
	"heavy": {
		"slow": {
			"Виділи час без відволікань. Це кіно винагороджує терпіння.",
			"Для пізнього вечора, коли можеш повністю зосередитись.",
			"Коли готовий по-справжньому зануритись в історію.",
		},
		"fast": {
			"Коли хочеш інтенсивності без затягування.",
			"Захоплюючий перегляд, що вимагає уваги.",
			"Коли хочеш чогось серйозного, але динамічного.",
		},
	},
	"escape": {
		"slow": {
			"Влаштуйся зручно для подорожі. Дай світу побудуватись навколо.",
			"Для лінивого дня, коли хочеш зникнути кудись.",
			"Коли є час повністю зануритись.",
		},
		"fast": {
			"Пристебнись — це атракціон, що не відпускає.",
			"Коли хочеш пригод з місця в кар'єр.",
			"Для захопливої втечі від реальності.",
		},
	},
}

// deltaExplainers describe what changed on an "another" follow-up.
var deltaExplainers = map[string][]string{
	DeltaPaceFlipped: {
		"Тепер {new_pace}, але той самий настрій.",
		"Ось щось {new_pace}.",
		"Та сама атмосфера, інший ритм — {new_pace}.",
	},
	DeltaToneShifted: {
		"Схоже відчуття, інший відтінок.",
		"Залишаюсь у настрої, змінюю акцент.",
		"Та сама суть, новий підхід.",
	},
	DeltaFormatFlipped: {
		"Цього разу {new_format}.",
		"Той самий вайб, тепер як {new_format}.",
		"Змінюю формат на {new_format}.",
	},
}

var paceWordsUA = map[string]string{
	"slow": "повільніше",
	"fast": "динамічніше",
}

var formatWordsUA = map[string]string{
	"movie":  "фільм",
	"series": "серіал",
}

// hashSeed derives a deterministic value from a recommendation id and a
// salt that names the decision being made.
func hashSeed(recID, salt string) uint32 {
	sum := sha256.Sum256([]byte(recID + salt))
	return binary.BigEndian.Uint32(sum[:4])
}

func selectByHash(options []string, recID, salt string) string {
	if len(options) == 0 {
		return ""
	}
	return options[hashSeed(recID, salt)%uint32(len(options))]
}

func containsSpoiler(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range spoilerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// sanitize scrubs spoiler keywords and enforces the length cap.
// Lengths are counted in runes; most of the output is Cyrillic.
func sanitize(text string, maxLength int) string {
	result := text
	for _, pattern := range spoilerPatterns {
		result = pattern.ReplaceAllString(result, "...")
	}
	runes := []rune(result)
	if len(runes) > maxLength {
		result = string(runes[:maxLength-3]) + "..."
	}
	return result
}

// Rationale generates the main explanation for a recommendation.
// The state picks the template bank, the pace sometimes appends a
// modifier; both draws are keyed on the recommendation id.
func Rationale(recID, state, pace string) string {
	templates, ok := rationaleTemplates[state]
	if !ok {
		templates = rationaleTemplates["escape"]
	}
	base := selectByHash(templates, recID, "rationale")

	if hashSeed(recID, "pace_mod")%2 == 0 {
		modifiers, ok := paceModifiers[pace]
		if !ok {
			modifiers = paceModifiers["slow"]
		}
		base = base + " " + selectByHash(modifiers, recID, "pace")
	}

	return sanitize(base, MaxLength)
}

// WhenToWatch generates the viewing-moment suggestion for a
// state/pace combination.
func WhenToWatch(recID, state, pace string) string {
	stateTemplates, ok := whenToWatch[state]
	if !ok {
		stateTemplates = whenToWatch["escape"]
	}
	paceTemplates, ok := stateTemplates[pace]
	if !ok {
		paceTemplates = stateTemplates["slow"]
	}
	if len(paceTemplates) == 0 {
		return "Коли будеш готовий до чогось класного."
	}
	return selectByHash(paceTemplates, recID, "when")
}

// DeltaExplainer describes the axis that changed on an "another"
// follow-up. newValue is the canonical English token ("fast", "series");
// it is rendered with its Ukrainian word.
func DeltaExplainer(deltaType, newValue, recID string) string {
	templates, ok := deltaExplainers[deltaType]
	if !ok {
		templates = deltaExplainers[DeltaToneShifted]
	}
	template := selectByHash(templates, recID, "delta")

	switch deltaType {
	case DeltaPaceFlipped:
		word, ok := paceWordsUA[newValue]
		if !ok {
			word = newValue
		}
		return strings.ReplaceAll(template, "{new_pace}", word)
	case DeltaFormatFlipped:
		word, ok := formatWordsUA[newValue]
		if !ok {
			word = newValue
		}
		return strings.ReplaceAll(template, "{new_format}", word)
	}
	return template
}

// Validate checks a rationale against the length cap and spoiler list.
func Validate(rationale string) error {
	if n := len([]rune(rationale)); n > MaxLength {
		return fmt.Errorf("rationale too long: %d > %d", n, MaxLength)
	}
	if containsSpoiler(rationale) {
		return fmt.Errorf("rationale contains spoiler keywords")
	}
	return nil
}

// HintExplainer writes a one-sentence explanation of why an item
// matches a free-text hint.
type HintExplainer interface {
	ExplainMatch(ctx context.Context, hint, title, overview string) (string, error)
}

// Generator bundles the template functions with an optional LLM-backed
// hint explainer.
type Generator struct {
	explainer HintExplainer
	logger    zerolog.Logger
}

// NewGenerator creates a rationale generator. explainer may be nil to
// disable hint rationales.
func NewGenerator(explainer HintExplainer, logger zerolog.Logger) *Generator {
	return &Generator{
		explainer: explainer,
		logger:    logger.With().Str("component", "rationale").Logger(),
	}
}

// Rationale generates the main explanation text.
func (g *Generator) Rationale(recID, state, pace string) string {
	return Rationale(recID, state, pace)
}

// WhenToWatch generates the viewing-moment suggestion.
func (g *Generator) WhenToWatch(recID, state, pace string) string {
	return WhenToWatch(recID, state, pace)
}

// DeltaExplainer generates the "another" change explanation.
func (g *Generator) DeltaExplainer(deltaType, newValue, recID string) string {
	return DeltaExplainer(deltaType, newValue, recID)
}

// HintRationale asks the LLM why the item matches the hint. Fail-open:
// any error, spoiler, or missing input yields "" and the caller falls
// back to the template rationale alone.
func (g *Generator) HintRationale(ctx context.Context, hint, title, overview string) string {
	if g.explainer == nil || hint == "" || overview == "" {
		return ""
	}

	text, err := g.explainer.ExplainMatch(ctx, hint, title, overview)
	if err != nil {
		g.logger.Debug().Err(err).Msg("hint rationale unavailable")
		return ""
	}

	text = strings.TrimSpace(text)
	if text == "" || containsSpoiler(text) {
		return ""
	}
	return sanitize(text, maxHintRationaleLength)
}
