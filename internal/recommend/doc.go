// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

// Package recommend implements the selection core: it turns a user's
// mood answers into one recommendation using tag matching, learned
// per-context weights, a deterministic novelty nudge, and
// epsilon-greedy exploration.
//
// The engine is deliberately boring about state: every request reads
// what it needs from the stores, computes, writes one selection record,
// and forgets. Determinism comes from seeding the RNG with
// user + day + mode, so a retried request explores the same way.
package recommend
