// Package ranking provides the opportunity ranking core: feature
// extraction from (profile, opportunity) pairs, deterministic weighted-sum
// rule scoring with feedback-derived multipliers, confidence estimation,
// and the engine that orchestrates scoring, sorting, and truncation.
//
// The engine selects its scorer once at construction: a pluggable learned
// scorer when one is available, otherwise the built-in rule scorer. The
// choice is reported to callers only through the scoring_method tag on
// results.
package ranking
