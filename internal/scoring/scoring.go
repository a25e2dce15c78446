// Package scoring implements the blank evaluation and score arithmetic for
// listening submissions. Everything here is pure: no I/O, no clock.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

// BlankToken marks a blanked-out position in a lesson template and is the
// normal form of an unfilled answer.
const BlankToken = "_____"

// Breakdown holds the blank-level counts produced by Evaluate.
type Breakdown struct {
	BlankCount       int
	FilledBlankCount int
	CorrectCount     int
}

// Evaluate compares three parallel token sequences: original (the blanked
// template, used only to locate blanks), reference (the correct fill) and
// submitted (the learner's fill). A position is a blank iff the trimmed
// original token is empty or the blank sentinel. Non-blank positions are
// narrative filler and never scored.
func Evaluate(original, reference, submitted []string) (Breakdown, error) {
	if len(original) == 0 || len(reference) == 0 || len(submitted) == 0 {
		return Breakdown{}, fmt.Errorf("empty token sequence: %w", domain.ErrInvalidInput)
	}
	if len(original) != len(reference) || len(reference) != len(submitted) {
		return Breakdown{}, fmt.Errorf("token sequences length mismatch (%d/%d/%d): %w",
			len(original), len(reference), len(submitted), domain.ErrInvalidInput)
	}

	var b Breakdown
	for i := range original {
		if !isBlank(original[i]) {
			continue
		}
		b.BlankCount++

		user := normalize(submitted[i])
		if user == BlankToken {
			continue // left unfilled
		}
		b.FilledBlankCount++
		if user == normalize(reference[i]) {
			b.CorrectCount++
		}
	}
	return b, nil
}

// Score converts a breakdown into the difficulty-weighted integer score.
// The difficulty factor is blankCount*2, so a fully correct attempt earns
// exactly twice the blank count. Rounding is half-away-from-zero.
func Score(b Breakdown) int {
	if b.BlankCount == 0 || b.FilledBlankCount == 0 {
		return 0
	}
	difficulty := float64(b.BlankCount * 2)
	return int(roundHalf(float64(b.CorrectCount) / float64(b.BlankCount) * difficulty))
}

// roundHalf rounds half away from zero.
func roundHalf(x float64) float64 {
	return math.Round(x)
}

// Accuracy is the percentage of blanks filled correctly over total blanks,
// rounded to two decimals. Zero blanks yields 0, not a division fault.
func Accuracy(b Breakdown) float64 {
	if b.BlankCount == 0 {
		return 0
	}
	pct := float64(b.CorrectCount) / float64(b.BlankCount) * 100
	return math.Round(pct*100) / 100
}

func isBlank(token string) bool {
	trimmed := strings.TrimSpace(token)
	return trimmed == "" || trimmed == BlankToken
}

// normalize trims and case-folds a token; an absent token collapses to the
// blank sentinel.
func normalize(token string) string {
	trimmed := strings.ToLower(strings.TrimSpace(token))
	if trimmed == "" {
		return BlankToken
	}
	return trimmed
}
