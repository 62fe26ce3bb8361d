// Package matcher compares a player's combination against a draw.
package matcher

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"lottery-hub/internal/apperr"
	"lottery-hub/internal/models"
)

var validate = validator.New()

// ValidateSelection checks the 5 numbers in [1,50] and 2 stars in [1,12],
// each set without repeats.
func ValidateSelection(sel models.PlayerSelection) error {
	err := validate.Struct(sel)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Configuration(err, "invalid player selection")
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describe(fe))
	}
	return apperr.Configuration(nil, "invalid player selection: %s", strings.Join(problems, "; "))
}

// Evaluate computes the match outcome. It is a pure function of its inputs.
func Evaluate(sel models.PlayerSelection, draw models.DrawResult) (models.MatchOutcome, error) {
	if err := ValidateSelection(sel); err != nil {
		return models.MatchOutcome{}, err
	}

	matchedNumbers := intersect(sel.Numbers, draw.Numbers)
	matchedStars := intersect(sel.Stars, draw.Stars)

	outcome := models.MatchOutcome{
		NumberMatches:  len(matchedNumbers),
		StarMatches:    len(matchedStars),
		MatchedNumbers: matchedNumbers,
		MatchedStars:   matchedStars,
		Tier:           TierFor(len(matchedNumbers), len(matchedStars)),
	}

	for i := range draw.Prizes {
		p := draw.Prizes[i]
		if p.Numbers == outcome.NumberMatches && p.Stars == outcome.StarMatches {
			outcome.Payout = &p
			break
		}
	}

	return outcome, nil
}

// intersect keeps the values of mine present in drawn, in mine's order.
func intersect(mine, drawn []int) []int {
	set := make(map[int]struct{}, len(drawn))
	for _, v := range drawn {
		set[v] = struct{}{}
	}

	out := make([]int, 0, len(mine))
	for _, v := range mine {
		if _, ok := set[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "len":
		return fmt.Sprintf("%s: expected %s values", field, fe.Param())
	case "unique":
		return field + ": values must be unique"
	case "min", "max":
		return fmt.Sprintf("%s: %v out of range", field, fe.Value())
	default:
		return fmt.Sprintf("%s: failed %s", field, fe.Tag())
	}
}
