package matcher

import (
	"fmt"

	"lottery-hub/internal/models"
)

// NoPrize is returned for every (numbers, stars) pair outside the table.
var NoPrize = models.PrizeTier{Rank: 0, Label: "No prize"}

// Official Euromillions categories, best first.
var tierTable = []models.PrizeTier{
	tier(1, 5, 2),
	tier(2, 5, 1),
	tier(3, 5, 0),
	tier(4, 4, 2),
	tier(5, 4, 1),
	tier(6, 3, 2),
	tier(7, 4, 0),
	tier(8, 2, 2),
	tier(9, 3, 1),
	tier(10, 3, 0),
	tier(11, 1, 2),
	tier(12, 2, 1),
	tier(13, 2, 0),
}

var tierIndex = func() map[[2]int]models.PrizeTier {
	index := make(map[[2]int]models.PrizeTier, len(tierTable))
	for _, t := range tierTable {
		index[[2]int{t.Numbers, t.Stars}] = t
	}
	return index
}()

func tier(rank, numbers, stars int) models.PrizeTier {
	return models.PrizeTier{
		Rank:    rank,
		Numbers: numbers,
		Stars:   stars,
		Label:   fmt.Sprintf("%d + %d", numbers, stars),
	}
}

// Tiers returns a copy of the prize table ordered by rank.
func Tiers() []models.PrizeTier {
	out := make([]models.PrizeTier, len(tierTable))
	copy(out, tierTable)
	return out
}

// TierFor maps a match count pair to its prize tier.
func TierFor(numbers, stars int) models.PrizeTier {
	if t, ok := tierIndex[[2]int{numbers, stars}]; ok {
		return t
	}
	return NoPrize
}
