package alloc

import "github.com/matzehuels/bedplan/pkg/garden"

// worstLight is returned for levels outside the table.
const worstLight = 2

// lightTable[bed][plant] is the preference penalty; lower is better.
var lightTable = map[garden.Light]map[garden.Light]float64{
	garden.LightLow: {
		garden.LightLow:    0,
		garden.LightMedium: 1,
		garden.LightHigh:   2,
	},
	garden.LightMedium: {
		garden.LightLow:    1,
		garden.LightMedium: 0,
		garden.LightHigh:   1,
	},
	garden.LightHigh: {
		garden.LightLow:    2,
		garden.LightMedium: 1,
		garden.LightHigh:   0,
	},
}

// LightScore scores how well a bed's light level suits a plant; lower is
// better. It always returns 0 when prioritize is false.
func LightScore(plant, bed garden.Light, prioritize bool) float64 {
	if !prioritize {
		return 0
	}
	row, ok := lightTable[bed]
	if !ok {
		return worstLight
	}
	s, ok := row[plant]
	if !ok {
		return worstLight
	}
	return s
}
