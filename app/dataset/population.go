package dataset

// PopulationTable maps a state name to its population for a fixed reference year.
type PopulationTable map[string]int64

// PerCapitaUnit is the number of residents per-capita values are expressed in.
const PerCapitaUnit = 10000

// Divisor returns population / PerCapitaUnit. States that are missing or have
// a non-positive population have no divisor.
func (p PopulationTable) Divisor(state string) (float64, bool) {
	pop, ok := p[state]
	if !ok || pop <= 0 {
		return 0, false
	}
	return float64(pop) / PerCapitaUnit, true
}

// DefaultPopulation holds 2023 census estimates.
var DefaultPopulation = PopulationTable{
	"Alabama":              5108468,
	"Alaska":               733406,
	"Arizona":              7431344,
	"Arkansas":             3067732,
	"California":           38965193,
	"Colorado":             5877610,
	"Connecticut":          3617176,
	"Delaware":             1031890,
	"District of Columbia": 678972,
	"Florida":              22610726,
	"Georgia":              11029227,
	"Hawaii":               1435138,
	"Idaho":                1964726,
	"Illinois":             12549689,
	"Indiana":              6862199,
	"Iowa":                 3207004,
	"Kansas":               2940546,
	"Kentucky":             4526154,
	"Louisiana":            4573749,
	"Maine":                1395722,
	"Maryland":             6180253,
	"Massachusetts":        7001399,
	"Michigan":             10037261,
	"Minnesota":            5737915,
	"Mississippi":          2939690,
	"Missouri":             6196156,
	"Montana":              1132812,
	"Nebraska":             1978379,
	"Nevada":               3194176,
	"New Hampshire":        1402054,
	"New Jersey":           9290841,
	"New Mexico":           2114371,
	"New York":             19571216,
	"North Carolina":       10835491,
	"North Dakota":         783926,
	"Ohio":                 11785935,
	"Oklahoma":             4053824,
	"Oregon":               4233358,
	"Pennsylvania":         12961683,
	"Rhode Island":         1095962,
	"South Carolina":       5373555,
	"South Dakota":         919318,
	"Tennessee":            7126489,
	"Texas":                30503301,
	"Utah":                 3417734,
	"Vermont":              647464,
	"Virginia":             8715698,
	"Washington":           7812880,
	"West Virginia":        1770071,
	"Wisconsin":            5910955,
	"Wyoming":              584057,
}
