package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// RegionLookup maps two digit FIPS codes, as used by the topology feature ids,
// to the state names used in WasteRecord and PopulationTable. It must follow
// the identifier scheme of the topology in use.
type RegionLookup map[string]string

// NormalizeRegionID turns 6, 6.0, "6" and "06" into "06".
func NormalizeRegionID(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < 100 {
			return fmt.Sprintf("%02d", n)
		}
		return s
	case float64:
		if v == float64(int(v)) {
			return NormalizeRegionID(int(v))
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		if v >= 0 && v < 100 {
			return fmt.Sprintf("%02d", v)
		}
		return strconv.Itoa(v)
	case int64:
		return NormalizeRegionID(int(v))
	}
	return fmt.Sprint(id)
}

func (l RegionLookup) StateName(id any) (string, bool) {
	name, ok := l[NormalizeRegionID(id)]
	return name, ok
}

// RegionOf returns the region id of a state name, if any.
func (l RegionLookup) RegionOf(state string) (string, bool) {
	for id, name := range l {
		if name == state {
			return id, true
		}
	}
	return "", false
}

var DefaultRegions = RegionLookup{
	"01": "Alabama",
	"02": "Alaska",
	"04": "Arizona",
	"05": "Arkansas",
	"06": "California",
	"08": "Colorado",
	"09": "Connecticut",
	"10": "Delaware",
	"11": "District of Columbia",
	"12": "Florida",
	"13": "Georgia",
	"15": "Hawaii",
	"16": "Idaho",
	"17": "Illinois",
	"18": "Indiana",
	"19": "Iowa",
	"20": "Kansas",
	"21": "Kentucky",
	"22": "Louisiana",
	"23": "Maine",
	"24": "Maryland",
	"25": "Massachusetts",
	"26": "Michigan",
	"27": "Minnesota",
	"28": "Mississippi",
	"29": "Missouri",
	"30": "Montana",
	"31": "Nebraska",
	"32": "Nevada",
	"33": "New Hampshire",
	"34": "New Jersey",
	"35": "New Mexico",
	"36": "New York",
	"37": "North Carolina",
	"38": "North Dakota",
	"39": "Ohio",
	"40": "Oklahoma",
	"41": "Oregon",
	"42": "Pennsylvania",
	"44": "Rhode Island",
	"45": "South Carolina",
	"46": "South Dakota",
	"47": "Tennessee",
	"48": "Texas",
	"49": "Utah",
	"50": "Vermont",
	"51": "Virginia",
	"53": "Washington",
	"54": "West Virginia",
	"55": "Wisconsin",
	"56": "Wyoming",
}
