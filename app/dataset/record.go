package dataset

// NotApplicable is the sub_sector value used by rows that have no sub-sector.
const NotApplicable = "Not Applicable"

// WasteRecord is one row of the source table. Records are never mutated after
// loading; every aggregation is a projection over them.
type WasteRecord struct {
	Year      int     `json:"year"`
	State     string  `json:"state"`
	Sector    string  `json:"sector"`
	SubSector string  `json:"sub_sector"`
	FoodType  string  `json:"food_type"`
	TonsWaste float64 `json:"tons_waste"`
}

// Dataset is everything the views need, loaded once per process.
type Dataset struct {
	Records  []WasteRecord
	Topology *Topology
}
