package common

import "fmt"

// ViewMode selects which value of a state aggregate drives the visual encoding.
type ViewMode string

const (
	PerCapita ViewMode = "per_capita"
	Total     ViewMode = "total"
)

func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case PerCapita, "percapita", "per-capita":
		return PerCapita, nil
	case Total, "":
		return Total, nil
	}
	return "", fmt.Errorf("unknown view mode %q", s)
}
