package controller

import (
	"encoding/json"

	"github.com/wasteviz/wasteviz/app/common"
)

// Action is a user interaction that changes what the views show.
type Action interface {
	Type() string
}

type YearChanged struct {
	Year int
}

type ModeChanged struct {
	Mode common.ViewMode
}

// StateHovered with an empty State clears the hover.
type StateHovered struct {
	State string
}

// StateClicked selects State, or deselects it when it is already selected.
type StateClicked struct {
	State string
}

// ScrollProgressed carries either a progress in [0, 1] or, when Height is
// set, a raw scroll offset within Height.
type ScrollProgressed struct {
	Progress float64
	Offset   float64
	Height   float64
}

func (YearChanged) Type() string      { return "year_changed" }
func (ModeChanged) Type() string      { return "mode_changed" }
func (StateHovered) Type() string     { return "state_hovered" }
func (StateClicked) Type() string     { return "state_clicked" }
func (ScrollProgressed) Type() string { return "scroll_progressed" }

// actionMessage is the JSON form of every action, eg:
// {"type": "year_changed", "year": 2023}. Hover and click accept either a
// state name or a map region id.
type actionMessage struct {
	Type     string   `json:"type"`
	Year     int      `json:"year"`
	Mode     string   `json:"mode"`
	State    string   `json:"state"`
	Region   string   `json:"region"`
	Progress *float64 `json:"progress"`
	Offset   float64  `json:"offset"`
	Height   float64  `json:"height"`
}

// DecodeAction parses a JSON action. resolve turns region ids into state
// names and may be nil when only names are used.
func DecodeAction(data []byte, resolve func(id string) (string, bool)) (Action, error) {
	var msg actionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, common.BadRequest("malformed action: %v", err)
	}

	state := msg.State
	if state == "" && msg.Region != "" && resolve != nil {
		if name, ok := resolve(msg.Region); ok {
			state = name
		}
	}

	switch msg.Type {
	case "year_changed":
		if msg.Year == 0 {
			return nil, common.BadRequest("year_changed needs a year")
		}
		return YearChanged{Year: msg.Year}, nil
	case "mode_changed":
		mode, err := common.ParseViewMode(msg.Mode)
		if err != nil {
			return nil, common.BadRequest("%v", err)
		}
		return ModeChanged{Mode: mode}, nil
	case "state_hovered":
		return StateHovered{State: state}, nil
	case "state_clicked":
		if state == "" {
			return nil, common.BadRequest("state_clicked needs a state or a known region")
		}
		return StateClicked{State: state}, nil
	case "scroll_progressed":
		if msg.Progress == nil && msg.Height <= 0 {
			return nil, common.BadRequest("scroll_progressed needs a progress or an offset and height")
		}
		a := ScrollProgressed{Offset: msg.Offset, Height: msg.Height}
		if msg.Progress != nil {
			a.Progress = *msg.Progress
		}
		return a, nil
	}
	return nil, common.BadRequest("unknown action type %q", msg.Type)
}
