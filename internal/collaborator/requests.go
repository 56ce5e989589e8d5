package collaborator

import (
	"encoding/json"

	"github.com/qnotes/smap/internal/model"
)

// request is the closed set of bodies the practice endpoint accepts. The
// wire dispatches on an "action" field; here each action is its own type so
// adding one means touching this file, not a string switch elsewhere.
type request interface {
	action() string
}

type getSectionsRequest struct {
	FilingContent string `json:"filing_content,omitempty"`
}

func (getSectionsRequest) action() string { return "get_sections" }

type teachRequest struct {
	Section model.Section `json:"section"`
}

func (teachRequest) action() string { return "teach_smap" }

type gradeRequest struct {
	StudentSMAP map[model.Component]string `json:"student_smap"`
	Section     model.Section              `json:"section"`
}

func (gradeRequest) action() string { return "grade_submission" }

type insightsRequest struct {
	SessionHistory []model.HistoryEntry `json:"session_history"`
}

func (insightsRequest) action() string { return "get_insights" }

type assignNextRequest struct {
	CompletedSections []string        `json:"completed_sections"`
	AvailableSections []model.Section `json:"available_sections"`
}

func (assignNextRequest) action() string { return "assign_next_section" }

// marshalRequest serializes a request with its action tag injected.
func marshalRequest(req request) ([]byte, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	m["action"], err = json.Marshal(req.action())
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}
