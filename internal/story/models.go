/*
Package story provides the user story data model, its schema validation and
its markdown rendering.
*/
package story

// Candidate is the minimal form of a story produced by the extraction stage.
// It is never persisted directly.
type Candidate struct {
	Title       string `json:"title" validate:"required,nonblank"`
	Description string `json:"description"`
}

// CandidateList is the structured response expected from the extraction stage.
type CandidateList struct {
	UserStories []Candidate `json:"user_stories" validate:"required,dive"`
}

// UserStory is the fully detailed agile requirement record.
// Title is the natural key inside the store.
type UserStory struct {
	Title              string `json:"title" validate:"required,nonblank"`
	Description        string `json:"description"`
	Role               string `json:"role,omitempty"`
	Feature            string `json:"feature,omitempty"`
	Benefit            string `json:"benefit,omitempty"`
	AcceptanceCriteria string `json:"acceptance_criteria"`
	Constraints        string `json:"constraints,omitempty"`
	Performance        string `json:"performance,omitempty"`
	Security           string `json:"security,omitempty"`
	Dependencies       string `json:"dependencies"`
	Priority           string `json:"priority,omitempty"`
	Estimate           string `json:"estimate,omitempty"`
	Attachments        string `json:"attachments,omitempty"`
}

// Details is the structured response expected from the refinement stage.
// Title and Description are not part of it: they come from the candidate.
type Details struct {
	Role               Text `json:"role"`
	Feature            Text `json:"feature"`
	Benefit            Text `json:"benefit"`
	AcceptanceCriteria Text `json:"acceptance_criteria" validate:"required,nonblank"`
	Constraints        Text `json:"constraints"`
	Performance        Text `json:"performance"`
	Security           Text `json:"security"`
	Dependencies       Text `json:"dependencies"`
	Priority           Text `json:"priority"`
	Estimate           Text `json:"estimate"`
	Attachments        Text `json:"attachments"`
}

// FromCandidate synthesizes a story carrying only the candidate's fields.
func FromCandidate(c Candidate) UserStory {
	return UserStory{
		Title:       c.Title,
		Description: c.Description,
	}
}

// Merge builds the detailed story for a candidate.
func Merge(c Candidate, d Details) UserStory {
	return UserStory{
		Title:              c.Title,
		Description:        c.Description,
		Role:               string(d.Role),
		Feature:            string(d.Feature),
		Benefit:            string(d.Benefit),
		AcceptanceCriteria: string(d.AcceptanceCriteria),
		Constraints:        string(d.Constraints),
		Performance:        string(d.Performance),
		Security:           string(d.Security),
		Dependencies:       string(d.Dependencies),
		Priority:           string(d.Priority),
		Estimate:           string(d.Estimate),
		Attachments:        string(d.Attachments),
	}
}
