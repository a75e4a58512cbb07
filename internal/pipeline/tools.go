package pipeline

import "github.com/cloudwego/eino/schema"

// Tool names the extract and refine stages force the model to call.
const (
	ExtractToolName = "submit_user_stories"
	RefineToolName  = "submit_story_details"
)

// extractTool describes story.CandidateList.
var extractTool = &schema.ToolInfo{
	Name: ExtractToolName,
	Desc: "Submit the user stories found in the problem description. Submit an empty list when there are none.",
	ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
		"user_stories": {
			Type:     schema.Array,
			Desc:     "User stories in the order they appear in the text",
			Required: true,
			ElemInfo: &schema.ParameterInfo{
				Type: schema.Object,
				SubParams: map[string]*schema.ParameterInfo{
					"title":       {Type: schema.String, Desc: "Short, unique story title", Required: true},
					"description": {Type: schema.String, Desc: "One or two sentence description", Required: true},
				},
			},
		},
	}),
}

// refineTool describes story.Details.
var refineTool = &schema.ToolInfo{
	Name: RefineToolName,
	Desc: "Submit the detailed fields of one user story.",
	ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
		"role":    {Type: schema.String, Desc: "The user role, e.g. a registered customer", Required: true},
		"feature": {Type: schema.String, Desc: "What the user wants", Required: true},
		"benefit": {Type: schema.String, Desc: "Why the user wants it", Required: true},
		"acceptance_criteria": {
			Type:     schema.Array,
			Desc:     "Testable acceptance criteria, at least one",
			Required: true,
			ElemInfo: &schema.ParameterInfo{Type: schema.String},
		},
		"constraints":  {Type: schema.String, Desc: "Technical or business constraints"},
		"performance":  {Type: schema.String, Desc: "Performance requirements"},
		"security":     {Type: schema.String, Desc: "Security requirements"},
		"dependencies": {Type: schema.String, Desc: "Other stories or systems this depends on"},
		"priority":     {Type: schema.String, Desc: "Priority", Enum: []string{"High", "Medium", "Low"}},
		"estimate":     {Type: schema.String, Desc: "Story points or time estimate"},
		"attachments":  {Type: schema.String, Desc: "Related documents or mockups"},
	}),
}
