package pairs

// Example is a single ToMi story/question/answer item.
type Example struct {
	Story        string `json:"story"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	QuestionType string `json:"question_type"`
	StoryType    string `json:"story_type"`
	RequiresToM  bool   `json:"requires_tom"`
	ToMOrder     int    `json:"tom_order,omitempty"`
	BaseType     string `json:"base_question_type,omitempty"`
}

// Pair holds two near-identical scenarios: one that requires theory-of-mind
// reasoning to answer and one that does not.
type Pair struct {
	ToM   Example
	NoToM Example
}

// Group holds the two conditions for one base question type.
type Group struct {
	ToM   []Example
	NoToM []Example
}

// Prompt renders the example as a model prompt: story, then question.
func (e *Example) Prompt() string {
	if e == nil {
		return ""
	}
	return e.Story + "\n" + e.Question
}
