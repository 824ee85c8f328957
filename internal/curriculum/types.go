package curriculum

// Level is a coarse proficiency label attached to lessons and learners.
type Level string

const (
	LevelNoviceLow       Level = "Novice Low"
	LevelNoviceMid       Level = "Novice Mid"
	LevelNoviceHigh      Level = "Novice High"
	LevelIntermediateLow Level = "Intermediate Low"
)

// ExerciseType identifies how an exercise collects and grades input.
type ExerciseType string

const (
	SentenceBuilder   ExerciseType = "SENTENCE_BUILDER"
	MultipleChoice    ExerciseType = "MULTIPLE_CHOICE"
	DragAndDrop       ExerciseType = "DRAG_AND_DROP"
	Matching          ExerciseType = "MATCHING"
	Speaking          ExerciseType = "SPEAKING"
	Translation       ExerciseType = "TRANSLATION"
	InterpersonalChat ExerciseType = "INTERPERSONAL_CHAT"
)

// FreeText reports whether the learner types the answer.
func (t ExerciseType) FreeText() bool {
	return t == Translation || t == InterpersonalChat
}

// Lesson is immutable reference content. Catalog order defines the
// prerequisite chain.
type Lesson struct {
	ID             string         `json:"id"`
	Order          int            `json:"order"`
	Title          string         `json:"title"`
	Level          Level          `json:"level"`
	Icon           string         `json:"icon"`
	CanDo          []string       `json:"can_do_statements"`
	Story          string         `json:"story_segment"`
	GrammarFocus   string         `json:"grammar_focus"`
	LinguisticNote LinguisticNote `json:"linguistic_note"`
	ComparisonNote string         `json:"comparison_note"`
	Vocab          []Word         `json:"vocab"`
	Exercises      []Exercise     `json:"exercises"`
}

// LinguisticNote is a short titled explanation shown with the vocabulary.
type LinguisticNote struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Word is a vocabulary entry or a word-bank token.
type Word struct {
	Nalibo             string `json:"nalibo"`
	English            string `json:"english"`
	IPA                string `json:"ipa,omitempty"`
	Category           string `json:"category,omitempty"`
	PronunciationGuide string `json:"pronunciation_guide,omitempty"`
}

// Exercise is one graded item within a lesson.
type Exercise struct {
	ID            string       `json:"id"`
	Type          ExerciseType `json:"type"`
	Prompt        string       `json:"prompt"`
	CorrectAnswer string       `json:"correct_answer"`
	GrammarFocus  string       `json:"grammar_focus"`
	Options       []string     `json:"options,omitempty"`
	Words         []Word       `json:"words,omitempty"`
	Pairs         []Pair       `json:"pairs,omitempty"`
}

// Pair is one left/right entry of a matching exercise.
type Pair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}
