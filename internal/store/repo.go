package store

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicate is returned when an insert collides with an existing key.
var ErrDuplicate = errors.New("store: duplicate key")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// UserRecord is the persisted form of an account and its progress.
type UserRecord struct {
	Username         string
	PasswordHash     string
	APIKey           string
	XP               int
	Gems             int
	Lives            int
	Streak           int
	CompletedLessons []string
	CurrentLessonID  string
	Level            string
	SeenNotes        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UserRepo persists accounts and the active-session pointer.
type UserRepo interface {
	// Get returns the user, or nil if no such user exists.
	Get(ctx context.Context, username string) (*UserRecord, error)

	// Create inserts a new user. Returns ErrDuplicate if the name is taken.
	Create(ctx context.Context, u *UserRecord) error

	// Save writes every field of u, inserting if necessary.
	Save(ctx context.Context, u *UserRecord) error

	// List returns all users ordered by XP descending.
	List(ctx context.Context) ([]UserRecord, error)

	// SetActive records username as the signed-in user.
	SetActive(ctx context.Context, username string) error

	// ClearActive forgets the signed-in user.
	ClearActive(ctx context.Context) error

	// Active returns the signed-in username, or "" if none.
	Active(ctx context.Context) (string, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageRow aggregates LLM usage for one purpose or model.
type LLMUsageRow struct {
	Key          string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs float64
	Failures     int
}

// AnswerEventData records one graded exercise submission.
type AnswerEventData struct {
	RunID        string
	Username     string
	LessonID     string
	ExerciseID   string
	ExerciseType string
	Answer       string
	Correct      bool
}

// AnswerEventRecord is a stored answer event.
type AnswerEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	AnswerEventData
}

// Lesson outcomes.
const (
	LessonOutcomeCompleted = "completed"
	LessonOutcomeGameOver  = "game_over"
	LessonOutcomeAbandoned = "abandoned"
)

// LessonEventData records how a lesson run ended.
type LessonEventData struct {
	RunID      string
	Username   string
	LessonID   string
	Outcome    string
	Perfect    bool
	XPGained   int
	GemsGained int
}

// LessonEventRecord is a stored lesson event.
type LessonEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LessonEventData
}

// LearnerStats summarizes a user's history.
type LearnerStats struct {
	Answers     int
	Correct     int
	Completions int
	GameOvers   int
	ByType      map[string]TypeAccuracy
}

// TypeAccuracy is the per-exercise-type answer tally.
type TypeAccuracy struct {
	Answers int
	Correct int
}

// Accuracy returns the fraction of correct answers, or 0 with no answers.
func (a TypeAccuracy) Accuracy() float64 {
	if a.Answers == 0 {
		return 0
	}
	return float64(a.Correct) / float64(a.Answers)
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns LLM events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns a single LLM event by ID, or nil if missing.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	// LLMUsageByPurpose aggregates usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageRow, error)

	// LLMUsageByModel aggregates usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMUsageRow, error)

	// AppendAnswer records a graded submission.
	AppendAnswer(ctx context.Context, data AnswerEventData) error

	// AppendLessonOutcome records the end of a lesson run.
	AppendLessonOutcome(ctx context.Context, data LessonEventData) error

	// QueryAnswers returns a user's answers in sequence order.
	QueryAnswers(ctx context.Context, username string, opts QueryOpts) ([]AnswerEventRecord, error)

	// QueryLessonOutcomes returns a user's lesson outcomes in sequence order.
	QueryLessonOutcomes(ctx context.Context, username string, opts QueryOpts) ([]LessonEventRecord, error)

	// Stats summarizes a user's answers and lesson outcomes.
	Stats(ctx context.Context, username string) (*LearnerStats, error)
}
