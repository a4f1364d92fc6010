// Package domain contains the core domain types for the learning API.
package domain

// UserLanguageRecord is the subset of a user profile the language resolver
// reads. Language fields hold whatever the store returned (nil when absent);
// they are validated by the resolver, not here.
type UserLanguageRecord struct {
	UserID         string
	NativeLanguage any
	TargetLanguage any
	Proficiency    string
	WeakAreas      []string
}

// User is a full learner profile as stored in the users table.
type User struct {
	UserID              string         `dynamodbav:"userId" json:"userId"`
	Email               string         `dynamodbav:"email" json:"email"`
	Name                string         `dynamodbav:"name" json:"name"`
	NativeLanguage      string         `dynamodbav:"nativeLanguage" json:"nativeLanguage"`
	TargetLanguage      string         `dynamodbav:"targetLanguage" json:"targetLanguage"`
	InitialProficiency  string         `dynamodbav:"initialProficiency" json:"initialProficiency"`
	FinalLevel          string         `dynamodbav:"finalLevel" json:"finalLevel"`
	AssessmentScore     float64        `dynamodbav:"assessmentScore" json:"assessmentScore"`
	TotalQuestions      int            `dynamodbav:"totalQuestions" json:"totalQuestions"`
	SkillBreakdown      map[string]any `dynamodbav:"skillBreakdown" json:"skillBreakdown"`
	WeakAreas           []string       `dynamodbav:"weakAreas" json:"weakAreas"`
	StrongAreas         []string       `dynamodbav:"strongAreas" json:"strongAreas"`
	RecommendedFocus    []string       `dynamodbav:"recommendedFocus" json:"recommendedFocus"`
	DetailedResults     []any          `dynamodbav:"detailedResults" json:"detailedResults"`
	OnboardingCompleted bool           `dynamodbav:"onboardingCompleted" json:"onboardingCompleted"`
	AssessmentDate      string         `dynamodbav:"assessmentDate" json:"assessmentDate"`
	CreatedAt           string         `dynamodbav:"createdAt" json:"createdAt"`
	LastLoginAt         string         `dynamodbav:"lastLoginAt" json:"lastLoginAt"`
	Streak              int            `dynamodbav:"streak" json:"streak"`
	TotalLessons        int            `dynamodbav:"totalLessons" json:"totalLessons"`
	TotalWords          int            `dynamodbav:"totalWords" json:"totalWords"`
	AverageAccuracy     float64        `dynamodbav:"averageAccuracy" json:"averageAccuracy"`
	Preferences         Preferences    `dynamodbav:"preferences" json:"preferences"`
	LearningStats       LearningStats  `dynamodbav:"learningStats" json:"learningStats"`
}

// Preferences holds the learner's lesson preferences.
type Preferences struct {
	Difficulty string   `dynamodbav:"difficulty" json:"difficulty"`
	Topics     []string `dynamodbav:"topics" json:"topics"`
	FocusAreas []string `dynamodbav:"focusAreas" json:"focusAreas"`
}

// LearningStats holds aggregate study counters.
type LearningStats struct {
	LessonsCompleted  int     `dynamodbav:"lessonsCompleted" json:"lessonsCompleted"`
	VocabularyLearned int     `dynamodbav:"vocabularyLearned" json:"vocabularyLearned"`
	HoursStudied      float64 `dynamodbav:"hoursStudied" json:"hoursStudied"`
	StreakDays        int     `dynamodbav:"streakDays" json:"streakDays"`
	LastStudyDate     *string `dynamodbav:"lastStudyDate" json:"lastStudyDate"`
}

// VocabularyItem is a saved word in the vocabulary table (userId, wordId).
type VocabularyItem struct {
	UserID         string `dynamodbav:"userId" json:"userId"`
	WordID         string `dynamodbav:"wordId" json:"wordId"`
	Word           string `dynamodbav:"word" json:"word"`
	Translation    string `dynamodbav:"translation" json:"translation"`
	Context        string `dynamodbav:"context" json:"context"`
	Language       string `dynamodbav:"language,omitempty" json:"language,omitempty"`
	NativeLanguage string `dynamodbav:"nativeLanguage,omitempty" json:"nativeLanguage,omitempty"`
	AddedAt        string `dynamodbav:"addedAt" json:"addedAt"`
	MasteryLevel   int    `dynamodbav:"masteryLevel" json:"masteryLevel"`
	ReviewCount    int    `dynamodbav:"reviewCount" json:"reviewCount"`
	CorrectCount   int    `dynamodbav:"correctCount" json:"correctCount"`
}

// Lesson is a generated lesson as stored in the lessons table.
type Lesson struct {
	LessonID       string       `dynamodbav:"lessonId" json:"lessonId"`
	UserID         string       `dynamodbav:"userId" json:"userId"`
	Topic          string       `dynamodbav:"topic" json:"topic"`
	Level          string       `dynamodbav:"level" json:"level"`
	TargetLanguage string       `dynamodbav:"targetLanguage" json:"targetLanguage"`
	NativeLanguage string       `dynamodbav:"nativeLanguage" json:"nativeLanguage"`
	Title          string       `dynamodbav:"title" json:"title"`
	Content        string       `dynamodbav:"content" json:"content"`
	Vocabulary     []LessonWord `dynamodbav:"vocabulary" json:"vocabulary"`
	CulturalNote   string       `dynamodbav:"culturalNote" json:"cultural_note"`
	Exercises      []string     `dynamodbav:"exercises" json:"exercises"`
	Method         string       `dynamodbav:"method" json:"method"`
	CreatedAt      string       `dynamodbav:"createdAt" json:"createdAt"`
}

// LessonWord is one vocabulary entry of a lesson.
type LessonWord struct {
	Word        string `dynamodbav:"word" json:"word"`
	Translation string `dynamodbav:"translation" json:"translation"`
}

// QuizQuestion is one multiple choice question.
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Correct  int      `json:"correct"`
}
