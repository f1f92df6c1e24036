package interview

// ExperienceLevel is the candidate's self-reported seniority
type ExperienceLevel string

const (
	ExperienceEntryLevel ExperienceLevel = "entry-level"
	ExperienceMidLevel   ExperienceLevel = "mid-level"
	ExperienceSenior     ExperienceLevel = "senior"
	ExperienceLead       ExperienceLevel = "lead"
)

// InterviewType selects the style of questions asked
type InterviewType string

const (
	TypeBehavioral  InterviewType = "behavioral"
	TypeTechnical   InterviewType = "technical"
	TypeHRScreening InterviewType = "hr-screening"
	TypeCaseStudy   InterviewType = "case-study"
)

// SessionConfig is the candidate's setup for one interview session.
// It is created at setup and read-only thereafter.
type SessionConfig struct {
	JobRole         string          `json:"jobRole"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel"`
	InterviewType   InterviewType   `json:"interviewType"`
	UseVoice        bool            `json:"useVoice"`
}

// Speaker identifies who produced a transcript turn
type Speaker string

const (
	SpeakerCandidate   Speaker = "candidate"
	SpeakerInterviewer Speaker = "interviewer"
)

// Turn is a single utterance in the transcript
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Transcript is the ordered conversation history. It is append-only: every
// append produces a fresh backing array so earlier snapshots handed out to
// callers are never mutated underneath them.
type Transcript []Turn

// Append returns a new transcript with the given turns added. The receiver
// is left untouched.
func (t Transcript) Append(turns ...Turn) Transcript {
	out := make(Transcript, 0, len(t)+len(turns))
	out = append(out, t...)
	out = append(out, turns...)
	return out
}

// Last returns up to the n most recent turns
func (t Transcript) Last(n int) Transcript {
	if n <= 0 || len(t) <= n {
		return t
	}
	return t[len(t)-n:]
}

// Stage is the orchestrator's state. Transitions are driven only by
// sequencer calls; there are no timers or background transitions.
type Stage int

const (
	StageCollectingSetup Stage = iota
	StageAwaitingTurn
	StageProcessingTurn
	StageConcluding
	StageFeedbackReady
)

// String returns the stage name
func (s Stage) String() string {
	switch s {
	case StageCollectingSetup:
		return "collecting-setup"
	case StageAwaitingTurn:
		return "awaiting-turn"
	case StageProcessingTurn:
		return "processing-turn"
	case StageConcluding:
		return "concluding"
	case StageFeedbackReady:
		return "feedback-ready"
	}
	return "unknown"
}

// FeedbackReport is the terminal artifact of a session. Created once at
// conclusion and handed to persistence unchanged.
type FeedbackReport struct {
	OverallScore        int      `json:"overallScore"`
	CommunicationScore  int      `json:"communicationScore"`
	TechnicalScore      int      `json:"technicalScore"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areasForImprovement"`
	Recommendations     []string `json:"recommendations"`
	DetailedFeedback    string   `json:"detailedFeedback"`

	// Degraded marks the built-in default report returned when the
	// scoring response could not be parsed. Not part of the persisted
	// payload; the user still reaches a feedback screen either way.
	Degraded bool `json:"-"`
}
