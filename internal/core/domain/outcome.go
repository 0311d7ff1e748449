package domain

// Action is the control-flow decision a stage returns.
type Action string

const (
	// ActionContinue advances to the next stage in the pipeline.
	ActionContinue Action = "continue"
	// ActionRespond terminates the pipeline successfully; the response
	// descriptor is final.
	ActionRespond Action = "respond"
	// ActionFail aborts the normal sequence and transfers control to the
	// pipeline's error stage.
	ActionFail Action = "fail"
)

// Outcome is the tagged result of one stage invocation. Control flow is a
// returned value, never a side channel.
type Outcome struct {
	Action Action
	// Err is set only for ActionFail.
	Err error
}

// Continue proceeds to the next stage.
func Continue() Outcome {
	return Outcome{Action: ActionContinue}
}

// Respond terminates the pipeline with the current response as final.
func Respond() Outcome {
	return Outcome{Action: ActionRespond}
}

// Fail transfers control to the error stage carrying err.
func Fail(err error) Outcome {
	return Outcome{Action: ActionFail, Err: err}
}
