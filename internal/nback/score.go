package nback

// Action is the participant's judgement for a trial.
type Action int

const (
	ActionNone    Action = iota // no response before the window closed
	ActionMatch                 // asserted a match
	ActionNoMatch               // asserted no match
)

func (a Action) String() string {
	switch a {
	case ActionMatch:
		return "match"
	case ActionNoMatch:
		return "no_match"
	default:
		return "none"
	}
}

// MarshalText encodes the action by name.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an action name. Unknown names decode as none.
func (a *Action) UnmarshalText(b []byte) error {
	switch string(b) {
	case "match":
		*a = ActionMatch
	case "no_match":
		*a = ActionNoMatch
	default:
		*a = ActionNone
	}
	return nil
}

// Score decides whether action was the right call for a trial whose
// stimulus did (expected) or did not match its N-back predecessor. Staying
// silent counts as rejecting the match.
func Score(expected bool, action Action) bool {
	if action == ActionNone {
		return !expected
	}
	return (action == ActionMatch) == expected
}

// ResponseKind classifies a scored trial in signal-detection terms.
type ResponseKind int

const (
	Hit ResponseKind = iota
	Miss
	FalseAlarm
	CorrectRejection
)

func (k ResponseKind) String() string {
	switch k {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	case FalseAlarm:
		return "false_alarm"
	default:
		return "correct_rejection"
	}
}

// TrialOutcome is the immutable result of one trial, created when its
// response window resolves.
type TrialOutcome struct {
	TrialIndex    int    `json:"trial_index"`
	GameNumber    int    `json:"game"`
	N             int    `json:"n"`
	ExpectedMatch bool   `json:"expected_match"`
	Action        Action `json:"action"`
	Correct       bool   `json:"correct"`
}

// Kind classifies the outcome.
func (o TrialOutcome) Kind() ResponseKind {
	switch {
	case o.ExpectedMatch && o.Action == ActionMatch:
		return Hit
	case o.ExpectedMatch:
		return Miss
	case o.Action == ActionMatch:
		return FalseAlarm
	default:
		return CorrectRejection
	}
}
