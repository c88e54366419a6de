package agent

type State int

const (
	AwaitingUtterance State = iota
	AwaitingModel
	DisplayPlan
	DispatchTool
	EmitOutput
	GiveUp
)

var stateNames = [...]string{
	AwaitingUtterance: "AWAITING_UTTERANCE",
	AwaitingModel:     "AWAITING_MODEL",
	DisplayPlan:       "DISPLAY_PLAN",
	DispatchTool:      "DISPATCH_TOOL",
	EmitOutput:        "EMIT_OUTPUT",
	GiveUp:            "GIVE_UP",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}
