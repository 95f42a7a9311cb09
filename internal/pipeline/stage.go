package pipeline

import "fmt"

// Stage identifies one pipeline stage. Stages run in declaration order, and
// every stage boundary is a durable resume point.
type Stage int

const (
	StageAnnotate Stage = iota
	StageAnalyze
	StagePlan
	StageInterdocs
	StageOverview
	StageManual
)

var stageNames = [...]string{
	StageAnnotate:  "annotate",
	StageAnalyze:   "analyze",
	StagePlan:      "plan",
	StageInterdocs: "interdocs",
	StageOverview:  "overview",
	StageManual:    "manual",
}

func (s Stage) String() string {
	if int(s) < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Stages lists every stage in execution order.
func Stages() []Stage {
	return []Stage{StageAnnotate, StageAnalyze, StagePlan, StageInterdocs, StageOverview, StageManual}
}

// ParseStage resolves a stage name from the command line.
func ParseStage(name string) (Stage, error) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", name)
}

// StageError attributes a failure to the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
