package wikibench

import "fmt"

// ReasoningMode is the reasoning intensity requested from the decision
// provider. The core treats it as opaque; the openrouter subpackage maps
// it to model-specific parameters.
type ReasoningMode string

const (
	ReasoningHighest ReasoningMode = "highest"
	ReasoningLowest  ReasoningMode = "lowest"
)

// Condition names one benchmark configuration.
type Condition string

const (
	ConditionBaseline     Condition = "baseline"
	ConditionCutoff       Condition = "cutoff"
	ConditionTips         Condition = "tips"
	ConditionLowReasoning Condition = "low_reasoning"
	ConditionPeerPressure Condition = "peer_pressure"
)

// ConditionConfig describes how a condition varies the decision source
// and its input context. The core navigation algorithm is identical
// across conditions.
type ConditionConfig struct {
	Name            Condition
	Reasoning       ReasoningMode
	PostCutoffOnly  bool // sample only articles created after the cutoff date
	UseTips         bool // prepend tips collected during baseline
	UsePeerPressure bool // prepend the rival scoreboard preamble
	CollectTips     bool // run the tips-collection pass afterwards
}

// Conditions returns the five benchmark conditions in canonical run
// order: baseline must precede tips, which consumes its output.
func Conditions() []ConditionConfig {
	return []ConditionConfig{
		BaselineCondition(),
		{Name: ConditionCutoff, Reasoning: ReasoningHighest, PostCutoffOnly: true},
		{Name: ConditionTips, Reasoning: ReasoningHighest, UseTips: true},
		{Name: ConditionLowReasoning, Reasoning: ReasoningLowest},
		{Name: ConditionPeerPressure, Reasoning: ReasoningHighest, UsePeerPressure: true},
	}
}

// BaselineCondition is the default configuration.
func BaselineCondition() ConditionConfig {
	return ConditionConfig{Name: ConditionBaseline, Reasoning: ReasoningHighest, CollectTips: true}
}

// ConditionByName resolves a condition name.
func ConditionByName(name string) (ConditionConfig, error) {
	for _, c := range Conditions() {
		if string(c.Name) == name {
			return c, nil
		}
	}
	return ConditionConfig{}, fmt.Errorf("unknown condition: %s", name)
}
