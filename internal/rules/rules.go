package rules

import (
	"fmt"

	"github.com/marketlens/intrascan/internal/domain"
)

// Op is one comparison operator from the closed condition vocabulary.
type Op string

const (
	OpGTE Op = "gte"
	OpGT  Op = "gt"
	OpLTE Op = "lte"
	OpLT  Op = "lt"
	OpEQ  Op = "eq"
	OpNEQ Op = "neq"
)

// Condition compares one named snapshot field against a threshold. Thresholds
// are rule parameters, never hardcoded in the engine.
type Condition struct {
	Field     string  `yaml:"field" json:"field"`
	Op        Op      `yaml:"op" json:"op"`
	Threshold float64 `yaml:"threshold" json:"threshold"`
}

// Rule is a named, weighted predicate over an IndicatorSnapshot. All
// conditions must hold for the rule to match. Rules are configuration data
// loaded once and read-only during a scan.
type Rule struct {
	Name       string      `yaml:"name" json:"name"`
	Enabled    bool        `yaml:"enabled" json:"enabled"`
	Weight     float64     `yaml:"weight" json:"weight"`
	Conditions []Condition `yaml:"conditions" json:"conditions"`
}

// RuleSet is an ordered rule collection for one strategy. Evaluation order is
// declaration order.
type RuleSet struct {
	Strategy string `yaml:"strategy" json:"strategy"`
	Rules    []Rule `yaml:"rules" json:"rules"`
}

// Validate rejects rule sets with unknown operators or empty names up front
// so a scan never has to guess at malformed configuration.
func (rs RuleSet) Validate() error {
	for i, rule := range rs.Rules {
		if rule.Name == "" {
			return fmt.Errorf("rule %d has no name", i)
		}
		for _, cond := range rule.Conditions {
			switch cond.Op {
			case OpGTE, OpGT, OpLTE, OpLT, OpEQ, OpNEQ:
			default:
				return fmt.Errorf("rule %q: unknown operator %q", rule.Name, cond.Op)
			}
		}
	}
	return nil
}

// Evaluate runs every enabled rule against the snapshot, returning verdicts
// in declaration order. Disabled rules are skipped entirely. A condition that
// references an unknown field, or an unknown operator, makes that one rule
// unmatched; it never aborts the remaining rules.
func Evaluate(snap domain.IndicatorSnapshot, set RuleSet) []domain.RuleVerdict {
	verdicts := make([]domain.RuleVerdict, 0, len(set.Rules))
	for _, rule := range set.Rules {
		if !rule.Enabled {
			continue
		}
		matched := evalRule(snap, rule)
		contribution := 0.0
		if matched {
			contribution = rule.Weight
		}
		verdicts = append(verdicts, domain.RuleVerdict{
			RuleName:     rule.Name,
			Matched:      matched,
			Contribution: contribution,
		})
	}
	return verdicts
}

func evalRule(snap domain.IndicatorSnapshot, rule Rule) bool {
	if len(rule.Conditions) == 0 {
		return false
	}
	for _, cond := range rule.Conditions {
		value, ok := fieldValue(snap, cond.Field)
		if !ok {
			return false
		}
		if !compare(value, cond.Op, cond.Threshold) {
			return false
		}
	}
	return true
}

func compare(value float64, op Op, threshold float64) bool {
	switch op {
	case OpGTE:
		return value >= threshold
	case OpGT:
		return value > threshold
	case OpLTE:
		return value <= threshold
	case OpLT:
		return value < threshold
	case OpEQ:
		return value == threshold
	case OpNEQ:
		return value != threshold
	default:
		return false
	}
}

// fieldValue resolves a condition's field reference against the snapshot.
func fieldValue(snap domain.IndicatorSnapshot, field string) (float64, bool) {
	switch field {
	case "opening_price":
		return snap.OpeningPrice, true
	case "current_price":
		return snap.CurrentPrice, true
	case "day_high":
		return snap.DayHigh, true
	case "day_low":
		return snap.DayLow, true
	case "total_volume":
		return snap.TotalVolume, true
	case "relative_volume":
		return snap.RelativeVolume, true
	case "price_change_pct":
		return snap.PriceChangePct, true
	case "volatility_pct":
		return snap.VolatilityPct, true
	case "rsi":
		return snap.RSI, true
	case "short_ma":
		return snap.ShortMA, true
	case "long_ma":
		return snap.LongMA, true
	default:
		return 0, false
	}
}
