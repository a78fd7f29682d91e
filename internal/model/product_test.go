package model

import "testing"

func TestValidCondition(t *testing.T) {
	for _, ok := range []string{ConditionNew, ConditionNinety, ConditionEighty, ConditionFlawed} {
		if !ValidCondition(ok) {
			t.Errorf("ValidCondition(%q) = false", ok)
		}
	}
	for _, bad := range []string{"", "new", "全新 ", "十成新"} {
		if ValidCondition(bad) {
			t.Errorf("ValidCondition(%q) = true", bad)
		}
	}
}

func TestValidEvaluation(t *testing.T) {
	for _, ok := range []string{EvalGood, EvalNeutral, EvalBad} {
		if !ValidEvaluation(ok) {
			t.Errorf("ValidEvaluation(%q) = false", ok)
		}
	}
	for _, bad := range []string{"", "great", "GOOD"} {
		if ValidEvaluation(bad) {
			t.Errorf("ValidEvaluation(%q) = true", bad)
		}
	}
}
