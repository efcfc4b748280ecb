package models

import "testing"

func TestStepLogEncodeFullTrace(t *testing.T) {
	s := &StepLog{
		TemporalCheck:  &TemporalCheck{IsOverride: true},
		Plan:           &RetrievalPlan{SearchTerms: []string{"x"}},
		Retrieval:      &RetrievalResults{VectorErr: "milvus down"},
		Reconciliation: &ReconciliationStep{Facts: 2},
		Synthesis:      &SynthesisResult{Content: "hi", Prompt: "p", ModelUsed: "m"},
	}

	out := s.Encode()
	for _, key := range []string{"step0_temporal_check", "step1_planner", "step2_retrieval", "step3_reconciliation", "step4_synthesis", "step5_response"} {
		if _, ok := out[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}

	retrieval, ok := out["step2_retrieval"].(map[string]interface{})
	if !ok {
		t.Fatal("step2_retrieval has the wrong shape")
	}
	if retrieval["vector_error"] != "milvus down" {
		t.Errorf("vector_error = %v", retrieval["vector_error"])
	}
	if _, ok := retrieval["graph_error"]; ok {
		t.Error("graph_error must be omitted when empty")
	}

	synthesis := out["step4_synthesis"].(map[string]interface{})
	if synthesis["model_used"] != "m" || synthesis["degraded"] != false {
		t.Errorf("step4_synthesis = %v", synthesis)
	}
	response := out["step5_response"].(map[string]interface{})
	if response["prompt"] != "p" {
		t.Errorf("step5_response = %v", response)
	}
}

func TestStepLogEncodeOmitsAbsentStages(t *testing.T) {
	s := &StepLog{TemporalCheck: &TemporalCheck{}}
	out := s.Encode()
	if len(out) != 1 {
		t.Errorf("got %d keys, want only step0: %v", len(out), out)
	}
}

func TestStepLogEncodeCacheHit(t *testing.T) {
	s := &StepLog{CacheHit: true}
	out := s.Encode()
	if out["cache_hit"] != true {
		t.Error("cache_hit missing")
	}
	if _, ok := out["step0_temporal_check"]; ok {
		t.Error("a cache hit records no stages")
	}
}

func TestStepLogEncodeNil(t *testing.T) {
	var s *StepLog
	if out := s.Encode(); len(out) != 0 {
		t.Errorf("nil log should encode empty, got %v", out)
	}
}
