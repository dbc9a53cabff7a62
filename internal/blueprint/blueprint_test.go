package blueprint

import (
	"math"
	"testing"

	"github.com/dmoreno/examgen/internal/exam"
)

func baseConfig(n int, tier exam.Difficulty) exam.ExamConfig {
	return exam.ExamConfig{
		StudentID:    "s1",
		CourseID:     "physics-1",
		NumQuestions: n,
		Difficulty:   tier,
		SubjectMode:  exam.ModeQuantitative,
		Topics:       []string{"Kinematics", "Dynamics", "Energy"},
	}
}

func sumPoints(slots []Slot) float64 {
	s := 0.0
	for _, sl := range slots {
		s += sl.Points
	}
	return s
}

func TestBuild_CountAndScoreInvariants(t *testing.T) {
	b := New(DefaultConfig())
	tiers := []exam.Difficulty{
		exam.DifficultyFundamental,
		exam.DifficultyApplied,
		exam.DifficultyComplex,
		exam.DifficultyGatekeeper,
	}

	for _, tier := range tiers {
		for n := 1; n <= 20; n++ {
			slots := b.Build(baseConfig(n, tier))
			if len(slots) != n {
				t.Fatalf("tier %s n=%d: got %d slots", tier, n, len(slots))
			}
			if diff := math.Abs(sumPoints(slots) - 10.0); diff > 0.01 {
				t.Errorf("tier %s n=%d: points sum %.4f, want 10.00 ±0.01",
					tier, n, sumPoints(slots))
			}
		}
	}
}

func TestBuild_NonPositiveCount(t *testing.T) {
	b := New(DefaultConfig())
	if got := b.Build(baseConfig(0, exam.DifficultyApplied)); len(got) != 0 {
		t.Errorf("count 0: got %d slots", len(got))
	}
	if got := b.Build(baseConfig(-3, exam.DifficultyApplied)); len(got) != 0 {
		t.Errorf("count -3: got %d slots", len(got))
	}
}

func TestBuild_AppliedDistributionScenario(t *testing.T) {
	b := New(DefaultConfig())
	cfg := baseConfig(4, exam.DifficultyApplied)
	cfg.Topics = []string{"Kinematics"}

	slots := b.Build(cfg)
	if len(slots) != 4 {
		t.Fatalf("got %d slots, want 4", len(slots))
	}

	// Applied row {0.3, 0.5, 0.2, 0.0} over 4 questions: floor gives
	// 1 fundamental + 2 applied, and the remainder lands on applied.
	counts := map[exam.Difficulty]int{}
	for _, s := range slots {
		counts[s.Difficulty]++
	}
	if counts[exam.DifficultyFundamental] != 1 || counts[exam.DifficultyApplied] != 3 {
		t.Errorf("distribution = %v, want 1 fundamental / 3 applied", counts)
	}

	if got := sumPoints(slots); math.Abs(got-10.0) > 0.005 {
		t.Errorf("points sum %.4f, want 10.00", got)
	}
	for _, s := range slots {
		if s.TopicID != "Kinematics" {
			t.Errorf("slot %d topic %q, want Kinematics", s.Index, s.TopicID)
		}
	}
}

func TestBuild_RampUpOrdering(t *testing.T) {
	weights := DefaultConfig().BasePoints
	b := New(DefaultConfig())
	slots := b.Build(baseConfig(12, exam.DifficultyComplex))

	for i := 1; i < len(slots); i++ {
		if weights[slots[i].Difficulty] < weights[slots[i-1].Difficulty] {
			t.Fatalf("slot %d (%s) is easier than slot %d (%s)",
				i, slots[i].Difficulty, i-1, slots[i-1].Difficulty)
		}
	}
}

func TestBuild_FocusTopicsOnEvenSlots(t *testing.T) {
	b := New(DefaultConfig())
	cfg := baseConfig(6, exam.DifficultyApplied)
	cfg.Topics = []string{"A", "B", "C"}
	cfg.FocusTopics = []string{"Weak1", "Weak2"}

	slots := b.Build(cfg)
	for _, s := range slots {
		if s.Index%2 == 0 {
			want := cfg.FocusTopics[s.Index%len(cfg.FocusTopics)]
			if s.TopicID != want {
				t.Errorf("even slot %d topic %q, want focus %q", s.Index, s.TopicID, want)
			}
		} else {
			want := cfg.Topics[s.Index%len(cfg.Topics)]
			if s.TopicID != want {
				t.Errorf("odd slot %d topic %q, want pool %q", s.Index, s.TopicID, want)
			}
		}
	}
}

func TestBuild_EmptyPoolFallsBack(t *testing.T) {
	b := New(DefaultConfig())
	cfg := baseConfig(3, exam.DifficultyFundamental)
	cfg.Topics = nil

	for _, s := range b.Build(cfg) {
		if s.TopicID != "general" {
			t.Errorf("slot %d topic %q, want sentinel", s.Index, s.TopicID)
		}
	}
}

func TestBuild_CognitiveMembership(t *testing.T) {
	b := New(DefaultConfig())
	for _, mode := range []exam.SubjectMode{exam.ModeQuantitative, exam.ModeQualitative} {
		cfg := baseConfig(16, exam.DifficultyComplex)
		cfg.SubjectMode = mode
		for _, s := range b.Build(cfg) {
			set := cognitiveCandidates[mode][s.Difficulty]
			found := false
			for _, c := range set {
				if c == s.Cognitive {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("mode %s tier %s: cognitive %q not in candidate set %v",
					mode, s.Difficulty, s.Cognitive, set)
			}
		}
	}
}

func TestBuild_CustomTargetScore(t *testing.T) {
	b := New(Config{TargetScore: 100})
	slots := b.Build(baseConfig(7, exam.DifficultyGatekeeper))
	if got := sumPoints(slots); math.Abs(got-100.0) > 0.01 {
		t.Errorf("points sum %.4f, want 100.00 ±0.01", got)
	}
}
