// Package blueprint turns an exam request into a point-normalized,
// ordered list of question slots. It is pure planning: no I/O, no
// failure paths. The assembler fills the slots afterwards.
package blueprint

import (
	"math"
	"math/rand/v2"

	"github.com/dmoreno/examgen/internal/exam"
)

// Slot is the plan for one question before any content exists.
// Slots are ephemeral; they only live through assembly.
type Slot struct {
	Index      int
	Difficulty exam.Difficulty
	TopicID    string
	Points     float64
	Cognitive  exam.CognitiveType
}

// Config controls blueprint construction.
type Config struct {
	// TargetScore is the total the slot points must sum to.
	TargetScore float64

	// BasePoints is the raw weight per tier before normalization.
	BasePoints map[exam.Difficulty]float64
}

// DefaultConfig returns the standard 10-point exam configuration.
func DefaultConfig() Config {
	return Config{
		TargetScore: 10.0,
		BasePoints: map[exam.Difficulty]float64{
			exam.DifficultyFundamental: 1.0,
			exam.DifficultyApplied:     1.5,
			exam.DifficultyComplex:     2.5,
			exam.DifficultyGatekeeper:  4.0,
		},
	}
}

// tierOrder lists tiers by ascending base point weight (ramp-up order).
var tierOrder = []exam.Difficulty{
	exam.DifficultyFundamental,
	exam.DifficultyApplied,
	exam.DifficultyComplex,
	exam.DifficultyGatekeeper,
}

// difficultyRatios maps the requested exam tier to per-tier count
// ratios, in tierOrder. Each row sums to 1.
var difficultyRatios = map[exam.Difficulty][4]float64{
	exam.DifficultyFundamental: {0.6, 0.3, 0.1, 0.0},
	exam.DifficultyApplied:     {0.3, 0.5, 0.2, 0.0},
	exam.DifficultyComplex:     {0.1, 0.4, 0.4, 0.1},
	exam.DifficultyGatekeeper:  {0.0, 0.3, 0.4, 0.3},
}

// cognitiveCandidates maps (subject mode, tier) to the cognitive types
// a slot at that position may target. Selection within a set is
// uniform; only membership is guaranteed.
var cognitiveCandidates = map[exam.SubjectMode]map[exam.Difficulty][]exam.CognitiveType{
	exam.ModeQuantitative: {
		exam.DifficultyFundamental: {exam.CognitiveComputational},
		exam.DifficultyApplied:     {exam.CognitiveComputational, exam.CognitiveDebugging},
		exam.DifficultyComplex:     {exam.CognitiveComputational, exam.CognitiveDesign},
		exam.DifficultyGatekeeper:  {exam.CognitiveDesign, exam.CognitiveDebugging},
	},
	exam.ModeQualitative: {
		exam.DifficultyFundamental: {exam.CognitiveDeclarative},
		exam.DifficultyApplied:     {exam.CognitiveDeclarative, exam.CognitiveConceptual},
		exam.DifficultyComplex:     {exam.CognitiveConceptual},
		exam.DifficultyGatekeeper:  {exam.CognitiveConceptual, exam.CognitiveDesign},
	},
}

// Builder creates blueprints.
type Builder struct {
	config Config
}

// New creates a Builder with the given config. Zero-value fields fall
// back to DefaultConfig values.
func New(cfg Config) *Builder {
	def := DefaultConfig()
	if cfg.TargetScore <= 0 {
		cfg.TargetScore = def.TargetScore
	}
	if cfg.BasePoints == nil {
		cfg.BasePoints = def.BasePoints
	}
	return &Builder{config: cfg}
}

// Build produces the ordered slot list for the request. It is a total
// function: a non-positive question count yields an empty blueprint and
// an empty topic pool falls back to a sentinel topic.
func (b *Builder) Build(cfg exam.ExamConfig) []Slot {
	n := cfg.NumQuestions
	if n <= 0 {
		return []Slot{}
	}

	ratios, ok := difficultyRatios[cfg.Difficulty]
	if !ok {
		ratios = difficultyRatios[exam.DifficultyApplied]
	}

	// Floor per tier, then hand the full rounding remainder to the
	// requested tier so the total never undercounts.
	var counts [4]int
	total := 0
	targetIdx := tierIndex(cfg.Difficulty)
	for i, r := range ratios {
		counts[i] = int(math.Floor(float64(n) * r))
		total += counts[i]
	}
	counts[targetIdx] += n - total

	// Tiers emitted in ascending base-point order: easy questions
	// first, the gatekeepers last.
	pool := cfg.Topics
	if len(pool) == 0 {
		pool = []string{"general"}
	}

	slots := make([]Slot, 0, n)
	rawTotal := 0.0
	idx := 0
	for ti, tier := range tierOrder {
		for range counts[ti] {
			raw := b.config.BasePoints[tier]
			rawTotal += raw
			slots = append(slots, Slot{
				Index:      idx,
				Difficulty: tier,
				TopicID:    b.pickTopic(idx, pool, cfg.FocusTopics),
				Points:     raw,
				Cognitive:  pickCognitive(cfg.SubjectMode, tier),
			})
			idx++
		}
	}

	// Normalize points so they sum to the target score. The residual
	// rounding delta lands on the last slot.
	scale := 1.0
	if rawTotal > 0 {
		scale = b.config.TargetScore / rawTotal
	}
	sum := 0.0
	for i := range slots {
		slots[i].Points = round2(slots[i].Points * scale)
		sum += slots[i].Points
	}
	if delta := b.config.TargetScore - sum; delta != 0 {
		last := &slots[len(slots)-1]
		last.Points = round2(last.Points + delta)
	}

	return slots
}

// pickTopic assigns a topic to the slot at idx. Even slots draw from
// the focus list when one exists; everything else cycles the full pool.
func (b *Builder) pickTopic(idx int, pool, focus []string) string {
	if len(focus) > 0 && idx%2 == 0 {
		return focus[idx%len(focus)]
	}
	return pool[idx%len(pool)]
}

// pickCognitive selects one member of the candidate set for the cell.
func pickCognitive(mode exam.SubjectMode, tier exam.Difficulty) exam.CognitiveType {
	byTier, ok := cognitiveCandidates[mode]
	if !ok {
		byTier = cognitiveCandidates[exam.ModeQuantitative]
	}
	set := byTier[tier]
	if len(set) == 0 {
		return exam.CognitiveComputational
	}
	return set[rand.IntN(len(set))]
}

func tierIndex(d exam.Difficulty) int {
	for i, t := range tierOrder {
		if t == d {
			return i
		}
	}
	return 1 // applied
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
