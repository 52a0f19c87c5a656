package engine

import "github.com/Dosada05/matchday/models"

// PositionCategory groups positions by their role in the strength model.
type PositionCategory string

const (
	CategoryAttack     PositionCategory = "attack"
	CategoryMidfield   PositionCategory = "midfield"
	CategoryDefense    PositionCategory = "defense"
	CategoryGoalkeeper PositionCategory = "goalkeeper"
)

// Config holds every tunable of the outcome model. The zero value is not
// usable, start from DefaultConfig.
type Config struct {
	LineupSize int

	// Team strength is a 1-20 attribute blend scaled by StrengthScale,
	// giving roughly a 0-100 range. DefaultStrength is used when a side
	// has no players in a category.
	StrengthScale   float64
	DefaultStrength float64
	HomeAdvantage   float64

	// Expected goals = BaseExpectedGoals + (attack - opposing defense) * GoalsPerStrength,
	// never below MinExpectedGoals.
	BaseExpectedGoals float64
	GoalsPerStrength  float64
	MinExpectedGoals  float64

	AssistProbability float64
	GoalPropensity    map[string]float64
	AssistPropensity  map[string]float64
	Categories        map[string]PositionCategory

	YellowCardBase       float64
	YellowCardPerFoul    float64
	YellowCardDiscipline float64
	RedCardBase          float64
	RedCardPerFoul       float64
	RedCardDiscipline    float64
	InjuryBase           float64
	InjuryPerOverall     float64

	MinRating   float64
	MaxRating   float64
	MOTMCount   int
	MatchLength int
}

func DefaultConfig() Config {
	return Config{
		LineupSize:        11,
		StrengthScale:     4.95,
		DefaultStrength:   12,
		HomeAdvantage:     3,
		BaseExpectedGoals: 1.5,
		GoalsPerStrength:  0.025,
		MinExpectedGoals:  0,
		AssistProbability: 0.85,
		GoalPropensity: map[string]float64{
			models.PositionST:  0.35,
			models.PositionCF:  0.3,
			models.PositionLW:  0.15,
			models.PositionRW:  0.15,
			models.PositionCAM: 0.1,
			models.PositionLM:  0.06,
			models.PositionRM:  0.06,
			models.PositionCM:  0.05,
			models.PositionCDM: 0.03,
			models.PositionLWB: 0.02,
			models.PositionRWB: 0.02,
			models.PositionCB:  0.02,
			models.PositionLB:  0.02,
			models.PositionRB:  0.02,
			models.PositionGK:  0,
		},
		AssistPropensity: map[string]float64{
			models.PositionCAM: 0.35,
			models.PositionLW:  0.3,
			models.PositionRW:  0.3,
			models.PositionLM:  0.25,
			models.PositionRM:  0.25,
			models.PositionCM:  0.2,
			models.PositionCF:  0.2,
			models.PositionST:  0.15,
			models.PositionLWB: 0.15,
			models.PositionRWB: 0.15,
			models.PositionLB:  0.1,
			models.PositionRB:  0.1,
			models.PositionCDM: 0.1,
			models.PositionCB:  0.03,
			models.PositionGK:  0.01,
		},
		Categories: map[string]PositionCategory{
			models.PositionST:  CategoryAttack,
			models.PositionCF:  CategoryAttack,
			models.PositionLW:  CategoryAttack,
			models.PositionRW:  CategoryAttack,
			models.PositionCAM: CategoryMidfield,
			models.PositionCM:  CategoryMidfield,
			models.PositionCDM: CategoryMidfield,
			models.PositionLM:  CategoryMidfield,
			models.PositionRM:  CategoryMidfield,
			models.PositionCB:  CategoryDefense,
			models.PositionLB:  CategoryDefense,
			models.PositionRB:  CategoryDefense,
			models.PositionLWB: CategoryDefense,
			models.PositionRWB: CategoryDefense,
			models.PositionGK:  CategoryGoalkeeper,
		},
		YellowCardBase:       0.02,
		YellowCardPerFoul:    0.01,
		YellowCardDiscipline: 0.005,
		RedCardBase:          0.002,
		RedCardPerFoul:       0.005,
		RedCardDiscipline:    0.001,
		InjuryBase:           0.01,
		InjuryPerOverall:     0.0005,
		MinRating:            4,
		MaxRating:            10,
		MOTMCount:            2,
		MatchLength:          90,
	}
}

func (c Config) category(position string) PositionCategory {
	if cat, ok := c.Categories[position]; ok {
		return cat
	}
	return CategoryMidfield
}
