package engine

import (
	"math"
	"math/rand"

	"github.com/Dosada05/matchday/models"
)

type TeamStrength struct {
	Attack  float64 `json:"attack"`
	Defense float64 `json:"defense"`
}

// Strength blends the attributes of a lineup into attack and defense scores.
// Midfielders count towards both, defenders and the goalkeeper only towards defense.
func (c Config) Strength(players []PlayerProfile) TeamStrength {
	var attackTotal, defenseTotal float64
	var attackers, defenders int

	for _, p := range players {
		finishing := float64(p.Attr(models.AttrFinishing, 0))
		dribbling := float64(p.Attr(models.AttrDribbling, 0))
		passing := float64(p.Attr(models.AttrPassing, 0))
		vision := float64(p.Attr(models.AttrVision, 0))
		pace := float64(p.Attr(models.AttrPace, 0))
		tackling := float64(p.Attr(models.AttrTackling, 0))
		marking := float64(p.Attr(models.AttrMarking, 0))
		strength := float64(p.Attr(models.AttrStrength, 0))
		composure := float64(p.Attr(models.AttrComposure, 0))

		switch c.category(p.Position) {
		case CategoryAttack:
			attackTotal += finishing*0.3 + dribbling*0.25 + passing*0.2 + vision*0.15 + pace*0.1
			attackers++
		case CategoryMidfield:
			attackTotal += passing*0.3 + vision*0.25 + dribbling*0.15 + tackling*0.15 + composure*0.15
			attackers++
			defenseTotal += tackling*0.3 + marking*0.2 + passing*0.2 + composure*0.15 + strength*0.15
			defenders++
		case CategoryDefense:
			defenseTotal += tackling*0.35 + marking*0.35 + strength*0.15 + composure*0.15
			defenders++
		case CategoryGoalkeeper:
			defenseTotal += float64(p.Attr(models.AttrGoalkeeping, 0))
			defenders++
		}
	}

	attack, defense := c.DefaultStrength, c.DefaultStrength
	if attackers > 0 {
		attack = attackTotal / float64(attackers)
	}
	if defenders > 0 {
		defense = defenseTotal / float64(defenders)
	}
	return TeamStrength{Attack: attack * c.StrengthScale, Defense: defense * c.StrengthScale}
}

// ExpectedGoals is the Poisson mean for a side attacking against opponentDefense.
func (c Config) ExpectedGoals(attack, opponentDefense, homeBonus float64) float64 {
	xg := c.BaseExpectedGoals + (attack+homeBonus-opponentDefense)*c.GoalsPerStrength
	return math.Max(c.MinExpectedGoals, xg)
}

// poisson draws from a Poisson distribution by multiplying uniform draws
// until the product falls below e^-lambda.
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		k++
		p *= rng.Float64()
		if p <= limit {
			return k - 1
		}
	}
}
