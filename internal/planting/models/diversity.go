package models

import (
	"arbor/pkg/domain"
	dErrors "arbor/pkg/domain-errors"
)

// MaxDiversitySpecies bounds either percentage list.
const MaxDiversitySpecies = 256

// SpeciesTarget is one entry of the target mapping.
type SpeciesTarget struct {
	Species          string `json:"species"`
	TargetPercentage int64  `json:"targetPercentage"`
}

// SpeciesObservation is one entry of the observed mapping.
type SpeciesObservation struct {
	Species           string `json:"species"`
	CurrentPercentage int64  `json:"currentPercentage"`
}

// SpeciesDiversityGoals is the registry-wide singleton. Percentages are
// independent per species; nothing requires them to sum to 100.
type SpeciesDiversityGoals struct {
	TargetPercentages  []SpeciesTarget      `json:"targetPercentages"`
	CurrentPercentages []SpeciesObservation `json:"currentPercentages"`
	LastUpdated        domain.Timestamp     `json:"lastUpdated"`
}

// EmptyDiversityGoals is the starting point before anything has been set.
func EmptyDiversityGoals() *SpeciesDiversityGoals {
	return &SpeciesDiversityGoals{
		TargetPercentages:  []SpeciesTarget{},
		CurrentPercentages: []SpeciesObservation{},
	}
}

// ReplaceTargets swaps in a new target list.
func (g *SpeciesDiversityGoals) ReplaceTargets(targets []SpeciesTarget, now domain.Timestamp) error {
	pairs := make([]speciesPercent, len(targets))
	for i, t := range targets {
		pairs[i] = speciesPercent{t.Species, t.TargetPercentage}
	}
	if err := checkPercentages(pairs); err != nil {
		return err
	}
	g.TargetPercentages = append([]SpeciesTarget{}, targets...)
	g.touch(now)
	return nil
}

// ReplaceObservations swaps in newly measured percentages.
func (g *SpeciesDiversityGoals) ReplaceObservations(observed []SpeciesObservation, now domain.Timestamp) error {
	pairs := make([]speciesPercent, len(observed))
	for i, o := range observed {
		pairs[i] = speciesPercent{o.Species, o.CurrentPercentage}
	}
	if err := checkPercentages(pairs); err != nil {
		return err
	}
	g.CurrentPercentages = append([]SpeciesObservation{}, observed...)
	g.touch(now)
	return nil
}

func (g *SpeciesDiversityGoals) touch(now domain.Timestamp) {
	if now > g.LastUpdated {
		g.LastUpdated = now
	}
}

type speciesPercent struct {
	species string
	percent int64
}

func checkPercentages(entries []speciesPercent) error {
	if len(entries) > MaxDiversitySpecies {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "at most %d species", MaxDiversitySpecies)
	}
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.species == "" {
			return dErrors.New(dErrors.CodeInvariantViolation, "species is required")
		}
		if _, dup := seen[e.species]; dup {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "species %q listed twice", e.species)
		}
		seen[e.species] = struct{}{}
		if e.percent < 0 {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "percentage for %q cannot be negative", e.species)
		}
		if e.percent > 100 {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "percentage for %q cannot exceed 100", e.species)
		}
	}
	return nil
}
