package scoring

import (
	"fmt"
	"math"
	"os"

	"github.com/fluentive/fluentive/internal/models"
	"gopkg.in/yaml.v3"
)

// WeightProfile is a named bundle of category weights. Weights must sum to
// 1.0; the scorer renormalizes when categories are skipped.
type WeightProfile struct {
	Name    string                      `yaml:"name"`
	Weights map[models.Category]float64 `yaml:"weights"`
}

const (
	// ProfileDefault is the weight profile used when proficiency is unknown
	ProfileDefault = "default"
	// ProfileBeginner emphasizes mechanics (spelling, capitalization)
	ProfileBeginner = "beginner"
	// ProfileAdvanced emphasizes vocabulary range and coherence
	ProfileAdvanced = "advanced"
)

// BuiltinProfiles returns the built-in weight profiles keyed by name
func BuiltinProfiles() map[string]WeightProfile {
	return map[string]WeightProfile{
		ProfileDefault: {
			Name: ProfileDefault,
			Weights: map[models.Category]float64{
				models.CategoryGrammar:        0.25,
				models.CategoryVocabulary:     0.15,
				models.CategorySpelling:       0.15,
				models.CategoryFluency:        0.15,
				models.CategoryPunctuation:    0.08,
				models.CategoryCapitalization: 0.07,
				models.CategorySyntax:         0.10,
				models.CategoryCoherence:      0.05,
			},
		},
		ProfileBeginner: {
			Name: ProfileBeginner,
			Weights: map[models.Category]float64{
				models.CategoryGrammar:        0.20,
				models.CategoryVocabulary:     0.15,
				models.CategorySpelling:       0.20,
				models.CategoryFluency:        0.10,
				models.CategoryPunctuation:    0.10,
				models.CategoryCapitalization: 0.10,
				models.CategorySyntax:         0.10,
				models.CategoryCoherence:      0.05,
			},
		},
		ProfileAdvanced: {
			Name: ProfileAdvanced,
			Weights: map[models.Category]float64{
				models.CategoryGrammar:        0.25,
				models.CategoryVocabulary:     0.20,
				models.CategorySpelling:       0.10,
				models.CategoryFluency:        0.15,
				models.CategoryPunctuation:    0.05,
				models.CategoryCapitalization: 0.05,
				models.CategorySyntax:         0.10,
				models.CategoryCoherence:      0.10,
			},
		},
	}
}

// Validate checks the profile's weights cover known categories and sum to 1.0
func (p *WeightProfile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	var sum float64
	for c, w := range p.Weights {
		known := false
		for _, kc := range models.AllCategories {
			if c == kc {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("profile %s: unknown category %q", p.Name, c)
		}
		if w < 0 {
			return fmt.Errorf("profile %s: negative weight for %q", p.Name, c)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("profile %s: weights sum to %.3f, want 1.0", p.Name, sum)
	}
	return nil
}

type profileFile struct {
	Profiles []WeightProfile `yaml:"profiles"`
}

// LoadProfiles reads weight profiles from a YAML file. Loaded profiles
// override built-ins of the same name; unspecified names keep the built-in.
func LoadProfiles(path string) (map[string]WeightProfile, error) {
	out := BuiltinProfiles()
	if path == "" {
		return out, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read weight profiles: %w", err)
	}

	var file profileFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse weight profiles: %w", err)
	}

	for _, p := range file.Profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		out[p.Name] = p
	}
	return out, nil
}

// ProfileForProficiency selects the profile name for a user proficiency level
func ProfileForProficiency(proficiency string) string {
	switch proficiency {
	case "beginner", "elementary":
		return ProfileBeginner
	case "advanced", "proficient":
		return ProfileAdvanced
	default:
		return ProfileDefault
	}
}
