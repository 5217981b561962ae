package estimator

// Candidate is one estimator configuration in the search grid
type Candidate struct {
	Kind              string
	Params            Params
	UsesSampleWeights bool
}

// IsClassifier reports whether the candidate builds a classifier
func (c Candidate) IsClassifier() bool {
	return c.Kind == KindClassifier
}

// New builds an unfitted estimator for the candidate
func (c Candidate) New() (Estimator, error) {
	return New(c.Kind, c.Params)
}

var (
	classifierLosses = []string{"hinge", "log", "modified_huber", "perceptron", "squared_hinge"}
	regressorLosses  = []string{"epsilon_insensitive", "huber", "squared_epsilon_insensitive", "squared_loss"}
	allPenalties     = []string{PenaltyElasticNet, PenaltyL1, PenaltyL2, PenaltyNone}
)

// FullGrid crosses every classifier and regressor configuration with sample weighting on and off
func FullGrid() []Candidate {
	var candidates []Candidate
	for _, classWeight := range []string{ClassWeightBalanced, ""} {
		for _, loss := range classifierLosses {
			for _, penalty := range allPenalties {
				params := DefaultParams(loss, penalty)
				params.ClassWeight = classWeight
				candidates = append(candidates, Candidate{Kind: KindClassifier, Params: params})
			}
		}
	}
	for _, loss := range regressorLosses {
		for _, penalty := range allPenalties {
			candidates = append(candidates, Candidate{Kind: KindRegressor, Params: DefaultParams(loss, penalty)})
		}
	}
	return withSampleWeights(candidates)
}

// CompactGrid is a small grid for quick runs and tests
func CompactGrid() []Candidate {
	var candidates []Candidate
	for _, loss := range []string{"hinge", "log"} {
		candidates = append(candidates, Candidate{Kind: KindClassifier, Params: DefaultParams(loss, PenaltyL2)})
	}
	for _, loss := range []string{"squared_loss", "huber"} {
		candidates = append(candidates, Candidate{Kind: KindRegressor, Params: DefaultParams(loss, PenaltyL2)})
	}
	return withSampleWeights(candidates)
}

// Grid returns the named grid, defaulting to the full grid
func Grid(name string) []Candidate {
	if name == "compact" {
		return CompactGrid()
	}
	return FullGrid()
}

func withSampleWeights(candidates []Candidate) []Candidate {
	out := make([]Candidate, 0, len(candidates)*2)
	for _, usesWeights := range []bool{true, false} {
		for _, candidate := range candidates {
			candidate.UsesSampleWeights = usesWeights
			out = append(out, candidate)
		}
	}
	return out
}
