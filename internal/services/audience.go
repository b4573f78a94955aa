package services

// AudienceProfile carries the copywriting rules for one audience segment:
// the lexicon the post must use, the vocabulary it must avoid, and the
// sampling temperature. Keeping these in a table keeps the orchestrator
// free of copy detail.
type AudienceProfile struct {
	Label           string
	Focus           string
	RequiredLexicon string
	Forbidden       string
	Temperature     float64
}

const DefaultAudience = "solopreneur"

// DefaultAudienceProfiles returns the audience table. Loaded once at
// startup and injected into the ghostwriter.
func DefaultAudienceProfiles() map[string]AudienceProfile {
	return map[string]AudienceProfile{
		"solopreneur": {
			Label:           "Individual Operator",
			Focus:           "Decoupling time from money and the failure of hustle.",
			RequiredLexicon: "Time-liability, linear input, biological limits, permissionless leverage.",
			Forbidden:       "management, headcount, dividends, board of directors, corporate.",
			Temperature:     0.85,
		},
		"agency_owner": {
			Label:           "Systems Architect",
			Focus:           "The removal of the founder as a bottleneck through SOPs and systems.",
			RequiredLexicon: "Throughput, human variable, marginal cost, repeatable units, operational engine.",
			Forbidden:       "hustle, solopreneur, solo, personal brand, passive income.",
			Temperature:     0.8,
		},
		"executive": {
			Label:           "Capital Allocator",
			Focus:           "Asymmetric upside, equity dominance, and capital efficiency.",
			RequiredLexicon: "Capital allocation, structural power, equity, asymmetric returns, market dominance.",
			Forbidden:       "freedom, escape the 9-5, quit your job, happiness, unlock, journey.",
			Temperature:     0.7,
		},
		"ghostwriter": {
			Label:           "Authority Architect",
			Focus:           "Building intellectual gravity and high-signal authority.",
			RequiredLexicon: "Intellectual weight, signal-to-noise, logical dominance, market irrelevance.",
			Forbidden:       "engagement, algorithm, likes, virality, hook, template.",
			Temperature:     0.8,
		},
	}
}
