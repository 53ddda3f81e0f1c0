package domain

// Theme is a topical category assigned to a post. The set of known themes is
// closed, but values coming back from the classifier are preserved verbatim
// even when they fall outside the set: aggregation buckets by raw value, so
// an unrecognized theme shows up as its own bucket instead of being silently
// folded into Other.
type Theme string

// known themes
const (
	ThemeAIInfrastructure Theme = "AI Infrastructure"
	ThemeKoreanDiaspora   Theme = "Korean Diaspora"
	ThemeKoreanVC         Theme = "Korean VC Ecosystem"
	ThemeDemographics     Theme = "Demographics & Aging"
	ThemeConsumerTech     Theme = "Consumer Tech"
	ThemeFounderIntel     Theme = "Founder Intelligence"
	ThemeRegulatory       Theme = "Regulatory & Policy"
	ThemeGlobalMacro      Theme = "Global Macro"
	ThemeOther            Theme = "Other"
)

var knownThemes = map[Theme]struct{}{
	ThemeAIInfrastructure: {},
	ThemeKoreanDiaspora:   {},
	ThemeKoreanVC:         {},
	ThemeDemographics:     {},
	ThemeConsumerTech:     {},
	ThemeFounderIntel:     {},
	ThemeRegulatory:       {},
	ThemeGlobalMacro:      {},
	ThemeOther:            {},
}

// Known reports whether the theme belongs to the closed set
func (t Theme) Known() bool {
	_, ok := knownThemes[t]
	return ok
}

// OrDefault returns the theme itself, or Other when unset
func (t Theme) OrDefault() Theme {
	if t == "" {
		return ThemeOther
	}
	return t
}

// Themes returns all known themes in their display order
func Themes() []Theme {
	return []Theme{
		ThemeAIInfrastructure,
		ThemeKoreanDiaspora,
		ThemeKoreanVC,
		ThemeDemographics,
		ThemeConsumerTech,
		ThemeFounderIntel,
		ThemeRegulatory,
		ThemeGlobalMacro,
		ThemeOther,
	}
}
