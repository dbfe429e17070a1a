// Package detector holds the heuristic detectors that read a NormalizedText
// and report one DetectorResult each. None of them call a model directly
// except Sentiment, which degrades to its lexicon scan when the model fails.
package detector

import "math"

// Lexicon is the full set of word lists the heuristic detectors consult.
// Every list can be overridden from configuration.
type Lexicon struct {
	ExtremePatterns   []string `yaml:"extreme_patterns"`
	ConspiracyPhrases []string `yaml:"conspiracy_phrases"`
	SensationalWords  []string `yaml:"sensational_words"`
	Anchors           []string `yaml:"anchors"`
	TrustedDomains    []string `yaml:"trusted_domains"`
	SuspiciousDomains []string `yaml:"suspicious_domains"`
}

// DefaultLexicon returns the built-in lists.
func DefaultLexicon() Lexicon {
	return Lexicon{
		ExtremePatterns: []string{
			"100% cure", "miracle cure", "guaranteed", "secret exposed",
			"hidden truth", "shocking revelation", "once in a lifetime",
			"doctors hate this", "banned by", "proven",
		},
		ConspiracyPhrases: []string{
			"they don't want you to know", "mainstream media", "deep state",
			"new world order", "globalist", "agenda", "hoax", "plandemic",
			"sheeple", "wake up",
		},
		SensationalWords: []string{
			"shocking", "unbelievable", "mind-blowing", "secret", "exposed",
			"breaking", "urgent", "you won't believe", "miracle", "cure",
			"conspiracy", "mainstream media", "hidden agenda", "destroy",
		},
		Anchors: []string{
			"WHO", "NASA", "CDC", "UN", "FBI", "Apple", "Google", "Microsoft",
			"White House", "Parliament", "Supreme Court", "BBC", "CNN",
		},
		TrustedDomains: []string{
			"reuters.com", "apnews.com", "bbc.com", "npr.org", "pbs.org",
			"nytimes.com", "washingtonpost.com", "wsj.com", "ft.com",
			"economist.com", "bloomberg.com", "theguardian.com", "snopes.com",
			"factcheck.org", "politifact.com", "nasa.gov", "who.int",
			"cdc.gov", "nih.gov", "un.org",
		},
		SuspiciousDomains: []string{
			"theonion.com", "babylonbee.com", "infowars.com", "naturalnews.com",
			"zerohedge.com", "breitbart.com", "sputniknews.com", "rt.com",
			"dailymail.co.uk", "newspunch.com", "beforeitsnews.com",
		},
	}
}

// Merge fills every empty list of l from def.
func (l Lexicon) Merge(def Lexicon) Lexicon {
	pick := func(v, d []string) []string {
		if len(v) == 0 {
			return append([]string(nil), d...)
		}
		return v
	}
	return Lexicon{
		ExtremePatterns:   pick(l.ExtremePatterns, def.ExtremePatterns),
		ConspiracyPhrases: pick(l.ConspiracyPhrases, def.ConspiracyPhrases),
		SensationalWords:  pick(l.SensationalWords, def.SensationalWords),
		Anchors:           pick(l.Anchors, def.Anchors),
		TrustedDomains:    pick(l.TrustedDomains, def.TrustedDomains),
		SuspiciousDomains: pick(l.SuspiciousDomains, def.SuspiciousDomains),
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
