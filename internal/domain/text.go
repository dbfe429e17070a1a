package domain

// Entity is a named entity span reported by the NLP capability.
type Entity struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Token is a single word with its part-of-speech tag.
type Token struct {
	Text string `json:"text"`
	POS  string `json:"pos"`
}

// AnnotatedSentence is one sentence as segmented by the NLP capability.
type AnnotatedSentence struct {
	Text     string   `json:"text"`
	Tokens   []Token  `json:"tokens"`
	Entities []Entity `json:"entities"`
}

// Annotation is the NLP capability output for a whole document.
type Annotation struct {
	Sentences []AnnotatedSentence `json:"sentences"`
	Entities  []Entity            `json:"entities"`
}

// NormalizedText is created once per analysis request and shared read-only
// by every detector. Accessors hand out copies so no stage can mutate it.
type NormalizedText struct {
	raw      string
	cased    string
	clean    string
	urls     []string
	claims   []string
	entities []Entity
}

// NewNormalizedText freezes the normalizer output.
func NewNormalizedText(raw, cased, clean string, urls, claims []string, entities []Entity) NormalizedText {
	return NormalizedText{
		raw:      raw,
		cased:    cased,
		clean:    clean,
		urls:     append([]string(nil), urls...),
		claims:   append([]string(nil), claims...),
		entities: append([]Entity(nil), entities...),
	}
}

// Raw returns the untouched input.
func (n NormalizedText) Raw() string { return n.raw }

// Cased returns the cleaned text before lowercasing.
func (n NormalizedText) Cased() string { return n.cased }

// Clean returns the cleaned lowercase text.
func (n NormalizedText) Clean() string { return n.clean }

// URLs returns the URLs found in the raw input, in order of appearance.
func (n NormalizedText) URLs() []string { return append([]string(nil), n.urls...) }

// Claims returns the claim sentences, in document order.
func (n NormalizedText) Claims() []string { return append([]string(nil), n.claims...) }

// Entities returns the (text, type) pairs, in document order.
func (n NormalizedText) Entities() []Entity { return append([]Entity(nil), n.entities...) }

// FirstURL returns the first URL found in the raw input or "".
func (n NormalizedText) FirstURL() string {
	if len(n.urls) == 0 {
		return ""
	}
	return n.urls[0]
}
