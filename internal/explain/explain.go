// Package explain builds short bilingual reasoning strings from score
// breakdowns. Phrases come from a template catalog so deployments can
// swap wording without touching ranking logic.
package explain

import "sort"

// maxReasons caps how many factor phrases appear in one explanation.
const maxReasons = 2

// Template holds the per-language phrase for one scoring factor.
type Template struct {
	EN string `json:"en"`
	HI string `json:"hi"`
}

// Catalog resolves a factor name to its phrase templates. Implementations
// must be safe for concurrent reads.
type Catalog interface {
	Lookup(factor string) (Template, bool)
}

// StaticCatalog is an immutable in-memory Catalog.
type StaticCatalog map[string]Template

// Lookup implements Catalog.
func (c StaticCatalog) Lookup(factor string) (Template, bool) {
	t, ok := c[factor]
	return t, ok
}

// DefaultCatalog returns the built-in bilingual phrase set covering the
// standard scoring factors.
func DefaultCatalog() StaticCatalog {
	return StaticCatalog{
		"education": {
			EN: "your education matches the requirement",
			HI: "आपकी शिक्षा आवश्यकता से मेल खाती है",
		},
		"age": {
			EN: "your age is within the eligible range",
			HI: "आपकी आयु पात्र सीमा में है",
		},
		"location": {
			EN: "it is available in your state",
			HI: "यह आपके राज्य में उपलब्ध है",
		},
		"category": {
			EN: "it is in a category you prefer",
			HI: "यह आपकी पसंदीदा श्रेणी में है",
		},
		"salary": {
			EN: "the salary is attractive",
			HI: "वेतन आकर्षक है",
		},
	}
}

// Builder turns a score breakdown into one English and one Hindi
// sentence naming the strongest contributing factors. A Builder is
// immutable and safe for concurrent use.
type Builder struct {
	catalog Catalog
}

// NewBuilder creates a Builder. A nil catalog selects the built-in one.
func NewBuilder(catalog Catalog) *Builder {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Builder{catalog: catalog}
}

type contributor struct {
	factor string
	value  float64
}

// Build selects the top contributors from the breakdown, highest
// contribution first with ties broken by factor name, and renders them
// through the catalog. Factors with no positive contribution and factors
// the catalog does not know are skipped. An empty selection falls back to
// a generic sentence so callers always get text.
func (b *Builder) Build(breakdown map[string]float64) (string, string) {
	ranked := make([]contributor, 0, len(breakdown))
	for factor, value := range breakdown {
		if value <= 0 {
			continue
		}
		if _, ok := b.catalog.Lookup(factor); !ok {
			continue
		}
		ranked = append(ranked, contributor{factor: factor, value: value})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].value != ranked[j].value {
			return ranked[i].value > ranked[j].value
		}
		return ranked[i].factor < ranked[j].factor
	})

	if len(ranked) > maxReasons {
		ranked = ranked[:maxReasons]
	}

	if len(ranked) == 0 {
		return "Recommended based on your overall profile.",
			"आपकी समग्र प्रोफ़ाइल के आधार पर सुझाया गया।"
	}

	var en, hi string
	for i, c := range ranked {
		t, _ := b.catalog.Lookup(c.factor)
		if i > 0 {
			en += " and "
			hi += " और "
		}
		en += t.EN
		hi += t.HI
	}

	return "Recommended because " + en + ".",
		"यह इसलिए सुझाया गया क्योंकि " + hi + "।"
}
