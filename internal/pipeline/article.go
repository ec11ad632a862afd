package pipeline

import "time"

// Article is the engine's input record. Instances are immutable once built;
// the engine never mutates them.
type Article struct {
	ID          int64
	SourceID    string
	URL         string
	Title       string
	Body        string
	PublishedAt *time.Time
}

// CanonicalKey holds the comparison key derived from an article.
type CanonicalKey struct {
	CanonicalURL    string
	NormalizedTitle string
}

// Member is one article inside a duplicate group, annotated with the signal
// that tied it to the representative.
type Member struct {
	Article    Article
	MatchType  string
	MatchScore float64
}

// Group is the transitive closure of articles judged to cover the same story.
// Members always includes the representative (as its first element, match type
// "seed").
type Group struct {
	Representative Article
	Members        []Member
}

// Match types recorded on group members.
const (
	MatchSeed    = "seed"
	MatchURL     = "url"
	MatchTitle   = "title"
	MatchContent = "content"
	MatchChain   = "chain"
)

// Rule is one row of a client's classification table.
type Rule struct {
	Client          string
	Section         string
	Topic           string
	Keywords        []string
	RequiredMention string
	SourceWhitelist []string
	Priority        int
	OfferingGated   bool
}

// RuleSet groups rules by client identifier. It is read-only for the duration
// of a run; an empty set is valid and classifies everything as unclassified.
type RuleSet map[string][]Rule

// NewRuleSet groups a flat rule list by client.
func NewRuleSet(rules ...Rule) RuleSet {
	set := make(RuleSet, 4)
	for _, rule := range rules {
		set[rule.Client] = append(set[rule.Client], rule)
	}
	return set
}

// ForClient returns the rules of one client, or nil.
func (rs RuleSet) ForClient(client string) []Rule {
	if rs == nil {
		return nil
	}
	return rs[client]
}

// Assignment records one fired rule for an article.
type Assignment struct {
	Section  string
	Topic    string
	Matches  int
	Priority int
}

// ClassifiedArticle wraps a dedup representative with its section
// assignments, ordered by priority. No assignments means unclassified.
type ClassifiedArticle struct {
	Article     Article
	Assignments []Assignment
}

// Unclassified reports whether no rule fired for the article.
func (c ClassifiedArticle) Unclassified() bool {
	return len(c.Assignments) == 0
}

// SectionUnclassified is the bucket for articles matching no rule.
const SectionUnclassified = "unclassified"

// SectionGroup is the presentation grouping of classified articles.
type SectionGroup struct {
	Section  string
	Priority int
	Articles []ClassifiedArticle
}

// DefaultTitleSimilarityThreshold is the dedup title-equivalence cutoff.
const DefaultTitleSimilarityThreshold = 0.85

var defaultOfferingTerms = []string{
	"lanza nuevo fondo",
	"nuevo fondo de inversión",
	"levanta capital",
	"levantamiento de capital",
	"nuevo vehículo de inversión",
	"lanzamiento de fondo",
}

// Options carries the host-configurable policy knobs. The zero value uses the
// defaults.
type Options struct {
	// TitleSimilarityThreshold is the minimum normalized-title similarity for
	// two articles to be title-equivalent. Zero means the default 0.85.
	TitleSimilarityThreshold float64

	// TrackingParams are query parameter names removed during URL
	// canonicalization, in addition to the always-removed utm_* prefix.
	// Nil means the default denylist.
	TrackingParams []string

	// SectionOrder lists newsletter sections in priority order. Used by rule
	// loaders to derive priorities and by GroupBySection for ordering.
	SectionOrder []string

	// OfferingTerms are the phrases an offering-gated rule additionally
	// requires. Nil means the default set.
	OfferingTerms []string
}

func (o Options) withDefaults() Options {
	if o.TitleSimilarityThreshold <= 0 {
		o.TitleSimilarityThreshold = DefaultTitleSimilarityThreshold
	}
	if o.OfferingTerms == nil {
		o.OfferingTerms = defaultOfferingTerms
	}
	return o
}
