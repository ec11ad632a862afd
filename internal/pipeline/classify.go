package pipeline

import (
	"sort"
	"strings"
)

// Classify scores deduplicated representatives against one client's rule
// table and returns one ClassifiedArticle per input, in input order. Pure and
// total: an empty rule table yields all-unclassified output, a rule with no
// usable keywords never fires, and no article is ever dropped.
//
// A rule fires when at least one keyword occurs whole-word (or whole-phrase),
// case- and accent-insensitively, in the article's title or body, the
// required mention (if any) also occurs, and for offering-gated rules one of
// the configured offering terms also occurs. Matching against a source
// whitelist is by exact source id.
func Classify(reps []Article, rules []Rule, opts Options) []ClassifiedArticle {
	opts = opts.withDefaults()

	compiled := compileRules(rules)
	offeringTerms := foldTerms(opts.OfferingTerms)

	classified := make([]ClassifiedArticle, 0, len(reps))
	for _, article := range reps {
		classified = append(classified, classifyOne(article, compiled, offeringTerms))
	}
	return classified
}

type compiledRule struct {
	rule     Rule
	keywords []string
	mention  string
	sources  map[string]struct{}
}

func compileRules(rules []Rule) []compiledRule {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		cr := compiledRule{
			rule:     rule,
			keywords: foldTerms(rule.Keywords),
			mention:  foldText(rule.RequiredMention),
		}
		if len(rule.SourceWhitelist) > 0 {
			set := make(map[string]struct{}, len(rule.SourceWhitelist))
			for _, src := range rule.SourceWhitelist {
				normalized := strings.ToLower(strings.TrimSpace(src))
				if normalized == "" {
					continue
				}
				set[normalized] = struct{}{}
			}
			if len(set) > 0 {
				cr.sources = set
			}
		}
		compiled = append(compiled, cr)
	}
	return compiled
}

func classifyOne(article Article, compiled []compiledRule, offeringTerms []string) ClassifiedArticle {
	matchText := paddedMatchText(article)
	sourceID := strings.ToLower(strings.TrimSpace(article.SourceID))

	var fired []Assignment
	for _, cr := range compiled {
		if cr.sources != nil {
			if _, ok := cr.sources[sourceID]; !ok {
				continue
			}
		}

		matches := 0
		for _, keyword := range cr.keywords {
			if containsPhrase(matchText, keyword) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		if cr.mention != "" && !containsPhrase(matchText, cr.mention) {
			continue
		}
		if cr.rule.OfferingGated && !containsAnyPhrase(matchText, offeringTerms) {
			continue
		}

		fired = append(fired, Assignment{
			Section:  cr.rule.Section,
			Topic:    cr.rule.Topic,
			Matches:  matches,
			Priority: cr.rule.Priority,
		})
	}

	return ClassifiedArticle{
		Article:     article,
		Assignments: resolveAssignments(fired),
	}
}

// resolveAssignments collapses duplicate (section, topic) firings keeping the
// strongest, then orders by priority, section, match count desc, topic.
func resolveAssignments(fired []Assignment) []Assignment {
	if len(fired) == 0 {
		return nil
	}

	type key struct {
		section string
		topic   string
	}
	best := make(map[key]Assignment, len(fired))
	for _, a := range fired {
		k := key{section: a.Section, topic: a.Topic}
		current, exists := best[k]
		if !exists {
			best[k] = a
			continue
		}
		if a.Matches > current.Matches {
			current.Matches = a.Matches
		}
		if a.Priority < current.Priority {
			current.Priority = a.Priority
		}
		best[k] = current
	}

	resolved := make([]Assignment, 0, len(best))
	for _, a := range best {
		resolved = append(resolved, a)
	}
	sort.Slice(resolved, func(i, j int) bool {
		left, right := resolved[i], resolved[j]
		if left.Priority != right.Priority {
			return left.Priority < right.Priority
		}
		if left.Section != right.Section {
			return left.Section < right.Section
		}
		if left.Matches != right.Matches {
			return left.Matches > right.Matches
		}
		return left.Topic < right.Topic
	})
	return resolved
}

// GroupBySection arranges classified articles for presentation: one group per
// fired section ordered by priority ascending (the configured section order
// wins when present), articles within a group ranked by their match count for
// that section, and a trailing unclassified bucket so nothing is dropped.
func GroupBySection(classified []ClassifiedArticle, opts Options) []SectionGroup {
	opts = opts.withDefaults()

	orderIndex := make(map[string]int, len(opts.SectionOrder))
	for i, section := range opts.SectionOrder {
		orderIndex[section] = i
	}

	type bucket struct {
		priority int
		articles []ClassifiedArticle
		matches  map[int]int
	}
	buckets := make(map[string]*bucket)
	var unclassified []ClassifiedArticle

	for _, ca := range classified {
		if ca.Unclassified() {
			unclassified = append(unclassified, ca)
			continue
		}
		seen := make(map[string]struct{}, len(ca.Assignments))
		for _, a := range ca.Assignments {
			if _, dup := seen[a.Section]; dup {
				continue
			}
			seen[a.Section] = struct{}{}

			b, ok := buckets[a.Section]
			if !ok {
				priority := a.Priority
				if idx, configured := orderIndex[a.Section]; configured {
					priority = idx
				}
				b = &bucket{priority: priority, matches: make(map[int]int)}
				buckets[a.Section] = b
			}
			b.matches[len(b.articles)] = bestSectionMatches(ca, a.Section)
			b.articles = append(b.articles, ca)
		}
	}

	groups := make([]SectionGroup, 0, len(buckets)+1)
	for section, b := range buckets {
		articles := b.articles
		matches := b.matches
		order := make([]int, len(articles))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(i, j int) bool {
			left, right := order[i], order[j]
			if matches[left] != matches[right] {
				return matches[left] > matches[right]
			}
			return moreRepresentative(articles[left].Article, articles[right].Article)
		})
		sorted := make([]ClassifiedArticle, 0, len(articles))
		for _, idx := range order {
			sorted = append(sorted, articles[idx])
		}
		groups = append(groups, SectionGroup{
			Section:  section,
			Priority: b.priority,
			Articles: sorted,
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Priority != groups[j].Priority {
			return groups[i].Priority < groups[j].Priority
		}
		return groups[i].Section < groups[j].Section
	})

	if len(unclassified) > 0 {
		sort.Slice(unclassified, func(i, j int) bool {
			return moreRepresentative(unclassified[i].Article, unclassified[j].Article)
		})
		groups = append(groups, SectionGroup{
			Section:  SectionUnclassified,
			Priority: len(opts.SectionOrder) + len(buckets) + 1,
			Articles: unclassified,
		})
	}
	return groups
}

func bestSectionMatches(ca ClassifiedArticle, section string) int {
	best := 0
	for _, a := range ca.Assignments {
		if a.Section == section && a.Matches > best {
			best = a.Matches
		}
	}
	return best
}

func paddedMatchText(a Article) string {
	folded := foldText(a.Title + " " + a.Body)
	if folded == "" {
		return ""
	}
	return " " + folded + " "
}

func containsPhrase(paddedText, phrase string) bool {
	if paddedText == "" || phrase == "" {
		return false
	}
	return strings.Contains(paddedText, " "+phrase+" ")
}

func containsAnyPhrase(paddedText string, phrases []string) bool {
	for _, phrase := range phrases {
		if containsPhrase(paddedText, phrase) {
			return true
		}
	}
	return false
}

func foldTerms(terms []string) []string {
	folded := make([]string, 0, len(terms))
	for _, term := range terms {
		f := foldText(term)
		if f == "" {
			continue
		}
		folded = append(folded, f)
	}
	return folded
}
