package pipeline

import (
	"sort"
	"strings"
)

// Deduplicate partitions a daily batch into duplicate groups: articles tied by
// identical canonical URL, title similarity at or above the configured
// threshold, or equal content fingerprints share a group. Grouping is the
// transitive closure over the union of those relations, computed with an
// explicit union-find rather than relying on any single relation being
// transitive. Every eligible input article lands in exactly one group;
// articles missing both URL and title are returned in skipped instead of
// crashing the batch.
//
// The result is deterministic for a given input set regardless of input
// order: representative choice and group ordering are defined over stable
// article keys, never over arrival order.
func Deduplicate(articles []Article, opts Options) (groups []Group, skipped []Article) {
	opts = opts.withDefaults()

	eligible := make([]Article, 0, len(articles))
	for _, a := range articles {
		if strings.TrimSpace(a.URL) == "" && strings.TrimSpace(a.Title) == "" {
			skipped = append(skipped, a)
			continue
		}
		eligible = append(eligible, a)
	}
	if len(eligible) == 0 {
		return nil, skipped
	}

	keys := make([]CanonicalKey, len(eligible))
	prints := make([]Fingerprint, len(eligible))
	for i, a := range eligible {
		keys[i] = Normalize(a, opts)
		prints[i] = FingerprintArticle(a)
	}

	uf := newUnionFind(len(eligible))
	for i := 0; i < len(eligible); i++ {
		for j := i + 1; j < len(eligible); j++ {
			if related(keys[i], keys[j], prints[i], prints[j], opts.TitleSimilarityThreshold) {
				uf.union(i, j)
			}
		}
	}

	byRoot := make(map[int][]int, len(eligible))
	for i := range eligible {
		root := uf.find(i)
		byRoot[root] = append(byRoot[root], i)
	}

	groups = make([]Group, 0, len(byRoot))
	for _, indexes := range byRoot {
		groups = append(groups, buildGroup(eligible, keys, prints, indexes, opts))
	}
	sort.Slice(groups, func(i, j int) bool {
		return moreRepresentative(groups[i].Representative, groups[j].Representative)
	})
	return groups, skipped
}

func related(aKey, bKey CanonicalKey, aPrint, bPrint Fingerprint, threshold float64) bool {
	if aKey.CanonicalURL != "" && aKey.CanonicalURL == bKey.CanonicalURL {
		return true
	}
	if aPrint.Equal(bPrint) {
		return true
	}
	return TitleSimilarity(aKey.NormalizedTitle, bKey.NormalizedTitle) >= threshold
}

func buildGroup(articles []Article, keys []CanonicalKey, prints []Fingerprint, indexes []int, opts Options) Group {
	sort.Slice(indexes, func(i, j int) bool {
		return moreRepresentative(articles[indexes[i]], articles[indexes[j]])
	})

	rep := indexes[0]
	members := make([]Member, 0, len(indexes))
	members = append(members, Member{
		Article:    articles[rep],
		MatchType:  MatchSeed,
		MatchScore: 1,
	})
	for _, idx := range indexes[1:] {
		matchType, score := matchAgainstRepresentative(keys[rep], keys[idx], prints[rep], prints[idx], opts.TitleSimilarityThreshold)
		members = append(members, Member{
			Article:    articles[idx],
			MatchType:  matchType,
			MatchScore: score,
		})
	}

	return Group{
		Representative: articles[rep],
		Members:        members,
	}
}

// matchAgainstRepresentative labels a member by its strongest direct relation
// to the group representative. Members joined only through intermediate
// articles are labeled as chained.
func matchAgainstRepresentative(repKey, key CanonicalKey, repPrint, print Fingerprint, threshold float64) (string, float64) {
	score := TitleSimilarity(repKey.NormalizedTitle, key.NormalizedTitle)
	switch {
	case repKey.CanonicalURL != "" && repKey.CanonicalURL == key.CanonicalURL:
		return MatchURL, score
	case repPrint.Equal(print):
		return MatchContent, score
	case score >= threshold:
		return MatchTitle, score
	default:
		return MatchChain, score
	}
}

// moreRepresentative orders articles by preference for group representative:
// earliest known publication time first, unknown timestamps last, then longest
// body, then lexicographic source, URL, title, and body so the order is total
// on distinct articles.
func moreRepresentative(a, b Article) bool {
	switch {
	case a.PublishedAt != nil && b.PublishedAt == nil:
		return true
	case a.PublishedAt == nil && b.PublishedAt != nil:
		return false
	case a.PublishedAt != nil && b.PublishedAt != nil:
		if !a.PublishedAt.Equal(*b.PublishedAt) {
			return a.PublishedAt.Before(*b.PublishedAt)
		}
	}
	if len(a.Body) != len(b.Body) {
		return len(a.Body) > len(b.Body)
	}
	if a.SourceID != b.SourceID {
		return a.SourceID < b.SourceID
	}
	if a.URL != b.URL {
		return a.URL < b.URL
	}
	if a.Title != b.Title {
		return a.Title < b.Title
	}
	return a.Body < b.Body
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(size int) *unionFind {
	parent := make([]int, size)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{
		parent: parent,
		rank:   make([]int, size),
	}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	rootA := u.find(a)
	rootB := u.find(b)
	if rootA == rootB {
		return
	}
	if u.rank[rootA] < u.rank[rootB] {
		rootA, rootB = rootB, rootA
	}
	u.parent[rootB] = rootA
	if u.rank[rootA] == u.rank[rootB] {
		u.rank[rootA]++
	}
}
