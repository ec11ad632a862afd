package pipeline

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"
)

type annotatedArticle struct {
	ID          int64      `json:"id"`
	SourceID    string     `json:"source_id"`
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	PublishedAt *time.Time `json:"published_at"`
	Group       string     `json:"group"`
}

func loadAnnotatedArticles(t *testing.T) ([]Article, map[string][]int64) {
	t.Helper()

	f, err := os.Open(filepath.FromSlash("testdata/dedup_ground_truth.jsonl"))
	if err != nil {
		t.Fatalf("open ground truth: %v", err)
	}
	defer f.Close()

	var articles []Article
	want := map[string][]int64{}
	line := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line++
		var item annotatedArticle
		if err := json.Unmarshal(scanner.Bytes(), &item); err != nil {
			t.Fatalf("decode ground truth line %d: %v", line, err)
		}
		if item.ID == 0 || item.Group == "" {
			t.Fatalf("line %d: missing id or group annotation", line)
		}
		articles = append(articles, Article{
			ID:          item.ID,
			SourceID:    item.SourceID,
			URL:         item.URL,
			Title:       item.Title,
			Body:        item.Body,
			PublishedAt: item.PublishedAt,
		})
		want[item.Group] = append(want[item.Group], item.ID)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan ground truth: %v", err)
	}
	return articles, want
}

func idSetKey(ids []int64) string {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func groupIDKey(g Group) string {
	ids := make([]int64, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.Article.ID)
	}
	return idSetKey(ids)
}

func TestDeduplicate_MatchesGroundTruthPartition(t *testing.T) {
	t.Parallel()

	articles, want := loadAnnotatedArticles(t)
	groups, skipped := Deduplicate(articles, Options{})
	if len(skipped) != 0 {
		t.Fatalf("expected no skipped articles, got %d", len(skipped))
	}
	if len(groups) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(groups))
	}

	wantKeys := map[string]string{}
	for name, ids := range want {
		wantKeys[idSetKey(ids)] = name
	}
	for _, g := range groups {
		key := groupIDKey(g)
		if _, ok := wantKeys[key]; !ok {
			t.Fatalf("group %q does not match any annotated story", key)
		}
		delete(wantKeys, key)
	}
	for key, name := range wantKeys {
		t.Fatalf("annotated story %q (%s) was not reproduced", name, key)
	}
}

func TestDeduplicate_GroundTruthRepresentativesAndOrderStability(t *testing.T) {
	t.Parallel()

	articles, _ := loadAnnotatedArticles(t)
	groups, _ := Deduplicate(articles, Options{})

	reps := map[int64]struct{}{}
	for _, g := range groups {
		reps[g.Representative.ID] = struct{}{}
	}
	// Earliest published article wins the multi-member groups.
	if _, ok := reps[1]; !ok {
		t.Fatalf("expected article 1 to represent its story, reps=%v", reps)
	}
	if _, ok := reps[4]; !ok {
		t.Fatalf("expected article 4 to represent its story, reps=%v", reps)
	}

	reversed := make([]Article, len(articles))
	for i, a := range articles {
		reversed[len(articles)-1-i] = a
	}
	again, _ := Deduplicate(reversed, Options{})
	if len(again) != len(groups) {
		t.Fatalf("group count changed with input order: %d vs %d", len(again), len(groups))
	}
	for i := range groups {
		if groups[i].Representative.ID != again[i].Representative.ID {
			t.Fatalf("group order or representative changed with input order at %d: %d vs %d",
				i, groups[i].Representative.ID, again[i].Representative.ID)
		}
		if groupIDKey(groups[i]) != groupIDKey(again[i]) {
			t.Fatalf("membership changed with input order at %d", i)
		}
	}
}
