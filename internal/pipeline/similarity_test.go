package pipeline

import "testing"

func TestTitleSimilarity_PunctuationOnlyDifference(t *testing.T) {
	t.Parallel()

	left := foldText("Banco Central sube tasa a 5.5%")
	right := foldText("Banco Central sube tasa a 5,5%")
	if score := TitleSimilarity(left, right); score != 1 {
		t.Fatalf("expected punctuation-only variants to score 1.0, got %f", score)
	}
}

func TestTitleSimilarity_WordOrderTolerant(t *testing.T) {
	t.Parallel()

	left := foldText("ACAFI presenta nuevo estudio de fondos")
	right := foldText("Nuevo estudio de fondos presenta ACAFI")
	if score := TitleSimilarity(left, right); score < DefaultTitleSimilarityThreshold {
		t.Fatalf("expected reordered title to stay above threshold, got %f", score)
	}
}

func TestTitleSimilarity_SymmetricAndReflexive(t *testing.T) {
	t.Parallel()

	left := foldText("Fondos inmobiliarios crecen 12% en el año")
	right := foldText("Fondos de deuda privada crecen en el año")

	ab := TitleSimilarity(left, right)
	ba := TitleSimilarity(right, left)
	if ab != ba {
		t.Fatalf("similarity is not symmetric: ab=%f ba=%f", ab, ba)
	}
	if score := TitleSimilarity(left, left); score != 1 {
		t.Fatalf("similarity is not reflexive: got %f", score)
	}
	if ab <= 0 || ab >= 1 {
		t.Fatalf("expected partial overlap in (0,1), got %f", ab)
	}
}

func TestTitleSimilarity_EmptyTitlesNeverMatch(t *testing.T) {
	t.Parallel()

	if score := TitleSimilarity("", ""); score != 0 {
		t.Fatalf("empty titles must never match, got %f", score)
	}
	if score := TitleSimilarity("", foldText("Título real")); score != 0 {
		t.Fatalf("empty title must never match a real title, got %f", score)
	}
}

func TestTitleSimilarity_UnrelatedTitlesScoreLow(t *testing.T) {
	t.Parallel()

	left := foldText("Banco Central publica IPoM de septiembre")
	right := foldText("Nueva ley de pesca avanza en el Congreso")
	if score := TitleSimilarity(left, right); score >= DefaultTitleSimilarityThreshold {
		t.Fatalf("unrelated titles must stay below threshold, got %f", score)
	}
}
