package metrics

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExactMatch(t *testing.T) {
	scores := Compute("the cat sat", "  the cat sat  ", []string{"em"}, nil)
	if scores["em"] != 1.0 {
		t.Errorf("expected em 1.0 with surrounding whitespace, got %v", scores["em"])
	}
	scores = Compute("the cat sat", "the dog sat", []string{"em"}, nil)
	if scores["em"] != 0.0 {
		t.Errorf("expected em 0.0, got %v", scores["em"])
	}
}

func TestBleuIdenticalTexts(t *testing.T) {
	scores := Compute(
		"the quick brown fox jumps over the lazy dog",
		"the quick brown fox jumps over the lazy dog",
		[]string{"bleu"}, nil,
	)
	if !approx(scores["bleu"], 1.0) {
		t.Errorf("expected bleu 1.0 for identical texts, got %v", scores["bleu"])
	}
}

func TestBleuEmptyInputs(t *testing.T) {
	scores := Compute("", "reference", []string{"bleu"}, nil)
	if scores["bleu"] != 0.0 {
		t.Errorf("expected bleu 0.0 for empty prediction, got %v", scores["bleu"])
	}
	scores = Compute("prediction", "   ", []string{"bleu"}, nil)
	if scores["bleu"] != 0.0 {
		t.Errorf("expected bleu 0.0 for blank reference, got %v", scores["bleu"])
	}
}

func TestBleuDisjointTexts(t *testing.T) {
	scores := Compute("alpha beta gamma delta", "one two three four", []string{"bleu"}, nil)
	if scores["bleu"] != 0.0 {
		t.Errorf("expected bleu 0.0 for disjoint texts, got %v", scores["bleu"])
	}
}

func TestRougeIdenticalAndDifferent(t *testing.T) {
	scores := Compute("the cat sat", "the cat sat", []string{"rouge"}, nil)
	for _, k := range []string{"rouge1", "rouge2", "rougeL", "rougeLsum"} {
		if !approx(scores[k], 1.0) {
			t.Errorf("expected %s 1.0 for identical texts, got %v", k, scores[k])
		}
	}

	scores = Compute("hello world", "the quick brown fox jumps over the lazy dog", []string{"rouge"}, nil)
	if scores["rouge1"] >= 0.3 {
		t.Errorf("expected low rouge1 for different texts, got %v", scores["rouge1"])
	}
}

func TestRougePartialOverlap(t *testing.T) {
	// "the cat" overlaps 2 of 3 prediction unigrams and 2 of 4 reference
	// unigrams: precision 2/3, recall 2/4, F1 = 4/7.
	scores := Compute("the cat ran", "the cat sat down", []string{"rouge"}, nil)
	if !approx(scores["rouge1"], 4.0/7.0) {
		t.Errorf("expected rouge1 4/7, got %v", scores["rouge1"])
	}
}

func TestCharacterMetrics(t *testing.T) {
	// One trailing character difference.
	scores := Compute("Hello world", "Hello worl", []string{"char_accuracy", "char_f1"}, nil)
	if scores["char_accuracy"] <= 0.8 {
		t.Errorf("expected high char_accuracy, got %v", scores["char_accuracy"])
	}

	// Both empty scores perfect; one empty scores zero.
	scores = Compute("", "", []string{"char_accuracy"}, nil)
	if scores["char_accuracy"] != 1.0 {
		t.Errorf("expected 1.0 for both empty, got %v", scores["char_accuracy"])
	}
	scores = Compute("x", "", []string{"char_accuracy"}, nil)
	if scores["char_accuracy"] != 0.0 {
		t.Errorf("expected 0.0 for one empty, got %v", scores["char_accuracy"])
	}
}

func TestWordMetricsPositional(t *testing.T) {
	// Positional comparison: a shifted word does not match.
	scores := Compute("a b c", "b c d", []string{"word_accuracy"}, nil)
	if scores["word_accuracy"] != 0.0 {
		t.Errorf("expected 0.0 for shifted words, got %v", scores["word_accuracy"])
	}

	scores = Compute("a b c", "a b c", []string{"word_accuracy", "word_f1"}, nil)
	if scores["word_accuracy"] != 1.0 || scores["word_f1"] != 1.0 {
		t.Errorf("expected perfect word metrics, got %v", scores)
	}
}

func TestLegacyTokenNamesAliasCharacterMetrics(t *testing.T) {
	legacy := Compute("abc", "abd", []string{"accuracy", "precision", "recall", "f1"}, nil)
	char := Compute("abc", "abd", []string{"char_accuracy", "char_precision", "char_recall", "char_f1"}, nil)
	if legacy["accuracy"] != char["char_accuracy"] || legacy["f1"] != char["char_f1"] {
		t.Errorf("legacy names diverged from char metrics: %v vs %v", legacy, char)
	}
}

func TestUnsupportedScorersReturnZero(t *testing.T) {
	scores := Compute("a", "a", []string{"bertscore", "perplexity"}, nil)
	if scores["bertscore_f1"] != 0 || scores["perplexity"] != 0 {
		t.Errorf("expected zero placeholders, got %v", scores)
	}
}

func TestAverageEchoFlags(t *testing.T) {
	scores := Compute("the cat", "the cat", []string{"em"}, map[string]any{"avg_em": true})
	if scores["em_avg"] != scores["em"] {
		t.Errorf("expected em_avg to echo em, got %v", scores)
	}
}

func TestBatchAverages(t *testing.T) {
	avgs := BatchAverages([]map[string]float64{
		{"em": 1.0, "bleu": 0.5},
		{"em": 0.0, "bleu": 0.7},
	})
	if !approx(avgs["em_avg"], 0.5) {
		t.Errorf("expected em_avg 0.5, got %v", avgs["em_avg"])
	}
	if !approx(avgs["bleu_avg"], 0.6) {
		t.Errorf("expected bleu_avg 0.6, got %v", avgs["bleu_avg"])
	}

	if len(BatchAverages(nil)) != 0 {
		t.Error("expected empty averages for no results")
	}
}

func TestUnknownMetricNamesIgnored(t *testing.T) {
	scores := Compute("a", "a", []string{"nonsense"}, nil)
	if len(scores) != 0 {
		t.Errorf("expected empty map for unknown metric, got %v", scores)
	}
}
