// Package metrics scores a predicted text against a reference. It covers
// the studio's evaluation vocabulary: exact match, BLEU, ROUGE, positional
// character/word metrics, and batch averaging.
package metrics

import (
	"log"
	"math"
	"strings"
)

// Vocabulary is the fixed set of metric names callers may request.
var Vocabulary = []string{
	"rouge", "bleu", "f1", "em", "bertscore", "perplexity",
	"accuracy", "precision", "recall",
	"char_accuracy", "char_precision", "char_recall", "char_f1",
	"word_accuracy", "word_precision", "word_recall", "word_f1",
	"char_em",
}

// Compute returns the requested scores. Unknown names are ignored; an
// empty request yields an empty map. Options carry avg_* echo flags used
// by batch callers (the value for avg_x mirrors x in single evaluations).
func Compute(prediction, reference string, metricNames []string, opts map[string]any) map[string]float64 {
	out := make(map[string]float64)
	mset := make(map[string]bool, len(metricNames))
	for _, m := range metricNames {
		mset[strings.ToLower(m)] = true
	}

	if mset["em"] || mset["exact match"] {
		out["em"] = exactMatch(prediction, reference)
	}
	if mset["bleu"] {
		out["bleu"] = bleuScore(prediction, reference)
	}
	if mset["rouge"] {
		for k, v := range rougeScores(prediction, reference) {
			out[k] = v
		}
	}
	if mset["bertscore"] {
		// Needs model inference; scored as absent-zero like the original
		// backend does when its scorer is unavailable.
		log.Printf("[metrics] bertscore requested but no scorer is available")
		out["bertscore_precision"] = 0
		out["bertscore_recall"] = 0
		out["bertscore_f1"] = 0
	}
	if mset["perplexity"] {
		log.Printf("[metrics] perplexity requested but no scorer is available")
		out["perplexity"] = 0
	}

	// Legacy token-level names are character-position metrics.
	if mset["accuracy"] || mset["precision"] || mset["recall"] || mset["f1"] {
		cm := positionalMetrics(splitChars(prediction), splitChars(reference))
		out["accuracy"] = cm.accuracy
		out["precision"] = cm.precision
		out["recall"] = cm.recall
		out["f1"] = cm.f1
	}
	if mset["char_accuracy"] || mset["char_precision"] || mset["char_recall"] || mset["char_f1"] {
		cm := positionalMetrics(splitChars(prediction), splitChars(reference))
		out["char_accuracy"] = cm.accuracy
		out["char_precision"] = cm.precision
		out["char_recall"] = cm.recall
		out["char_f1"] = cm.f1
	}
	if mset["word_accuracy"] || mset["word_precision"] || mset["word_recall"] || mset["word_f1"] {
		wm := positionalMetrics(strings.Fields(prediction), strings.Fields(reference))
		out["word_accuracy"] = wm.accuracy
		out["word_precision"] = wm.precision
		out["word_recall"] = wm.recall
		out["word_f1"] = wm.f1
	}
	if mset["char_em"] || mset["character_exact_match"] {
		out["char_em"] = exactMatch(prediction, reference)
	}

	// avg_* flags echo the single-evaluation value; true averages come
	// from BatchAverages.
	for _, name := range []string{
		"em", "accuracy", "precision", "recall",
		"char_accuracy", "char_precision", "char_recall",
		"word_accuracy", "word_precision", "word_recall",
	} {
		if boolOpt(opts, "avg_"+name) {
			out[name+"_avg"] = out[name]
		}
	}

	return out
}

// BatchAverages computes true per-metric averages across multiple
// evaluation results, keyed as "<metric>_avg".
func BatchAverages(results []map[string]float64) map[string]float64 {
	if len(results) == 0 {
		return map[string]float64{}
	}
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range results {
		for k, v := range r {
			sums[k] += v
			counts[k]++
		}
	}
	avgs := make(map[string]float64, len(sums))
	for k, sum := range sums {
		avgs[k+"_avg"] = sum / float64(counts[k])
	}
	return avgs
}

func boolOpt(opts map[string]any, key string) bool {
	if opts == nil {
		return false
	}
	b, _ := opts[key].(bool)
	return b
}

func exactMatch(pred, ref string) float64 {
	if strings.TrimSpace(pred) == strings.TrimSpace(ref) {
		return 1.0
	}
	return 0.0
}

// --- BLEU ---

// bleuScore computes corpus BLEU for a single prediction/reference pair:
// the geometric mean of clipped n-gram precisions up to order 4 (capped at
// the prediction length) times the brevity penalty.
func bleuScore(pred, ref string) float64 {
	if strings.TrimSpace(pred) == "" || strings.TrimSpace(ref) == "" {
		return 0.0
	}
	predToks := strings.Fields(pred)
	refToks := strings.Fields(ref)

	maxOrder := 4
	if len(predToks) < maxOrder {
		maxOrder = len(predToks)
	}
	if len(refToks) < maxOrder {
		maxOrder = len(refToks)
	}
	if maxOrder == 0 {
		return 0.0
	}

	logSum := 0.0
	for n := 1; n <= maxOrder; n++ {
		p := clippedPrecision(predToks, refToks, n)
		if p == 0 {
			return 0.0
		}
		logSum += math.Log(p)
	}
	score := math.Exp(logSum / float64(maxOrder))

	// Brevity penalty.
	if len(predToks) < len(refToks) {
		score *= math.Exp(1 - float64(len(refToks))/float64(len(predToks)))
	}
	return score
}

func ngramCounts(toks []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(toks); i++ {
		counts[strings.Join(toks[i:i+n], " ")]++
	}
	return counts
}

func clippedPrecision(pred, ref []string, n int) float64 {
	predCounts := ngramCounts(pred, n)
	refCounts := ngramCounts(ref, n)
	total := 0
	matched := 0
	for gram, c := range predCounts {
		total += c
		if rc, ok := refCounts[gram]; ok {
			if c < rc {
				matched += c
			} else {
				matched += rc
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

// --- ROUGE ---

// rougeScores returns rouge1, rouge2, rougeL and rougeLsum F1 values.
// rougeLsum treats newlines as sentence breaks, matching the summary-level
// variant's behavior on single-sentence inputs.
func rougeScores(pred, ref string) map[string]float64 {
	zero := map[string]float64{"rouge1": 0, "rouge2": 0, "rougeL": 0, "rougeLsum": 0}
	if strings.TrimSpace(pred) == "" || strings.TrimSpace(ref) == "" {
		return zero
	}
	predToks := strings.Fields(pred)
	refToks := strings.Fields(ref)

	return map[string]float64{
		"rouge1":    rougeN(predToks, refToks, 1),
		"rouge2":    rougeN(predToks, refToks, 2),
		"rougeL":    rougeL(predToks, refToks),
		"rougeLsum": rougeL(strings.Fields(flattenSentences(pred)), strings.Fields(flattenSentences(ref))),
	}
}

func flattenSentences(s string) string {
	return strings.Join(strings.Split(s, "\n"), " ")
}

func rougeN(pred, ref []string, n int) float64 {
	predCounts := ngramCounts(pred, n)
	refCounts := ngramCounts(ref, n)
	overlap := 0
	predTotal := 0
	refTotal := 0
	for _, c := range predCounts {
		predTotal += c
	}
	for _, c := range refCounts {
		refTotal += c
	}
	for gram, c := range predCounts {
		if rc, ok := refCounts[gram]; ok {
			if c < rc {
				overlap += c
			} else {
				overlap += rc
			}
		}
	}
	return f1From(overlap, predTotal, refTotal)
}

func rougeL(pred, ref []string) float64 {
	return f1From(lcsLength(pred, ref), len(pred), len(ref))
}

func lcsLength(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func f1From(overlap, predTotal, refTotal int) float64 {
	if predTotal == 0 || refTotal == 0 || overlap == 0 {
		return 0
	}
	p := float64(overlap) / float64(predTotal)
	r := float64(overlap) / float64(refTotal)
	return 2 * p * r / (p + r)
}

// --- positional metrics ---

type positional struct {
	accuracy, precision, recall, f1 float64
}

// positionalMetrics compares two token sequences position by position,
// padding the shorter with empty tokens. Both empty scores 1.0 across the
// board; exactly one empty scores 0.0.
func positionalMetrics(pred, ref []string) positional {
	if len(pred) == 0 && len(ref) == 0 {
		return positional{1, 1, 1, 1}
	}
	if len(pred) == 0 || len(ref) == 0 {
		return positional{}
	}

	maxLen := len(pred)
	if len(ref) > maxLen {
		maxLen = len(ref)
	}
	tp, fp, fn := 0, 0, 0
	for i := 0; i < maxLen; i++ {
		p, r := "", ""
		if i < len(pred) {
			p = pred[i]
		}
		if i < len(ref) {
			r = ref[i]
		}
		switch {
		case p == r && p != "":
			tp++
		case p != "" && r == "":
			fp++
		case p == "" && r != "":
			fn++
		}
	}

	m := positional{}
	m.accuracy = float64(tp) / float64(maxLen)
	if tp+fp > 0 {
		m.precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.recall = float64(tp) / float64(tp+fn)
	}
	if m.precision+m.recall > 0 {
		m.f1 = 2 * m.precision * m.recall / (m.precision + m.recall)
	}
	return m
}

func splitChars(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}
