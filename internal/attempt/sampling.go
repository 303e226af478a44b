package attempt

import (
	"math/rand"

	"github.com/MrErgashev/quiz-app/internal/bank"
)

// sampleQuestions draws a uniformly random k-subset from pool without
// replacement. Partial Fisher-Yates: k swaps from the tail, then the
// trailing k elements; positions that cannot end up in the sample are never
// touched. Returned questions are deep clones of the bank's copies.
func sampleQuestions(rng *rand.Rand, pool []bank.Question, k int) []bank.Question {
	n := len(pool)
	if k > n {
		k = n
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := n - 1; i > n-1-k; i-- {
		j := rng.Intn(i + 1)
		idx[i], idx[j] = idx[j], idx[i]
	}
	out := make([]bank.Question, 0, k)
	for _, i := range idx[n-k:] {
		out = append(out, pool[i].Clone())
	}
	return out
}

func shuffleOptions(rng *rand.Rand, q *bank.Question) {
	rng.Shuffle(len(q.Options), func(i, j int) {
		q.Options[i], q.Options[j] = q.Options[j], q.Options[i]
	})
}

func shuffleQuestions(rng *rand.Rand, qs []bank.Question) {
	rng.Shuffle(len(qs), func(i, j int) {
		qs[i], qs[j] = qs[j], qs[i]
	})
}
