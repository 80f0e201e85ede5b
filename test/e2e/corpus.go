// Package e2e provides end-to-end comparison tests over a generated corpus of
// article pairs and over every supported input file format.
package e2e

import (
	"fmt"
	"strings"
)

// Article is one original document, already split into its sentences.
type Article struct {
	ID        string
	Sentences []string
}

// PairTestCase is an original/counterpart pair with the expected diff.
// The counterpart drops one sentence of the original and inserts a new one.
type PairTestCase struct {
	Name               string
	Original           string
	Counterpart        string
	WantMissing        []string
	WantMissingIndices []int
	WantExtra          []string
	WantExtraIndices   []int
}

// Corpus holds the articles and the pair test cases built from them.
type Corpus struct {
	Articles []Article
	Cases    []PairTestCase
}

var topics = []struct {
	subject string
	facts   []string
}{
	{"Python", []string{"is a high-level programming language", "is used for web development", "has a large standard library", "was first released in 1991"}},
	{"Kubernetes", []string{"orchestrates containers", "automates deployment and scaling", "groups containers into pods", "was open-sourced in 2014"}},
	{"PostgreSQL", []string{"is a relational database", "supports JSON documents", "implements multiversion concurrency control", "runs on most operating systems"}},
	{"Docker", []string{"builds container images", "ships applications with their dependencies", "uses layered file systems", "popularized containers on Linux"}},
	{"Go", []string{"is statically typed", "compiles to native code", "has goroutines and channels", "ships with a formatter"}},
}

// BuildCorpus returns n article pairs. Pair i drops sentence i%4 of its article
// and inserts a new sentence at position (i+1)%4 of the counterpart.
func BuildCorpus(n int) *Corpus {
	c := &Corpus{}
	for i := 0; i < n; i++ {
		topic := topics[i%len(topics)]
		article := Article{ID: fmt.Sprintf("article-%03d", i)}
		for j, fact := range topic.facts {
			article.Sentences = append(article.Sentences, fmt.Sprintf("%s %s (note %d-%d).", topic.subject, fact, i, j))
		}
		c.Articles = append(c.Articles, article)
		c.Cases = append(c.Cases, buildCase(article, i))
	}
	return c
}

func buildCase(a Article, i int) PairTestCase {
	dropped := i % len(a.Sentences)
	var kept []string
	for j, s := range a.Sentences {
		if j != dropped {
			kept = append(kept, s)
		}
	}
	inserted := fmt.Sprintf("This sentence was added to %s only.", a.ID)
	at := (i + 1) % (len(kept) + 1)
	counterpart := append(append(append([]string{}, kept[:at]...), inserted), kept[at:]...)

	return PairTestCase{
		Name:               a.ID,
		Original:           join(a.Sentences),
		Counterpart:        join(counterpart),
		WantMissing:        []string{a.Sentences[dropped]},
		WantMissingIndices: []int{dropped},
		WantExtra:          []string{inserted},
		WantExtraIndices:   []int{at},
	}
}

func join(sentences []string) string {
	return strings.Join(sentences, " ")
}
