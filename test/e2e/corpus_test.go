package e2e

import (
	"strings"
	"testing"
)

func TestBuildCorpus_Size(t *testing.T) {
	c := BuildCorpus(40)
	if len(c.Articles) != 40 || len(c.Cases) != 40 {
		t.Errorf("got %d articles and %d cases, want 40 each", len(c.Articles), len(c.Cases))
	}
}

func TestBuildCorpus_CasesAreConsistent(t *testing.T) {
	c := BuildCorpus(12)
	for i, tc := range c.Cases {
		a := c.Articles[i]
		if !strings.Contains(tc.Original, tc.WantMissing[0]) {
			t.Errorf("%s: original does not contain the dropped sentence", tc.Name)
		}
		if strings.Contains(tc.Counterpart, tc.WantMissing[0]) {
			t.Errorf("%s: counterpart still contains the dropped sentence", tc.Name)
		}
		if a.Sentences[tc.WantMissingIndices[0]] != tc.WantMissing[0] {
			t.Errorf("%s: missing index does not point at the dropped sentence", tc.Name)
		}
		if !strings.Contains(tc.Counterpart, tc.WantExtra[0]) {
			t.Errorf("%s: counterpart does not contain the inserted sentence", tc.Name)
		}
	}
}

func TestBuildCorpus_SentencesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, a := range BuildCorpus(25).Articles {
		for _, s := range a.Sentences {
			if seen[s] {
				t.Fatalf("duplicate sentence %q", s)
			}
			seen[s] = true
		}
	}
}
