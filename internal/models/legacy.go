package models

// ArticleCompareRequest is the article comparison request of the original API.
type ArticleCompareRequest struct {
	ArticleTextBlob1         string   `json:"article_text_blob_1"`
	ArticleTextBlob2         string   `json:"article_text_blob_2"`
	ArticleTextBlob1Language string   `json:"article_text_blob_1_language"`
	ArticleTextBlob2Language string   `json:"article_text_blob_2_language"`
	ComparisonThreshold      *float64 `json:"comparison_threshold,omitempty"`
	ModelName                string   `json:"model_name,omitempty"`
}

// CompareRequest converts to the native request.
func (r ArticleCompareRequest) CompareRequest() CompareRequest {
	return CompareRequest{
		OriginalText:    r.ArticleTextBlob1,
		CounterpartText: r.ArticleTextBlob2,
		SourceLanguage:  r.ArticleTextBlob1Language,
		TargetLanguage:  r.ArticleTextBlob2Language,
		Threshold:       r.ComparisonThreshold,
		Model:           r.ModelName,
	}
}

// ArticleComparison is one entry of ArticleCompareResponse.
type ArticleComparison struct {
	LeftArticleArray            []string `json:"left_article_array"`
	RightArticleArray           []string `json:"right_article_array"`
	LeftArticleMissingInfoIndex []int    `json:"left_article_missing_info_index"`
	RightArticleExtraInfoIndex  []int    `json:"right_article_extra_info_index"`
	MissingInfo                 []string `json:"missing_info"`
	ExtraInfo                   []string `json:"extra_info"`
	Success                     bool     `json:"success"`
}

// ArticleCompareResponse wraps a single comparison in the original response envelope.
type ArticleCompareResponse struct {
	Comparisons []ArticleComparison `json:"comparisons"`
}

// NewArticleCompareResponse converts a native result.
//
// When one text segments to no sentences, every sentence of the other text is
// reported (as missing or extra) and Success stays true. The original service
// answered such requests with empty diff lists instead.
func NewArticleCompareResponse(r *ComparisonResult) ArticleCompareResponse {
	return ArticleCompareResponse{Comparisons: []ArticleComparison{{
		LeftArticleArray:            r.OriginalSentences,
		RightArticleArray:           r.TranslatedSentences,
		LeftArticleMissingInfoIndex: r.MissingInfoIndices,
		RightArticleExtraInfoIndex:  r.ExtraInfoIndices,
		MissingInfo:                 r.MissingInfo,
		ExtraInfo:                   r.ExtraInfo,
		Success:                     r.Success,
	}}}
}

// SemanticRequest is the two-text comparison request of the original API.
// Both texts are treated as English.
type SemanticRequest struct {
	TextA               string   `json:"text_a"`
	TextB               string   `json:"text_b"`
	SimilarityThreshold *float64 `json:"similarity_threshold,omitempty"`
	ModelName           string   `json:"model_name,omitempty"`
}

// CompareRequest converts to the native request.
func (r SemanticRequest) CompareRequest() CompareRequest {
	return CompareRequest{
		OriginalText:    r.TextA,
		CounterpartText: r.TextB,
		SourceLanguage:  "en",
		TargetLanguage:  "en",
		Threshold:       r.SimilarityThreshold,
		Model:           r.ModelName,
	}
}

// IndexedSentence is a sentence with its position in its text.
type IndexedSentence struct {
	Sentence string `json:"sentence"`
	Index    int    `json:"index"`
}

// SemanticResponse lists the unaligned sentences of each side.
type SemanticResponse struct {
	MissingInfo []IndexedSentence `json:"missing_info"`
	ExtraInfo   []IndexedSentence `json:"extra_info"`
}

// NewSemanticResponse converts a native result.
func NewSemanticResponse(r *ComparisonResult) SemanticResponse {
	return SemanticResponse{
		MissingInfo: zipIndexed(r.MissingInfo, r.MissingInfoIndices),
		ExtraInfo:   zipIndexed(r.ExtraInfo, r.ExtraInfoIndices),
	}
}

func zipIndexed(sentences []string, indices []int) []IndexedSentence {
	out := make([]IndexedSentence, 0, len(sentences))
	for i, s := range sentences {
		idx := -1
		if i < len(indices) {
			idx = indices[i]
		}
		out = append(out, IndexedSentence{Sentence: s, Index: idx})
	}
	return out
}
