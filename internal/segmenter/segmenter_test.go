package segmenter

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexica-labs/lexica/internal/core/domain"
)

const sampleJudgment = `主文
被告應給付原告新臺幣五十萬元。

事實
一、原告於民國112年3月15日與被告簽訂契約。
二、被告迄未給付，原告依民法第184條請求損害賠償。

理由
最高法院108年度台上字第1234號民事判決
臺灣臺北地方法院110年度訴字第567號判決

本院審酌兩造攻擊防禦方法後認原告之訴有理由。
`

func segment(t *testing.T, text string) []domain.Segment {
	t.Helper()
	segs, err := NewV1().Segment(context.Background(), "rev-1", text)
	require.NoError(t, err)
	return segs
}

func TestSegment_Totality(t *testing.T) {
	segs := segment(t, sampleJudgment)
	require.NotEmpty(t, segs)

	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Text)
	}
	assert.Equal(t, sampleJudgment, b.String())
}

func TestSegment_ContiguousOrdinals(t *testing.T) {
	segs := segment(t, sampleJudgment)
	for i, s := range segs {
		assert.Equal(t, i, s.Ordinal)
		assert.Equal(t, "rev-1", s.RevisionID)
		assert.Equal(t, V1Version, s.SegmenterVersion)
	}
}

func TestSegment_SectionHeadersOpenBlocks(t *testing.T) {
	segs := segment(t, sampleJudgment)
	require.GreaterOrEqual(t, len(segs), 4)

	assert.True(t, strings.HasPrefix(segs[0].Text, "主文"))
	assert.Equal(t, domain.SegmentParagraph, segs[0].Type)
}

func TestSegment_CitationBlock(t *testing.T) {
	segs := segment(t, sampleJudgment)

	var found bool
	for _, s := range segs {
		if s.Type == domain.SegmentCitationBlock {
			found = true
			assert.Contains(t, s.Text, "台上字第1234號")
		}
	}
	assert.True(t, found, "expected a citation-block segment")
}

func TestSegment_Articles(t *testing.T) {
	statute := "第一條\n本法依憲法制定之。\n\n第二條\n本法用詞定義如下。\n"
	segs := segment(t, statute)

	require.Len(t, segs, 2)
	assert.Equal(t, domain.SegmentArticle, segs[0].Type)
	assert.Equal(t, domain.SegmentArticle, segs[1].Type)
	assert.True(t, strings.HasPrefix(segs[1].Text, "第二條"))
}

func TestSegment_ArticleMarkerMidBlockOpensSegment(t *testing.T) {
	statute := "第1條 人之權利能力，始於出生。\n第2條 外國人於法令限制內，有權利能力。\n"
	segs := segment(t, statute)

	require.Len(t, segs, 2)
	assert.Equal(t, domain.SegmentArticle, segs[0].Type)
	assert.Equal(t, domain.SegmentArticle, segs[1].Type)
}

func TestSegment_Unclassified(t *testing.T) {
	segs := segment(t, "～～～～～\n")
	require.Len(t, segs, 1)
	assert.Equal(t, domain.SegmentUnclassified, segs[0].Type)
}

func TestSegment_Empty(t *testing.T) {
	segs := segment(t, "")
	assert.Empty(t, segs)
}

func TestSegment_StableIDs(t *testing.T) {
	first := segment(t, sampleJudgment)
	second := segment(t, sampleJudgment)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}

	other, err := NewV1().Segment(context.Background(), "rev-2", sampleJudgment)
	require.NoError(t, err)
	assert.NotEqual(t, first[0].ID, other[0].ID)
}

func TestExtractMetadata(t *testing.T) {
	text := "一、原告[REDACTED:PARTY_NAME]於民國112年3月15日依民法第184條第1項向" +
		"臺灣臺北地方法院110年度訴字第567號判決聲明損害賠償及訴訟費用。"
	meta := extractMetadata(text)

	assert.Contains(t, meta.Dates, "民國112年3月15日")
	assert.Contains(t, meta.LawRefs, "民法第184條第1項")
	assert.Contains(t, meta.Citations, "臺灣臺北地方法院110年度訴字第567號判決")
	assert.Contains(t, meta.Parties, "原告[REDACTED:PARTY_NAME]")
	assert.Contains(t, meta.LegalTerms, "損害賠償")
	assert.Contains(t, meta.LegalTerms, "訴訟費用")
}

func TestExtractMetadata_Dedup(t *testing.T) {
	meta := extractMetadata("民法第184條，民法第184條。")
	assert.Equal(t, []string{"民法第184條"}, meta.LawRefs)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	s, err := r.Get(V1Version)
	require.NoError(t, err)
	assert.Equal(t, V1Version, s.Version())

	_, err = r.Get("v999")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, []string{V1Version}, r.Versions())
}
