package segmenter

import (
	"regexp"
	"sort"
	"strings"

	"github.com/lexica-labs/lexica/internal/core/domain"
)

var (
	// lawRefRe matches statute article references, optionally prefixed
	// with the statute name and suffixed with paragraph and item parts.
	lawRefRe = regexp.MustCompile(`(民法|刑法|民事訴訟法|刑事訴訟法|公司法|勞動基準法|行政程序法|憲法)?第[0-9０-９]+條(之[0-9０-９]+)?(第[0-9０-９]+項)?(第[0-9０-９]+款)?`)

	// dateRe matches Republic-of-China calendar dates.
	dateRe = regexp.MustCompile(`(民國)?[0-9０-９]{2,3}年[0-9０-９]{1,2}月[0-9０-９]{1,2}日`)

	// partyRe matches procedural role markers followed by a (usually
	// redacted) party name.
	partyRe = regexp.MustCompile(`(原告|被告|上訴人|被上訴人|聲請人|相對人|債權人|債務人|告訴人|證人)[：:]?\s*(\[REDACTED:[A-Z_]+\]|[\p{Han}]{2,4})`)
)

// legalTerms is the standardized vocabulary tagged onto segments.
// Ordered for deterministic extraction output.
var legalTerms = []string{
	"不當得利",
	"侵權行為",
	"假執行",
	"債務不履行",
	"因果關係",
	"契約",
	"故意",
	"損害賠償",
	"給付遲延",
	"舉證責任",
	"訴訟費用",
	"過失",
}

// extractMetadata pulls citations, party roles, dates, statute
// references and standard legal terms out of one segment's text.
// Output slices are deduplicated and deterministic for a given input.
func extractMetadata(text string) domain.SegmentMetadata {
	return domain.SegmentMetadata{
		Citations:  uniqueMatches(citationRe, text),
		Parties:    uniqueMatches(partyRe, text),
		Dates:      uniqueMatches(dateRe, text),
		LawRefs:    uniqueMatches(lawRefRe, text),
		LegalTerms: containedTerms(text),
	}
}

// uniqueMatches returns re's matches in text, first occurrence order,
// without duplicates.
func uniqueMatches(re *regexp.Regexp, text string) []string {
	matches := re.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// containedTerms returns the standard legal terms present in text,
// sorted for stable output.
func containedTerms(text string) []string {
	var out []string
	for _, term := range legalTerms {
		if strings.Contains(text, term) {
			out = append(out, term)
		}
	}
	sort.Strings(out)
	return out
}
