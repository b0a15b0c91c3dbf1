package detector

import "fmt"

// Verdict is the publish decision derived from a report.
type Verdict struct {
	Changed bool   `json:"changed"`
	Reason  string `json:"reason"`
}

// Decide reduces a report to a verdict. Only added, removed and modified
// articles count; link normalization, descriptions, metadata and order do not.
func Decide(report *Report) Verdict {
	c := report.Counts()

	if report.HasContentChanges() {
		return Verdict{
			Changed: true,
			Reason: fmt.Sprintf("Content changed: %d added, %d removed, %d modified",
				c.Added, c.Removed, c.Modified),
		}
	}

	if c.URLNormalized > 0 {
		return Verdict{
			Reason: fmt.Sprintf("No content changes detected (URLs normalized: %d article(s))", c.URLNormalized),
		}
	}

	return Verdict{Reason: "No content changes detected"}
}
