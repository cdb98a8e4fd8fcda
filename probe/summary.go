package probe

import "github.com/reglet-dev/permprobe/domain/entities"

// Summary counts the outcomes of one run.
type Summary struct {
	Total        int `json:"total"`
	Enforced     int `json:"enforced"`
	NotEnforced  int `json:"not_enforced"`
	Bypassed     int `json:"bypassed"`
	Inconclusive int `json:"inconclusive"`
	Findings     int `json:"findings"`
	Defects      int `json:"defects"`
}

// Summarize counts results by verdict.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		s.Total++
		switch r.Outcome.Verdict {
		case entities.VerdictEnforced:
			s.Enforced++
		case entities.VerdictNotEnforced:
			s.NotEnforced++
		case entities.VerdictBypassed:
			s.Bypassed++
		case entities.VerdictInconclusive:
			s.Inconclusive++
		}
		if r.Outcome.Finding() {
			s.Findings++
		}
		if r.Outcome.Defect {
			s.Defects++
		}
	}
	return s
}
