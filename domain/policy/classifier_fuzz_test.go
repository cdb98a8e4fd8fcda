package policy_test

import (
	"testing"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/policy"
)

func FuzzClassify(f *testing.F) {
	f.Add(false, "", "access_denied", "denied")
	f.Add(true, "hazard", "", "")
	f.Add(false, "", "timeout", "")

	f.Fuzz(func(t *testing.T, bypassed bool, reason, failure, detail string) {
		raw := entities.RawOutcome{
			Bypassed: bypassed,
			Reason:   reason,
			Failure:  entities.FailureKind(failure),
			Detail:   detail,
		}
		a, b := policy.Classify(raw), policy.Classify(raw)
		if a != b {
			t.Fatalf("classification not deterministic: %v vs %v", a, b)
		}
		if a.Verdict == entities.VerdictEnforced && raw.Failure != entities.FailureAccessDenied {
			t.Fatalf("enforced without access denial: %+v", raw)
		}
	})
}

func BenchmarkSelectionAllows(b *testing.B) {
	s := policy.NewSelection(policy.WithInclude("MANAGE_*", "REBOOT"), policy.WithExclude("MANAGE_USERS"))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Allows("android.permission.MANAGE_DEVICE_ADMINS")
	}
}
