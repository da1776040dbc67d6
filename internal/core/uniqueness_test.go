package core

import (
	"fmt"
	"testing"

	"github.com/oranolio956/qa-automation-framework-sub006/pkg/api"
)

func TestValidateUniquenessDuplicateUsername(t *testing.T) {
	var recs []api.AccountRecord
	for i := 0; i < 5; i++ {
		recs = append(recs, api.AccountRecord{
			Username: fmt.Sprintf("user%d", i),
			Password: fmt.Sprintf("pw%d", i),
			Email:    fmt.Sprintf("u%d@example.test", i),
		})
	}
	recs[4].Username = recs[1].Username

	rep := ValidateUniqueness(recs)
	if rep.Username.Total != 5 || rep.Username.Distinct != 4 || rep.Username.Clean {
		t.Fatalf("unexpected username report %+v", rep.Username)
	}
	if !rep.Password.Clean || !rep.Email.Clean {
		t.Fatalf("password/email should be clean: %+v", rep)
	}
	if rep.Clean() {
		t.Fatalf("report should not be clean")
	}
	if recs[4].Username != "user1" || len(recs) != 5 {
		t.Fatalf("validator must not modify input")
	}
}

func TestValidateUniquenessEmpty(t *testing.T) {
	rep := ValidateUniqueness(nil)
	if rep.Username.Total != 0 || rep.Username.Distinct != 0 || !rep.Clean() {
		t.Fatalf("empty input should be vacuously clean: %+v", rep)
	}
}

func TestValidateUniquenessMissingEmails(t *testing.T) {
	rep := ValidateUniqueness([]api.AccountRecord{
		{Username: "a", Password: "1"},
		{Username: "b", Password: "2"},
		{Username: "c", Password: "3", Email: "c@example.test"},
	})
	if rep.Email.Total != 1 || rep.Email.Distinct != 1 || !rep.Email.Clean || !rep.Clean() {
		t.Fatalf("records without email must not count as duplicates: %+v", rep.Email)
	}
	if rep.Username.Total != 3 {
		t.Fatalf("username totals cover every record: %+v", rep.Username)
	}
}

func TestValidateUniquenessDuplicateEmail(t *testing.T) {
	rep := ValidateUniqueness([]api.AccountRecord{
		{Username: "a", Password: "1", Email: "same@example.test"},
		{Username: "b", Password: "2"},
		{Username: "c", Password: "3", Email: "same@example.test"},
	})
	if rep.Email.Total != 2 || rep.Email.Distinct != 1 || rep.Email.Clean {
		t.Fatalf("shared email should be reported: %+v", rep.Email)
	}
}

func BenchmarkValidateUniqueness(b *testing.B) {
	recs := make([]api.AccountRecord, 1000)
	for i := range recs {
		recs[i] = api.AccountRecord{Username: fmt.Sprintf("u%d", i), Password: fmt.Sprintf("p%d", i), Email: fmt.Sprintf("e%d", i)}
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ValidateUniqueness(recs)
	}
}
