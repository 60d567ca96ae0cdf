package services_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/services"
)

func TestParseAlumniCSVBasic(t *testing.T) {
	text := "Full Name,Email,Phone,Student No,Birthday,Degree,Graduation\r\n" +
		"Jane Doe,jane@x.com,0917,2019-001,1998-04-17,BSCS,2020\r\n" +
		"\r\n" +
		",,,,,,\n" +
		"No Number,nn@x.com,,,,,\n" +
		",missing@x.com,,2019-003,,,\n"

	res := services.ParseAlumniCSV(text)
	if len(res.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(res.Candidates), res.Candidates)
	}
	c := res.Candidates[0]
	want := models.Candidate{
		Index: 0, Line: 2, FullName: "Jane Doe", Email: "jane@x.com", Phone: "0917",
		StudentNumber: "2019-001", Birthday: "1998-04-17", Degree: "BSCS", GraduationYear: "2020",
	}
	if c != want {
		t.Fatalf("expected %+v, got %+v", want, c)
	}

	if len(res.Skipped) != 2 {
		t.Fatalf("expected 2 skipped rows, got %+v", res.Skipped)
	}
	if res.Skipped[0].Line != 5 || res.Skipped[1].Line != 6 || res.Skipped[0].Reason != services.SkipReasonMissingRequired {
		t.Fatalf("unexpected skipped rows %+v", res.Skipped)
	}
}

func TestParseAlumniCSVQuoting(t *testing.T) {
	text := "name,student,email\n" +
		`"Cruz, Ana ""Annie""",2019-010,ana@x.com` + "\n" +
		`"Line` + "\n" + `Break",2019-011,` + "\n" +
		`'Quoted',"2019-012",` + "\n"

	res := services.ParseAlumniCSV(text)
	if len(res.Candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %+v (skipped %+v)", res.Candidates, res.Skipped)
	}
	if got := res.Candidates[0].FullName; got != `Cruz, Ana "Annie"` {
		t.Fatalf("expected embedded comma and quotes preserved, got %q", got)
	}
	if got := res.Candidates[1].FullName; got != "Line\nBreak" {
		t.Fatalf("expected newline inside quotes preserved, got %q", got)
	}
	if res.Candidates[2].Line != 5 {
		t.Fatalf("expected physical line 5 after a multi-line record, got %d", res.Candidates[2].Line)
	}
	if got := res.Candidates[2].FullName; got != "Quoted" {
		t.Fatalf("expected stray single quotes stripped, got %q", got)
	}
}

func TestParseAlumniCSVLastMatchingHeaderWins(t *testing.T) {
	// "Preferred Name" also contains "name", so it overrides "Full Name" as the name column
	text := "Full Name,Student Number,Preferred Name\nJane Doe,2019-001,Janie\n"
	res := services.ParseAlumniCSV(text)
	if len(res.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %+v", res)
	}
	if got := res.Candidates[0].FullName; got != "Janie" {
		t.Fatalf("expected the later header to win, got %q", got)
	}
	if got := res.Candidates[0].StudentNumber; got != "2019-001" {
		t.Fatalf("expected student number from the second column, got %q", got)
	}

	// "Birth Year" matches both the birthday and the graduation year rules
	text = "Name,Student,Graduation Year,Birth Year\nAna,S-1,2020,1998\n"
	res = services.ParseAlumniCSV(text)
	if got := res.Candidates[0].GraduationYear; got != "1998" {
		t.Fatalf("expected graduation year from the Birth Year column, got %q", got)
	}

	text = "Student ID,Name,Graduation Year,Entry Year\nS-1,Ana,2020,2016\n"
	res = services.ParseAlumniCSV(text)
	if got := res.Candidates[0].GraduationYear; got != "2016" {
		t.Fatalf("expected last year column, got %q", got)
	}
}

func TestParseAlumniCSVEmpty(t *testing.T) {
	for _, text := range []string{"", "\n\n", "name,student\n"} {
		res := services.ParseAlumniCSV(text)
		if len(res.Candidates) != 0 || len(res.Skipped) != 0 {
			t.Fatalf("expected nothing for %q, got %+v", text, res)
		}
	}
}

func TestSplitBirthday(t *testing.T) {
	y, m, d := services.SplitBirthday("1998-04-17")
	if y != "1998" || m != "04" || d != "17" {
		t.Fatalf("unexpected split %s %s %s", y, m, d)
	}
	if y, m, d := services.SplitBirthday("17/04/1998"); y != "" || m != "" || d != "" {
		t.Fatalf("expected empty parts for other formats")
	}
}

func TestExportParseRoundTrip(t *testing.T) {
	records := []*models.Alumni{
		{ID: 1, StudentNumber: "2019-001", FullName: `Cruz, Ana "Annie"`, CreatedAt: baseTime},
		{ID: 2, StudentNumber: "2019,002", FullName: "O'Brien\nJr", Email: "ob@x.com", CreatedAt: baseTime},
		{ID: 3, StudentNumber: "2019-003", FullName: `"Quoted" Name`, CreatedAt: baseTime},
	}

	var buf bytes.Buffer
	if err := services.WriteAlumniCSV(&buf, records); err != nil {
		t.Fatalf("write: %v", err)
	}

	res := services.ParseAlumniCSV(buf.String())
	if len(res.Candidates) != len(records) {
		t.Fatalf("expected %d candidates, got %+v", len(records), res)
	}
	for i, a := range records {
		c := res.Candidates[i]
		if c.StudentNumber != a.StudentNumber || c.FullName != a.FullName {
			t.Fatalf("record %d: expected %q/%q, got %q/%q", i, a.StudentNumber, a.FullName, c.StudentNumber, c.FullName)
		}
	}
}

func TestExportFilename(t *testing.T) {
	got := services.ExportFilename(time.Date(2025, 7, 4, 23, 0, 0, 0, time.UTC))
	if got != "alumni_export_2025-07-04.csv" {
		t.Fatalf("unexpected filename %q", got)
	}
}
