package services

import (
	"strings"

	"github.com/yigit/alumnitrack/internal/app/models"
)

// SkipReasonMissingRequired is reported for rows without a student number or full name
const SkipReasonMissingRequired = "Missing student number or full name"

type csvField struct {
	value  string
	quoted bool
}

type csvRecord struct {
	line   int
	fields []csvField
}

// scanCSV splits text into records. Commas and newlines inside quotes are kept,
// a doubled quote inside quotes is one literal quote, and a trailing \r is dropped.
func scanCSV(text string) []csvRecord {
	var (
		records  []csvRecord
		fields   []csvField
		current  strings.Builder
		inQuotes bool
		quoted   bool
		line     = 1
		start    = 1
	)

	endField := func(v string) {
		fields = append(fields, csvField{value: v, quoted: quoted})
		current.Reset()
		quoted = false
	}
	endRecord := func() {
		endField(strings.TrimSuffix(current.String(), "\r"))
		records = append(records, csvRecord{line: start, fields: fields})
		fields = nil
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"' && inQuotes && i+1 < len(text) && text[i+1] == '"':
			current.WriteByte('"')
			i++
		case c == '"':
			inQuotes = !inQuotes
			quoted = true
		case c == ',' && !inQuotes:
			endField(current.String())
		case c == '\n' && !inQuotes:
			endRecord()
			line++
			start = line
		default:
			if c == '\n' {
				line++
			}
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 || len(fields) > 0 || quoted {
		endRecord()
	}
	return records
}

func cleanValue(f csvField) string {
	v := strings.TrimSpace(f.value)
	if f.quoted {
		return v
	}
	if strings.HasPrefix(v, `"`) || strings.HasPrefix(v, "'") {
		v = v[1:]
	}
	if strings.HasSuffix(v, `"`) || strings.HasSuffix(v, "'") {
		v = v[:len(v)-1]
	}
	return strings.TrimSpace(v)
}

type columnMap struct {
	fullName, email, phone, studentNumber, birthday, degree, graduationYear int
}

// mapHeaders evaluates every rule against every header in order, so the last matching header wins
func mapHeaders(headers []string) columnMap {
	m := columnMap{-1, -1, -1, -1, -1, -1, -1}
	for idx, h := range headers {
		if strings.Contains(h, "full") || strings.Contains(h, "name") {
			m.fullName = idx
		}
		if strings.Contains(h, "email") {
			m.email = idx
		}
		if strings.Contains(h, "phone") {
			m.phone = idx
		}
		if strings.Contains(h, "student") {
			m.studentNumber = idx
		}
		if strings.Contains(h, "birth") {
			m.birthday = idx
		}
		if strings.Contains(h, "degree") {
			m.degree = idx
		}
		if strings.Contains(h, "graduation") || strings.Contains(h, "year") {
			m.graduationYear = idx
		}
	}
	return m
}

func valueAt(fields []csvField, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return cleanValue(fields[idx])
}

// ParseAlumniCSV turns uploaded CSV text into candidates. Nothing is persisted.
func ParseAlumniCSV(text string) *models.ParseResult {
	result := &models.ParseResult{
		Headers:    []string{},
		Candidates: []models.Candidate{},
		Skipped:    []models.SkippedRow{},
	}

	records := scanCSV(strings.TrimPrefix(text, "\ufeff"))
	for len(records) > 0 && blank(records[0].fields) {
		records = records[1:]
	}
	if len(records) == 0 {
		return result
	}

	for _, f := range records[0].fields {
		result.Headers = append(result.Headers, strings.ToLower(strings.TrimSpace(f.value)))
	}
	cols := mapHeaders(result.Headers)

	for _, rec := range records[1:] {
		if blank(rec.fields) {
			continue
		}

		c := models.Candidate{
			Line:           rec.line,
			FullName:       valueAt(rec.fields, cols.fullName),
			Email:          valueAt(rec.fields, cols.email),
			Phone:          valueAt(rec.fields, cols.phone),
			StudentNumber:  valueAt(rec.fields, cols.studentNumber),
			Birthday:       valueAt(rec.fields, cols.birthday),
			Degree:         valueAt(rec.fields, cols.degree),
			GraduationYear: valueAt(rec.fields, cols.graduationYear),
		}
		if c.StudentNumber == "" || c.FullName == "" {
			result.Skipped = append(result.Skipped, models.SkippedRow{Line: rec.line, Reason: SkipReasonMissingRequired})
			continue
		}
		c.Index = len(result.Candidates)
		result.Candidates = append(result.Candidates, c)
	}
	return result
}

func blank(fields []csvField) bool {
	for _, f := range fields {
		if strings.TrimSpace(f.value) != "" {
			return false
		}
	}
	return true
}

// SplitBirthday decomposes YYYY-MM-DD into year, month and day; other shapes yield empty parts
func SplitBirthday(birthday string) (year, month, day string) {
	parts := strings.Split(strings.TrimSpace(birthday), "-")
	if len(parts) != 3 {
		return "", "", ""
	}
	return parts[0], parts[1], parts[2]
}

// CandidateToAlumni builds the record inserted for a confirmed candidate
func CandidateToAlumni(c models.Candidate) *models.Alumni {
	year, month, day := SplitBirthday(c.Birthday)
	return &models.Alumni{
		StudentNumber: strings.TrimSpace(c.StudentNumber),
		FullName:      strings.TrimSpace(c.FullName),
		Email:         strings.TrimSpace(c.Email),
		Contact:       strings.TrimSpace(c.Phone),
		BirthYear:     year,
		BirthMonth:    month,
		BirthDay:      day,
		Degree:        strings.TrimSpace(c.Degree),
		GraduatedYear: strings.TrimSpace(c.GraduationYear),
		IsActive:      true,
	}
}
