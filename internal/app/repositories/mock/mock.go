// Package mock provides in-memory stores for service and controller tests.
package mock

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/repositories"
	"github.com/yigit/alumnitrack/internal/db"
	"github.com/yigit/alumnitrack/internal/pkg/apperrors"
)

// Transactor runs fn directly; the stores below are already serialized by their own locks
type Transactor struct {
	Calls int
}

// WithTransaction implements db.Transactor
func (t *Transactor) WithTransaction(ctx context.Context, fn db.TransactionFn) error {
	t.Calls++
	return fn(ctx)
}

func clone(a *models.Alumni) *models.Alumni {
	cp := *a
	return &cp
}

// AlumniStore is an in-memory repositories.AlumniStore enforcing the same unique keys as the table
type AlumniStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.Alumni

	// Err is returned by every call when set
	Err error
	// DeleteErrs fails DeleteArchived and DeleteExpired for specific ids
	DeleteErrs map[int64]error
	// BeforeDelete runs ahead of DeleteExpired, outside the store lock
	BeforeDelete func(id int64)
	// CreateErrs fails Create for specific student numbers
	CreateErrs map[string]error
	// Lookups counts FindByEmailOrStudentNumber calls
	Lookups int
}

// NewAlumniStore creates an empty AlumniStore
func NewAlumniStore() *AlumniStore {
	return &AlumniStore{
		rows:       map[int64]*models.Alumni{},
		DeleteErrs: map[int64]error{},
		CreateErrs: map[string]error{},
	}
}

// Seed inserts a record as-is, assigning an id when missing
func (s *AlumniStore) Seed(a *models.Alumni) *models.Alumni {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		s.nextID++
		a.ID = s.nextID
	} else if a.ID > s.nextID {
		s.nextID = a.ID
	}
	s.rows[a.ID] = clone(a)
	return a
}

// Len returns the number of stored records
func (s *AlumniStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Get returns a copy of a stored record or nil
func (s *AlumniStore) Get(id int64) *models.Alumni {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.rows[id]; ok {
		return clone(a)
	}
	return nil
}

func (s *AlumniStore) conflicts(a *models.Alumni) bool {
	for id, row := range s.rows {
		if id == a.ID {
			continue
		}
		if row.StudentNumber == a.StudentNumber {
			return true
		}
		if a.Email != "" && row.Email == a.Email {
			return true
		}
	}
	return false
}

func (s *AlumniStore) Create(ctx context.Context, a *models.Alumni) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	if err := s.CreateErrs[a.StudentNumber]; err != nil {
		return 0, err
	}
	if s.conflicts(a) {
		return 0, apperrors.NewDuplicateAlumniError(repositories.DuplicateRaceMessage)
	}
	s.nextID++
	a.ID = s.nextID
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	s.rows[a.ID] = clone(a)
	return a.ID, nil
}

func (s *AlumniStore) Update(ctx context.Context, a *models.Alumni) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	row, ok := s.rows[a.ID]
	if !ok {
		return apperrors.ErrAlumniNotFound
	}
	if s.conflicts(a) {
		return apperrors.NewDuplicateAlumniError(repositories.DuplicateRaceMessage)
	}
	updated := clone(a)
	updated.IsArchived, updated.ArchivedAt, updated.ArchiveReason, updated.ArchivedBy = row.IsArchived, row.ArchivedAt, row.ArchiveReason, row.ArchivedBy
	updated.IsRestored, updated.RestoredAt, updated.CreatedAt = row.IsRestored, row.RestoredAt, row.CreatedAt
	updated.UpdatedAt = time.Now()
	s.rows[a.ID] = updated
	return nil
}

func (s *AlumniStore) GetByID(ctx context.Context, id int64) (*models.Alumni, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	a, ok := s.rows[id]
	if !ok {
		return nil, apperrors.ErrAlumniNotFound
	}
	return clone(a), nil
}

func (s *AlumniStore) GetByIDForUpdate(ctx context.Context, id int64) (*models.Alumni, error) {
	return s.GetByID(ctx, id)
}

func (s *AlumniStore) sorted(keep func(*models.Alumni) bool) []*models.Alumni {
	out := []*models.Alumni{}
	for _, a := range s.rows {
		if keep(a) {
			out = append(out, clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *AlumniStore) FindByEmailOrStudentNumber(ctx context.Context, email, studentNumber string, excludeID *int64) ([]*models.Alumni, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Lookups++
	if s.Err != nil {
		return nil, s.Err
	}
	email, studentNumber = strings.TrimSpace(email), strings.TrimSpace(studentNumber)
	return s.sorted(func(a *models.Alumni) bool {
		if excludeID != nil && a.ID == *excludeID {
			return false
		}
		return (email != "" && a.Email == email) || (studentNumber != "" && a.StudentNumber == studentNumber)
	}), nil
}

func page[T any](items []T, pageNum, size int) []T {
	if size <= 0 {
		size = 10
	}
	if pageNum < 1 {
		pageNum = 1
	}
	start := (pageNum - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (s *AlumniStore) List(ctx context.Context, filter models.AlumniFilter) ([]*models.Alumni, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	matched := s.sorted(func(a *models.Alumni) bool {
		switch filter.State {
		case models.StateArchived:
			if !a.IsArchived {
				return false
			}
		case models.StateAll:
		default:
			if a.IsArchived {
				return false
			}
		}
		if q := strings.TrimSpace(filter.Search); q != "" &&
			!contains(a.FullName, q) && !contains(a.Email, q) && !contains(a.StudentNumber, q) {
			return false
		}
		if filter.JobStatus != "" && a.JobStatus != filter.JobStatus {
			return false
		}
		if filter.GraduatedYear != "" && a.GraduatedYear != filter.GraduatedYear {
			return false
		}
		return filter.Degree == "" || contains(a.Degree, filter.Degree)
	})
	return page(matched, filter.Page, filter.Size), int64(len(matched)), nil
}

func (s *AlumniStore) ListByState(ctx context.Context, state models.LifecycleState) ([]*models.Alumni, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.sorted(func(a *models.Alumni) bool {
		switch state {
		case models.StateActive:
			return !a.IsArchived
		case models.StateArchived:
			return a.IsArchived
		}
		return true
	}), nil
}

func (s *AlumniStore) MarkArchived(ctx context.Context, id int64, at time.Time, reason string, by *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	a, ok := s.rows[id]
	if !ok {
		return apperrors.ErrAlumniNotFound
	}
	a.IsArchived, a.ArchivedAt, a.ArchivedBy = true, &at, by
	a.ArchiveReason = nil
	if reason != "" {
		a.ArchiveReason = &reason
	}
	a.IsRestored, a.RestoredAt = false, nil
	return nil
}

func (s *AlumniStore) MarkRestored(ctx context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	a, ok := s.rows[id]
	if !ok {
		return apperrors.ErrAlumniNotFound
	}
	a.IsArchived, a.IsRestored, a.RestoredAt = false, true, &at
	return nil
}

func archivedBefore(a *models.Alumni, cutoff time.Time) bool {
	return a.ArchivedAt != nil && !a.ArchivedAt.After(cutoff)
}

func (s *AlumniStore) ListArchive(ctx context.Context, filter models.ArchiveFilter, cutoff time.Time) ([]*models.Alumni, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	matched := s.sorted(func(a *models.Alumni) bool {
		var keep bool
		switch strings.ToLower(filter.Status) {
		case "archived":
			keep = a.IsArchived && !archivedBefore(a, cutoff)
		case "pending":
			keep = a.IsArchived && archivedBefore(a, cutoff)
		case "restored":
			keep = !a.IsArchived && a.IsRestored
		default:
			keep = a.IsArchived || a.IsRestored
		}
		if q := strings.TrimSpace(filter.Search); keep && q != "" {
			keep = contains(a.FullName, q) || contains(a.Email, q)
		}
		return keep
	})
	sort.SliceStable(matched, func(i, j int) bool {
		ai, aj := matched[i].ArchivedAt, matched[j].ArchivedAt
		if ai == nil || aj == nil {
			return aj == nil && ai != nil
		}
		return ai.After(*aj)
	})
	return page(matched, filter.Page, filter.Size), int64(len(matched)), nil
}

func (s *AlumniStore) ArchiveStats(ctx context.Context, cutoff time.Time) (*models.ArchiveStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	stats := &models.ArchiveStats{}
	for _, a := range s.rows {
		switch {
		case a.IsArchived && archivedBefore(a, cutoff):
			stats.PendingDeletion++
		case a.IsArchived:
			stats.Archived++
		case a.IsRestored:
			stats.Restored++
		}
	}
	return stats, nil
}

func (s *AlumniStore) ListExpiredIDs(ctx context.Context, cutoff time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	ids := []int64{}
	for _, a := range s.sorted(func(a *models.Alumni) bool {
		return a.IsArchived && !a.IsRestored && archivedBefore(a, cutoff)
	}) {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func (s *AlumniStore) DeleteArchived(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if err := s.DeleteErrs[id]; err != nil {
		return err
	}
	a, ok := s.rows[id]
	if !ok || !a.IsArchived {
		return apperrors.ErrAlumniNotArchived
	}
	delete(s.rows, id)
	return nil
}

func (s *AlumniStore) DeleteExpired(ctx context.Context, id int64, cutoff time.Time) error {
	if s.BeforeDelete != nil {
		s.BeforeDelete(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if err := s.DeleteErrs[id]; err != nil {
		return err
	}
	a, ok := s.rows[id]
	if !ok || !a.IsArchived || a.IsRestored || !archivedBefore(a, cutoff) {
		return apperrors.ErrArchiveNotExpired
	}
	delete(s.rows, id)
	return nil
}

func (s *AlumniStore) DuplicateGroups(ctx context.Context) ([]models.DuplicateGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	byKey := map[string][]int64{}
	for _, a := range s.sorted(func(*models.Alumni) bool { return true }) {
		if e := strings.ToLower(strings.TrimSpace(a.Email)); e != "" {
			byKey["email|"+e] = append(byKey["email|"+e], a.ID)
		}
		sn := strings.ToLower(strings.TrimSpace(a.StudentNumber))
		byKey["student_number|"+sn] = append(byKey["student_number|"+sn], a.ID)
	}
	groups := []models.DuplicateGroup{}
	for k, ids := range byKey {
		if len(ids) < 2 {
			continue
		}
		field, key, _ := strings.Cut(k, "|")
		groups = append(groups, models.DuplicateGroup{Field: field, Key: key, AlumniIDs: ids})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Field != groups[j].Field {
			return groups[i].Field < groups[j].Field
		}
		return groups[i].Key < groups[j].Key
	})
	return groups, nil
}

func orUnspecified(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unspecified"
	}
	return s
}

func (s *AlumniStore) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	stats := &models.DashboardStats{
		ByJobStatus:      map[string]int64{},
		ByGraduationYear: map[string]int64{},
		ByDegree:         map[string]int64{},
	}
	for _, a := range s.rows {
		if a.IsArchived {
			stats.TotalArchived++
			continue
		}
		stats.TotalActive++
		if a.IsRestored {
			stats.TotalRestored++
		}
		if a.IsRelated != nil {
			if *a.IsRelated {
				stats.Related++
			} else {
				stats.NotRelated++
			}
		}
		stats.ByJobStatus[orUnspecified(string(a.JobStatus))]++
		stats.ByGraduationYear[orUnspecified(a.GraduatedYear)]++
		stats.ByDegree[orUnspecified(a.Degree)]++
	}
	return stats, nil
}

// FormCompletionStore is an in-memory repositories.FormCompletionStore
type FormCompletionStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[string]*models.FormCompletion
	Err    error
}

// NewFormCompletionStore creates an empty FormCompletionStore
func NewFormCompletionStore() *FormCompletionStore {
	return &FormCompletionStore{rows: map[string]*models.FormCompletion{}}
}

func (s *FormCompletionStore) MarkComplete(ctx context.Context, alumniID int64, formType models.FormType, at time.Time) (*models.FormCompletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	key := strconv.FormatInt(alumniID, 10) + "|" + string(formType)
	fc, ok := s.rows[key]
	if !ok {
		s.nextID++
		fc = &models.FormCompletion{ID: s.nextID, AlumniID: alumniID, FormType: formType}
		s.rows[key] = fc
	}
	fc.IsCompleted, fc.CompletedAt = true, &at
	cp := *fc
	return &cp, nil
}

func (s *FormCompletionStore) ListByAlumni(ctx context.Context, alumniID int64) ([]models.FormCompletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []models.FormCompletion{}
	for _, fc := range s.rows {
		if fc.AlumniID == alumniID {
			out = append(out, *fc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FormType < out[j].FormType })
	return out, nil
}

// AuditStore is an in-memory repositories.AuditStore
type AuditStore struct {
	mu      sync.Mutex
	entries []models.AuditEntry
	Err     error
}

// NewAuditStore creates an empty AuditStore
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

// Entries returns a copy of everything inserted so far
func (s *AuditStore) Entries() []models.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuditEntry(nil), s.entries...)
}

func (s *AuditStore) Insert(ctx context.Context, e *models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	e.ID = int64(len(s.entries) + 1)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	s.entries = append(s.entries, *e)
	return nil
}

func (s *AuditStore) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	matched := []models.AuditEntry{}
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.AdminID != nil && (e.AdminID == nil || *e.AdminID != *filter.AdminID) {
			continue
		}
		matched = append(matched, e)
	}
	return page(matched, filter.Page, filter.Size), int64(len(matched)), nil
}

var (
	_ repositories.AlumniStore         = (*AlumniStore)(nil)
	_ repositories.FormCompletionStore = (*FormCompletionStore)(nil)
	_ repositories.AuditStore          = (*AuditStore)(nil)
	_ db.Transactor                    = (*Transactor)(nil)
)
