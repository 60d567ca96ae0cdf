// Package services holds the alumni tracker business logic.
//
// Services defined in this package:
//   - DuplicateGuard: email and student number uniqueness
//   - CompletionService: profile completion projections and legacy form rows
//   - LifecycleService: archive, restore, retention countdown and cleanup
//   - BulkUploadService: CSV staging and confirmed inserts
//   - ExportService: CSV export
//   - AuditService and AuditWorker: fire-and-forget audit trail
//   - AuthService: admin login, registration and password flows
//   - DashboardService: cached aggregate statistics
package services
