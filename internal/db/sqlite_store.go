package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/careform/intake/internal/forms"
	"github.com/careform/intake/internal/services"
)

// SQLiteStore backs every service store interface with one sqlite database.
// Documents (template snapshots, response maps) live as JSON in TEXT columns;
// timestamps are RFC3339Nano strings.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

func NewSQLiteStore(db *sql.DB, log *zap.Logger) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	if log == nil {
		log = zap.NewNop()
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db, log: log}, nil
}

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		s.log.Error("sqlite store", zap.String("op", prefix), zap.Error(err))
	}
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func fmtTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: fmtTime(*t), Valid: true}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimePtr(ns sql.NullString) *time.Time {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func toNullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeTemplate(raw string) (*forms.Template, error) {
	var t forms.Template
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func decodeResponses(ns sql.NullString) forms.ResponseMap {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	var out forms.ResponseMap
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil
	}
	return out
}

func decodeIntSlice(ns sql.NullString) []int {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	var out []int
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil
	}
	return out
}

// --- Providers ---

func (s *SQLiteStore) AddProvider(p *services.Provider) error {
	_, err := s.db.Exec(`INSERT INTO providers (id, email, name, pass_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Email, p.Name, p.PassHash, fmtTime(p.CreatedAt))
	return err
}

func (s *SQLiteStore) FindProviderByEmail(email string) (*services.Provider, error) {
	row := s.db.QueryRow(`SELECT id, email, name, pass_hash, created_at FROM providers WHERE email = ?`, email)
	var p services.Provider
	var created string
	var name sql.NullString
	if err := row.Scan(&p.ID, &p.Email, &name, &p.PassHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.Name = name.String
	p.CreatedAt = parseTime(created)
	return &p, nil
}

func (s *SQLiteStore) GetProvider(id string) (*services.Provider, error) {
	row := s.db.QueryRow(`SELECT id, email, name, pass_hash, created_at FROM providers WHERE id = ?`, id)
	var p services.Provider
	var created string
	var name sql.NullString
	if err := row.Scan(&p.ID, &p.Email, &name, &p.PassHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.Name = name.String
	p.CreatedAt = parseTime(created)
	return &p, nil
}

// --- Templates ---

func (s *SQLiteStore) AddTemplate(rec *services.TemplateRecord) error {
	def, err := encodeJSON(rec.Template)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO templates (id, provider_id, definition, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.ProviderID, def, fmtTime(rec.CreatedAt), fmtTime(rec.UpdatedAt))
	return err
}

func (s *SQLiteStore) UpdateTemplate(rec *services.TemplateRecord) error {
	def, err := encodeJSON(rec.Template)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`UPDATE templates SET definition = ?, updated_at = ? WHERE id = ?`,
		def, fmtTime(rec.UpdatedAt), rec.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("template not found")
	}
	return nil
}

func scanTemplate(scan func(dest ...any) error) (*services.TemplateRecord, error) {
	var rec services.TemplateRecord
	var def, created, updated string
	if err := scan(&rec.ProviderID, &def, &created, &updated); err != nil {
		return nil, err
	}
	t, err := decodeTemplate(def)
	if err != nil {
		return nil, err
	}
	rec.Template = *t
	rec.CreatedAt = parseTime(created)
	rec.UpdatedAt = parseTime(updated)
	return &rec, nil
}

func (s *SQLiteStore) GetTemplate(id string) (*services.TemplateRecord, error) {
	row := s.db.QueryRow(`SELECT provider_id, definition, created_at, updated_at FROM templates WHERE id = ?`, id)
	rec, err := scanTemplate(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func (s *SQLiteStore) ListTemplatesByProvider(providerID string) ([]*services.TemplateRecord, error) {
	rows, err := s.db.Query(`SELECT provider_id, definition, created_at, updated_at FROM templates WHERE provider_id = ? ORDER BY created_at ASC`, providerID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logErr("ListTemplatesByProvider: rows.Close", cerr)
		}
	}()
	var out []*services.TemplateRecord
	for rows.Next() {
		rec, err := scanTemplate(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteTemplate(id string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// --- Assignments ---

func (s *SQLiteStore) AddAssignment(a *services.Assignment) error {
	snap, err := encodeJSON(a.Snapshot)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO assignments (id, template_id, provider_id, respondent_id, snapshot, status, due_date, created_at)
      VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.TemplateID, a.ProviderID, a.RespondentID, snap, string(a.Status), fmtTimePtr(a.DueDate), fmtTime(a.CreatedAt))
	return err
}

func scanAssignment(scan func(dest ...any) error) (*services.Assignment, error) {
	var a services.Assignment
	var snap, status, created string
	var due, responses, submitted, approved sql.NullString
	if err := scan(&a.ID, &a.TemplateID, &a.ProviderID, &a.RespondentID, &snap, &status, &due, &responses, &created, &submitted, &approved); err != nil {
		return nil, err
	}
	t, err := decodeTemplate(snap)
	if err != nil {
		return nil, err
	}
	a.Snapshot = t
	a.Status = services.AssignmentStatus(status)
	a.DueDate = parseTimePtr(due)
	a.Responses = decodeResponses(responses)
	a.CreatedAt = parseTime(created)
	a.SubmittedAt = parseTimePtr(submitted)
	a.ApprovedAt = parseTimePtr(approved)
	return &a, nil
}

const assignmentColumns = `id, template_id, provider_id, respondent_id, snapshot, status, due_date, responses, created_at, submitted_at, approved_at`

func (s *SQLiteStore) GetAssignment(id string) (*services.Assignment, error) {
	row := s.db.QueryRow(`SELECT `+assignmentColumns+` FROM assignments WHERE id = ?`, id)
	a, err := scanAssignment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (s *SQLiteStore) listAssignments(where, arg string) ([]*services.Assignment, error) {
	rows, err := s.db.Query(`SELECT `+assignmentColumns+` FROM assignments WHERE `+where+` = ? ORDER BY created_at DESC`, arg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logErr("listAssignments: rows.Close", cerr)
		}
	}()
	var out []*services.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListAssignmentsByProvider(providerID string) ([]*services.Assignment, error) {
	return s.listAssignments("provider_id", providerID)
}

func (s *SQLiteStore) ListAssignmentsByRespondent(respondentID string) ([]*services.Assignment, error) {
	return s.listAssignments("respondent_id", respondentID)
}

// SetAssignmentStatus is a compare-and-swap: the update lands only when the
// stored status still equals from.
func (s *SQLiteStore) SetAssignmentStatus(id string, from, to services.AssignmentStatus, at time.Time) (bool, error) {
	var res sql.Result
	var err error
	if to == services.AssignmentApproved {
		res, err = s.db.Exec(`UPDATE assignments SET status = ?, approved_at = ? WHERE id = ? AND status = ?`,
			string(to), fmtTime(at), id, string(from))
	} else {
		res, err = s.db.Exec(`UPDATE assignments SET status = ? WHERE id = ? AND status = ?`,
			string(to), id, string(from))
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SubmitAssignment writes responses, timestamp and status in one statement,
// gated on the row still being in_progress.
func (s *SQLiteStore) SubmitAssignment(id string, responses forms.ResponseMap, at time.Time) (bool, error) {
	raw, err := encodeJSON(responses)
	if err != nil {
		return false, err
	}
	res, err := s.db.Exec(`UPDATE assignments SET status = ?, responses = ?, submitted_at = ? WHERE id = ? AND status = ?`,
		string(services.AssignmentSubmitted), raw, fmtTime(at), id, string(services.AssignmentInProgress))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// --- Edit requests ---

func (s *SQLiteStore) AddEditRequest(er *services.EditRequest) error {
	_, err := s.db.Exec(`INSERT INTO edit_requests (id, assignment_id, reason, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		er.ID, er.AssignmentID, er.Reason, string(er.Status), fmtTime(er.CreatedAt))
	return err
}

func (s *SQLiteStore) GetEditRequest(id string) (*services.EditRequest, error) {
	row := s.db.QueryRow(`SELECT id, assignment_id, reason, status, created_at FROM edit_requests WHERE id = ?`, id)
	var er services.EditRequest
	var status, created string
	if err := row.Scan(&er.ID, &er.AssignmentID, &er.Reason, &status, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	er.Status = services.EditRequestStatus(status)
	er.CreatedAt = parseTime(created)
	return &er, nil
}

func (s *SQLiteStore) SetEditRequestStatus(id string, from, to services.EditRequestStatus) (bool, error) {
	res, err := s.db.Exec(`UPDATE edit_requests SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQLiteStore) ListEditRequestsByAssignment(assignmentID string) ([]*services.EditRequest, error) {
	rows, err := s.db.Query(`SELECT id, assignment_id, reason, status, created_at FROM edit_requests WHERE assignment_id = ? ORDER BY created_at ASC`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logErr("ListEditRequestsByAssignment: rows.Close", cerr)
		}
	}()
	var out []*services.EditRequest
	for rows.Next() {
		var er services.EditRequest
		var status, created string
		if err := rows.Scan(&er.ID, &er.AssignmentID, &er.Reason, &status, &created); err != nil {
			return nil, err
		}
		er.Status = services.EditRequestStatus(status)
		er.CreatedAt = parseTime(created)
		out = append(out, &er)
	}
	return out, rows.Err()
}

// --- Drafts ---

func (s *SQLiteStore) UpsertDraft(d *services.Draft) error {
	responses, err := encodeJSON(d.Responses)
	if err != nil {
		return err
	}
	completed, err := encodeJSON(d.CompletedSections)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO drafts (session_key, responses, completed_sections, submitter_name, submitter_email, submitter_phone, status, updated_at)
      VALUES (?, ?, ?, ?, ?, ?, ?, ?)
      ON CONFLICT(session_key) DO UPDATE SET
        responses = excluded.responses,
        completed_sections = excluded.completed_sections,
        submitter_name = excluded.submitter_name,
        submitter_email = excluded.submitter_email,
        submitter_phone = excluded.submitter_phone,
        status = excluded.status,
        updated_at = excluded.updated_at`,
		d.SessionKey, responses, completed, toNullString(d.SubmitterName), toNullString(d.SubmitterEmail), toNullString(d.SubmitterPhone), d.Status, fmtTime(d.UpdatedAt))
	return err
}

func (s *SQLiteStore) GetDraft(sessionKey string) (*services.Draft, error) {
	row := s.db.QueryRow(`SELECT session_key, responses, completed_sections, submitter_name, submitter_email, submitter_phone, status, updated_at FROM drafts WHERE session_key = ?`, sessionKey)
	var d services.Draft
	var responses, updated string
	var completed, name, email, phone sql.NullString
	if err := row.Scan(&d.SessionKey, &responses, &completed, &name, &email, &phone, &d.Status, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	d.Responses = decodeResponses(sql.NullString{String: responses, Valid: true})
	if d.Responses == nil {
		d.Responses = forms.ResponseMap{}
	}
	d.CompletedSections = decodeIntSlice(completed)
	d.SubmitterName = name.String
	d.SubmitterEmail = email.String
	d.SubmitterPhone = phone.String
	d.UpdatedAt = parseTime(updated)
	return &d, nil
}

func (s *SQLiteStore) MarkDraftSubmitted(sessionKey string) error {
	res, err := s.db.Exec(`UPDATE drafts SET status = ? WHERE session_key = ?`, services.DraftStatusSubmitted, sessionKey)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("draft not found")
	}
	return nil
}

// PurgeSubmittedDrafts deletes finalized drafts older than cutoff.
func (s *SQLiteStore) PurgeSubmittedDrafts(cutoff time.Time) (int, error) {
	res, err := s.db.Exec(`DELETE FROM drafts WHERE status = ? AND updated_at < ?`,
		services.DraftStatusSubmitted, fmtTime(cutoff))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// --- Public links ---

func (s *SQLiteStore) AddLink(l *services.PublicLink) error {
	snap, err := encodeJSON(l.Snapshot)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO public_links (id, code, provider_id, template_id, snapshot, language, expires_at, max_submissions, current_submissions, is_active, created_at)
      VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Code, l.ProviderID, l.TemplateID, snap, l.Language, fmtTimePtr(l.ExpiresAt), l.MaxSubmissions, l.CurrentSubmissions, boolToInt64(l.Active), fmtTime(l.CreatedAt))
	return err
}

const linkColumns = `id, code, provider_id, template_id, snapshot, language, expires_at, max_submissions, current_submissions, is_active, created_at`

func scanLink(scan func(dest ...any) error) (*services.PublicLink, error) {
	var l services.PublicLink
	var snap, created string
	var expires sql.NullString
	var active int64
	if err := scan(&l.ID, &l.Code, &l.ProviderID, &l.TemplateID, &snap, &l.Language, &expires, &l.MaxSubmissions, &l.CurrentSubmissions, &active, &created); err != nil {
		return nil, err
	}
	t, err := decodeTemplate(snap)
	if err != nil {
		return nil, err
	}
	l.Snapshot = t
	l.ExpiresAt = parseTimePtr(expires)
	l.Active = active != 0
	l.CreatedAt = parseTime(created)
	return &l, nil
}

func (s *SQLiteStore) GetLinkByCode(code string) (*services.PublicLink, error) {
	row := s.db.QueryRow(`SELECT `+linkColumns+` FROM public_links WHERE code = ?`, code)
	l, err := scanLink(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return l, err
}

func (s *SQLiteStore) GetLink(id string) (*services.PublicLink, error) {
	row := s.db.QueryRow(`SELECT `+linkColumns+` FROM public_links WHERE id = ?`, id)
	l, err := scanLink(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return l, err
}

func (s *SQLiteStore) ListLinksByProvider(providerID string) ([]*services.PublicLink, error) {
	rows, err := s.db.Query(`SELECT `+linkColumns+` FROM public_links WHERE provider_id = ? ORDER BY created_at DESC`, providerID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logErr("ListLinksByProvider: rows.Close", cerr)
		}
	}()
	var out []*services.PublicLink
	for rows.Next() {
		l, err := scanLink(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SetLinkActive(id string, active bool) error {
	res, err := s.db.Exec(`UPDATE public_links SET is_active = ? WHERE id = ?`, boolToInt64(active), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("link not found")
	}
	return nil
}

// DeactivateExpiredLinks flips is_active off for every link past its expiry.
func (s *SQLiteStore) DeactivateExpiredLinks(now time.Time) (int, error) {
	res, err := s.db.Exec(`UPDATE public_links SET is_active = 0 WHERE is_active = 1 AND expires_at IS NOT NULL AND expires_at <= ?`, fmtTime(now))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// --- External submissions ---

// CreateExternalSubmission inserts the submission and bumps the link counter
// in one transaction. The counter update carries the quota ceiling in its
// WHERE clause, so two racing submitters can never both take the last slot;
// the loser's transaction rolls back and false comes back.
func (s *SQLiteStore) CreateExternalSubmission(sub *services.ExternalSubmission) (bool, error) {
	responses, err := encodeJSON(sub.Responses)
	if err != nil {
		return false, err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return false, err
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			s.logErr("CreateExternalSubmission: rollback", rerr)
		}
	}()

	res, err := tx.Exec(`UPDATE public_links SET current_submissions = current_submissions + 1
      WHERE id = ? AND (max_submissions = 0 OR current_submissions < max_submissions)`, sub.LinkID)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}
	if _, err := tx.Exec(`INSERT INTO external_submissions (id, link_id, submitter_name, submitter_email, submitter_phone, responses, signature, status, created_at)
      VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.LinkID, sub.SubmitterName, toNullString(sub.SubmitterEmail), toNullString(sub.SubmitterPhone), responses, toNullString(sub.Signature), string(sub.Status), fmtTime(sub.CreatedAt)); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func scanSubmission(scan func(dest ...any) error) (*services.ExternalSubmission, error) {
	var sub services.ExternalSubmission
	var responses, status, created string
	var email, phone, signature sql.NullString
	if err := scan(&sub.ID, &sub.LinkID, &sub.SubmitterName, &email, &phone, &responses, &signature, &status, &created); err != nil {
		return nil, err
	}
	sub.SubmitterEmail = email.String
	sub.SubmitterPhone = phone.String
	sub.Responses = decodeResponses(sql.NullString{String: responses, Valid: true})
	sub.Signature = signature.String
	sub.Status = services.SubmissionStatus(status)
	sub.CreatedAt = parseTime(created)
	return &sub, nil
}

const submissionColumns = `id, link_id, submitter_name, submitter_email, submitter_phone, responses, signature, status, created_at`

func (s *SQLiteStore) GetExternalSubmission(id string) (*services.ExternalSubmission, error) {
	row := s.db.QueryRow(`SELECT `+submissionColumns+` FROM external_submissions WHERE id = ?`, id)
	sub, err := scanSubmission(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return sub, err
}

func (s *SQLiteStore) ListExternalSubmissionsByLink(linkID string) ([]*services.ExternalSubmission, error) {
	rows, err := s.db.Query(`SELECT `+submissionColumns+` FROM external_submissions WHERE link_id = ? ORDER BY created_at ASC`, linkID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logErr("ListExternalSubmissionsByLink: rows.Close", cerr)
		}
	}()
	var out []*services.ExternalSubmission
	for rows.Next() {
		sub, err := scanSubmission(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SetExternalSubmissionStatus(id string, from, to services.SubmissionStatus) (bool, error) {
	res, err := s.db.Exec(`UPDATE external_submissions SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// --- Notifications ---

func (s *SQLiteStore) AddNotification(n *services.Notification) error {
	_, err := s.db.Exec(`INSERT INTO notifications (id, provider_id, kind, subject, body, read, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.ProviderID, n.Kind, n.Subject, toNullString(n.Body), boolToInt64(n.Read), fmtTime(n.CreatedAt))
	return err
}

func (s *SQLiteStore) ListNotificationsByProvider(providerID string) ([]*services.Notification, error) {
	rows, err := s.db.Query(`SELECT id, provider_id, kind, subject, body, read, created_at FROM notifications WHERE provider_id = ? ORDER BY created_at DESC`, providerID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logErr("ListNotificationsByProvider: rows.Close", cerr)
		}
	}()
	var out []*services.Notification
	for rows.Next() {
		var n services.Notification
		var created string
		var body sql.NullString
		var read int64
		if err := rows.Scan(&n.ID, &n.ProviderID, &n.Kind, &n.Subject, &body, &read, &created); err != nil {
			return nil, err
		}
		n.Body = body.String
		n.Read = read != 0
		n.CreatedAt = parseTime(created)
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) MarkNotificationRead(providerID, id string) error {
	res, err := s.db.Exec(`UPDATE notifications SET read = 1 WHERE id = ? AND provider_id = ?`, id, providerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("notification not found")
	}
	return nil
}

// --- Audit ---

// AddAudit is fire-and-forget: audit failures never block the operation that
// produced them.
func (s *SQLiteStore) AddAudit(entry services.AuditEntry) {
	_, err := s.db.Exec(`INSERT INTO audit_log (at, actor, action, target, note) VALUES (?, ?, ?, ?, ?)`,
		fmtTime(entry.Time), entry.Actor, entry.Action, toNullString(entry.Target), toNullString(entry.Note))
	s.logErr("AddAudit", err)
}
