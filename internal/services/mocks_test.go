package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/certchain/credential-service/internal/cache"
	"github.com/certchain/credential-service/internal/chain"
	"github.com/certchain/credential-service/internal/models"
	"github.com/certchain/credential-service/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testCache() *cache.CacheManager {
	return cache.NewCacheManager(nil)
}

// ===== IN-MEMORY REPOSITORY =====

type memoryRepository struct {
	students      *memoryStudentRepo
	certificates  *memoryCertificateRepo
	events        *memoryEventRepo
	registrations *memoryRegistrationRepo
	notifications *memoryNotificationRepo
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		students:      &memoryStudentRepo{byID: make(map[string]*models.Student)},
		certificates:  &memoryCertificateRepo{},
		events:        &memoryEventRepo{byID: make(map[uint]*models.Event)},
		registrations: &memoryRegistrationRepo{},
		notifications: &memoryNotificationRepo{},
	}
}

func (m *memoryRepository) Student() repositories.StudentRepository { return m.students }
func (m *memoryRepository) Certificate() repositories.CertificateRepository {
	return m.certificates
}
func (m *memoryRepository) Event() repositories.EventRepository { return m.events }
func (m *memoryRepository) EventRegistration() repositories.EventRegistrationRepository {
	return m.registrations
}
func (m *memoryRepository) Notification() repositories.NotificationRepository {
	return m.notifications
}
func (m *memoryRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *memoryRepository) Ping(ctx context.Context) error { return nil }
func (m *memoryRepository) Close() error                   { return nil }

type memoryStudentRepo struct {
	mu     sync.Mutex
	nextID uint
	byID   map[string]*models.Student
}

func (r *memoryStudentRepo) Create(ctx context.Context, student *models.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	student.NormalizedID = models.NormalizeStudentID(student.StudentID)
	if student.Department == "" {
		student.Department = models.DefaultDepartment
	}
	if _, exists := r.byID[student.NormalizedID]; exists {
		return fmt.Errorf("student %s: %w", student.StudentID, repositories.ErrDuplicateKey)
	}
	r.nextID++
	student.ID = r.nextID
	student.CreatedAt = time.Now()
	r.byID[student.NormalizedID] = student
	return nil
}

func (r *memoryStudentRepo) GetByNormalizedID(ctx context.Context, normalizedID string) (*models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[normalizedID], nil
}

func (r *memoryStudentRepo) List(ctx context.Context) ([]*models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.Student, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryStudentRepo) ListByDepartment(ctx context.Context, department string) ([]*models.Student, error) {
	all, _ := r.List(ctx)
	out := make([]*models.Student, 0)
	for _, s := range all {
		if s.Department == department {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memoryStudentRepo) Departments(ctx context.Context) ([]string, error) {
	all, _ := r.List(ctx)
	seen := make(map[string]bool)
	var out []string
	for _, s := range all {
		if !seen[s.Department] {
			seen[s.Department] = true
			out = append(out, s.Department)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *memoryStudentRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byID)), nil
}

func (r *memoryStudentRepo) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[string]*models.Student)
	return nil
}

type memoryCertificateRepo struct {
	mu      sync.Mutex
	records []*models.IssuedCertificate
}

func (r *memoryCertificateRepo) Append(ctx context.Context, cert *models.IssuedCertificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, cert)
	return nil
}

func (r *memoryCertificateRepo) AppendBatch(ctx context.Context, certs []*models.IssuedCertificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, certs...)
	return nil
}

func (r *memoryCertificateRepo) List(ctx context.Context, limit int) ([]*models.IssuedCertificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.IssuedCertificate, len(r.records))
	copy(out, r.records)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryCertificateRepo) ListByStudentID(ctx context.Context, studentID string) ([]*models.IssuedCertificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.IssuedCertificate
	for _, c := range r.records {
		if c.StudentID == studentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memoryCertificateRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.records)), nil
}

func (r *memoryCertificateRepo) CountByMode(ctx context.Context, mode models.IssuanceMode) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.records {
		if c.Mode == mode {
			n++
		}
	}
	return n, nil
}

type memoryEventRepo struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*models.Event
}

func (r *memoryEventRepo) Create(ctx context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	event.ID = r.nextID
	r.byID[event.ID] = event
	return nil
}

func (r *memoryEventRepo) GetByID(ctx context.Context, id uint) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memoryEventRepo) List(ctx context.Context) ([]*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Event, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *memoryEventRepo) ListUpcoming(ctx context.Context, from time.Time) ([]*models.Event, error) {
	all, _ := r.List(ctx)
	out := make([]*models.Event, 0)
	for _, e := range all {
		if !e.Date.Before(from) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryEventRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memoryEventRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byID)), nil
}

type memoryRegistrationRepo struct {
	mu   sync.Mutex
	regs []*models.EventRegistration
}

func (r *memoryRegistrationRepo) Create(ctx context.Context, reg *models.EventRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = time.Now()
	}
	r.regs = append(r.regs, reg)
	return nil
}

func (r *memoryRegistrationRepo) CountByEvent(ctx context.Context, eventID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, reg := range r.regs {
		if reg.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (r *memoryRegistrationRepo) ExistsForStudent(ctx context.Context, eventID uint, normalizedStudentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.regs {
		if reg.EventID == eventID && models.NormalizeStudentID(reg.StudentID) == normalizedStudentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRegistrationRepo) DeleteByEventAndStudent(ctx context.Context, eventID uint, normalizedStudentID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*models.EventRegistration
	var removed int64
	for _, reg := range r.regs {
		if reg.EventID == eventID && models.NormalizeStudentID(reg.StudentID) == normalizedStudentID {
			removed++
			continue
		}
		kept = append(kept, reg)
	}
	r.regs = kept
	return removed, nil
}

func (r *memoryRegistrationRepo) ListByEvent(ctx context.Context, eventID uint) ([]*models.EventRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.EventRegistration
	for _, reg := range r.regs {
		if reg.EventID == eventID {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (r *memoryRegistrationRepo) ListByStudent(ctx context.Context, normalizedStudentID string) ([]*models.EventRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.EventRegistration
	for _, reg := range r.regs {
		if models.NormalizeStudentID(reg.StudentID) == normalizedStudentID {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (r *memoryRegistrationRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.regs)), nil
}

func (r *memoryRegistrationRepo) HottestEvent(ctx context.Context) (uint, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[uint]int64)
	for _, reg := range r.regs {
		counts[reg.EventID]++
	}
	var bestID uint
	var best int64
	for id, n := range counts {
		if n > best {
			bestID, best = id, n
		}
	}
	return bestID, best, nil
}

type memoryNotificationRepo struct {
	mu     sync.Mutex
	nextID uint
	items  []*models.Notification
}

func (r *memoryNotificationRepo) Push(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	n.ID = r.nextID
	n.CreatedAt = time.Now()
	r.items = append(r.items, n)
	if len(r.items) > models.MaxNotifications {
		r.items = r.items[len(r.items)-models.MaxNotifications:]
	}
	return nil
}

func (r *memoryNotificationRepo) List(ctx context.Context) ([]*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Notification, len(r.items))
	for i, n := range r.items {
		out[len(r.items)-1-i] = n
	}
	return out, nil
}

func (r *memoryNotificationRepo) MarkRead(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memoryNotificationRepo) MarkAllRead(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		n.Read = true
	}
	return nil
}

func (r *memoryNotificationRepo) CountUnread(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, item := range r.items {
		if !item.Read {
			n++
		}
	}
	return n, nil
}

func (r *memoryNotificationRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.items {
		if n.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memoryNotificationRepo) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
	return nil
}

// ===== FAKE CHAIN CLIENT =====

type fakeRegistry struct {
	mu sync.Mutex

	certs          map[string]*models.ChainCertificate
	byStudent      map[string][]string
	issuanceEvents []models.IssuanceEvent

	unavailable bool

	issueCalls  int
	batchCalls  int
	revokeCalls int
	lastBatch   []models.BatchIssueRow
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		certs:     make(map[string]*models.ChainCertificate),
		byStudent: make(map[string][]string),
	}
}

func (f *fakeRegistry) addCertificate(cert *models.ChainCertificate) {
	f.certs[cert.CertID] = cert
	f.byStudent[cert.StudentID] = append(f.byStudent[cert.StudentID], cert.CertID)
}

func (f *fakeRegistry) GetCertificate(ctx context.Context, certID string) (*models.ChainCertificate, error) {
	if f.unavailable {
		return nil, chain.ErrChainUnavailable
	}
	cert, ok := f.certs[certID]
	if !ok {
		return nil, chain.ErrCertificateNotFound
	}
	return cert, nil
}

func (f *fakeRegistry) GetCertificatesByStudentID(ctx context.Context, studentID string) ([]string, error) {
	if f.unavailable {
		return nil, chain.ErrChainUnavailable
	}
	return f.byStudent[studentID], nil
}

func (f *fakeRegistry) IssuanceEvents(ctx context.Context) ([]models.IssuanceEvent, error) {
	if f.unavailable {
		return nil, chain.ErrChainUnavailable
	}
	out := make([]models.IssuanceEvent, len(f.issuanceEvents))
	copy(out, f.issuanceEvents)
	return out, nil
}

func (f *fakeRegistry) IssueCertificate(ctx context.Context, certID, contentHash, studentName, studentID, recipient string) (string, error) {
	if f.unavailable {
		return "", chain.ErrChainUnavailable
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issueCalls++
	return "0xsingle", nil
}

func (f *fakeRegistry) IssueBatch(ctx context.Context, rows []models.BatchIssueRow, contentHash string) (string, error) {
	if f.unavailable {
		return "", chain.ErrChainUnavailable
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	f.lastBatch = rows
	return "0xbatch", nil
}

func (f *fakeRegistry) RevokeCertificate(ctx context.Context, certID string) (string, error) {
	if f.unavailable {
		return "", chain.ErrChainUnavailable
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokeCalls++
	return "0xrevoke", nil
}

func (f *fakeRegistry) Close() {}

// ===== FAKE PINNER =====

type fakePinner struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (p *fakePinner) PinFile(ctx context.Context, filename string, content io.Reader) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return "", fmt.Errorf("pinning service rejected the upload")
	}
	p.calls++
	return "QmFakeHash", nil
}

// chainTimestamp builds a big.Int timestamp for fake certificates.
func chainTimestamp(unix int64) *big.Int {
	return big.NewInt(unix)
}
