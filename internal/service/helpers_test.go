package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/lesson-ledger-api/internal/database"
	"github.com/noah-isme/lesson-ledger-api/internal/dto"
	"github.com/noah-isme/lesson-ledger-api/internal/repository"
)

type stubActivityRecorder struct {
	mu      sync.Mutex
	entries []ActivityEntry
}

func (s *stubActivityRecorder) Record(_ context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return dto.ActivityResponse{Action: entry.Action, EntityType: entry.EntityType, EntityID: entry.EntityID}, nil
}

func (s *stubActivityRecorder) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	actions := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type ledgerFixture struct {
	db          *gorm.DB
	students    repository.StudentRepository
	logs        repository.LessonLogRepository
	reviews     repository.ReviewRepository
	archives    repository.ArchiveRepository
	credentials repository.CredentialRepository
	snapshots   repository.SnapshotRepository
	activity    *stubActivityRecorder
	cache       *countingInvalidator
	validate    *validator.Validate
	clock       func() time.Time
}

func newLedgerFixture(t *testing.T) ledgerFixture {
	t.Helper()

	db, err := database.ConnectSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return ledgerFixture{
		db:          db,
		students:    repository.NewStudentRepository(db),
		logs:        repository.NewLessonLogRepository(db),
		reviews:     repository.NewReviewRepository(db),
		archives:    repository.NewArchiveRepository(db),
		credentials: repository.NewCredentialRepository(db),
		snapshots:   repository.NewSnapshotRepository(db),
		activity:    &stubActivityRecorder{},
		cache:       &countingInvalidator{},
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		clock:       tickingClock(time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)),
	}
}

func (f ledgerFixture) studentService() *studentService {
	svc := NewStudentService(f.students, f.archives, f.validate, f.activity, f.cache, zerolog.Nop()).(*studentService)
	svc.now = f.clock
	return svc
}

func (f ledgerFixture) lessonService() *lessonService {
	svc := NewLessonService(f.logs, f.archives, f.validate, f.cache, zerolog.Nop()).(*lessonService)
	svc.now = f.clock
	return svc
}

func (f ledgerFixture) reviewService() *reviewService {
	svc := NewReviewService(f.reviews, f.students, f.validate, f.cache, zerolog.Nop()).(*reviewService)
	svc.now = f.clock
	return svc
}

func (f ledgerFixture) archiveService(limits ArchiveLimits) *archiveService {
	svc := NewArchiveService(f.archives, f.students, f.validate, f.activity, f.cache, limits, zerolog.Nop()).(*archiveService)
	svc.now = f.clock
	return svc
}

func (f ledgerFixture) createStudent(t *testing.T, name string, lessons int) dto.StudentResponse {
	t.Helper()
	student, err := f.studentService().Create(context.Background(), dto.StudentCreateRequest{
		Name:           name,
		Phone:          "138" + name,
		InitialLessons: lessons,
	})
	require.NoError(t, err)
	return student
}

// tickingClock advances one second per call so creation order is unambiguous.
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"files\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	files := form.File["files"]
	require.Len(t, files, 1)
	return files[0]
}

var (
	pngBytes  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	jpegBytes = []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F', 'I', 'F', 0}
	gifBytes  = []byte("GIF89a\x01\x00\x01\x00")
)
