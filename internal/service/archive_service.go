package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/noah-isme/lesson-ledger-api/internal/dto"
	"github.com/noah-isme/lesson-ledger-api/internal/models"
	"github.com/noah-isme/lesson-ledger-api/internal/observability"
	"github.com/noah-isme/lesson-ledger-api/internal/repository"
	"github.com/noah-isme/lesson-ledger-api/pkg/dataurl"
)

var (
	// ErrArchiveImageNotFound indicates the requested image does not exist.
	ErrArchiveImageNotFound = errors.New("archive image not found")
	// ErrNoFiles indicates an upload request without files.
	ErrNoFiles = errors.New("at least one file is required")
	// ErrTooManyFiles indicates an upload batch above the configured limit.
	ErrTooManyFiles = errors.New("too many files in one upload")
	// ErrUploadTooLarge indicates a file exceeded the configured size limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates a file that is not an image.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
)

// ArchiveLimits bounds upload batches.
type ArchiveLimits struct {
	MaxSizeMB   int
	MaxFiles    int
	Concurrency int
}

// ArchiveService manages the per-student artwork archive.
type ArchiveService interface {
	Upload(ctx context.Context, studentID string, files []*multipart.FileHeader) (dto.ArchiveUploadResponse, error)
	List(ctx context.Context, studentID string, includePayload bool) ([]dto.ArchiveImageResponse, error)
	Delete(ctx context.Context, payload dto.ArchiveDeleteRequest) (dto.ArchiveDeleteResponse, error)
	Download(ctx context.Context, id string) (dto.ArchiveDownload, error)
	DownloadBatch(ctx context.Context, studentID string, ids []string, w io.Writer) (int, error)
}

type archiveService struct {
	archives    repository.ArchiveRepository
	students    repository.StudentRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	cache       CacheInvalidator
	logger      zerolog.Logger
	tracer      trace.Tracer
	maxSize     int64
	maxFiles    int
	concurrency int
	now         func() time.Time
}

// NewArchiveService constructs the archive service.
func NewArchiveService(archives repository.ArchiveRepository, students repository.StudentRepository, validate *validator.Validate, activity ActivityRecorder, cache CacheInvalidator, limits ArchiveLimits, logger zerolog.Logger) ArchiveService {
	if limits.MaxSizeMB <= 0 {
		limits.MaxSizeMB = 10
	}
	if limits.MaxFiles <= 0 {
		limits.MaxFiles = 20
	}
	if limits.Concurrency <= 0 {
		limits.Concurrency = 4
	}
	return &archiveService{
		archives:    archives,
		students:    students,
		validator:   validate,
		activity:    activity,
		cache:       invalidatorOrNoop(cache),
		logger:      logger.With().Str("component", "archive_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/lesson-ledger-api/internal/service/archive"),
		maxSize:     int64(limits.MaxSizeMB) * 1024 * 1024,
		maxFiles:    limits.MaxFiles,
		concurrency: limits.Concurrency,
		now:         time.Now,
	}
}

type encodedFile struct {
	name     string
	mimeType string
	size     int64
	dataURL  string
	err      error
}

// Upload encodes every file independently and stores each one as soon as its
// encoding finishes, so the stored order is completion order rather than
// submission order. Rejected files are reported without aborting the batch.
func (s *archiveService) Upload(ctx context.Context, studentID string, files []*multipart.FileHeader) (dto.ArchiveUploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "archive.upload")
	defer span.End()

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	span.SetAttributes(attribute.Int("upload.files", len(files)), attribute.Int64("upload.max_bytes", s.maxSize))
	if len(files) == 0 {
		span.SetStatus(codes.Error, "validation failed")
		return dto.ArchiveUploadResponse{}, ErrNoFiles
	}
	if len(files) > s.maxFiles {
		span.SetStatus(codes.Error, "validation failed")
		return dto.ArchiveUploadResponse{}, fmt.Errorf("%w: %d > %d", ErrTooManyFiles, len(files), s.maxFiles)
	}

	student, err := s.students.GetByID(ctx, strings.TrimSpace(studentID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ArchiveUploadResponse{Applied: false, Stored: []dto.ArchiveImageResponse{}, Rejected: []dto.ArchiveRejection{}}, nil
		}
		return dto.ArchiveUploadResponse{}, err
	}

	results := make(chan encodedFile, len(files))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)

	var waitErr error
	go func() {
		for _, file := range files {
			file := file
			group.Go(func() error {
				if err := groupCtx.Err(); err != nil {
					return err
				}
				results <- s.encode(file)
				return nil
			})
		}
		waitErr = group.Wait()
		close(results)
	}()

	resp := dto.ArchiveUploadResponse{
		Applied:  true,
		Stored:   make([]dto.ArchiveImageResponse, 0, len(files)),
		Rejected: []dto.ArchiveRejection{},
	}

	var persistErr error
	for result := range results {
		if result.err != nil {
			observability.ArchiveUploads().WithLabelValues("rejected").Inc()
			resp.Rejected = append(resp.Rejected, dto.ArchiveRejection{Name: result.name, Reason: result.err.Error()})
			continue
		}
		if persistErr != nil {
			continue
		}

		image := models.ArchiveImage{
			ID:        newID(),
			StudentID: student.ID,
			Name:      result.name,
			MimeType:  result.mimeType,
			SizeBytes: result.size,
			Payload:   result.dataURL,
			CreatedAt: s.now().UTC(),
		}
		if err := s.archives.Create(ctx, &image); err != nil {
			observability.ArchiveUploads().WithLabelValues("error").Inc()
			s.logger.Error().Err(err).Str("student_id", student.ID).Msg("failed to store archive image")
			persistErr = err
			continue
		}
		observability.ArchiveUploads().WithLabelValues("stored").Inc()
		resp.Stored = append(resp.Stored, dto.NewArchiveImageResponse(image, false))
	}

	if len(resp.Stored) > 0 {
		s.cache.Invalidate(ctx)
	}
	if persistErr != nil {
		span.RecordError(persistErr)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.ArchiveUploadResponse{}, persistErr
	}
	if waitErr != nil {
		span.RecordError(waitErr)
		span.SetStatus(codes.Error, "upload cancelled")
		return dto.ArchiveUploadResponse{}, waitErr
	}

	span.SetAttributes(attribute.Int("upload.stored", len(resp.Stored)), attribute.Int("upload.rejected", len(resp.Rejected)))
	span.SetStatus(codes.Ok, "stored")
	return resp, nil
}

func (s *archiveService) encode(file *multipart.FileHeader) encodedFile {
	result := encodedFile{name: displayFileName(file)}
	if file == nil {
		result.err = ErrNoFiles
		return result
	}
	if file.Size > s.maxSize {
		result.err = ErrUploadTooLarge
		return result
	}

	handle, err := file.Open()
	if err != nil {
		result.err = err
		return result
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		result.err = err
		return result
	}
	if int64(buf.Len()) > s.maxSize {
		result.err = ErrUploadTooLarge
		return result
	}

	mime := dataurl.Detect(buf.Bytes())
	if !dataurl.IsImage(mime) {
		result.err = fmt.Errorf("%w: %s", ErrUploadTypeNotAllowed, mime)
		return result
	}

	result.mimeType = mime
	result.size = int64(buf.Len())
	result.dataURL = dataurl.Encode(mime, buf.Bytes())
	return result
}

// List returns a student's images newest first.
func (s *archiveService) List(ctx context.Context, studentID string, includePayload bool) ([]dto.ArchiveImageResponse, error) {
	images, err := s.archives.ListByStudent(ctx, strings.TrimSpace(studentID), nil)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ArchiveImageResponse, 0, len(images))
	for _, image := range images {
		responses = append(responses, dto.NewArchiveImageResponse(image, includePayload))
	}
	return responses, nil
}

// Delete removes the listed images; ids that do not exist are ignored.
func (s *archiveService) Delete(ctx context.Context, payload dto.ArchiveDeleteRequest) (dto.ArchiveDeleteResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ArchiveDeleteResponse{}, err
	}

	deleted, err := s.archives.DeleteByIDs(ctx, payload.IDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to delete archive images")
		return dto.ArchiveDeleteResponse{}, err
	}

	if deleted > 0 {
		s.cache.Invalidate(ctx)
		recordActivity(ctx, s.activity, s.logger, ActivityEntry{
			Action:     ActionArchiveDelete,
			EntityType: "archive_image",
			Metadata:   map[string]interface{}{"requested": len(payload.IDs), "deleted": deleted},
		})
	}

	return dto.ArchiveDeleteResponse{Requested: len(payload.IDs), Deleted: deleted}, nil
}

// Download decodes a single stored image.
func (s *archiveService) Download(ctx context.Context, id string) (dto.ArchiveDownload, error) {
	image, err := s.archives.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ArchiveDownload{}, ErrArchiveImageNotFound
		}
		return dto.ArchiveDownload{}, err
	}

	mime, content, err := dataurl.Decode(image.Payload)
	if err != nil {
		s.logger.Error().Err(err).Str("image_id", image.ID).Msg("stored archive payload is not a data url")
		return dto.ArchiveDownload{}, err
	}

	return dto.ArchiveDownload{
		FileName: downloadFileName(image, mime),
		MimeType: mime,
		Content:  content,
	}, nil
}

// DownloadBatch writes the selected images of a student to w as a zip archive.
// An empty id list selects every image of the student. It returns the number
// of images written and ErrArchiveImageNotFound when nothing matched.
func (s *archiveService) DownloadBatch(ctx context.Context, studentID string, ids []string, w io.Writer) (int, error) {
	images, err := s.archives.ListByStudent(ctx, strings.TrimSpace(studentID), ids)
	if err != nil {
		return 0, err
	}
	if len(images) == 0 {
		return 0, ErrArchiveImageNotFound
	}

	archive := zip.NewWriter(w)
	used := make(map[string]int, len(images))
	written := 0
	for _, image := range images {
		mime, content, err := dataurl.Decode(image.Payload)
		if err != nil {
			s.logger.Warn().Err(err).Str("image_id", image.ID).Msg("skipping undecodable archive image")
			continue
		}

		header := &zip.FileHeader{
			Name:     uniqueEntryName(used, downloadFileName(image, mime)),
			Method:   zip.Store,
			Modified: image.CreatedAt,
		}
		entry, err := archive.CreateHeader(header)
		if err != nil {
			return 0, err
		}
		if _, err := entry.Write(content); err != nil {
			return 0, err
		}
		written++
	}

	if err := archive.Close(); err != nil {
		return 0, err
	}
	return written, nil
}

func displayFileName(file *multipart.FileHeader) string {
	if file == nil {
		return ""
	}
	name := strings.ReplaceAll(file.Filename, "\\", "/")
	return strings.TrimSpace(filepath.Base(name))
}

// downloadFileName keeps the uploaded name; nameless images get one built from
// the id and the payload's MIME type, defaulting to .png.
func downloadFileName(image models.ArchiveImage, mime string) string {
	name := strings.TrimSpace(strings.ReplaceAll(image.Name, "/", "_"))
	if name != "" && name != "." {
		return name
	}
	ext := dataurl.Extension(mime)
	if ext == "" {
		ext = dataurl.Extension(image.MimeType)
	}
	if ext == "" {
		ext = ".png"
	}
	return fmt.Sprintf("student-archive-%s%s", image.ID, ext)
}

func uniqueEntryName(used map[string]int, name string) string {
	used[name]++
	if used[name] == 1 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), used[name], ext)
}
