package service

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-ledger-api/internal/dto"
	"github.com/noah-isme/lesson-ledger-api/internal/models"
)

func TestArchiveServiceUploadStoresImagesAndRejectsOthers(t *testing.T) {
	f := newLedgerFixture(t)
	student := f.createStudent(t, "Painter", 10)
	svc := f.archiveService(ArchiveLimits{MaxSizeMB: 1, MaxFiles: 10, Concurrency: 2})

	oversized := append(append([]byte{}, pngBytes...), bytes.Repeat([]byte{0}, 1024*1024)...)
	files := []*multipart.FileHeader{
		buildFileHeader(t, "sunflower.png", pngBytes),
		buildFileHeader(t, "notes.txt", []byte("just some text")),
		buildFileHeader(t, "portrait.jpg", jpegBytes),
		buildFileHeader(t, "huge.png", oversized),
		buildFileHeader(t, "sketch.gif", gifBytes),
	}

	resp, err := svc.Upload(context.Background(), student.ID, files)
	require.NoError(t, err)
	require.True(t, resp.Applied)
	require.Len(t, resp.Stored, 3)
	require.Len(t, resp.Rejected, 2)

	stored := make([]string, 0, len(resp.Stored))
	for _, image := range resp.Stored {
		stored = append(stored, image.Name)
	}
	sort.Strings(stored)
	require.Equal(t, []string{"portrait.jpg", "sketch.gif", "sunflower.png"}, stored)

	rejected := map[string]string{}
	for _, r := range resp.Rejected {
		rejected[r.Name] = r.Reason
	}
	require.Contains(t, rejected["notes.txt"], ErrUploadTypeNotAllowed.Error())
	require.Equal(t, ErrUploadTooLarge.Error(), rejected["huge.png"])

	listed, err := svc.List(context.Background(), student.ID, true)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	// Stored in completion order, listed newest first.
	for i := range listed {
		require.Equal(t, resp.Stored[len(resp.Stored)-1-i].ID, listed[i].ID)
	}
	for _, image := range listed {
		require.Contains(t, image.DataURL, "data:"+image.MimeType+";base64,")
	}
	require.Equal(t, 2, f.cache.count(), "student creation and upload each invalidate once")
}

func TestArchiveServiceUploadGuards(t *testing.T) {
	f := newLedgerFixture(t)
	student := f.createStudent(t, "Guard", 10)
	svc := f.archiveService(ArchiveLimits{MaxFiles: 1})
	ctx := context.Background()

	_, err := svc.Upload(ctx, student.ID, nil)
	require.ErrorIs(t, err, ErrNoFiles)

	_, err = svc.Upload(ctx, student.ID, []*multipart.FileHeader{
		buildFileHeader(t, "a.png", pngBytes),
		buildFileHeader(t, "b.png", pngBytes),
	})
	require.ErrorIs(t, err, ErrTooManyFiles)

	resp, err := svc.Upload(ctx, "ghost", []*multipart.FileHeader{buildFileHeader(t, "a.png", pngBytes)})
	require.NoError(t, err)
	require.False(t, resp.Applied)

	var count int64
	require.NoError(t, f.db.Model(&models.ArchiveImage{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestArchiveServiceDeleteIgnoresUnknownIDs(t *testing.T) {
	f := newLedgerFixture(t)
	student := f.createStudent(t, "Deleter", 10)
	svc := f.archiveService(ArchiveLimits{})
	ctx := context.Background()

	resp, err := svc.Upload(ctx, student.ID, []*multipart.FileHeader{
		buildFileHeader(t, "a.png", pngBytes),
		buildFileHeader(t, "b.png", pngBytes),
	})
	require.NoError(t, err)
	require.Len(t, resp.Stored, 2)

	deleted, err := svc.Delete(ctx, dto.ArchiveDeleteRequest{IDs: []string{resp.Stored[0].ID, "missing"}})
	require.NoError(t, err)
	require.Equal(t, 2, deleted.Requested)
	require.Equal(t, int64(1), deleted.Deleted)
	require.Contains(t, f.activity.actions(), ActionArchiveDelete)

	remaining, err := svc.List(ctx, student.ID, false)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, resp.Stored[1].ID, remaining[0].ID)
	require.Empty(t, remaining[0].DataURL)

	_, err = svc.Delete(ctx, dto.ArchiveDeleteRequest{})
	require.Error(t, err)
}

func TestDownloadFileNameFollowsMimeType(t *testing.T) {
	require.Equal(t, "cat.png", downloadFileName(models.ArchiveImage{ID: "a", Name: "cat.png"}, "image/jpeg"))
	require.Equal(t, "student-archive-a.jpg", downloadFileName(models.ArchiveImage{ID: "a"}, "image/jpeg"))
	require.Equal(t, "student-archive-b.webp", downloadFileName(models.ArchiveImage{ID: "b", MimeType: "image/webp"}, "application/x-unknown"))
	require.Equal(t, "student-archive-c.png", downloadFileName(models.ArchiveImage{ID: "c"}, ""))
}

func TestArchiveServiceDownloadNamesJPEGByType(t *testing.T) {
	f := newLedgerFixture(t)
	student := f.createStudent(t, "Jay", 10)
	svc := f.archiveService(ArchiveLimits{})

	require.NoError(t, f.db.Create(&models.ArchiveImage{
		ID: "jpeg-1", StudentID: student.ID, MimeType: "image/jpeg",
		Payload: "data:image/jpeg;base64,/9j/4AAQ", CreatedAt: f.clock(),
	}).Error)

	download, err := svc.Download(context.Background(), "jpeg-1")
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", download.MimeType)
	require.Equal(t, "student-archive-jpeg-1.jpg", download.FileName)
}

func TestArchiveServiceDownloads(t *testing.T) {
	f := newLedgerFixture(t)
	student := f.createStudent(t, "Downloader", 10)
	svc := f.archiveService(ArchiveLimits{})
	ctx := context.Background()

	require.NoError(t, f.db.Create(&models.ArchiveImage{
		ID: "named-1", StudentID: student.ID, Name: "cat.png", MimeType: "image/png",
		Payload: "data:image/png;base64,iVBORw0KGgo=", CreatedAt: f.clock(),
	}).Error)
	require.NoError(t, f.db.Create(&models.ArchiveImage{
		ID: "named-2", StudentID: student.ID, Name: "cat.png", MimeType: "image/png",
		Payload: "data:image/png;base64,iVBORw0KGgo=", CreatedAt: f.clock(),
	}).Error)
	require.NoError(t, f.db.Create(&models.ArchiveImage{
		ID: "anon", StudentID: student.ID, MimeType: "image/png",
		Payload: "data:image/png;base64,iVBORw0KGgo=", CreatedAt: f.clock(),
	}).Error)

	single, err := svc.Download(ctx, "anon")
	require.NoError(t, err)
	require.Equal(t, "student-archive-anon.png", single.FileName)
	require.Equal(t, "image/png", single.MimeType)
	require.Equal(t, pngBytes[:8], single.Content)

	_, err = svc.Download(ctx, "missing")
	require.ErrorIs(t, err, ErrArchiveImageNotFound)

	var buf bytes.Buffer
	written, err := svc.DownloadBatch(ctx, student.ID, nil, &buf)
	require.NoError(t, err)
	require.Equal(t, 3, written)

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	names := make([]string, 0, len(reader.File))
	for _, file := range reader.File {
		names = append(names, file.Name)
		handle, err := file.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(handle)
		require.NoError(t, err)
		require.NoError(t, handle.Close())
		require.Equal(t, pngBytes[:8], content)
	}
	require.Equal(t, []string{"student-archive-anon.png", "cat.png", "cat (2).png"}, names)

	buf.Reset()
	written, err = svc.DownloadBatch(ctx, student.ID, []string{"named-1"}, &buf)
	require.NoError(t, err)
	require.Equal(t, 1, written)

	_, err = svc.DownloadBatch(ctx, student.ID, []string{"missing"}, &buf)
	require.ErrorIs(t, err, ErrArchiveImageNotFound)
}
