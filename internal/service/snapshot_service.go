package service

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/lesson-ledger-api/internal/dto"
	"github.com/noah-isme/lesson-ledger-api/internal/ledger"
	"github.com/noah-isme/lesson-ledger-api/internal/repository"
)

// ErrSnapshotMalformed indicates an import payload that is not a JSON object of slots.
var ErrSnapshotMalformed = errors.New("snapshot must be a JSON object keyed by slot name")

//go:embed schemas/*.json
var slotSchemaFiles embed.FS

// SnapshotService exports and imports the whole ledger in the four-slot format.
type SnapshotService interface {
	Export(ctx context.Context) (dto.SnapshotExport, error)
	Import(ctx context.Context, payload []byte) (dto.SnapshotImportResponse, error)
}

type snapshotService struct {
	repo     repository.SnapshotRepository
	activity ActivityRecorder
	cache    CacheInvalidator
	schemas  map[string]*jsonschema.Schema
	logger   zerolog.Logger
}

// NewSnapshotService constructs the snapshot service and compiles the slot schemas.
func NewSnapshotService(repo repository.SnapshotRepository, activity ActivityRecorder, cache CacheInvalidator, logger zerolog.Logger) (SnapshotService, error) {
	schemas, err := compileSlotSchemas()
	if err != nil {
		return nil, err
	}
	return &snapshotService{
		repo:     repo,
		activity: activity,
		cache:    invalidatorOrNoop(cache),
		schemas:  schemas,
		logger:   logger.With().Str("component", "snapshot_service").Logger(),
	}, nil
}

func compileSlotSchemas() (map[string]*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	schemas := make(map[string]*jsonschema.Schema, len(dto.SlotNames))
	for _, slot := range dto.SlotNames {
		raw, err := slotSchemaFiles.ReadFile("schemas/" + slot + ".json")
		if err != nil {
			return nil, err
		}
		url := "ledger://schemas/" + slot + ".json"
		if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("load schema %s: %w", slot, err)
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", slot, err)
		}
		schemas[slot] = schema
	}
	return schemas, nil
}

func (s *snapshotService) Export(ctx context.Context) (dto.SnapshotExport, error) {
	collections, err := s.repo.LoadAll(ctx)
	if err != nil {
		return dto.SnapshotExport{}, err
	}
	return dto.NewSnapshotExport(collections), nil
}

// Import replaces the entire ledger with the slots in payload. A slot that is
// missing, unparseable or not an array loads as an empty collection and is
// listed in Recovered. Rows failing their schema are dropped one by one, as are
// rows pointing at unknown students.
func (s *snapshotService) Import(ctx context.Context, payload []byte) (dto.SnapshotImportResponse, error) {
	var document dto.SnapshotDocument
	if err := json.Unmarshal(payload, &document); err != nil || document == nil {
		return dto.SnapshotImportResponse{}, ErrSnapshotMalformed
	}

	resp := dto.SnapshotImportResponse{Recovered: []string{}}
	var raw ledger.Collections
	invalid := 0

	students, dropped, ok := decodeSlot[dto.LegacyStudent](s, document, dto.SlotStudents)
	for _, row := range students {
		raw.Students = append(raw.Students, row.ToModel())
	}
	invalid += dropped
	if !ok {
		resp.Recovered = append(resp.Recovered, dto.SlotStudents)
	}

	logs, dropped, ok := decodeSlot[dto.LegacyLessonLog](s, document, dto.SlotLogs)
	for _, row := range logs {
		raw.Logs = append(raw.Logs, row.ToModel())
	}
	invalid += dropped
	if !ok {
		resp.Recovered = append(resp.Recovered, dto.SlotLogs)
	}

	reviews, dropped, ok := decodeSlot[dto.LegacyReview](s, document, dto.SlotReviews)
	for _, row := range reviews {
		raw.Reviews = append(raw.Reviews, row.ToModel())
	}
	invalid += dropped
	if !ok {
		resp.Recovered = append(resp.Recovered, dto.SlotReviews)
	}

	archives, dropped, ok := decodeSlot[dto.LegacyArchiveImage](s, document, dto.SlotArchives)
	for _, row := range archives {
		raw.Archives = append(raw.Archives, row.ToModel())
	}
	invalid += dropped
	if !ok {
		resp.Recovered = append(resp.Recovered, dto.SlotArchives)
	}

	collections, report := raw.Normalize()
	report.InvalidRows = invalid
	if err := s.repo.ReplaceAll(ctx, collections); err != nil {
		s.logger.Error().Err(err).Msg("failed to replace ledger from snapshot")
		return dto.SnapshotImportResponse{}, err
	}

	resp.Students = len(collections.Students)
	resp.Logs = len(collections.Logs)
	resp.Reviews = len(collections.Reviews)
	resp.Archives = len(collections.Archives)
	resp.Integrity = report

	s.cache.Invalidate(ctx)
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Action:     ActionSnapshotImport,
		EntityType: "snapshot",
		Metadata: map[string]interface{}{
			"students":       resp.Students,
			"logs":           resp.Logs,
			"reviews":        resp.Reviews,
			"archives":       resp.Archives,
			"recovered":      resp.Recovered,
			"orphan_rows":    report.OrphanRows,
			"duplicate_rows": report.DuplicateRows,
			"invalid_rows":   report.InvalidRows,
		},
	})
	s.logger.Info().
		Int("students", resp.Students).
		Strs("recovered", resp.Recovered).
		Int("orphans", report.OrphanRows).
		Int("invalid", report.InvalidRows).
		Msg("snapshot imported")

	return resp, nil
}

// decodeSlot returns the rows of the named slot that pass its schema, the number
// of rows dropped, and whether the slot itself was usable.
func decodeSlot[T any](s *snapshotService, document dto.SnapshotDocument, slot string) ([]T, int, bool) {
	raw := bytes.TrimSpace(document[slot])
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, 0, false
	}

	// Browser storage keeps each slot as a JSON string holding the array.
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, 0, false
		}
		raw = []byte(inner)
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		s.logger.Warn().Err(err).Str("slot", slot).Msg("snapshot slot is not a JSON array")
		return nil, 0, false
	}

	out := make([]T, 0, len(rows))
	dropped := 0
	for i, row := range rows {
		var generic interface{}
		if err := json.Unmarshal(row, &generic); err != nil {
			dropped++
			continue
		}
		// The slot schemas describe arrays, so each row is checked as a one-element array.
		if err := s.schemas[slot].Validate([]interface{}{generic}); err != nil {
			s.logger.Warn().Err(err).Str("slot", slot).Int("row", i).Msg("snapshot row failed schema validation")
			dropped++
			continue
		}
		var item T
		if err := json.Unmarshal(row, &item); err != nil {
			s.logger.Warn().Err(err).Str("slot", slot).Int("row", i).Msg("snapshot row could not be decoded")
			dropped++
			continue
		}
		out = append(out, item)
	}
	return out, dropped, true
}
