package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"chapelku_backend/internals/constants"
	"chapelku_backend/internals/features/chapel/attendance/dto"
	"chapelku_backend/internals/features/chapel/registry"
	helper "chapelku_backend/internals/helpers"
	osshelper "chapelku_backend/internals/helpers/oss"
)

// AbsenteeAggregatorService reads the per-level absentee documents and builds
// the consolidated reporting views.
type AbsenteeAggregatorService struct {
	Docs     DocumentStore
	Services ServiceLookup
}

func NewAbsenteeAggregatorService(docs DocumentStore, services ServiceLookup) *AbsenteeAggregatorService {
	return &AbsenteeAggregatorService{Docs: docs, Services: services}
}

// levelDoc is one fetched absentees.json, or the reason it could not be used.
type levelDoc struct {
	Level   int
	Entries []dto.AbsenteeRecord
	Err     string
}

// fetchLevelDocs reads every level's absentees.json in parallel. A missing
// document means zero absentees, not an error. A malformed document is
// surfaced per level without failing the other levels.
func (s *AbsenteeAggregatorService) fetchLevelDocs(ctx context.Context, date time.Time, serviceID uuid.UUID) ([]levelDoc, error) {
	docs := make([]levelDoc, len(constants.AcademicLevels))
	g, gctx := errgroup.WithContext(ctx)
	for i, level := range constants.AcademicLevels {
		i, level := i, level
		g.Go(func() error {
			key := AbsenteesKey(DocDir(date, serviceID, level))
			var entries []dto.AbsenteeRecord
			err := s.Docs.GetJSON(gctx, key, &entries)
			switch {
			case err == nil:
				docs[i] = levelDoc{Level: level, Entries: entries}
			case errors.Is(err, osshelper.ErrObjectNotFound):
				docs[i] = levelDoc{Level: level}
			case errors.Is(err, osshelper.ErrObjectMalformed):
				docs[i] = levelDoc{Level: level, Err: err.Error()}
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func summarize(docs []levelDoc) ([]dto.LevelCount, int) {
	counts := make([]dto.LevelCount, 0, len(docs))
	total := 0
	for _, d := range docs {
		counts = append(counts, dto.LevelCount{Level: d.Level, Absentees: len(d.Entries), Error: d.Err})
		total += len(d.Entries)
	}
	return counts, total
}

/* ===================== SERVICES WITH COUNTS ===================== */

func (s *AbsenteeAggregatorService) ServicesWithCounts(ctx context.Context, date time.Time) ([]dto.ServiceWithCounts, error) {
	services, err := s.Services.ListServicesByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ServiceWithCounts, 0, len(services))
	for _, svc := range services {
		docs, err := s.fetchLevelDocs(ctx, svc.ChapelServiceDate, svc.ChapelServiceId)
		if err != nil {
			return nil, err
		}
		counts, total := summarize(docs)
		out = append(out, dto.ServiceWithCounts{
			ServiceID:   svc.ChapelServiceId,
			ServiceName: svc.ChapelServiceName,
			ServiceDate: svc.ChapelServiceDate,
			Levels:      counts,
			Total:       total,
		})
	}
	return out, nil
}

/* ===================== CONSOLIDATED LISTING ===================== */

// ListAbsentees merges all level documents for one service, dedups by
// unique_id, sorts by (level, matric number) and paginates with 1-based pages.
// Two entries sharing a unique_id must agree on who the student is; the merge
// fails loudly instead of silently dropping one reading.
func (s *AbsenteeAggregatorService) ListAbsentees(ctx context.Context, serviceID uuid.UUID, page, perPage int) (*dto.PaginatedAbsentees, error) {
	svc, err := s.Services.FindServiceByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return nil, wrapf(ErrServiceNotFound, "%s", serviceID)
		}
		return nil, err
	}

	docs, err := s.fetchLevelDocs(ctx, svc.ChapelServiceDate, serviceID)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]dto.TaggedAbsentee)
	for _, d := range docs {
		for _, e := range d.Entries {
			tagged := dto.TaggedAbsentee{AbsenteeRecord: e, SourceLevel: d.Level}
			prev, seen := merged[e.UniqueID]
			if !seen {
				merged[e.UniqueID] = tagged
				continue
			}
			if prev.StudentID != e.StudentID || prev.MatricNumber != e.MatricNumber {
				return nil, wrapf(ErrIdentityConflict,
					"unique_id %s maps to both %s/%s and %s/%s",
					e.UniqueID, prev.StudentID, prev.MatricNumber, e.StudentID, e.MatricNumber)
			}
			// identical duplicate across documents: collapse silently
		}
	}

	all := make([]dto.TaggedAbsentee, 0, len(merged))
	for _, t := range merged {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Level != all[j].Level {
			return all[i].Level < all[j].Level
		}
		return all[i].MatricNumber < all[j].MatricNumber
	})

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = helper.DefaultPerPage
	}
	total := len(all)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	pageData := all[start:end]

	counts, _ := summarize(docs)
	return &dto.PaginatedAbsentees{
		Data:       pageData,
		Pagination: helper.BuildPagination(int64(total), page, perPage, len(pageData)),
		Summary:    counts,
	}, nil
}
