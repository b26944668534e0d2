package dto

import (
	"time"

	"github.com/google/uuid"

	helper "chapelku_backend/internals/helpers"
)

type LevelCount struct {
	Level     int    `json:"level"`
	Absentees int    `json:"absentees"`
	Error     string `json:"error,omitempty"` // per-level parse failure, surfaced without failing the whole aggregation
}

type ServiceWithCounts struct {
	ServiceID   uuid.UUID    `json:"service_id"`
	ServiceName string       `json:"service_name"`
	ServiceDate time.Time    `json:"service_date"`
	Levels      []LevelCount `json:"levels"`
	Total       int          `json:"total"`
}

type TaggedAbsentee struct {
	AbsenteeRecord
	SourceLevel int `json:"source_level"`
}

type PaginatedAbsentees struct {
	Data       []TaggedAbsentee  `json:"data"`
	Pagination helper.Pagination `json:"pagination"`
	Summary    []LevelCount      `json:"summary"`
}
