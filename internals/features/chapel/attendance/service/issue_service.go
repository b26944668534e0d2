package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chapelku_backend/internals/features/chapel/attendance/model"
)

type IssueService struct {
	Issues IssueRepo
}

func NewIssueService(repo IssueRepo) *IssueService { return &IssueService{Issues: repo} }

// Resolve marks an issue handled, recording who and when.
func (s *IssueService) Resolve(ctx context.Context, issueID, adminID uuid.UUID) (*model.IssueModel, error) {
	issue, err := s.Issues.FindByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wrapf(ErrIssueNotFound, "%s", issueID)
		}
		return nil, err
	}
	if issue.IssueResolved {
		return issue, nil
	}
	now := time.Now().UTC()
	issue.IssueResolved = true
	issue.IssueResolvedBy = &adminID
	issue.IssueResolvedAt = &now
	if err := s.Issues.Save(ctx, issue); err != nil {
		return nil, err
	}
	return issue, nil
}
