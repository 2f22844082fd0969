package services

import (
	"context"
	"database/sql"

	"github.com/hatamake/kokoto-httpd/internal/server/models"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/repomanager"
)

// IntegrityReport lists the rows breaking the store invariants: tags whose
// count differs from their active links, and chains with more than one
// active revision.
type IntegrityReport struct {
	TagMismatches      []models.TagRefcount
	DuplicateDocuments []string
	DuplicateFiles     []string
}

func (r *IntegrityReport) OK() bool {
	return len(r.TagMismatches) == 0 && len(r.DuplicateDocuments) == 0 && len(r.DuplicateFiles) == 0
}

// VerifyIntegrity checks the store without modifying it.
func VerifyIntegrity(ctx context.Context, db *sql.DB, m repomanager.RepositoryManager) (*IntegrityReport, error) {
	report := &IntegrityReport{}

	counts, err := m.Tags(db).Refcounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, rc := range counts {
		if rc.Count != rc.ActiveLinks || rc.Count < 1 {
			report.TagMismatches = append(report.TagMismatches, rc)
		}
	}

	if report.DuplicateDocuments, err = m.Documents(db).DuplicateActive(ctx); err != nil {
		return nil, err
	}
	if report.DuplicateFiles, err = m.Files(db).DuplicateActive(ctx); err != nil {
		return nil, err
	}
	return report, nil
}
