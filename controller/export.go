package controller

import (
	"bytes"
	"context"
	"fmt"
	"time"

	e "precisionpulse/errors"
	"precisionpulse/models"
	"precisionpulse/report"
	"precisionpulse/store"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Export is a rendered report ready to be sent as a download.
type Export struct {
	FileName    string
	ContentType string
	Body        []byte
}

type ExportService struct {
	containers *ContainerService
}

func NewExportService(containers *ContainerService) *ExportService {
	return &ExportService{containers: containers}
}

// Containers renders the payout report over the containers user may see.
func (s *ExportService) Containers(ctx context.Context, user *models.User, q store.Query, format string) (*Export, error) {
	if !s.containers.policy.Capabilities(user).CanExport {
		return nil, e.ErrForbidden
	}
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return nil, e.Validation("format", "unknown format %q", format)
	}

	listing, err := s.containers.List(ctx, user, q)
	if err != nil {
		return nil, err
	}
	rows := make([]models.Container, len(listing.Items))
	for i, it := range listing.Items {
		rows[i] = it.Record
	}

	name := fmt.Sprintf("container_payouts_%s.%s", time.Now().Format("2006-01-02"), format)
	if format == FormatXLSX {
		body, err := report.XLSX(rows)
		if err != nil {
			return nil, err
		}
		return &Export{
			FileName:    name,
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Body:        body,
		}, nil
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, rows); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return &Export{FileName: name, ContentType: "text/csv", Body: buf.Bytes()}, nil
}
