package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	ingestionerrors "payslip-system/internal/ingestion/errors"
	"payslip-system/internal/shared/apperror"
)

// FileFetcher abstracts the upload-storage collaborator: given a signed
// URL it returns the file bytes. The pipeline never cares where the file
// actually lives.
//
//go:generate mockgen -source=fetch.go -destination=mock/fetch_mock.go -package=mock
type FileFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type httpFileFetcher struct {
	client *http.Client
}

func NewHTTPFileFetcher() FileFetcher {
	return &httpFileFetcher{
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (f *httpFileFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidArgument, "invalid file url", 400)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, ingestionerrors.ErrDownloadFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.Wrap(
			fmt.Errorf("unexpected status %d", resp.StatusCode),
			apperror.CodeInternal,
			"source file could not be downloaded",
			ingestionerrors.ErrDownloadFailed.HTTPStatus,
		)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ingestionerrors.ErrDownloadFailed
	}
	return data, nil
}
