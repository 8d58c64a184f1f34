package httpx

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/target/escrow-api/internal/domain/model"
	apperrors "github.com/target/escrow-api/internal/errors"
)

// queryInt reads a non-negative integer query parameter; absent means 0.
func queryInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.ValidationField(key, key+" must be a non-negative integer")
	}
	return n, nil
}

// listJobsQuery parses GET /jobs filters. Limit clamping is left to the
// service so the CLI and HTTP paths share it.
func listJobsQuery(r *http.Request) (model.ListJobsRequest, error) {
	var (
		req model.ListJobsRequest
		err error
	)
	if req.Limit, err = queryInt(r, "limit"); err != nil {
		return req, err
	}
	if req.Offset, err = queryInt(r, "offset"); err != nil {
		return req, err
	}
	if s := strings.TrimSpace(r.URL.Query().Get("status")); s != "" {
		status := model.JobStatus(s)
		if !status.Valid() {
			return req, apperrors.ValidationField("status", "unknown job status "+strconv.Quote(s))
		}
		req.Status = &status
	}
	return req, nil
}
