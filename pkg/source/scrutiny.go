package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jguan/nas-assistant/pkg/snapshot"
)

const scrutinySummaryPath = "/api/summary"

// ScrutinyClient reads the SMART summary from Scrutiny. The per-disk
// payload is not interpreted.
type ScrutinyClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func NewScrutinyClient(baseURL string, timeout time.Duration) *ScrutinyClient {
	return &ScrutinyClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: newHTTPClient(timeout),
	}
}

type scrutinySummary struct {
	Data json.RawMessage `json:"data"`
}

// Fetch returns the "data" object of the summary as an opaque map.
func (c *ScrutinyClient) Fetch(ctx context.Context) Result[snapshot.DiskHealth] {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := getBody(ctx, c.httpClient, c.baseURL+scrutinySummaryPath)
	if err != nil {
		return unreachable[snapshot.DiskHealth](NameDisks, err)
	}

	var summary scrutinySummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return fail[snapshot.DiskHealth](NameDisks, KindMalformed, err)
	}

	devices := map[string]json.RawMessage{}
	if len(summary.Data) > 0 && string(summary.Data) != "null" {
		if err := json.Unmarshal(summary.Data, &devices); err != nil {
			return fail[snapshot.DiskHealth](NameDisks, KindMalformed, fmt.Errorf("data is not an object: %w", err))
		}
	}
	return ok(snapshot.DiskHealth{Devices: devices})
}
