package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jguan/nas-assistant/pkg/snapshot"
)

const (
	netdataAllMetricsPath = "/api/v1/allmetrics?format=json"
	netdataCPUChart       = "system.cpu"
	netdataRAMChart       = "system.ram"
)

// netdataSeries is the part of a Netdata chart the assistant reads.
type netdataSeries struct {
	Dimensions map[string]netdataDimension `json:"dimensions"`
}

type netdataDimension struct {
	Value *float64 `json:"value"`
}

// NetdataClient reads system metrics from the Netdata allmetrics endpoint.
type NetdataClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func NewNetdataClient(baseURL string, timeout time.Duration) *NetdataClient {
	return &NetdataClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: newHTTPClient(timeout),
	}
}

// Fetch returns CPU, RAM and CPU temperature.
func (c *NetdataClient) Fetch(ctx context.Context) Result[snapshot.SystemMetrics] {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := getBody(ctx, c.httpClient, c.baseURL+netdataAllMetricsPath)
	if err != nil {
		return unreachable[snapshot.SystemMetrics](NameSystem, err)
	}

	var series map[string]netdataSeries
	if err := json.Unmarshal(body, &series); err != nil {
		return fail[snapshot.SystemMetrics](NameSystem, KindMalformed, err)
	}

	m, err := parseSystemMetrics(series)
	if err != nil {
		return fail[snapshot.SystemMetrics](NameSystem, KindMalformed, err)
	}
	return ok(m)
}

var errNoSystemCharts = errors.New("payload has neither system.cpu nor system.ram")

func parseSystemMetrics(series map[string]netdataSeries) (snapshot.SystemMetrics, error) {
	cpuSeries, hasCPU := series[netdataCPUChart]
	ramSeries, hasRAM := series[netdataRAMChart]
	if !hasCPU && !hasRAM {
		return snapshot.SystemMetrics{}, errNoSystemCharts
	}

	m := snapshot.SystemMetrics{Present: true}

	if idle := cpuSeries.Dimensions["idle"].Value; idle != nil {
		m.CPUPercent = snapshot.Percent(100 - *idle)
	}

	used := ramSeries.Dimensions["used"].Value
	free := ramSeries.Dimensions["free"].Value
	if used != nil && free != nil {
		m.RAMPercent = snapshot.Percent(ramPercent(*used, *free))
	}

	m.CPUTemp = FindCPUTemperature(series)
	return m, nil
}

// ramPercent is used/(used+free)*100, defined as 0 for an empty total.
func ramPercent(used, free float64) float64 {
	total := used + free
	if total <= 0 {
		return 0
	}
	return used / total * 100
}
