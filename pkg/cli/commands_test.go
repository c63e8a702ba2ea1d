package cli

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jguan/nas-assistant/pkg/assistant"
	"github.com/jguan/nas-assistant/pkg/config"
	"github.com/jguan/nas-assistant/pkg/severity"
	"github.com/jguan/nas-assistant/pkg/snapshot"
)

func TestStatusCommand_Report(t *testing.T) {
	root, buf := newTestRoot(t, healthySnapshot(), &fakeGenerator{})

	root.Command().SetArgs([]string{"status"})
	require.NoError(t, root.Execute())

	out := buf.String()
	assert.Contains(t, out, "NAS STATUS COMPLETO")
	assert.Contains(t, out, "Critici offline: seafile")
	assert.NotContains(t, out, "**")
}

func TestStatusCommand_Summary(t *testing.T) {
	color.NoColor = true

	root, buf := newTestRoot(t, healthySnapshot(), &fakeGenerator{})

	root.Command().SetArgs([]string{"status", "--summary", "--no-color"})
	require.NoError(t, root.Execute())

	out := buf.String()
	assert.Contains(t, out, "NAS status")
	assert.Contains(t, out, "WARN")
	assert.NotContains(t, out, "CRITICAL")
	assert.Contains(t, out, "1/2 running, critical down: seafile")
	assert.Contains(t, out, "30.0% | 48.3°C")
}

func TestStatusCommand_SummaryJSON(t *testing.T) {
	root, buf := newTestRoot(t, healthySnapshot(), &fakeGenerator{})

	root.Command().SetArgs([]string{"status", "--summary", "-o", "json"})
	require.NoError(t, root.Execute())

	var rows []SectionRow
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 6)
	assert.Equal(t, "containers", rows[2].Section)
	assert.Equal(t, "warn", rows[2].Level)
	assert.Equal(t, "overall", rows[5].Section)
	assert.Equal(t, "warn", rows[5].Level)
}

func TestSnapshotCommand_JSON(t *testing.T) {
	root, buf := newTestRoot(t, healthySnapshot(), &fakeGenerator{})

	root.Command().SetArgs([]string{"snapshot", "-o", "json"})
	require.NoError(t, root.Execute())

	var got struct {
		Snapshot       snapshot.Snapshot       `json:"snapshot"`
		Classification severity.Classification `json:"classification"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.NotNil(t, got.Snapshot.System.CPUPercent)
	assert.Equal(t, 30.0, *got.Snapshot.System.CPUPercent)
	assert.Equal(t, severity.OK, got.Classification.CPU)
	assert.Equal(t, []string{"seafile"}, got.Classification.CriticalDown)
}

func TestSnapshotCommand_YAMLWithDisks(t *testing.T) {
	snap := healthySnapshot()
	snap.Disks = &snapshot.DiskHealth{Devices: map[string]json.RawMessage{
		"sda": json.RawMessage(`{"temp":34}`),
	}}
	root, buf := newTestRoot(t, snap, &fakeGenerator{})

	root.Command().SetArgs([]string{"snapshot", "-o", "yaml"})
	require.NoError(t, root.Execute())

	out := buf.String()
	assert.Contains(t, out, "sda:")
	assert.Contains(t, out, "temp: 34")
	assert.Contains(t, out, "classification:")
}

func TestSnapshotCommand_TableWhenEmpty(t *testing.T) {
	root, buf := newTestRoot(t, snapshot.Snapshot{}, &fakeGenerator{})

	root.Command().SetArgs([]string{"snapshot"})
	require.NoError(t, root.Execute())

	out := buf.String()
	assert.Contains(t, out, "SECTION")
	assert.Contains(t, out, "unknown")
	assert.Contains(t, out, "n/a")
}

func TestReportCommands(t *testing.T) {
	tests := []struct {
		args     []string
		contains string
		prompted bool
	}{
		{[]string{"vpn"}, "VPN: Connessa", false},
		{[]string{"services"}, "Assistente AI", false},
		{[]string{"disks"}, "tutto bene", true},
		{[]string{"containers"}, "tutto bene", true},
		{[]string{"backup"}, "tutto bene", true},
	}

	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			gen := &fakeGenerator{reply: "tutto bene"}
			root, buf := newTestRoot(t, healthySnapshot(), gen)

			root.Command().SetArgs(tt.args)
			require.NoError(t, root.Execute())

			assert.Contains(t, buf.String(), tt.contains)
			assert.Equal(t, tt.prompted, len(gen.prompts) == 1)
		})
	}
}

func TestReportCommand_BackendDownStillPrints(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection refused")}
	root, buf := newTestRoot(t, healthySnapshot(), gen)

	root.Command().SetArgs([]string{"disks"})
	err := root.Execute()
	assert.ErrorIs(t, err, assistant.ErrGenerativeBackend)
	assert.Contains(t, buf.String(), "❌ Errore Ollama: connection refused")
}

func TestAskCommand(t *testing.T) {
	gen := &fakeGenerator{reply: "La RAM è al 75%"}
	root, buf := newTestRoot(t, healthySnapshot(), gen)

	root.Command().SetArgs([]string{"ask", "come", "sta", "la", "RAM?"})
	require.NoError(t, root.Execute())

	assert.Equal(t, "La RAM è al 75%\n", buf.String())
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "DOMANDA: come sta la RAM?")
}

func TestAskCommand_BackendError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("timeout")}
	root, _ := newTestRoot(t, healthySnapshot(), gen)

	root.Command().SetArgs([]string{"ask", "ciao"})
	err := root.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, assistant.ErrGenerativeBackend)
}

func TestAskCommand_RequiresQuestion(t *testing.T) {
	root, _ := newTestRoot(t, healthySnapshot(), &fakeGenerator{})

	root.Command().SetArgs([]string{"ask"})
	assert.Error(t, root.Execute())
}

func TestSummarize_VPNDetail(t *testing.T) {
	tests := []struct {
		name string
		vpn  *snapshot.VPNTunnel
		want string
	}{
		{"missing", nil, "n/a"},
		{"stopped", &snapshot.VPNTunnel{Tunnel: snapshot.TunnelUnknown}, "container stopped"},
		{"down", &snapshot.VPNTunnel{ContainerRunning: true, Tunnel: snapshot.TunnelDisconnected}, "tunnel disconnected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshot.Snapshot{VPN: tt.vpn}
			rows := Summarize(snap, severity.Classify(snap))
			assert.Equal(t, tt.want, rows[3].Detail)
		})
	}
}

func TestSummarize_FailedSources(t *testing.T) {
	snap := snapshot.Snapshot{Errors: []snapshot.SourceError{
		{Source: "netdata", Kind: "unreachable"},
		{Source: "scrutiny", Kind: "malformed"},
	}}

	rows := Summarize(snap, severity.Classify(snap))
	assert.Equal(t, "failed: netdata, scrutiny", rows[5].Detail)
	assert.Equal(t, "unknown", rows[5].Level)
}

func TestServerConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Security.AllowedChatIDs = []int64{42}
	cfg.LLM.TimeoutD = 120 * time.Second

	sc := serverConfig(cfg, "")
	assert.Equal(t, cfg.API.ListenAddr, sc.Addr)
	assert.Equal(t, 150*time.Second, sc.WriteTimeout)
	assert.NotNil(t, sc.Limiter)
	assert.True(t, sc.AllowChat(42))
	assert.False(t, sc.AllowChat(7))

	cfg.Security.RateLimitPerMin = 0
	sc = serverConfig(cfg, "0.0.0.0:9000")
	assert.Equal(t, "0.0.0.0:9000", sc.Addr)
	assert.Nil(t, sc.Limiter)
}
