// Package assistant exposes the chat entry points: fixed reports built from
// a fresh snapshot, and questions answered by the generative backend.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jguan/nas-assistant/pkg/infra/logger"
	"github.com/jguan/nas-assistant/pkg/prompt"
	"github.com/jguan/nas-assistant/pkg/report"
	"github.com/jguan/nas-assistant/pkg/severity"
	"github.com/jguan/nas-assistant/pkg/snapshot"
	"github.com/jguan/nas-assistant/pkg/source"
)

// Fixed questions behind the analysis commands.
const (
	QuestionDisks      = "Analizza lo stato SMART dei dischi. Come stanno sda, sdb e nvme? Ci sono problemi di temperatura o errori SMART?"
	QuestionContainers = "Analizza lo stato dei container Docker. Quanti sono attivi? Ci sono container critici offline? Come sta transmission-openvpn?"
	QuestionBackup     = "Analizza il sistema di backup. I dati in /mnt/nas/docker/ sono protetti? Come funziona il versioning con Duplicati?"
)

// Command names accepted by Dispatch.
const (
	CmdStatus     = "status"
	CmdVPN        = "vpn"
	CmdDisks      = "disks"
	CmdContainers = "containers"
	CmdBackup     = "backup"
	CmdServices   = "services"
	CmdHelp       = "help"
	CmdStart      = "start"
	CmdChat       = "chat"
)

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// modelNamer is implemented by generators bound to a single model.
type modelNamer interface {
	Model() string
}

// Collector builds one snapshot per call.
type Collector interface {
	Collect(ctx context.Context) snapshot.Snapshot
}

// VPNChecker inspects the VPN container on its own.
type VPNChecker interface {
	Fetch(ctx context.Context) source.Result[snapshot.VPNTunnel]
}

type Assistant struct {
	collector Collector
	vpn       VPNChecker
	generator Generator
	composer  *prompt.Composer
	renderer  *report.Renderer
}

func New(collector Collector, vpn VPNChecker, generator Generator, composer *prompt.Composer, renderer *report.Renderer) *Assistant {
	return &Assistant{
		collector: collector,
		vpn:       vpn,
		generator: generator,
		composer:  composer,
		renderer:  renderer,
	}
}

// Snapshot collects a fresh snapshot and classifies it.
func (a *Assistant) Snapshot(ctx context.Context) (snapshot.Snapshot, severity.Classification) {
	snap := a.collector.Collect(ctx)
	return snap, severity.Classify(snap)
}

func (a *Assistant) Status(ctx context.Context) string {
	snap, cls := a.Snapshot(ctx)
	return a.renderer.Status(snap, cls)
}

func (a *Assistant) VPNCheck(ctx context.Context) string {
	if a.vpn == nil {
		return a.renderer.VPN(nil, fmt.Errorf("VPN check disabled"))
	}
	res := a.vpn.Fetch(ctx)
	if res.Err != nil {
		logger.WithContext(ctx).Warn("vpn check failed", "kind", string(res.Err.Kind), "error", res.Err.Err)
		return a.renderer.VPN(nil, res.Err.Err)
	}
	return a.renderer.VPN(res.Value, nil)
}

func (a *Assistant) DiskAnalysis(ctx context.Context) string      { return a.Chat(ctx, QuestionDisks) }
func (a *Assistant) ContainerAnalysis(ctx context.Context) string { return a.Chat(ctx, QuestionContainers) }
func (a *Assistant) BackupAnalysis(ctx context.Context) string    { return a.Chat(ctx, QuestionBackup) }

func (a *Assistant) ServiceDirectory() string { return a.renderer.Services() }

func (a *Assistant) Help() string { return a.renderer.Help() }

// Chat answers a free-form question. Backend failures become a single
// user-facing error line.
func (a *Assistant) Chat(ctx context.Context, message string) string {
	text, _ := a.answer(ctx, message)
	return text
}

// answer returns the chat text together with the failure behind it, so a
// caller can count the failure while still showing the rendered line.
func (a *Assistant) answer(ctx context.Context, question string) (string, error) {
	out, err := a.Ask(ctx, question)
	if err != nil {
		return UserMessage(err), err
	}
	return out, nil
}

// Ask is Chat with the error returned instead of rendered.
func (a *Assistant) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyMessage
	}

	log := logger.WithContext(ctx)
	if m, ok := a.generator.(modelNamer); ok {
		log = log.With("model", m.Model())
	}
	snap := a.collector.Collect(ctx)
	if snap.Empty() {
		log.Warn("snapshot is empty, asking without NAS data", "failed_sources", len(snap.Errors))
	}
	p := a.composer.Compose(snap, question)

	start := time.Now()
	answer, err := a.generator.Generate(ctx, p)
	if err != nil {
		log.Error("generation failed", "error", err, "duration", time.Since(start))
		return "", fmt.Errorf("%w: %w", ErrGenerativeBackend, err)
	}
	log.Info("generation completed",
		"prompt_tokens_est", prompt.EstimateTokens(p),
		"duration", time.Since(start),
	)
	return answer, nil
}

// UserMessage turns an assistant error into the text shown in chat.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrGenerativeBackend):
		return "❌ Errore Ollama: " + strings.TrimPrefix(err.Error(), ErrGenerativeBackend.Error()+": ")
	default:
		return "❌ " + err.Error()
	}
}

// NormalizeCommand maps "/Status" and "STATUS" to "status".
func NormalizeCommand(command string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(command), "/"))
}

// IsLongRunning reports whether a command waits on the generative backend.
func IsLongRunning(command string) bool {
	switch NormalizeCommand(command) {
	case CmdDisks, CmdContainers, CmdBackup, CmdChat:
		return true
	}
	return false
}

// Dispatch routes a command name to its entry point. args is only used by
// "chat", where it is the message text.
//
// Commands answered by the generative backend always return the text to
// show. When the backend fails that text is the rendered error line and err
// wraps ErrGenerativeBackend.
func (a *Assistant) Dispatch(ctx context.Context, command string, args string) (string, error) {
	command = NormalizeCommand(command)
	if logger.GetRequestID(ctx) == "" {
		ctx = logger.NewInteraction(ctx, command)
	} else {
		ctx = logger.SetCommand(ctx, command)
	}
	logger.WithContext(ctx).Info("command received")

	switch command {
	case CmdStatus:
		return a.Status(ctx), nil
	case CmdVPN:
		return a.VPNCheck(ctx), nil
	case CmdDisks:
		return a.answer(ctx, QuestionDisks)
	case CmdContainers:
		return a.answer(ctx, QuestionContainers)
	case CmdBackup:
		return a.answer(ctx, QuestionBackup)
	case CmdServices:
		return a.ServiceDirectory(), nil
	case CmdHelp, CmdStart:
		return a.Help(), nil
	case CmdChat:
		return a.answer(ctx, args)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}
