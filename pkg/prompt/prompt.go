// Package prompt builds the text sent to the generative backend from a
// snapshot and a user question.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jguan/nas-assistant/pkg/config"
	"github.com/jguan/nas-assistant/pkg/snapshot"
)

const timestampLayout = "2006-01-02 15:04:05"

type Composer struct {
	owner     string
	services  []config.ServiceConfig
	critical  []string
	backupSrc string
	backupDst string
	language  string
	budget    int
}

func NewComposer(cfg *config.Config) *Composer {
	return &Composer{
		owner:     cfg.General.Owner,
		services:  cfg.Services,
		critical:  cfg.CriticalContainers,
		backupSrc: cfg.Backup.Source,
		backupDst: cfg.Backup.Destination,
		language:  cfg.LLM.Language,
		budget:    cfg.LLM.PromptBudgetTokens,
	}
}

// EstimateTokens approximates the token count as one token per four
// characters.
func EstimateTokens(s string) int {
	return (utf8.RuneCountInString(s) + 3) / 4
}

// Compose renders the prompt. Absent snapshot sections are left out. When
// the estimate exceeds the budget the disk payload is dropped first, then
// non-critical container entries; the question is always kept.
func (c *Composer) Compose(snap snapshot.Snapshot, question string) string {
	state := snap
	state.Errors = nil

	out := c.render(state, question)
	if c.budget <= 0 || EstimateTokens(out) <= c.budget {
		return out
	}

	if state.Disks != nil {
		state.Disks = nil
		out = c.render(state, question)
		if EstimateTokens(out) <= c.budget {
			return out
		}
	}

	if state.Containers != nil {
		state.Containers = onlyCritical(state.Containers)
		out = c.render(state, question)
	}
	return out
}

func (c *Composer) render(state snapshot.Snapshot, question string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Sei l'assistente AI del NAS di %s.\n\n", c.owner)

	b.WriteString("STATO NAS CORRENTE:\n")
	b.WriteString(stateJSON(state))
	b.WriteString("\n\n")

	if len(c.services) > 0 {
		b.WriteString("SERVIZI MONITORING ATTIVI:\n")
		for _, s := range c.services {
			fmt.Fprintf(&b, "- %s (%s): %s\n", s.Name, s.Role, s.URL)
		}
		b.WriteString("\n")
	}

	if len(c.critical) > 0 {
		b.WriteString("CONTAINER CRITICI DA MONITORARE:\n")
		b.WriteString(strings.Join(c.critical, ", "))
		b.WriteString("\n\n")
	}

	if c.backupSrc != "" {
		fmt.Fprintf(&b, "BACKUP SOURCE: %s\n", c.backupSrc)
	}
	if c.backupDst != "" {
		fmt.Fprintf(&b, "BACKUP DEST: %s\n", c.backupDst)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "DOMANDA: %s\n\n", question)

	fmt.Fprintf(&b, "Rispondi in %s, conciso ma completo. Usa emoji appropriati.\n", c.language)
	b.WriteString("Analizza i dati forniti e dai consigli specifici se necessario.")
	return b.String()
}

// promptState is the JSON view of a snapshot with a readable timestamp.
type promptState struct {
	Timestamp  string                     `json:"timestamp"`
	System     *snapshot.SystemMetrics    `json:"system,omitempty"`
	Disks      *snapshot.DiskHealth       `json:"smart,omitempty"`
	Containers *snapshot.ContainerSummary `json:"containers,omitempty"`
	VPN        *snapshot.VPNTunnel        `json:"transmission_vpn,omitempty"`
	Storage    *snapshot.StorageUsage     `json:"storage,omitempty"`
}

func stateJSON(s snapshot.Snapshot) string {
	data, err := json.MarshalIndent(promptState{
		Timestamp:  s.Timestamp.Format(timestampLayout),
		System:     s.System,
		Disks:      s.Disks,
		Containers: s.Containers,
		VPN:        s.VPN,
		Storage:    s.Storage,
	}, "", " ")
	if err != nil {
		// Only a malformed raw disk payload can fail here.
		return fmt.Sprintf(`{"timestamp": %q}`, s.Timestamp.Format(timestampLayout))
	}
	return string(data)
}

// onlyCritical keeps the counts but drops non-critical entries.
func onlyCritical(cs *snapshot.ContainerSummary) *snapshot.ContainerSummary {
	trimmed := &snapshot.ContainerSummary{
		Entries: make(map[string]snapshot.ContainerEntry),
		Running: cs.Running,
		Total:   cs.Total,
	}
	for name, e := range cs.Entries {
		if e.IsCritical {
			trimmed.Entries[name] = e
		}
	}
	return trimmed
}
