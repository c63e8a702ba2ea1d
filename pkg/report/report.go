// Package report renders the fixed-format chat replies that need no
// generative backend.
package report

import (
	"fmt"
	"strings"

	"github.com/jguan/nas-assistant/pkg/config"
	"github.com/jguan/nas-assistant/pkg/severity"
	"github.com/jguan/nas-assistant/pkg/snapshot"
)

const notAvailable = "Dati non disponibili"

// Indicator returns the traffic-light emoji for a level.
func Indicator(l severity.Level) string {
	switch l {
	case severity.OK:
		return "🟢"
	case severity.Warn:
		return "🟡"
	case severity.Critical:
		return "🔴"
	default:
		return "⚪"
	}
}

type Renderer struct {
	services []config.ServiceConfig
}

func NewRenderer(services []config.ServiceConfig) *Renderer {
	return &Renderer{services: services}
}

// Status renders the dashboard. Every section is always present; a missing
// snapshot section reads "Dati non disponibili".
func (r *Renderer) Status(snap snapshot.Snapshot, cls severity.Classification) string {
	var b strings.Builder
	b.WriteString("📊 **NAS STATUS COMPLETO**\n\n")

	writeSystem(&b, snap.System, cls)
	writeContainers(&b, snap.Containers, cls)
	writeVPN(&b, snap.VPN, cls)
	writeStorage(&b, snap.Storage, cls)

	b.WriteString("🔧 **SERVIZI WEB:**\n")
	for _, s := range r.services {
		if !s.ShowInShort {
			continue
		}
		fmt.Fprintf(&b, "%s %s: %s\n", s.Emoji, s.Name, s.PublicURL)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "🕐 %s", snap.Timestamp.Format("15:04:05"))
	return b.String()
}

func writeSystem(b *strings.Builder, sys *snapshot.SystemMetrics, cls severity.Classification) {
	b.WriteString("🖥️ **SISTEMA:**\n")
	if sys == nil {
		fmt.Fprintf(b, "%s %s\n\n", Indicator(severity.Unknown), notAvailable)
		return
	}
	fmt.Fprintf(b, "%s CPU: %s", Indicator(cls.CPU), percentOrNA(sys.CPUPercent))
	if sys.CPUTemp.Known {
		fmt.Fprintf(b, " | %.1f°C", sys.CPUTemp.Celsius)
	}
	fmt.Fprintf(b, "\n%s RAM: %s\n\n", Indicator(cls.RAM), percentOrNA(sys.RAMPercent))
}

func percentOrNA(p *float64) string {
	if p == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", *p)
}

func writeContainers(b *strings.Builder, cs *snapshot.ContainerSummary, cls severity.Classification) {
	b.WriteString("🐳 **CONTAINER:**\n")
	if cs == nil {
		fmt.Fprintf(b, "%s %s\n\n", Indicator(severity.Unknown), notAvailable)
		return
	}
	fmt.Fprintf(b, "%s Attivi: %d/%d\n", Indicator(cls.Containers), cs.Running, cs.Total)
	if len(cls.CriticalDown) > 0 {
		fmt.Fprintf(b, "🚨 Critici offline: %s\n", strings.Join(cls.CriticalDown, ", "))
	}
	b.WriteString("\n")
}

func writeVPN(b *strings.Builder, vpn *snapshot.VPNTunnel, cls severity.Classification) {
	ind := Indicator(cls.VPN)
	switch {
	case vpn == nil:
		fmt.Fprintf(b, "%s **TRANSMISSION-VPN:** %s\n\n", Indicator(severity.Unknown), notAvailable)
	case vpn.Connected():
		fmt.Fprintf(b, "%s **TRANSMISSION-VPN:** Online + VPN attiva\n\n", ind)
	case vpn.ContainerRunning:
		fmt.Fprintf(b, "%s **TRANSMISSION-VPN:** Online ma VPN offline\n\n", ind)
	default:
		fmt.Fprintf(b, "%s **TRANSMISSION-VPN:** Container offline\n\n", ind)
	}
}

func writeStorage(b *strings.Builder, st *snapshot.StorageUsage, cls severity.Classification) {
	if st == nil {
		fmt.Fprintf(b, "💾 **STORAGE:** %s\n\n", notAvailable)
		return
	}
	b.WriteString("💾 **STORAGE BTRFS:**\n")
	fmt.Fprintf(b, "%s %s: %s/%s (%s)\n\n",
		Indicator(cls.Storage), st.Mount, orNA(st.Used), orNA(st.Total), orNA(st.RawPercent))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// VPN renders the dedicated tunnel check. err is the inspection failure,
// if any.
func (r *Renderer) VPN(vpn *snapshot.VPNTunnel, err error) string {
	if err != nil {
		return fmt.Sprintf("❌ Errore check VPN: %v", err)
	}
	if vpn == nil {
		return fmt.Sprintf("❌ Errore check VPN: %s", notAvailable)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔒 **%s STATUS**\n\n", strings.ToUpper(vpn.Container))

	if vpn.ContainerRunning {
		b.WriteString("✅ Container: Online\n")
	} else {
		b.WriteString("❌ Container: Offline\n")
	}

	switch vpn.Tunnel {
	case snapshot.TunnelConnected:
		if vpn.ContainerRunning {
			b.WriteString("✅ VPN: Connessa\n")
		} else {
			b.WriteString("❔ VPN: Sconosciuta\n")
		}
	case snapshot.TunnelDisconnected:
		b.WriteString("❌ VPN: Disconnessa\n")
	default:
		b.WriteString("❔ VPN: Sconosciuta\n")
	}

	switch {
	case vpn.Connected():
		b.WriteString("\n🟢 **STATUS: Tutto OK**")
	case vpn.ContainerRunning:
		b.WriteString("\n🟡 **STATUS: Container OK ma VPN offline**")
	default:
		b.WriteString("\n🔴 **STATUS: Container offline**")
	}
	return b.String()
}
