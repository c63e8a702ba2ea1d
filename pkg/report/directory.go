package report

import (
	"fmt"
	"strings"
)

var maintenanceSchedule = []string{
	"BTRFS scrub: Domenica 2:00",
	"BTRFS balance: 1° mese 3:00",
	"BTRFS defrag: 15° mese 4:00",
}

// Services renders the full monitored-service directory.
func (r *Renderer) Services() string {
	var b strings.Builder
	b.WriteString("🔧 **SERVIZI MONITORING NAS**\n\n")

	for _, s := range r.services {
		fmt.Fprintf(&b, "%s **%s** (%s)\n", s.Emoji, s.Name, s.Role)
		fmt.Fprintf(&b, "🔗 %s\n", s.PublicURL)
		for _, h := range s.Highlights {
			fmt.Fprintf(&b, "• %s\n", h)
		}
		b.WriteString("\n")
	}

	b.WriteString("🤖 **MANUTENZIONE AUTOMATICA:**\n")
	for _, m := range maintenanceSchedule {
		fmt.Fprintf(&b, "• %s\n", m)
	}

	b.WriteString("\n💬 **Assistente AI**\n")
	b.WriteString("• Chat intelligente con contesto NAS\n")
	b.WriteString("• Analisi problemi e soluzioni\n")
	b.WriteString("• Integrazione con tutti i servizi")
	return b.String()
}

// Help lists the commands.
func (r *Renderer) Help() string {
	return `🤖 **NAS AI Assistant**

⚡ **Comandi Veloci:**
/status - Dashboard completo NAS
/vpn - Check transmission-openvpn
/services - Lista servizi web
/help - Questo messaggio

🤖 **Analisi AI (1-2 min):**
/disks - Analisi SMART dischi
/containers - Status container Docker
/backup - Stato sistema backup

💬 **Chat AI Libera:**
Scrivi qualsiasi domanda! Esempi:
• "Temperature anomale?"
• "Container problematici?"
• "Come sta il RAID1?"
• "Backup funziona?"
• "VPN transmission OK?"

✨ **Il bot ha accesso a:**
• Netdata (monitoring real-time)
• Scrutiny (SMART dischi)
• Docker API (container)
• Filesystem BTRFS

🔧 **Web Interface:**
Usa /services per URLs completi dei servizi di monitoring web.`
}
