package cli

import (
	"github.com/jguan/nas-assistant/pkg/aggregator"
	"github.com/jguan/nas-assistant/pkg/assistant"
	"github.com/jguan/nas-assistant/pkg/config"
	"github.com/jguan/nas-assistant/pkg/infra/docker"
	"github.com/jguan/nas-assistant/pkg/infra/ollama"
	"github.com/jguan/nas-assistant/pkg/prompt"
	"github.com/jguan/nas-assistant/pkg/report"
	"github.com/jguan/nas-assistant/pkg/source"
)

// newAssistant builds the production object graph from cfg.
func newAssistant(cfg *config.Config) *assistant.Assistant {
	dockerClient := docker.New(cfg.Docker.Host)

	vpn := source.NewVPNInspector(dockerClient, cfg.Docker.VPNContainer, cfg.Docker.VPNLogTail, cfg.Docker.TimeoutD)

	agg := aggregator.New(aggregator.Sources{
		System:     source.NewNetdataClient(cfg.Sources.NetdataURL, cfg.Sources.HTTPTimeoutD),
		Disks:      source.NewScrutinyClient(cfg.Sources.ScrutinyURL, cfg.Sources.HTTPTimeoutD),
		Containers: source.NewContainerClient(dockerClient, cfg.IsCritical, cfg.Docker.TimeoutD),
		VPN:        vpn,
		Storage:    source.NewDiskUsageProbe(source.ExecRunner{}, cfg.Storage.MountPath, cfg.Storage.TimeoutD),
	})

	generator := ollama.NewGenerator(
		ollama.NewClient(cfg.LLM.BaseURL, cfg.LLM.TimeoutD),
		cfg.LLM.Model,
		ollama.Options{
			Temperature: cfg.LLM.Temperature,
			TopP:        cfg.LLM.TopP,
			NumCtx:      cfg.LLM.NumCtx,
		},
	)

	return assistant.New(agg, vpn, generator, prompt.NewComposer(cfg), report.NewRenderer(cfg.Services))
}
