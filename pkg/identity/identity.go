package identity

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/host"
)

// Environment describes the machine that produced a report.
type Environment struct {
	Hostname        string `json:"hostname,omitempty"`
	OS              string `json:"os,omitempty"`
	Platform        string `json:"platform,omitempty"`
	PlatformVersion string `json:"platform_version,omitempty"`
	HostID          string `json:"host_id,omitempty"`
}

// HostInfoInterface defines how the analysis host identity is obtained.
type HostInfoInterface interface {
	GetEnvironment(ctx context.Context) (*Environment, error)
}

// HostInfo reads the identity from the operating system.
type HostInfo struct {
	infoFn func(ctx context.Context) (*host.InfoStat, error)
}

// NewHostInfo initializes a HostInfo backed by gopsutil.
func NewHostInfo() HostInfoInterface {
	return &HostInfo{infoFn: host.InfoWithContext}
}

// GetEnvironment collects hostname, OS and the stable host ID.
func (h *HostInfo) GetEnvironment(ctx context.Context) (*Environment, error) {
	info, err := h.infoFn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read host info: %w", err)
	}

	return &Environment{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		HostID:          info.HostID,
	}, nil
}
