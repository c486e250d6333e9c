package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type diskUsage struct {
	TotalBytes uint64 `json:"total_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
	UsedBytes  uint64 `json:"used_bytes"`
}

type memoryUsage struct {
	AllocBytes uint64 `json:"alloc_bytes"`
	SysBytes   uint64 `json:"sys_bytes"`
	NumGC      uint32 `json:"num_gc"`
}

type systemStatus struct {
	Disk          *diskUsage  `json:"disk,omitempty"`
	Memory        memoryUsage `json:"memory"`
	Goroutines    int         `json:"goroutines"`
	NumCPU        int         `json:"num_cpu"`
	GoVersion     string      `json:"go_version"`
	UptimeSeconds float64     `json:"uptime_seconds"`
}

// handleAPISystem reports host counters. A failing disk lookup only drops
// the disk section.
func (s *Server) handleAPISystem(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	status := systemStatus{
		Memory: memoryUsage{
			AllocBytes: mem.Alloc,
			SysBytes:   mem.Sys,
			NumGC:      mem.NumGC,
		},
		Goroutines:    runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		GoVersion:     runtime.Version(),
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
	}

	disk, err := diskStats(s.root.Path())
	if err != nil {
		s.log(c).Debug("disk stats unavailable", zap.Error(err))
	} else {
		status.Disk = disk
	}

	c.JSON(http.StatusOK, status)
}
