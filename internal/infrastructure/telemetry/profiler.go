package telemetry

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// ProfilerConfig configures Pyroscope continuous profiling
type ProfilerConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
	// ProfileTypes lists pyroscope profile names; empty means cpu, heap and goroutines
	ProfileTypes []string
}

// Profiler owns a running Pyroscope session; a zero Profiler is a no-op
type Profiler struct {
	session *pyroscope.Profiler
	logger  *zap.Logger
	once    sync.Once
}

var defaultProfiles = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
}

// StartProfiler starts pushing profiles when enabled
func StartProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !cfg.Enabled {
		return p, nil
	}
	if cfg.ServerAddress == "" || cfg.ApplicationName == "" {
		return nil, fmt.Errorf("profiler requires a server address and an application name")
	}
	types, err := profileTypes(cfg.ProfileTypes)
	if err != nil {
		return nil, err
	}

	tags := map[string]string{}
	if host, _ := os.Hostname(); host != "" {
		tags["hostname"] = host
	}
	session, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.ApplicationName,
		ServerAddress:     cfg.ServerAddress,
		BasicAuthUser:     cfg.BasicAuthUser,
		BasicAuthPassword: cfg.BasicAuthPassword,
		Tags:              tags,
		ProfileTypes:      types,
		Logger:            pyroscopeLogger{logger.Named("pyroscope").Sugar()},
	})
	if err != nil {
		return nil, fmt.Errorf("start profiler: %w", err)
	}
	p.session = session
	logger.Info("profiler started", zap.String("server_address", cfg.ServerAddress))
	return p, nil
}

func profileTypes(names []string) ([]pyroscope.ProfileType, error) {
	if len(names) == 0 {
		return defaultProfiles, nil
	}
	known := map[string]pyroscope.ProfileType{}
	for _, t := range []pyroscope.ProfileType{
		pyroscope.ProfileCPU, pyroscope.ProfileInuseObjects, pyroscope.ProfileAllocObjects,
		pyroscope.ProfileInuseSpace, pyroscope.ProfileAllocSpace, pyroscope.ProfileGoroutines,
		pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration,
		pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration,
	} {
		known[string(t)] = t
	}
	out := make([]pyroscope.ProfileType, 0, len(names))
	for _, n := range names {
		t, ok := known[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return nil, fmt.Errorf("unknown profile type %q", n)
		}
		out = append(out, t)
	}
	return out, nil
}

func (p *Profiler) IsEnabled() bool { return p.session != nil }

// Stop flushes pending profiles; later calls do nothing
func (p *Profiler) Stop() error {
	var err error
	p.once.Do(func() {
		if p.session != nil {
			err = p.session.Stop()
		}
	})
	return err
}

type pyroscopeLogger struct{ s *zap.SugaredLogger }

func (l pyroscopeLogger) Infof(f string, args ...any)  { l.s.Infof(f, args...) }
func (l pyroscopeLogger) Debugf(f string, args ...any) { l.s.Debugf(f, args...) }
func (l pyroscopeLogger) Errorf(f string, args ...any) { l.s.Errorf(f, args...) }

// Profiling label keys attached to request work
const (
	ProfilingLabelRoute  = "route"
	ProfilingLabelMethod = "method"
)

// WithProfilingLabels runs fn with pyroscope labels on its goroutine
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	if len(labels) == 0 {
		fn(ctx)
		return
	}
	kv := make([]string, 0, len(labels)*2)
	for k, v := range labels {
		kv = append(kv, k, v)
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(kv...), fn)
}
