// Package dashboard serves the compliance dashboard locally: static files,
// the current compliance matrix, and a background refresh loop that re-runs
// aggregation on a timer and, optionally, on results-directory changes.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/journalbrand/reqtrace/internal/config"
	"github.com/journalbrand/reqtrace/internal/matrix"
)

// MatrixFileName is the name the dashboard's JS fetches.
const MatrixFileName = "compliance_matrix.jsonld"

// Server is the local dashboard server.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	port    int
	refresh time.Duration
	watch   bool

	mu   sync.Mutex // serializes refreshes
	last *matrix.Matrix
}

// New builds a Server. port and refresh override the config when non-zero.
func New(cfg *config.Config, logger *zap.Logger, port int, refresh time.Duration, watch bool) *Server {
	if port == 0 {
		port = cfg.Server.Port
	}
	if refresh == 0 {
		refresh = cfg.Server.RefreshInterval()
	}
	return &Server{cfg: cfg, logger: logger, port: port, refresh: refresh, watch: watch}
}

// Run serves until ctx is canceled, refreshing the matrix every refresh
// interval. With watch enabled, changes under the results directory trigger
// an early refresh after a short debounce.
func (s *Server) Run(ctx context.Context) error {
	if err := s.refreshMatrix(); err != nil {
		// The server still comes up; a later refresh may succeed once
		// results are staged.
		s.logger.Warn("initial aggregation failed", zap.Error(err))
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.cfg.DashboardDir)))
	mux.HandleFunc("/"+MatrixFileName, s.handleMatrix)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening",
			zap.Int("port", s.port),
			zap.String("dir", s.cfg.DashboardDir),
			zap.Duration("refresh", s.refresh))
		errCh <- srv.ListenAndServe()
	}()

	var changes <-chan struct{}
	if s.watch {
		w, err := newWatcher(s.cfg.ResultsDir, 500*time.Millisecond, s.logger)
		if err != nil {
			s.logger.Warn("results watch unavailable", zap.Error(err))
		} else {
			defer w.Close()
			changes = w.Changes()
		}
	}

	ticker := time.NewTicker(s.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.logger.Info("shutting down")
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("dashboard server: %w", err)
		case <-ticker.C:
			s.logRefresh("timer")
		case <-changes:
			s.logRefresh("results change")
		}
	}
}

func (s *Server) logRefresh(trigger string) {
	if err := s.refreshMatrix(); err != nil {
		s.logger.Error("aggregation failed", zap.String("trigger", trigger), zap.Error(err))
	}
}

// refreshMatrix re-runs aggregation and writes the matrix to the reports and
// dashboard directories. Changes relative to the previous matrix are logged.
func (s *Server) refreshMatrix() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, notes, err := matrix.Aggregate(matrix.Inputs{
		SystemFile:    s.cfg.Requirements,
		ComponentsDir: s.cfg.ComponentsDir,
		ResultsDir:    s.cfg.ResultsDir,
		Name:          s.cfg.MatrixName,
		Description:   s.cfg.MatrixDescription,
	})
	if err != nil {
		return err
	}
	for _, note := range notes {
		s.logger.Warn("aggregation note", zap.String("note", note))
	}

	reportPath := filepath.Join(s.cfg.ReportsDir, MatrixFileName)
	if err := matrix.WriteFile(reportPath, m, s.cfg.Context); err != nil {
		return err
	}
	if err := matrix.WriteFile(filepath.Join(s.cfg.DashboardDir, MatrixFileName), m, s.cfg.Context); err != nil {
		return err
	}

	if s.last != nil {
		delta := matrix.Compare(s.last, m)
		if delta.Changed() {
			s.logger.Info("matrix updated",
				zap.Float64("coverage", m.Statistics.CoveragePercentage),
				zap.Int("passing", m.Statistics.PassingTests),
				zap.Int("failing", m.Statistics.FailingTests),
				zap.Strings("added_tests", delta.AddedTests),
				zap.Strings("removed_tests", delta.RemovedTests))
		} else {
			s.logger.Debug("matrix unchanged")
		}
	} else {
		s.logger.Info("matrix generated",
			zap.Int("requirements", m.Statistics.TotalRequirements),
			zap.Int("tests", m.Statistics.TotalTests),
			zap.Float64("coverage", m.Statistics.CoveragePercentage))
	}
	s.last = m
	return nil
}

// handleMatrix serves the current matrix with caching disabled so the
// dashboard's polling fetch always sees the latest refresh.
func (s *Server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(filepath.Join(s.cfg.DashboardDir, MatrixFileName))
	if err != nil {
		http.Error(w, "compliance matrix not generated yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/ld+json")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data) //nolint:errcheck
}
