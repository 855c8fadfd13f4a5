package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ncsaa/hoopsched/internal/config"
	"github.com/ncsaa/hoopsched/internal/excel"
	"github.com/ncsaa/hoopsched/internal/model"
	"github.com/ncsaa/hoopsched/internal/store"
)

// Server exposes schedule generation as an async job API alongside
// read-only league views. The league loaded at startup is the default
// source; a generation request may carry its own league inline, point at
// a workbook, or ask for the database.
type Server struct {
	cfg    *config.Config
	league *model.League
	log    zerolog.Logger
	jobs   *jobStore
}

// New builds a server around a loaded league. workers caps concurrent
// generations; values below one fall back to a small default.
func New(cfg *config.Config, league *model.League, workers int, log zerolog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		league: league,
		log:    log,
		jobs:   newJobStore(workers, 16, log),
	}
}

// Start launches the worker pool; Stop cancels running jobs and drains it.
func (s *Server) Start(ctx context.Context) { s.jobs.Start(ctx) }

func (s *Server) Stop() { s.jobs.Stop() }

// Router builds the API handler tree.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog)

	api := r.Group("/api")
	api.GET("/health", s.health)
	api.GET("/teams", s.teamsInfo)
	api.GET("/schools", s.schoolsInfo)
	api.GET("/facilities", s.facilitiesInfo)
	api.GET("/rules", s.rulesInfo)
	api.GET("/stats", s.statsInfo)
	api.POST("/schedule/async", s.createJob)
	api.GET("/schedule/status/:id", s.jobStatus)
	api.DELETE("/schedule/:id", s.cancelJob)
	return r
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.Start(ctx)
	defer s.Stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info().Str("addr", addr).Msg("api listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLog(c *gin.Context) {
	startAt := time.Now()
	c.Next()
	s.log.Info().
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", c.Writer.Status()).
		Dur("elapsed", time.Since(startAt)).
		Msg("http request")
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// generateRequest selects the league source for one run. All fields are
// optional; an empty body schedules the league the server started with.
type generateRequest struct {
	Seed       int64  `json:"seed"`
	ConfigYAML string `json:"config_yaml"`
	Workbook   string `json:"workbook"`
	Postgres   bool   `json:"postgres"`
}

func (s *Server) createJob(c *gin.Context) {
	var req generateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}
	}

	cfg, league, err := s.resolveSource(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := s.jobs.Enqueue(cfg, league, req.Seed)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"task_id": job.ID})
}

// resolveSource loads the league a request asked for. Inline YAML wins,
// then a workbook path, then the database; otherwise the startup league.
func (s *Server) resolveSource(ctx context.Context, req generateRequest) (*config.Config, *model.League, error) {
	switch {
	case req.ConfigYAML != "":
		cfg, err := config.LoadFromBytes([]byte(req.ConfigYAML))
		if err != nil {
			return nil, nil, err
		}
		league, err := cfg.League()
		if err != nil {
			return nil, nil, err
		}
		return cfg, league, nil
	case req.Workbook != "":
		// Season and rules come from the startup config; the workbook
		// replaces the entity lists.
		cfg := *s.cfg
		if err := excel.ReadLeague(req.Workbook, &cfg); err != nil {
			return nil, nil, err
		}
		league, err := cfg.League()
		if err != nil {
			return nil, nil, err
		}
		return &cfg, league, nil
	case req.Postgres:
		league, err := store.Load(ctx, store.NewConfigFromEnv().DSN())
		if err != nil {
			return nil, nil, err
		}
		return s.cfg, league, nil
	default:
		return s.cfg, s.league, nil
	}
}

func (s *Server) jobStatus(c *gin.Context) {
	view, ok := s.jobs.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task"})
		return
	}
	c.JSON(http.StatusOK, statusPayload(view))
}

func (s *Server) cancelJob(c *gin.Context) {
	view, ok := s.jobs.Cancel(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": view.ID, "state": view.State})
}

// statusResponse is the wire shape of a job lookup. The schedule and
// report appear once the run has settled.
type statusResponse struct {
	TaskID   string                  `json:"task_id"`
	State    JobState                `json:"state"`
	Progress progressPayload         `json:"progress"`
	Message  string                  `json:"message,omitempty"`
	Schedule []gamePayload           `json:"schedule,omitempty"`
	Report   *model.ValidationReport `json:"report,omitempty"`
}

type progressPayload struct {
	Stage       string `json:"stage,omitempty"`
	Pass        int    `json:"pass"`
	GamesPlaced int    `json:"games_placed"`
}

type gamePayload struct {
	ID           string `json:"id"`
	Division     string `json:"division"`
	Home         string `json:"home"`
	Away         string `json:"away"`
	Facility     string `json:"facility"`
	Court        int    `json:"court"`
	Date         string `json:"date"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Status       string `json:"status"`
	Doubleheader bool   `json:"doubleheader,omitempty"`
}

func statusPayload(v JobView) statusResponse {
	resp := statusResponse{
		TaskID:  v.ID,
		State:   v.State,
		Message: v.Message,
		Report:  v.Report,
		Progress: progressPayload{
			Stage:       v.Stage,
			Pass:        v.Pass,
			GamesPlaced: v.Placed,
		},
	}
	if v.Schedule != nil {
		resp.Schedule = make([]gamePayload, 0, v.Schedule.Len())
		for _, g := range v.Schedule.Games {
			resp.Schedule = append(resp.Schedule, gamePayload{
				ID:           g.ID,
				Division:     string(g.Division),
				Home:         g.HomeTeamID,
				Away:         g.AwayTeamID,
				Facility:     g.Slot.FacilityID,
				Court:        g.Slot.Court,
				Date:         g.Slot.Date.Format("2006-01-02"),
				Start:        g.Slot.Start.Format("15:04"),
				End:          g.Slot.End.Format("15:04"),
				Status:       string(g.Status),
				Doubleheader: g.IsDoubleheader,
			})
		}
	}
	return resp
}
