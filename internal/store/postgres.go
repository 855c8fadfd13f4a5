package store

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ncsaa/hoopsched/internal/config"
	"github.com/ncsaa/hoopsched/internal/model"
)

// Config holds Postgres connection settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewConfigFromEnv reads DB_* environment variables (with defaults).
func NewConfigFromEnv() Config {
	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		port = 5432
	}
	return Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     port,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		Database: getEnv("DB_NAME", "hoopsched"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

// DSN returns the Postgres connection URL.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads the league entities from Postgres and materializes them the
// same way the YAML loader does, including the school-level rival and
// do-not-play expansion.
func Load(ctx context.Context, dsn string) (*model.League, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	defer pool.Close()
	return load(ctx, pool)
}

func load(ctx context.Context, pool *pgxpool.Pool) (*model.League, error) {
	cfg := &config.Config{}
	var err error
	if cfg.Schools, err = loadSchools(ctx, pool); err != nil {
		return nil, err
	}
	if cfg.Teams, err = loadTeams(ctx, pool); err != nil {
		return nil, err
	}
	if cfg.Facilities, err = loadFacilities(ctx, pool); err != nil {
		return nil, err
	}
	return cfg.League()
}

func loadSchools(ctx context.Context, pool *pgxpool.Pool) ([]config.SchoolConfig, error) {
	rows, err := pool.Query(ctx, `
		SELECT s.name, COALESCE(c.name, ''), COALESCE(s.tier, 0),
		       COALESCE(s.blackout_dates, '{}'), COALESCE(s.rivals, '{}'),
		       COALESCE(s.do_not_play, '{}')
		FROM schools s
		LEFT JOIN clusters c ON c.id = s.cluster_id
		ORDER BY s.name`)
	if err != nil {
		return nil, fmt.Errorf("querying schools: %w", err)
	}
	defer rows.Close()

	var out []config.SchoolConfig
	for rows.Next() {
		var (
			s         config.SchoolConfig
			blackouts []time.Time
		)
		if err := rows.Scan(&s.Name, &s.Cluster, &s.Tier, &blackouts, &s.Rivals, &s.DoNotPlay); err != nil {
			return nil, fmt.Errorf("scanning school: %w", err)
		}
		s.BlackoutDates = toDates(blackouts)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading schools: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no schools in database")
	}
	return out, nil
}

func loadTeams(ctx context.Context, pool *pgxpool.Pool) ([]config.TeamConfig, error) {
	rows, err := pool.Query(ctx, `
		SELECT COALESCE(t.slug, ''), s.name, d.name, COALESCE(t.coach, ''),
		       COALESCE(t.tier, 0), COALESCE(f.name, '')
		FROM teams t
		JOIN schools s ON s.id = t.school_id
		JOIN divisions d ON d.id = t.division_id
		LEFT JOIN facilities f ON f.id = t.home_facility_id
		ORDER BY s.name, d.name`)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	var out []config.TeamConfig
	for rows.Next() {
		var t config.TeamConfig
		if err := rows.Scan(&t.ID, &t.School, &t.Division, &t.Coach, &t.Tier, &t.HomeFacility); err != nil {
			return nil, fmt.Errorf("scanning team: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading teams: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no teams in database")
	}
	return out, nil
}

func loadFacilities(ctx context.Context, pool *pgxpool.Pool) ([]config.FacilityConfig, error) {
	rows, err := pool.Query(ctx, `
		SELECT f.name, f.courts, f.short_rims, COALESCE(s.name, ''),
		       COALESCE(f.weekdays, '{}'), COALESCE(f.blackout_dates, '{}')
		FROM facilities f
		LEFT JOIN schools s ON s.id = f.owned_by_school_id
		ORDER BY f.name`)
	if err != nil {
		return nil, fmt.Errorf("querying facilities: %w", err)
	}
	defer rows.Close()

	var out []config.FacilityConfig
	for rows.Next() {
		var (
			fc        config.FacilityConfig
			blackouts []time.Time
		)
		if err := rows.Scan(&fc.Name, &fc.Courts, &fc.ShortRims, &fc.OwnedBySchool, &fc.Weekdays, &blackouts); err != nil {
			return nil, fmt.Errorf("scanning facility: %w", err)
		}
		fc.BlackoutDates = toDates(blackouts)
		out = append(out, fc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading facilities: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no facilities in database")
	}
	return out, nil
}

func toDates(ts []time.Time) []config.Date {
	if len(ts) == 0 {
		return nil
	}
	out := make([]config.Date, len(ts))
	for i, t := range ts {
		out[i] = config.Date{Time: t}
	}
	return out
}
