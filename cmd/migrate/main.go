package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"ideathon-be/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/migrate [drop|up|seed|reset]")
		os.Exit(1)
	}

	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	case "reset":
		for _, step := range []func(context.Context, *pgx.Conn) error{dropTables, createTables, seedData} {
			if err := step(ctx, conn); err != nil {
				log.Fatalf("Failed to reset database: %v", err)
			}
		}
		fmt.Println("✅ Database reset successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Usage: go run ./cmd/migrate [drop|up|seed|reset]")
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS notifications CASCADE`,
		`DROP TABLE IF EXISTS team_ratings CASCADE`,
		`DROP TABLE IF EXISTS consultancy_requests CASCADE`,
		`DROP TABLE IF EXISTS teams CASCADE`,
		`DROP TABLE IF EXISTS users CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}

	return nil
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(255) PRIMARY KEY,
			email VARCHAR(255) NOT NULL DEFAULT '',
			username VARCHAR(255) NOT NULL DEFAULT '',
			display_name VARCHAR(255) NOT NULL DEFAULT '',
			role VARCHAR(50) NOT NULL DEFAULT 'participant',
			power_ups JSONB NOT NULL DEFAULT '[]',
			badges JSONB NOT NULL DEFAULT '[]',
			events_participated INTEGER NOT NULL DEFAULT 0,
			consultancies_provided INTEGER NOT NULL DEFAULT 0,
			mvp_wins INTEGER NOT NULL DEFAULT 0,
			version BIGINT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// The team aggregate lives in state; the other columns back lookups
		`CREATE TABLE IF NOT EXISTS teams (
			id VARCHAR(255) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			event_id VARCHAR(255) NOT NULL,
			state JSONB NOT NULL,
			sprint_start TIMESTAMPTZ,
			last_fired_phase_id VARCHAR(50) NOT NULL DEFAULT '',
			awaiting_sweep BOOLEAN NOT NULL DEFAULT FALSE,
			version BIGINT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS consultancy_requests (
			id VARCHAR(255) PRIMARY KEY,
			event_id VARCHAR(255) NOT NULL,
			from_team_id VARCHAR(255) NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
			from_team_name VARCHAR(255) NOT NULL,
			requested_by VARCHAR(255) NOT NULL,
			to_user_id VARCHAR(255) NOT NULL,
			superpower_needed VARCHAR(50) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			responded_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			points_earned INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS team_ratings (
			from_user_id VARCHAR(255) NOT NULL,
			to_user_id VARCHAR(255) NOT NULL,
			event_id VARCHAR(255) NOT NULL,
			team_id VARCHAR(255) NOT NULL,
			rating SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
			feedback TEXT NOT NULL DEFAULT '',
			is_mvp_vote BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (from_user_id, to_user_id, event_id)
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id VARCHAR(255) PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			team_id VARCHAR(255) NOT NULL DEFAULT '',
			type VARCHAR(30) NOT NULL,
			title VARCHAR(255) NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			read BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`ALTER TABLE teams ADD COLUMN IF NOT EXISTS awaiting_sweep BOOLEAN NOT NULL DEFAULT FALSE`,
		`CREATE INDEX IF NOT EXISTS idx_teams_event_id ON teams(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_teams_members ON teams USING GIN ((state->'members') jsonb_path_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_teams_active ON teams(sprint_start) WHERE sprint_start IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_consultancy_to_user ON consultancy_requests(to_user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_event ON team_ratings(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w\nQuery: %s", err, query)
		}
		fmt.Printf("  Created: %s\n", getTableName(query))
	}

	return nil
}

type seedTeam struct {
	id, name, question string
	members            []string
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	const eventID = "demo-event"
	now := time.Now().UTC()

	teams := []seedTeam{
		{id: "team-aurora", name: "Aurora", question: "How might we make public transit accessible for everyone?", members: []string{"demo-ana", "demo-ben", "demo-cal"}},
		{id: "team-nimbus", name: "Nimbus", question: "How might we reduce food waste on campus?", members: []string{"demo-dee", "demo-eli"}},
	}
	focus := []domain.SuperpowerCategory{domain.SuperpowerDesign, domain.SuperpowerResearch, domain.SuperpowerTechnical}

	for _, st := range teams {
		for _, id := range st.members {
			_, err := conn.Exec(ctx, `
				INSERT INTO users (id, email, username, display_name)
				VALUES ($1, $2, $1, $1)
				ON CONFLICT (id) DO NOTHING
			`, id, id+"@example.com")
			if err != nil {
				return fmt.Errorf("failed to seed user %s: %w", id, err)
			}
		}

		team := domain.NewTeam(st.id, st.name, eventID, st.question,
			domain.TeamMember{UserID: st.members[0], SuperpowerFocus: focus[0], JoinedAt: now}, 3)
		for i, id := range st.members[1:] {
			team.Members = append(team.Members, domain.TeamMember{
				UserID:          id,
				Role:            domain.RoleMember,
				SuperpowerFocus: focus[(i+1)%len(focus)],
				JoinedAt:        now,
			})
		}
		team.Version = 1

		state, err := json.Marshal(team)
		if err != nil {
			return fmt.Errorf("failed to encode team %s: %w", st.id, err)
		}
		_, err = conn.Exec(ctx, `
			INSERT INTO teams (id, name, event_id, state, version)
			VALUES ($1, $2, $3, $4, 1)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				state = EXCLUDED.state,
				sprint_start = NULL,
				last_fired_phase_id = '',
				version = 1,
				updated_at = NOW()
		`, team.ID, team.Name, team.EventID, state)
		if err != nil {
			return fmt.Errorf("failed to seed team %s: %w", st.id, err)
		}
	}

	fmt.Printf("  Seeded %d teams\n", len(teams))
	return nil
}

func getTableName(query string) string {
	if len(query) > 50 {
		return query[:50] + "..."
	}
	return query
}
