package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"ideathon-be/internal/domain"
	"ideathon-be/internal/service"
	"ideathon-be/internal/service/auth"
	"ideathon-be/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Drives one sprint through a running server: two participants form a team,
// pick milestones, start and submit the first slide.
func main() {
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Println("Please set JWT_SECRET to the server's signing secret")
		os.Exit(1)
	}
	baseURL := os.Getenv("SMOKE_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	issuer := auth.NewService(secret, logger.NewNop())
	leader := mustToken(issuer, "leader")
	member := mustToken(issuer, "member")
	client := &http.Client{Timeout: 10 * time.Second}

	event := "smoke-" + uuid.NewString()[:8]
	var team domain.Team
	call(client, baseURL, leader, http.MethodPost, "/api/v1/teams", map[string]interface{}{
		"name":             "Smoke Test",
		"event_id":         event,
		"project_question": "Can the sprint run end to end?",
		"superpower_focus": domain.SuperpowerTechnical,
	}, &team)
	fmt.Printf("Created team %s for event %s\n", team.ID, event)

	call(client, baseURL, member, http.MethodPost, "/api/v1/teams/"+team.ID+"/join", map[string]interface{}{
		"superpower_focus": domain.SuperpowerDesign,
	}, nil)

	call(client, baseURL, leader, http.MethodPost, "/api/v1/sprints/"+team.ID+"/milestones", map[string]interface{}{
		"types": []domain.MilestoneType{domain.MilestoneUserResearch, domain.MilestonePrototypeDraft, domain.MilestoneBusinessModel},
	}, nil)

	var view map[string]interface{}
	call(client, baseURL, leader, http.MethodPost, "/api/v1/sprints/"+team.ID+"/start", nil, &view)
	fmt.Printf("Sprint started, %v seconds remaining\n", view["remaining_seconds"])

	var slide map[string]interface{}
	call(client, baseURL, member, http.MethodPost, "/api/v1/sprints/"+team.ID+"/slides/1", map[string]string{
		"content": "Problem statement from the smoke run",
	}, &slide)
	fmt.Printf("Slide 1 submitted, team points now %v\n", slide["team_points"])

	var feed []domain.Notification
	call(client, baseURL, member, http.MethodGet, "/api/v1/notifications/feed?limit=5", nil, &feed)
	for _, n := range feed {
		fmt.Printf("  [%s] %s\n", n.Type, n.Title)
	}
	fmt.Println("Smoke run completed")
}

func mustToken(issuer service.AuthService, name string) string {
	id := "smoke-" + name + "-" + uuid.NewString()[:8]
	token, err := issuer.IssueToken(domain.UserProfile{
		Sub:   id,
		Name:  name,
		Email: id + "@example.com",
	}, time.Hour)
	if err != nil {
		fmt.Printf("Failed to issue token: %v\n", err)
		os.Exit(1)
	}
	return token
}

func call(client *http.Client, baseURL, token, method, path string, body, out interface{}) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			fmt.Printf("Failed to encode request: %v\n", err)
			os.Exit(1)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, payload)
	if err != nil {
		fmt.Printf("Failed to create request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("%s %s failed: %v\n", method, path, err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		fmt.Printf("%s %s returned %d: %s\n", method, path, resp.StatusCode, respBody)
		os.Exit(1)
	}
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			fmt.Printf("Failed to decode %s response: %v\n", path, err)
			os.Exit(1)
		}
	}
}
