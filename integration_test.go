package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"todo-manager/backend/internal/config"
	"todo-manager/backend/internal/server"

	"github.com/gin-gonic/gin"
)

func setupEnv(t *testing.T, dbPath string) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("BCRYPT_COST", "4")
}

func startApp(t *testing.T) (*server.App, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to start application: %v", err)
	}
	return app, httptest.NewServer(app.Router())
}

func postJSON(t *testing.T, client *http.Client, url, token string, body interface{}) *http.Response {
	t.Helper()
	payload, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", url, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func TestApplicationStartup(t *testing.T) {
	setupEnv(t, filepath.Join(t.TempDir(), "todos.db"))

	app, srv := startApp(t)
	defer app.Close()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func TestTodosSurviveRestart(t *testing.T) {
	setupEnv(t, filepath.Join(t.TempDir(), "todos.db"))
	client := &http.Client{}

	app, srv := startApp(t)
	resp := postJSON(t, client, srv.URL+"/api/auth/sign-up", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "password123",
	})
	var session struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&session)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || session.Token == "" {
		t.Fatalf("Sign-up failed with status %d", resp.StatusCode)
	}

	resp = postJSON(t, client, srv.URL+"/api/todos", session.Token, map[string]string{"title": "Persist me"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}

	srv.Close()
	app.Close()

	// Second start runs migrations again over the same file.
	app, srv = startApp(t)
	defer app.Close()
	defer srv.Close()

	req, _ := http.NewRequest("GET", srv.URL+"/api/todos", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("List request failed: %v", err)
	}
	defer resp.Body.Close()

	var todos []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&todos); err != nil {
		t.Fatalf("Failed to decode todos: %v", err)
	}
	if len(todos) != 1 || todos[0]["title"] != "Persist me" {
		t.Errorf("Expected the persisted todo, got %v", todos)
	}
}

func TestProductionConfigRequiresSecret(t *testing.T) {
	setupEnv(t, filepath.Join(t.TempDir(), "todos.db"))
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	if _, err := config.LoadConfig(); err == nil {
		t.Error("Expected production config without JWT_SECRET to fail")
	}
}
