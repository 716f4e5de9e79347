package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("NVIDIA_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTPAddr != DefaultHTTPAddr {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.SummarizeSchedule != DefaultSummarizeSchedule {
		t.Errorf("SummarizeSchedule = %q", cfg.SummarizeSchedule)
	}
	if cfg.DataDir != filepath.Join(dir, "data") {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.MaxUploadMB != DefaultMaxUploadMB || cfg.FFmpegPath != "ffmpeg" {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Keys) != 0 {
		t.Errorf("Keys = %v, want none", cfg.Keys)
	}
	if cfg.DBPath() != filepath.Join(dir, "data", "lectern.db") {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	t.Setenv("NVIDIA_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "from-env")
	dir := t.TempDir()

	toml := `
data_dir = "/srv/lectern"
provider = "Groq"
http_addr = ":9000"
max_upload_mb = 50

[models]
groq = "llama-3.1-8b-instant"

[base_urls]
openai = "http://localhost:8080/v1"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0644); err != nil {
		t.Fatal(err)
	}
	env := "GROQ_API_KEY=from-dotenv\nOPENAI_API_KEY=ignored\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0644); err != nil {
		t.Fatal(err)
	}
	// present-but-empty would block .env, so start unset and let Setenv restore
	t.Setenv("GROQ_API_KEY", "")
	os.Unsetenv("GROQ_API_KEY")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir != "/srv/lectern" || cfg.HTTPAddr != ":9000" || cfg.MaxUploadMB != 50 {
		t.Errorf("cfg = %+v", cfg)
	}

	opts := cfg.SelectorOptions()
	if opts.Preferred != "groq" {
		t.Errorf("Preferred = %q", opts.Preferred)
	}
	if opts.Models["groq"] != "llama-3.1-8b-instant" || opts.BaseURLs["openai"] != "http://localhost:8080/v1" {
		t.Errorf("opts = %+v", opts)
	}
	if opts.Keys["groq"] != "from-dotenv" {
		t.Errorf("groq key = %q", opts.Keys["groq"])
	}
	if opts.Keys["openai"] != "from-env" {
		t.Errorf(".env must not override the environment, got %q", opts.Keys["openai"])
	}
	if _, ok := opts.Keys["nvidia"]; ok {
		t.Error("empty nvidia key should be absent")
	}
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("data_dir = ["), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected parse error")
	}
}

func TestPrompts_Override(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "prompts"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "prompts", "answer_system.txt"), []byte("Be brief."), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	p, err := cfg.Prompts()
	if err != nil {
		t.Fatalf("Prompts() error = %v", err)
	}
	if p.AnswerSystem != "Be brief." {
		t.Errorf("AnswerSystem = %q", p.AnswerSystem)
	}
}
