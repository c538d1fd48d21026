package repo

import "testing"

func TestReadConfigMissingIsEmpty(t *testing.T) {
	r := newTestRepo(t)

	cfg, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if len(cfg.Hidden) != 0 || len(cfg.Redirects) != 0 {
		t.Fatalf("missing config should be empty, got %+v", cfg)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	r := newTestRepo(t)

	want := &Config{
		Hidden:    []string{"refs/meta/", "refs/internal/"},
		Redirects: map[string]string{"master": "main"},
	}
	if err := r.WriteConfig(want); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	got, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if len(got.Hidden) != 2 || got.Hidden[0] != "refs/meta/" {
		t.Fatalf("hidden = %v, want %v", got.Hidden, want.Hidden)
	}
	if got.Redirects["master"] != "main" {
		t.Fatalf("redirects = %v, want %v", got.Redirects, want.Redirects)
	}
}

func TestSetRedirect(t *testing.T) {
	r := newTestRepo(t)

	if err := r.SetRedirect("master", "main"); err != nil {
		t.Fatalf("SetRedirect: %v", err)
	}
	if err := r.SetRedirect("trunk", "main"); err != nil {
		t.Fatalf("SetRedirect: %v", err)
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.Redirects["master"] != "main" || cfg.Redirects["trunk"] != "main" {
		t.Fatalf("redirects = %v", cfg.Redirects)
	}

	if err := r.SetRedirect("", "main"); err == nil {
		t.Fatalf("SetRedirect with empty source should fail")
	}
}
