package eventcfg_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/0x6d61/reportwiz/internal/eventcfg"
)

const bugzillaYAML = `name: report_Bugzilla
screen_name: Bugzilla
description: Report to Bugzilla bug tracker
options:
  - name: Bugzilla_URL
    type: text
    default: https://bugzilla.example.com
  - name: Bugzilla_Login
    type: text
  - name: Bugzilla_Password
    type: password
  - name: Bugzilla_SSLVerify
    type: bool
    default: "yes"
  - name: Bugzilla_Product
    allow_empty: true
  - name: Bugzilla_Note
    type: hint
    default: ignored
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func loadRegistry(t *testing.T) (*eventcfg.Registry, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "report_Bugzilla.yaml"), bugzillaYAML)
	reg := eventcfg.NewRegistry()
	if err := reg.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	return reg, dir
}

// --- LoadDir テスト ---

func TestLoadDir(t *testing.T) {
	reg, _ := loadRegistry(t)
	def, ok := reg.Get("report_Bugzilla")
	if !ok {
		t.Fatal("report_Bugzilla not loaded")
	}
	if def.Title() != "Bugzilla" {
		t.Errorf("title: got %q", def.Title())
	}
	if len(def.Options) != 6 {
		t.Fatalf("expected 6 options, got %d", len(def.Options))
	}
	product, _ := def.Option("Bugzilla_Product")
	if product.Type != eventcfg.OptionText {
		t.Errorf("default option type: got %q, want text", product.Type)
	}
	url, _ := def.Option("Bugzilla_URL")
	if url.Value != "https://bugzilla.example.com" {
		t.Errorf("default value not applied: %q", url.Value)
	}
}

func TestLoadDir_Missing(t *testing.T) {
	reg := eventcfg.NewRegistry()
	if err := reg.LoadDir(filepath.Join(t.TempDir(), "none")); err != nil {
		t.Errorf("missing dir should not be an error: %v", err)
	}
	if len(reg.All()) != 0 {
		t.Error("expected no events")
	}
}

func TestLoadDir_MissingName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.yaml"), "description: no name\n")
	if err := eventcfg.NewRegistry().LoadDir(dir); err == nil {
		t.Error("expected error for definition without name")
	}
}

func TestLoadValues_Override(t *testing.T) {
	reg, dir := loadRegistry(t)
	writeFile(t, filepath.Join(dir, "report_Bugzilla.env"), "Bugzilla_Login=alice\nBugzilla_URL=https://bz.internal\nUnknown=1\n")
	if err := reg.LoadValues(dir); err != nil {
		t.Fatal(err)
	}

	userDir := t.TempDir()
	writeFile(t, filepath.Join(userDir, "report_Bugzilla.env"), "Bugzilla_Login=bob\n")
	if err := reg.LoadValues(userDir); err != nil {
		t.Fatal(err)
	}

	def, _ := reg.Get("report_Bugzilla")
	login, _ := def.Option("Bugzilla_Login")
	url, _ := def.Option("Bugzilla_URL")
	if login.Value != "bob" {
		t.Errorf("user value should win: got %q", login.Value)
	}
	if url.Value != "https://bz.internal" {
		t.Errorf("system value should override default: got %q", url.Value)
	}
}

func TestSaveValues_RoundTrip(t *testing.T) {
	reg, _ := loadRegistry(t)
	if err := reg.Set("report_Bugzilla", "Bugzilla_Password", "s3cr=t #x"); err != nil {
		t.Fatal(err)
	}
	userDir := filepath.Join(t.TempDir(), "events")
	if err := reg.SaveValues(userDir, "report_Bugzilla"); err != nil {
		t.Fatalf("SaveValues: %v", err)
	}
	fi, err := os.Stat(filepath.Join(userDir, "report_Bugzilla.env"))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Errorf("mode: got %v, want 0600", fi.Mode().Perm())
	}

	fresh, _ := loadRegistry(t)
	if err := fresh.LoadValues(userDir); err != nil {
		t.Fatal(err)
	}
	def, _ := fresh.Get("report_Bugzilla")
	pw, _ := def.Option("Bugzilla_Password")
	if pw.Value != "s3cr=t #x" {
		t.Errorf("password: got %q", pw.Value)
	}
}

func TestSet_Unknown(t *testing.T) {
	reg, _ := loadRegistry(t)
	if err := reg.Set("nope", "x", "y"); err == nil {
		t.Error("expected error for unknown event")
	}
	if err := reg.Set("report_Bugzilla", "nope", "y"); err == nil {
		t.Error("expected error for unknown option")
	}
}

// --- Export テスト ---

func TestExport(t *testing.T) {
	reg, _ := loadRegistry(t)
	_ = reg.Set("report_Bugzilla", "Bugzilla_Login", "alice")

	env, err := reg.Export("report_Bugzilla")
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(env)
	want := []string{
		"Bugzilla_Login=alice",
		"Bugzilla_SSLVerify=yes",
		"Bugzilla_URL=https://bugzilla.example.com",
	}
	if !reflect.DeepEqual(env, want) {
		t.Errorf("got %q, want %q", env, want)
	}

	none, err := reg.Export("report_Unknown")
	if err != nil || none != nil {
		t.Errorf("unknown event: got %q, %v", none, err)
	}
}

// --- Validate テスト ---

func TestValidate(t *testing.T) {
	reg, _ := loadRegistry(t)

	err := reg.Validate("report_Bugzilla")
	var optErrs []*eventcfg.OptionError
	for _, e := range unwrapAll(err) {
		var oe *eventcfg.OptionError
		if errors.As(e, &oe) {
			optErrs = append(optErrs, oe)
		}
	}
	names := make([]string, len(optErrs))
	for i, oe := range optErrs {
		names[i] = oe.Option
	}
	want := []string{"Bugzilla_Login", "Bugzilla_Password"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("invalid options: got %v, want %v", names, want)
	}

	_ = reg.Set("report_Bugzilla", "Bugzilla_Login", "alice")
	_ = reg.Set("report_Bugzilla", "Bugzilla_Password", "pw")
	if err := reg.Validate("report_Bugzilla"); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	_ = reg.Set("report_Bugzilla", "Bugzilla_SSLVerify", "maybe")
	if err := reg.Validate("report_Bugzilla"); err == nil {
		t.Error("expected error for bad boolean")
	}
}

func TestValidate_Number(t *testing.T) {
	reg := eventcfg.NewRegistry()
	reg.Register(&eventcfg.EventDef{
		Name:    "report_Uploader",
		Options: []eventcfg.Option{{Name: "Retries", Type: eventcfg.OptionNumber, Value: "three"}},
	})
	err := reg.Validate("report_Uploader")
	var oe *eventcfg.OptionError
	if !errors.As(err, &oe) || oe.Option != "Retries" {
		t.Errorf("got %v", err)
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"yes", "On", "TRUE", "1"} {
		if v, ok := eventcfg.ParseBool(s); !ok || !v {
			t.Errorf("%q should be true", s)
		}
	}
	for _, s := range []string{"no", "off", "False", "0"} {
		if v, ok := eventcfg.ParseBool(s); !ok || v {
			t.Errorf("%q should be false", s)
		}
	}
	if _, ok := eventcfg.ParseBool("maybe"); ok {
		t.Error("maybe is not a boolean")
	}
}

func unwrapAll(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
