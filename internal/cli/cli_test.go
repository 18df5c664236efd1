package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eunmann/mdstream/internal/config"
	"github.com/eunmann/mdstream/pkg/checksum"
	"github.com/eunmann/mdstream/pkg/cwrap"
	"github.com/eunmann/mdstream/pkg/xmlfile"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvVar, "")

	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), err
}

func writeCompressed(t *testing.T, path string, kind cwrap.Kind, content string) {
	t.Helper()
	s, err := cwrap.Open(path, cwrap.Write, kind, nil)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	if _, err := s.WriteString(content); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}

func readDecompressed(t *testing.T, path string) string {
	t.Helper()
	s, err := cwrap.Open(path, cwrap.Read, cwrap.AutoDetect, nil)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer s.Close()
	data, err := io.ReadAll(s)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestRunNoArgs(t *testing.T) {
	_, err := runCLI(t)
	if err == nil {
		t.Fatal("expected error with no args")
	}
	if !strings.Contains(err.Error(), "usage") {
		t.Errorf("expected usage message, got: %v", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	_, err := runCLI(t, "unknown")
	if err == nil {
		t.Fatal("expected error with unknown command")
	}
	if !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("expected 'unknown command' error, got: %v", err)
	}
}

func TestDetect(t *testing.T) {
	dir := t.TempDir()
	gz := filepath.Join(dir, "primary.xml.gz")
	writeCompressed(t, gz, cwrap.Gzip, "<metadata/>")
	bz := filepath.Join(dir, "filelists")
	writeCompressed(t, bz, cwrap.Bzip2, "<filelists/>")

	out, err := runCLI(t, "detect", gz, bz)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	want := gz + "\tgzip\n" + bz + "\tbzip2\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestDetectMissingFile(t *testing.T) {
	_, err := runCLI(t, "detect", filepath.Join(t.TempDir(), "missing.xml"))
	if !errors.Is(err, cwrap.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.xml.xz")
	writeCompressed(t, path, cwrap.Xz, "<otherdata/>")

	out, err := runCLI(t, "cat", path)
	if err != nil {
		t.Fatalf("cat: %v", err)
	}
	if out != "<otherdata/>" {
		t.Errorf("output = %q", out)
	}

	out, err = runCLI(t, "cat", "--compression", "xz", path)
	if err != nil || out != "<otherdata/>" {
		t.Errorf("explicit xz = (%q, %v)", out, err)
	}

	if _, err := runCLI(t, "cat", "--compression", "zip", path); err == nil || !strings.Contains(err.Error(), "--compression") {
		t.Errorf("expected --compression error, got %v", err)
	}
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "primary.xml.gz")
	out := filepath.Join(dir, "primary.xml.xz")
	content := strings.Repeat("<package type=\"rpm\"/>\n", 100)
	writeCompressed(t, in, cwrap.Gzip, content)

	report, err := runCLI(t, "convert", "--to", "xz", "--checksum", "sha256", in, out)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	if got := readDecompressed(t, out); got != content {
		t.Error("converted content differs from input")
	}
	if kind, _ := cwrap.DetectCompressionWith(out, &cwrap.MimeSniffer{}); kind != cwrap.Xz {
		t.Errorf("output kind = %v, want xz", kind)
	}

	digest, _ := checksum.Sum(checksum.SHA256, []byte(content))
	if !strings.Contains(report, checksum.Hex(digest)) {
		t.Errorf("report lacks sha256 digest:\n%s", report)
	}
	if !strings.Contains(report, "ratio:") {
		t.Errorf("report lacks ratio:\n%s", report)
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestConvertInvalidOutputKind(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.xml")
	if err := os.WriteFile(in, []byte("<metadata/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := runCLI(t, "convert", "--to", "auto", in, filepath.Join(dir, "out"))
	if err == nil || !strings.Contains(err.Error(), "not an output format") {
		t.Errorf("expected output format error, got %v", err)
	}
}

func TestWrap(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "bash.xml")
	second := filepath.Join(dir, "zsh.xml")
	os.WriteFile(first, []byte("<package name=\"bash\"/>\n"), 0o644)
	os.WriteFile(second, []byte("<package name=\"zsh\"/>\n"), 0o644)

	out := filepath.Join(dir, "other.xml.bz2")
	report, err := runCLI(t, "wrap", "--type", "other", "--out", out, "--compression", "bz2", "--checksum", "none", first, second)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}

	want := `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<otherdata xmlns="http://linux.duke.edu/metadata/other" packages="2">` + "\n" +
		"<package name=\"bash\"/>\n<package name=\"zsh\"/>\n</otherdata>"
	if got := readDecompressed(t, out); got != want {
		t.Errorf("document = %q, want %q", got, want)
	}
	if strings.Contains(report, "none:") {
		t.Errorf("report should not print a checksum line for none:\n%s", report)
	}
}

func TestWrapExplicitCount(t *testing.T) {
	out := filepath.Join(t.TempDir(), "primary.xml")
	if _, err := runCLI(t, "wrap", "--out", out, "--compression", "none", "--count", "7"); err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if got := readDecompressed(t, out); !strings.Contains(got, `packages="7"`) {
		t.Errorf("document = %q, want packages=\"7\"", got)
	}
}

func TestWrapExistingOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "primary.xml")
	if err := os.WriteFile(out, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := runCLI(t, "wrap", "--out", out, "--compression", "none")
	if !errors.Is(err, xmlfile.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
	if data, _ := os.ReadFile(out); string(data) != "keep" {
		t.Errorf("existing output modified: %q", data)
	}
}

func TestWrapMissingOut(t *testing.T) {
	_, err := runCLI(t, "wrap", "--type", "primary")
	if err == nil || !strings.Contains(err.Error(), "--out") {
		t.Errorf("expected '--out' error, got %v", err)
	}
}

func TestWrapMissingChunk(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "primary.xml.gz")

	_, err := runCLI(t, "wrap", "--out", out, filepath.Join(dir, "missing.xml"))
	if err == nil || !strings.Contains(err.Error(), "read chunk") {
		t.Errorf("expected read chunk error, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("output created despite failure")
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestWrapTmpDirCleanup(t *testing.T) {
	dir := t.TempDir()
	tmpDir := filepath.Join(dir, "scratch")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(tmpDir, "interrupted.xml.gz.tmp")
	if err := os.WriteFile(stale, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "filelists.xml.gz")
	if _, err := runCLI(t, "wrap", "--type", "filelists", "--out", out, "--tmp", tmpDir); err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale tmp file not removed")
	}
	if kind, _ := cwrap.DetectCompression(out); kind != cwrap.Gzip {
		t.Errorf("default compression = %v, want gzip", kind)
	}
}

func TestConfigFileDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "mdstream.yaml")
	if err := os.WriteFile(cfgPath, []byte("compression: xz\nchecksum: md5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "primary-noext")
	report, err := runCLI(t, "--config", cfgPath, "wrap", "--out", out)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if kind, _ := cwrap.DetectCompression(out); kind != cwrap.Xz {
		t.Errorf("compression = %v, want xz from config", kind)
	}
	if !strings.Contains(report, "md5:") {
		t.Errorf("report lacks md5 line:\n%s", report)
	}
}

func TestInvalidConfigFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(cfgPath, []byte("compression: rar\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := runCLI(t, "--config", cfgPath, "detect", cfgPath)
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("expected invalid config error, got %v", err)
	}
}

func TestLogFileFlag(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "mdstream.log")
	out := filepath.Join(dir, "primary.xml")

	if _, err := runCLI(t, "--log-file", logPath, "wrap", "--out", out, "--compression", "none"); err != nil {
		t.Fatalf("wrap: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, want := range []string{`"event":"file_written"`, `"component":"wrap"`, `"packages":0`, `"chunks":0`} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("log file lacks %s: %s", want, data)
		}
	}
	// Empty content has no ratio.
	if bytes.Contains(data, []byte(`"ratio"`)) {
		t.Errorf("ratio logged for empty content: %s", data)
	}
}

func TestConvertLogsRatio(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "mdstream.log")
	in := filepath.Join(dir, "other.xml")
	if err := os.WriteFile(in, []byte(strings.Repeat("<package/>", 50)), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, "--log-file", logPath, "convert", "--to", "gz", in, filepath.Join(dir, "other.xml.gz")); err != nil {
		t.Fatalf("convert: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, want := range []string{`"component":"convert"`, `"source_compression":"none"`, `"ratio":`} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("log file lacks %s: %s", want, data)
		}
	}
}
