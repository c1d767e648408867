package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateAndValidateCertificate(t *testing.T) {
	dir := t.TempDir()
	certsGenerateFlags.certDir = dir
	certsGenerateFlags.validityDays = 30
	certsGenerateFlags.force = false

	if err := generateCertificate(certsGenerateCmd, nil); err != nil {
		t.Fatalf("generate: %v", err)
	}

	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	if _, err := os.Stat(certFile); err != nil {
		t.Fatalf("certificate not written: %v", err)
	}

	certsValidateFlags.certFile = certFile
	certsValidateFlags.keyFile = keyFile
	if err := validateCertificate(certsValidateCmd, nil); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestGenerateForceReplacesPair(t *testing.T) {
	dir := t.TempDir()
	certsGenerateFlags.certDir = dir
	certsGenerateFlags.validityDays = 30
	certsGenerateFlags.force = false

	if err := generateCertificate(certsGenerateCmd, nil); err != nil {
		t.Fatalf("generate: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(dir, "server.crt"))
	if err != nil {
		t.Fatal(err)
	}

	certsGenerateFlags.force = true
	if err := generateCertificate(certsGenerateCmd, nil); err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(dir, "server.crt"))
	if err != nil {
		t.Fatal(err)
	}

	if string(first) == string(second) {
		t.Error("force did not replace the certificate")
	}
}

func TestCertInfoOnGeneratedCertificate(t *testing.T) {
	dir := t.TempDir()
	certsGenerateFlags.certDir = dir
	certsGenerateFlags.validityDays = 30
	certsGenerateFlags.force = false

	if err := generateCertificate(certsGenerateCmd, nil); err != nil {
		t.Fatalf("generate: %v", err)
	}

	certsInfoFlags.format = "json"
	if err := displayCertInfo(certsInfoCmd, []string{filepath.Join(dir, "server.crt")}); err != nil {
		t.Errorf("info: %v", err)
	}
}
