package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/tmr232/yieldgen/config"
	"github.com/tmr232/yieldgen/emit"
	"github.com/tmr232/yieldgen/frontend"
)

func TestRunDryRun(t *testing.T) {
	cfg := config.Default()
	cfg.Jobs = 2
	wiz, err := emit.NewWizard(cfg.Tag())
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	g := &generator{cfg: cfg, wiz: wiz, dryRun: true, out: &out, logger: zap.NewNop()}

	err = g.Run(context.Background(), filepath.Join("testdata", "sample"))
	if !errors.Is(err, frontend.ErrIneligible) {
		t.Fatalf("Run() error = %v, want %v", err, frontend.ErrIneligible)
	}

	got := out.String()
	for _, want := range []string{
		"countdown_yieldgen.go",
		"deferred_yieldgen.go",
		"type countdownGenerator struct",
		"// Countdown yields n down to 1.",
		`panic("yieldgen: Deferred could not be rewritten, run yieldgen for details")`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "plain_yieldgen.go") {
		t.Errorf("untagged file was rewritten:\n%s", got)
	}
	if strings.Index(got, "countdown_yieldgen.go") > strings.Index(got, "deferred_yieldgen.go") {
		t.Error("files are not written in source order")
	}
}
