package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"parley/analysis"
	"parley/audio"
	"parley/config"
	"parley/cue"
	"parley/hotkey"
	"parley/ledger"
	"parley/log"
	"parley/pipeline"
	"parley/ptt"
	"parley/recorder"
	"parley/transcriber"
	"parley/translator"
)

// stdoutSink prints pipeline outcomes so a driving script can assert on
// them line by line.
type stdoutSink struct{ logSink }

func (stdoutSink) TurnCompleted(t ledger.Turn) {
	fmt.Printf("TURN\t%s\t%s\t%s\t%s\n", t.Speaker, t.Original, t.Translation, t.Provider)
}

func (stdoutSink) NoSpeech(dir ptt.Direction) {
	fmt.Printf("NOSPEECH\t%s\n", dir)
}

func (stdoutSink) PipelineError(stage string, err error) {
	fmt.Printf("ERROR\t%s\t%v\n", stage, err)
}

func parseDirection(s string) (ptt.Direction, bool) {
	switch s {
	case "forward":
		return ptt.Forward, true
	case "reverse":
		return ptt.Reverse, true
	}
	return ptt.Forward, false
}

// runTestMode drives the whole stack headlessly from stdin, with the fake
// audio backend replaying a WAV file instead of a live microphone.
//
// Commands: press forward|reverse, release forward|reverse, sleep <ms>,
// wait, review, ask <question>, new, quit.
func runTestMode(wavPath string, cfg *config.Config, trans transcriber.Transcriber, chain *translator.Chain) {
	cue.Disable()
	defer log.Close()

	fakeCtx, err := audio.FakeContextFromWAV(wavPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}

	sink := stdoutSink{}
	led := ledger.New()
	pipe, err := pipeline.New(cfg, trans, chain, nil, nil, led, sink)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	review := analysis.New(cfg.OpenAIKey)
	if cfg.LLMEndpoint != "" {
		review.SetEndpoint(cfg.LLMEndpoint)
	}
	if cfg.LLMModel != "" {
		review.SetModel(cfg.LLMModel)
	}

	rec := recorder.New(fakeCtx, cfg.Gain, nil)
	a := &app{cfg: cfg, trans: trans, chain: chain, led: led, pipe: pipe, rec: rec, review: review, sink: sink}
	hooks := &pttHooks{app: a}
	controller := ptt.New(hooks, cfg.Debounce, nil)

	hk := hotkey.NewFake()
	go func() {
		for ev := range hk.Events() {
			controller.Handle(ev)
		}
	}()

	log.SessionStart("fake microphone", trans.Name(), chain.Names())

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		verb, arg, _ := strings.Cut(cmd, " ")
		switch verb {
		case "press":
			if dir, ok := parseDirection(arg); ok {
				hk.Press(dir)
			}
		case "release":
			if dir, ok := parseDirection(arg); ok {
				hk.Release(dir)
			}
		case "sleep":
			if ms, err := strconv.Atoi(arg); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case "wait":
			pipe.Drain()
		case "review":
			pipe.Drain()
			out, err := review.Review(context.Background(), led.Summary(cfg.SummaryTurns))
			if err != nil {
				fmt.Printf("ERROR\treview\t%v\n", err)
			} else {
				fmt.Printf("REVIEW\t%s\n", strings.ReplaceAll(out, "\n", "\\n"))
			}
		case "ask":
			pipe.Drain()
			out, err := review.Query(context.Background(), arg, led.Summary(cfg.SummaryTurns))
			if err != nil {
				fmt.Printf("ERROR\tquery\t%v\n", err)
			} else {
				fmt.Printf("ANSWER\t%s\n", strings.ReplaceAll(out, "\n", "\\n"))
			}
		case "new":
			turns, err := pipe.StartNew()
			if err != nil {
				fmt.Printf("ERROR\tstore\t%v\n", err)
			}
			fmt.Printf("RESET\t%d\n", len(turns))
		case "quit":
			pipe.Drain()
			pipe.Close()
			return
		}
	}
}
