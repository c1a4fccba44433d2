package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"github.com/atotto/clipboard"

	"parley/analysis"
	"parley/audio"
	"parley/config"
	"parley/cue"
	"parley/doctor"
	"parley/hotkey"
	"parley/ledger"
	"parley/log"
	"parley/pipeline"
	"parley/ptt"
	"parley/recorder"
	"parley/speech"
	"parley/store"
	"parley/transcriber"
	"parley/translator"
)

var version = "dev"

var shutdownOnce sync.Once

// app holds everything the event loop touches, wired once in run.
type app struct {
	cfg    *config.Config
	trans  transcriber.Transcriber
	chain  *translator.Chain
	engine *speech.Engine // nil when TTS is disabled
	db     *store.Store   // nil when the database failed to open
	led    *ledger.Ledger
	pipe   *pipeline.Pipeline
	rec    *recorder.Recorder
	review *analysis.Client
	sink   EventSink
	hk     hotkey.Hotkey
}

// pttHooks bridges the debounced push-to-talk controller to the capture
// and processing layers. Speech output stops the moment a key goes down
// so the assistant never talks over the speaker.
type pttHooks struct {
	app    *app
	device *audio.DeviceInfo
}

func (h *pttHooks) SessionStart(dir ptt.Direction) error {
	if h.app.engine != nil {
		h.app.engine.Stop()
	}
	if err := h.app.rec.Start(h.device); err != nil {
		cue.Error()
		h.app.sink.PipelineError("capture", err)
		return err
	}
	cue.Start()
	h.app.sink.RecordingStart(dir)
	return nil
}

func (h *pttHooks) SessionStop(dir ptt.Direction) {
	clip, err := h.app.rec.Stop()
	cue.End()
	h.app.sink.RecordingStop(dir)
	if err != nil {
		h.app.sink.PipelineError("capture", err)
		return
	}
	h.app.pipe.Submit(dir, clip)
}

func modeLineText(cfg *config.Config, trans transcriber.Transcriber, chain *translator.Chain) string {
	return fmt.Sprintf("%s ⇄ %s | stt: %s | mt: %s", cfg.SourceLang, cfg.TargetLang, trans.Name(), chain.Names())
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

func gracefulShutdown(a *app) {
	shutdownOnce.Do(func() {
		if a.hk != nil {
			a.hk.Unregister()
		}
		a.pipe.Drain()
		a.pipe.Close()
		if a.engine != nil {
			a.engine.Close()
		}
		if a.db != nil {
			a.db.Close()
		}
		log.Close()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

func main() {
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	envFlag := flag.String("env", "", "Path to .env file (default: ./.env)")
	gainFlag := flag.Float64("gain", 0, "Software input gain override (0 = use INPUT_GAIN)")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven)")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("parley %s\n", version)
		os.Exit(0)
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	cfg := config.Load(*envFlag)
	if *gainFlag > 0 {
		cfg.Gain = recorder.ClampGain(*gainFlag)
	}

	if *doctorFlag {
		os.Exit(doctor.Run(cfg))
	}

	trans, err := transcriber.New()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	trans.SetLanguage(cfg.SourceLang)
	if w, ok := trans.(*transcriber.Whisper); ok {
		w.SetModel(cfg.WhisperModel)
		if err := w.SetFormat(cfg.AudioFormat); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	usagePath := filepath.Join(filepath.Dir(cfg.DBPath), "deepl_usage.json")
	chain := translator.New(usagePath)

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: parley -test <wav-file>")
			os.Exit(1)
		}
		runTestMode(args[0], cfg, trans, chain)
		return
	}

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer actx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := actx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			fmt.Printf("Warning: device %q not found, using default\n", *deviceFlag)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(actx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	var engine *speech.Engine
	if cfg.TTSEnabled {
		synth, err := speech.NewSynthesizer()
		if err != nil {
			log.Warnf("speech synthesis unavailable: %v", err)
		} else {
			engine = speech.NewEngine(synth)
		}
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Degraded("store", err)
		db = nil
	} else if cfg.RetainClips {
		if err := db.SetClipDir(cfg.ClipDir); err != nil {
			log.Warnf("clip retention disabled: %v", err)
		}
	}

	var sink EventSink
	if *tuiFlag {
		sink = newTUISink()
	} else {
		sink = logSink{}
	}

	led := ledger.New()
	pipe, err := pipeline.New(cfg, trans, chain, engine, db, led, sink)
	if err != nil {
		fmt.Printf("Error opening conversation: %v\n", err)
		os.Exit(1)
	}

	review := analysis.New(cfg.OpenAIKey)
	if cfg.LLMEndpoint != "" {
		review.SetEndpoint(cfg.LLMEndpoint)
	}
	if cfg.LLMModel != "" {
		review.SetModel(cfg.LLMModel)
	}

	rec := recorder.New(actx, cfg.Gain, func(rms float64) { sink.AudioLevel(rms) })

	a := &app{
		cfg:    cfg,
		trans:  trans,
		chain:  chain,
		engine: engine,
		db:     db,
		led:    led,
		pipe:   pipe,
		rec:    rec,
		review: review,
		sink:   sink,
	}

	hooks := &pttHooks{app: a, device: selectedDevice}
	controller := ptt.New(hooks, cfg.Debounce, nil)

	uiCmds := make(chan uiCmd, 4)
	if *tuiFlag {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(uiCmds)
		tuiMu.Unlock()
		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
				os.Exit(1)
			}
			gracefulShutdown(a)
		}()
	}

	go cue.Init()

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		log.Errorf("hotkey register error: %v", err)
		fmt.Printf("Error registering hotkey: %v\n", err)
		os.Exit(1)
	}
	a.hk = hk

	deviceName := "system default"
	if selectedDevice != nil {
		deviceName = selectedDevice.Name
	}
	log.SessionStart(deviceName, trans.Name(), chain.Names())
	tuiSend(ModeLineMsg{Text: modeLineText(cfg, trans, chain)})
	tuiSend(DeviceLineMsg{Text: deviceLineText(selectedDevice)})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case ev := <-hk.Events():
			controller.Handle(ev)
		case cmd := <-uiCmds:
			handleUICmd(a, cmd)
		case <-sigChan:
			gracefulShutdown(a)
		}
	}
}

func handleUICmd(a *app, cmd uiCmd) {
	switch cmd {
	case cmdCopyLast:
		t, ok := a.led.Last()
		if !ok || t.Translation == "" || t.Provider == "none" {
			return
		}
		if err := clipboard.WriteAll(t.Translation); err != nil {
			log.Warnf("clipboard copy failed: %v", err)
			return
		}
		tuiSend(CopiedMsg{})

	case cmdReview:
		if !a.review.Available() {
			a.sink.Analysis("", fmt.Errorf("no LLM configured, set OPENAI_API_KEY"))
			return
		}
		transcript := a.led.Summary(a.cfg.SummaryTurns)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			out, err := a.review.Review(ctx, transcript)
			a.sink.Analysis(out, err)
		}()

	case cmdNewConversation:
		turns, err := a.pipe.StartNew()
		if err != nil {
			a.sink.PipelineError("store", err)
		}
		a.sink.ConversationReset(len(turns))
	}
}
