// Package doctor runs interactive end-to-end checks of the capture and
// interpretation stack: hotkeys, microphone, transcription, translation
// and speech output.
package doctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"parley/audio"
	"parley/config"
	"parley/hotkey"
	"parley/ptt"
	"parley/recorder"
	"parley/speech"
	"parley/transcriber"
	"parley/translator"
)

// Run executes the diagnostic checks and returns an exit code (0=all
// pass, 1=any fail).
func Run(cfg *config.Config) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("parley doctor - interactive system diagnostics")
	fmt.Println("===============================================")

	allPass := true

	if !checkHotkeys() {
		allPass = false
	}
	var text string
	if allPass {
		var ok bool
		text, ok = checkMicAndTranscription(cfg)
		if !ok {
			allPass = false
		}
	}
	if allPass && !checkTranslation(cfg, text) {
		allPass = false
	}
	if allPass && !checkSpeech(cfg) {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkHotkeys() bool {
	fmt.Println()
	fmt.Println("[1/4] Talk key detection")

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register talk keys: %v\n", err)
		return false
	}
	defer hk.Unregister()

	for _, dir := range []ptt.Direction{ptt.Forward, ptt.Reverse} {
		fmt.Printf("Press and release the %s talk key...\n", dir)
		if !waitEdge(hk, dir, true) {
			fmt.Println("  FAIL: timeout waiting for key down")
			return false
		}
		if !waitEdge(hk, dir, false) {
			fmt.Println("  FAIL: timeout waiting for key up")
			return false
		}
		fmt.Printf("  PASS: %s edges detected\n", dir)
	}
	resetTerminal()
	return true
}

func waitEdge(hk hotkey.Hotkey, dir ptt.Direction, down bool) bool {
	deadline := time.After(10 * time.Second)
	for {
		select {
		case ev := <-hk.Events():
			if ev.Direction == dir && ev.Down == down {
				return true
			}
		case <-deadline:
			return false
		}
	}
}

func checkMicAndTranscription(cfg *config.Config) (string, bool) {
	fmt.Println()
	fmt.Println("[2/4] Microphone and transcription")

	reader := bufio.NewReader(os.Stdin)

	actx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return "", false
	}
	defer actx.Close()

	device, err := audio.SelectDevice(actx)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return "", false
	}
	fmt.Printf("Using device: %s\n", device.Name)

	trans, err := transcriber.New()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return "", false
	}
	trans.SetLanguage(cfg.SourceLang)

	fmt.Printf("\nPress Enter and speak %s for 3 seconds...", cfg.SourceLang)
	reader.ReadString('\n')

	rec := recorder.New(actx, cfg.Gain, nil)
	if err := rec.Start(device); err != nil {
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return "", false
	}
	time.Sleep(3 * time.Second)
	clip, err := rec.Stop()
	if err != nil {
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return "", false
	}

	if clip == nil {
		fmt.Println("  FAIL: no audio captured")
		return "", false
	}
	fmt.Printf("  Recorded %.1f KB (speech ratio %.0f%%)\n", float64(clip.Size())/1024, clip.SpeechRatio*100)
	if clip.TooShort(cfg.MinClipBytes) {
		fmt.Println("  FAIL: clip below the silence gate, check microphone levels")
		return "", false
	}

	fmt.Println("  Transcribing...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	text, err := trans.Transcribe(ctx, clip)
	if err != nil {
		fmt.Printf("  FAIL: transcription error: %v\n", err)
		return "", false
	}
	if strings.TrimSpace(text) == "" {
		fmt.Println("  FAIL: no speech detected")
		return "", false
	}

	fmt.Printf("\n  Transcribed text: %s\n\n", text)

	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Print("Is this correct? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))

	if confirm == "y" || confirm == "yes" {
		fmt.Println("  PASS: transcription verified by user")
		return text, true
	}
	fmt.Println("  FAIL: transcription not confirmed")
	return "", false
}

func checkTranslation(cfg *config.Config, text string) bool {
	fmt.Println()
	fmt.Println("[3/4] Translation")

	chain := translator.New("")
	fmt.Printf("Providers: %s\n", chain.Names())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	translated, tag := chain.Translate(ctx, text, cfg.TargetLang)
	if tag == "none" {
		fmt.Printf("  FAIL: no provider could translate %q\n", text)
		return false
	}
	fmt.Printf("  PASS: %s [%s]\n", translated, tag)
	return true
}

func checkSpeech(cfg *config.Config) bool {
	fmt.Println()
	fmt.Println("[4/4] Speech output")

	synth, err := speech.NewSynthesizer()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := synth.Speak(ctx, "parley speech check", cfg.TargetLang); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Did you hear the test phrase? [y/n]: ")
	confirm, _ := reader.ReadString('\n')
	if c := strings.TrimSpace(strings.ToLower(confirm)); c == "y" || c == "yes" {
		fmt.Println("  PASS: speech output verified")
		return true
	}
	fmt.Println("  FAIL: speech output not confirmed")
	return false
}
