// Command voxify is a CLI for a Gemini-style generative AI service:
// audio transcription, text translation, image description, speech synthesis
// to WAV, and subtitle generation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/voxtools/voxify/internal/config"
	"github.com/voxtools/voxify/internal/observe"
	"github.com/voxtools/voxify/pkg/genai"
	"github.com/voxtools/voxify/pkg/retry"
	"github.com/voxtools/voxify/pkg/srt"
	"github.com/voxtools/voxify/pkg/wav"
)

const version = "0.1.0"

func usage() {
	fmt.Fprintf(os.Stderr, `voxify %s — generative speech toolkit

Usage: voxify [-config voxify.yaml] <command> [flags]

Commands:
  transcribe  -in audio.wav [-mime audio/wav] [-lang en]
  translate   -lang French (-text "..." | -in text.txt)
  describe    -in image.png [-mime image/png] [-prompt "..."]
  speak       -out out.wav [-voice Kore] [-rate 16000] (-text "..." | -in text.txt)
  subtitles   -out out.srt [-cue 4s] (-text "..." | -in text.txt)
`, version)
}

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "voxify.yaml", "path to the YAML configuration file")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voxify: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voxify: %v\n", err)
		}
		return 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel.Level(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := observe.ServeMetrics(ctx, cfg.MetricsAddr); err != nil {
				slog.Error("metrics endpoint error", "err", err)
			}
		}()
	}

	cmd, cmdArgs := args[0], args[1:]
	switch cmd {
	case "transcribe":
		err = cmdTranscribe(ctx, cfg, cmdArgs)
	case "translate":
		err = cmdTranslate(ctx, cfg, cmdArgs)
	case "describe":
		err = cmdDescribe(ctx, cfg, cmdArgs)
	case "speak":
		err = cmdSpeak(ctx, cfg, cmdArgs)
	case "subtitles":
		err = cmdSubtitles(cfg, cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "voxify: unknown command %q\n", cmd)
		usage()
		return 2
	}
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		slog.Error("command failed", "command", cmd, "err", err)
		return 1
	}
	return 0
}

// newClient builds a genai client from the loaded config. model overrides
// the configured generation model when non-empty.
func newClient(cfg *config.Config, model string) (*genai.Client, error) {
	opts := []genai.Option{
		genai.WithRetry(retry.Config{
			MaxRetries: cfg.Retry.MaxRetries,
			BaseDelay:  cfg.Retry.BaseDelay(),
		}),
	}
	if cfg.Service.BaseURL != "" {
		opts = append(opts, genai.WithBaseURL(cfg.Service.BaseURL))
	}
	if model == "" {
		model = cfg.Service.Model
	}
	if model != "" {
		opts = append(opts, genai.WithModel(model))
	}
	return genai.New(cfg.Service.APIKey, opts...)
}

func cmdTranscribe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("transcribe", flag.ContinueOnError)
	in := fs.String("in", "", "audio file to transcribe")
	mimeType := fs.String("mime", "", "audio MIME type (default: inferred from extension)")
	lang := fs.String("lang", "", "BCP-47 language hint, e.g. en")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("transcribe: -in is required")
	}

	audio, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	mt := *mimeType
	if mt == "" {
		if mt = inferMIME(*in); mt == "" {
			return fmt.Errorf("transcribe: cannot infer MIME type for %q, pass -mime", *in)
		}
	}

	client, err := newClient(cfg, "")
	if err != nil {
		return err
	}
	text, err := client.Transcribe(ctx, audio, mt, *lang)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func cmdTranslate(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	text := fs.String("text", "", "text to translate")
	in := fs.String("in", "", "file containing text to translate")
	lang := fs.String("lang", "", "target language, e.g. French or fr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *lang == "" {
		return errors.New("translate: -lang is required")
	}
	source, err := textInput(*text, *in)
	if err != nil {
		return err
	}

	client, err := newClient(cfg, "")
	if err != nil {
		return err
	}
	translated, err := client.Translate(ctx, source, *lang)
	if err != nil {
		return err
	}
	fmt.Println(translated)
	return nil
}

func cmdDescribe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("describe", flag.ContinueOnError)
	in := fs.String("in", "", "image file to describe")
	mimeType := fs.String("mime", "", "image MIME type (default: inferred from extension)")
	prompt := fs.String("prompt", "", "custom analysis prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("describe: -in is required")
	}

	image, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	mt := *mimeType
	if mt == "" {
		if mt = inferMIME(*in); mt == "" {
			return fmt.Errorf("describe: cannot infer MIME type for %q, pass -mime", *in)
		}
	}

	client, err := newClient(cfg, "")
	if err != nil {
		return err
	}
	description, err := client.DescribeImage(ctx, image, mt, *prompt)
	if err != nil {
		return err
	}
	fmt.Println(description)
	return nil
}

func cmdSpeak(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("speak", flag.ContinueOnError)
	text := fs.String("text", "", "text to synthesize")
	in := fs.String("in", "", "file containing text to synthesize")
	out := fs.String("out", "out.wav", "output WAV file")
	voice := fs.String("voice", cfg.Service.Voice, "prebuilt voice name")
	rate := fs.Int("rate", 0, "resample output to this rate in Hz (default: keep service rate)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	source, err := textInput(*text, *in)
	if err != nil {
		return err
	}

	client, err := newClient(cfg, cfg.Service.TTSModel)
	if err != nil {
		return err
	}
	audio, err := client.Synthesize(ctx, source, *voice)
	if err != nil {
		return err
	}

	pcm, sampleRate := audio.PCM, audio.SampleRate
	if *rate > 0 && *rate != sampleRate {
		pcm = wav.ResampleMono16(pcm, sampleRate, *rate)
		sampleRate = *rate
	}
	container, err := wav.Encode(pcm, sampleRate)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, container, 0o644); err != nil {
		return err
	}
	slog.Info("wrote audio",
		"file", *out,
		"sample_rate", sampleRate,
		"duration", audio.Duration(),
	)
	return nil
}

func cmdSubtitles(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("subtitles", flag.ContinueOnError)
	text := fs.String("text", "", "text to convert to subtitles")
	in := fs.String("in", "", "file containing text to convert")
	out := fs.String("out", "out.srt", "output SRT file")
	cue := fs.Duration("cue", 4*time.Second, "duration assigned to each cue")
	if err := fs.Parse(args); err != nil {
		return err
	}
	source, err := textInput(*text, *in)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	cues := srt.Generate(source, *cue)
	if err := srt.Format(f, cues); err != nil {
		return err
	}
	slog.Info("wrote subtitles", "file", *out, "cues", len(cues))
	return nil
}

// textInput resolves the -text/-in flag pair: exactly one must be set.
func textInput(text, in string) (string, error) {
	switch {
	case text != "" && in != "":
		return "", errors.New("pass either -text or -in, not both")
	case text != "":
		return text, nil
	case in != "":
		data, err := os.ReadFile(in)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", errors.New("one of -text or -in is required")
	}
}

// inferMIME maps common audio and image file extensions to MIME types.
func inferMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	case ".m4a":
		return "audio/mp4"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}
