package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/book-expert/voiceclone-service/internal/client"
	"github.com/joho/godotenv"
)

// Flag descriptions.
const (
	flagServerIPDesc   = "Server address (host or host:port); overrides SERVER_IP"
	flagRefDesc        = "Reference audio file (.wav) to upload as the target voice"
	flagTextDesc       = "Text to synthesize in the reference voice"
	flagOutputDesc     = "Output file path (.wav)"
	flagHealthDesc     = "Check service health and exit"
	flagListDesc       = "List stored reference samples and exit"
	flagTimeoutDesc    = "Request timeout"
	flagSampleRateDesc = "Sample rate of the received audio (Hz)"
)

// Flag names.
const (
	flagServerIP   = "server_ip"
	flagRef        = "ref"
	flagText       = "text"
	flagOutput     = "output"
	flagHealth     = "health"
	flagList       = "list"
	flagTimeout    = "timeout"
	flagSampleRate = "sample_rate"
)

// Error and status messages.
const (
	errNothingToDo      = "Either --ref, --text, --health, or --list must be provided"
	errHealthCheckFail  = "Health check failed: %v"
	msgServiceHealthy   = "Service is healthy"
	msgUploaded         = "Uploaded reference: %s\n"
	msgGenerated        = "Generated: %s\n"
	msgNoReferences     = "No reference samples stored."
	defaultOutputFile   = "output.wav"
	defaultTimeout      = 5 * time.Minute
	defaultSampleRateHz = 16000
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	serverIP   string
	ref        string
	text       string
	output     string
	health     bool
	list       bool
	timeout    time.Duration
	sampleRate int
}

func main() {
	err := run()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	// Secrets and SERVER_IP may live in a .env file next to the binary.
	_ = godotenv.Load()

	flags := parseFlags()

	address, err := client.ResolveServerAddress(flags.serverIP)
	if err != nil {
		return err
	}

	voiceClient := client.New(address, flags.timeout, flags.sampleRate)

	ctx, cancel := context.WithTimeout(context.Background(), flags.timeout)
	defer cancel()

	if flags.health {
		return handleHealthCheck(ctx, voiceClient)
	}

	if flags.list {
		return handleList(ctx, voiceClient)
	}

	return handleExecution(ctx, voiceClient, flags)
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.serverIP, flagServerIP, "", flagServerIPDesc)
	flag.StringVar(&flags.ref, flagRef, "", flagRefDesc)
	flag.StringVar(&flags.text, flagText, "", flagTextDesc)
	flag.StringVar(&flags.output, flagOutput, defaultOutputFile, flagOutputDesc)
	flag.BoolVar(&flags.health, flagHealth, false, flagHealthDesc)
	flag.BoolVar(&flags.list, flagList, false, flagListDesc)
	flag.DurationVar(&flags.timeout, flagTimeout, defaultTimeout, flagTimeoutDesc)
	flag.IntVar(&flags.sampleRate, flagSampleRate, defaultSampleRateHz, flagSampleRateDesc)
	flag.Parse()

	return flags
}

func handleHealthCheck(ctx context.Context, voiceClient *client.Client) error {
	err := voiceClient.HealthCheck(ctx)
	if err != nil {
		fmt.Printf(errHealthCheckFail+"\n", err)

		return err
	}

	fmt.Println(msgServiceHealthy)

	return nil
}

func handleList(ctx context.Context, voiceClient *client.Client) error {
	ids, err := voiceClient.ListReferences(ctx)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		fmt.Println(msgNoReferences)

		return nil
	}

	for _, id := range ids {
		fmt.Println(id)
	}

	return nil
}

// handleExecution uploads the reference sample (if given) and then runs
// synthesis (if text was given). Both in one invocation is the common case:
// clone a voice and speak with it.
func handleExecution(ctx context.Context, voiceClient *client.Client, flags appFlags) error {
	if flags.ref == "" && flags.text == "" {
		flag.Usage()

		return errors.New(errNothingToDo)
	}

	if flags.ref != "" {
		err := voiceClient.UploadReference(ctx, flags.ref)
		if err != nil {
			return err
		}

		fmt.Printf(msgUploaded, flags.ref)
	}

	if flags.text != "" {
		err := voiceClient.SynthesizeToFile(ctx, flags.text, flags.output)
		if err != nil {
			return err
		}

		fmt.Printf(msgGenerated, flags.output)
	}

	return nil
}
