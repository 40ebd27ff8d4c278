// Command camcore-stream runs the device -> encode -> RTP pipeline end to
// end: it opens a camera through the device registry, drives it through a
// stream.Streamer, binds the streamer's RTP output to a pion
// TrackLocalStaticRTP via webrtctrack, and prints the resulting SDP offer so
// an external signaling channel can deliver it to a viewer and return an
// answer. Signaling transport itself is out of scope (spec.md §2
// Non-goals), so the offer/answer exchange here is a manual stdin/stdout
// copy-paste, standing in for whatever the deployment's signaling
// collaborator actually is.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/ethan/camcore/clock"
	"github.com/ethan/camcore/device"
	"github.com/ethan/camcore/internal/config"
	"github.com/ethan/camcore/internal/logging"
	"github.com/ethan/camcore/quality"
	"github.com/ethan/camcore/stream"
	"github.com/ethan/camcore/webrtctrack"
)

type streamFlags struct {
	envFile    string
	deviceID   string
	preset     string
	mtu        int
	maxIndex   int
	waitAnswer bool
}

func registerFlags(fs *flag.FlagSet) *streamFlags {
	f := &streamFlags{}
	fs.StringVar(&f.envFile, "env", ".env", "Path to the settings file")
	fs.StringVar(&f.deviceID, "device", "", "Video device ID or name (default: registry default)")
	fs.StringVar(&f.preset, "preset", "medium", "Quality preset: low, medium, high")
	fs.IntVar(&f.mtu, "mtu", 1200, "RTP payload MTU budget in bytes")
	fs.IntVar(&f.maxIndex, "max-index", 4, "Highest camera index to probe")
	fs.BoolVar(&f.waitAnswer, "wait-answer", true, "Block on stdin for a pasted SDP answer before streaming")
	return f
}

func main() {
	fs := flag.NewFlagSet("camcore-stream", flag.ExitOnError)
	logFlags := logging.RegisterFlags(fs)
	streamFlagSet := registerFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Camera -> H.264 -> RTP streaming over a WebRTC track\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error parsing flags: %v\n", err)
		os.Exit(1)
	}

	logCfg, err := logFlags.ToConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error configuring logger: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()
	logging.SetDefault(log)

	log.Info("starting camcore-stream", "log_config", logFlags.String())

	settings, err := config.Load(streamFlagSet.envFile)
	if err != nil {
		log.Info("no settings file found, using defaults", "path", streamFlagSet.envFile, "error", err)
		settings = config.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	registry := device.NewRegistry(device.NewGocvVideoScanner(streamFlagSet.maxIndex), nil)

	deviceID := streamFlagSet.deviceID
	if deviceID == "" {
		deviceID = settings.VideoDevice
	}
	info, err := registry.FindVideoDevice(deviceID)
	if err != nil {
		log.Error("failed to resolve video device", "device", deviceID, "error", err)
		os.Exit(1)
	}
	log.Info("resolved video device", "id", info.ID, "name", info.Name)

	cfg := quality.Config(quality.Preset(streamFlagSet.preset))
	pts := clock.New()
	streamer := stream.New(info.ID, cfg, registry, pts, log.With("component", "streamer"))

	if err := streamer.InitH264Packetizer(streamFlagSet.mtu); err != nil {
		log.Error("failed to init H.264 packetizer", "error", err)
		os.Exit(1)
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}},
	})
	if err != nil {
		log.Error("failed to create peer connection", "error", err)
		os.Exit(1)
	}
	defer pc.Close()

	track, err := webrtctrack.New(pc, info.ID, false, log.With("component", "webrtctrack"))
	if err != nil {
		log.Error("failed to create webrtc track", "error", err)
		os.Exit(1)
	}
	streamer.SetRTPSender(track)

	stopRTCP := make(chan struct{})
	defer close(stopRTCP)
	for _, sender := range pc.GetSenders() {
		track.WatchRTCP(sender, streamer, stopRTCP)
	}

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		log.Error("failed to create offer", "error", err)
		os.Exit(1)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		log.Error("failed to set local description", "error", err)
		os.Exit(1)
	}

	gatherComplete := webrtc.GatheringCompletePromise(pc)
	select {
	case <-gatherComplete:
	case <-time.After(10 * time.Second):
		log.Error("ICE gathering timed out")
		os.Exit(1)
	case <-ctx.Done():
		return
	}

	fmt.Println("--- SDP OFFER (copy to the viewer) ---")
	fmt.Println(pc.LocalDescription().SDP)
	fmt.Println("--- END SDP OFFER ---")

	if streamFlagSet.waitAnswer {
		fmt.Println("Paste the SDP answer, then a blank line:")
		answerSDP, err := readUntilBlankLine(os.Stdin)
		if err != nil {
			log.Error("failed to read SDP answer", "error", err)
			os.Exit(1)
		}
		if err := pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: answerSDP}); err != nil {
			log.Error("failed to set remote description", "error", err)
			os.Exit(1)
		}
	}

	if err := streamer.StartStreaming(info.ID); err != nil {
		log.Error("failed to start streaming", "error", err)
		os.Exit(1)
	}
	log.Info("streaming started", "device", info.ID, "preset", streamFlagSet.preset)

	<-ctx.Done()

	log.Info("stopping stream")
	if err := streamer.StopStreaming(); err != nil {
		log.Error("error stopping stream", "error", err)
	}
}

func readUntilBlankLine(r *os.File) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}
