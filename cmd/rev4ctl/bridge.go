package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/rev4switch/internal/client"
	"github.com/muurk/rev4switch/internal/config"
	"github.com/muurk/rev4switch/internal/discovery"
	"github.com/muurk/rev4switch/internal/logging"
	"github.com/muurk/rev4switch/internal/protocol"
	"github.com/muurk/rev4switch/internal/remote"
	"github.com/muurk/rev4switch/internal/server"
	"github.com/muurk/rev4switch/internal/ui"
)

// Bridge connection flags
var (
	bridgeURL       string
	bridgeName      string
	discoverTimeout int
	dryRun          bool
)

// Server flags
var (
	serveHost        string
	servePort        int
	serveCert        string
	serveKey         string
	serveAnalysisDir string
	serveAdvertise   bool
	serveInstance    string
	serveLegacy      bool
	serveYes         bool
)

func init() {
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(remoteCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scanCmd)
}

// addBridgeFlags registers the flags that pick a bridge to talk to.
func addBridgeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&bridgeURL, "bridge", "", "Bridge WebSocket URL, e.g. ws://192.168.1.20:5001/ws (skips discovery)")
	cmd.Flags().StringVar(&bridgeName, "bridge-name", "", "mDNS instance name of the bridge (default: first found)")
	cmd.Flags().IntVar(&discoverTimeout, "discover-timeout", 0, "Discovery timeout in seconds (default: registry preference)")
}

// dialBridge connects to --bridge, or discovers a bridge over mDNS.
func dialBridge(ctx context.Context, reg *config.Registry) (*client.Client, error) {
	url := bridgeURL
	if url == "" {
		timeout := discoverTimeout
		if timeout <= 0 {
			timeout = reg.Preferences.DiscoverTimeout
		}
		scanner := discovery.NewScanner()
		if timeout > 0 {
			scanner.Timeout = time.Duration(timeout) * time.Second
		}

		logging.Info("Discovering bridge", zap.String("instance", bridgeName), zap.Duration("timeout", scanner.Timeout))
		b, err := scanner.WaitForBridge(ctx, bridgeName)
		if err != nil {
			return nil, fmt.Errorf("%w (use --bridge to connect by address)", err)
		}
		logging.Info("Found bridge", zap.String("bridge", b.String()))
		url = b.WebSocketURL()
	}
	return client.Dial(ctx, url)
}

// signalContext ends on SIGINT/SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// sendCmd switches a unit through a bridge
var sendCmd = &cobra.Command{
	Use:   "send [switch]",
	Short: "Switch a unit on or off through a bridge",
	Long: `Encode a command and hand it to a rev4_switch bridge for transmission.

The bridge is found over mDNS unless --bridge is given. With --dry-run the
train is printed instead and no bridge is contacted. The last state of a
paired switch is recorded in the registry.`,
	Example: `  # Switch a paired switch on through the first bridge found
  rev4ctl send lamp --on

  # Switch by address through a known bridge
  rev4ctl send --id 5 --unit 2 --off --bridge ws://192.168.1.20:5001/ws

  # Print the train without sending it
  rev4ctl send lamp --on --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSend,
}

func init() {
	addCodeFlags(sendCmd)
	addBridgeFlags(sendCmd)
	sendCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the pulse train instead of sending it")
}

func runSend(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	enc, err := encoderFor(reg)
	if err != nil {
		return err
	}
	fields, err := codeFields(cmd, reg, args)
	if err != nil {
		return err
	}
	c, err := protocol.Validate(protocol.ParseRawCode(fields))
	if err != nil {
		return err
	}
	e := enc.Encode(c)

	ctx, cancel := signalContext(cmd)
	defer cancel()

	out := cmd.OutOrStdout()
	var tx remote.Transmitter
	target := "dry run"
	if dryRun {
		tx = remote.NewDryRun(out)
	} else {
		cl, err := dialBridge(ctx, reg)
		if err != nil {
			return err
		}
		defer cl.Close()
		tx = cl
		target = cl.URL()
	}

	if err := tx.Transmit(ctx, e); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}

	reg.RecordState(c)
	if name, _ := reg.FindByAddress(c.ID, c.Unit); name != "" {
		if err := saveRegistry(reg); err != nil {
			logging.Warn("Failed to save switch state", zap.String("switch", name), zap.Error(err))
		}
	}

	if dryRun {
		return nil
	}
	switch outputFormat {
	case formatJSON:
		return printJSON(cmd, e)
	case formatRaw:
		fmt.Fprintln(out, e.Pulses.String())
	default:
		ui.NewPrinterTo(out, ui.GetTerminalWidth()).PrintSuccess("Sent "+protocol.ProtocolID, map[string]string{
			"ID":     strconv.Itoa(c.ID),
			"Unit":   strconv.Itoa(c.Unit),
			"State":  c.State.String(),
			"Bridge": target,
		})
	}
	return nil
}

// listenCmd prints every code a bridge broadcasts
var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print codes broadcast by a bridge",
	Long: `Connect to a bridge and print every code it sends or hears until
interrupted. States of paired switches are recorded in the registry.`,
	Example: `  # Follow the first bridge found
  rev4ctl listen

  # JSON lines for scripting
  rev4ctl listen --bridge ws://192.168.1.20:5001/ws --format json`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

func init() {
	addBridgeFlags(listenCmd)
}

func runListen(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	cl, err := dialBridge(ctx, reg)
	if err != nil {
		return err
	}
	defer cl.Close()

	out := cmd.OutOrStdout()
	if outputFormat == formatPretty {
		fmt.Fprintf(out, "Listening on %s (Ctrl+C to stop)...\n\n", cl.URL())
	}

	dirty := false
	err = cl.Listen(ctx, func(resp server.Response) {
		if resp.Message == nil {
			return
		}
		name, _ := reg.FindByAddress(resp.Message.ID, resp.Message.Unit)
		if name != "" {
			reg.RecordState(*resp.Message)
			dirty = true
		}
		printBroadcast(cmd, out, resp, name)
	})

	if dirty {
		if saveErr := saveRegistry(reg); saveErr != nil {
			logging.Warn("Failed to save switch states", zap.Error(saveErr))
		}
	}
	return err
}

// printBroadcast writes one broadcast in the selected output format.
func printBroadcast(cmd *cobra.Command, out io.Writer, resp server.Response, name string) {
	switch outputFormat {
	case formatJSON:
		_ = printJSON(cmd, resp)
	case formatRaw:
		fmt.Fprintln(out, formatPulses(resp.Pulses))
	default:
		c := resp.Message
		line := fmt.Sprintf("%s %-8s id=%-2d unit=%-2d %s", time.Now().Format("15:04:05"), resp.Origin, c.ID, c.Unit, c.State)
		if name != "" {
			line += "  (" + name + ")"
		}
		fmt.Fprintln(out, line)
	}
}

// remoteCmd runs the interactive remote
var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Interactive remote for paired switches",
	Long: `Open a full screen remote listing every paired switch.

Use the arrow keys to pick a switch, t to switch it on and f to switch it
off. Commands go through a bridge unless --dry-run is given.`,
	Example: `  # Remote through the first bridge found
  rev4ctl remote

  # Try the remote without a bridge
  rev4ctl remote --dry-run`,
	Args: cobra.NoArgs,
	RunE: runRemote,
}

func init() {
	addBridgeFlags(remoteCmd)
	remoteCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show trains without sending them")
}

func runRemote(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if len(reg.Switches) == 0 {
		return fmt.Errorf("no paired switches, add one with 'rev4ctl switches add'")
	}
	enc, err := encoderFor(reg)
	if err != nil {
		return err
	}

	var tx remote.Transmitter
	if dryRun {
		// The remote owns the screen, the model shows the last train itself
		tx = remote.NewDryRun(io.Discard)
	} else {
		cl, err := dialBridge(cmd.Context(), reg)
		if err != nil {
			return err
		}
		defer cl.Close()
		tx = cl
	}

	m := remote.New(reg, enc, tx)
	m.OnTransmitted = func(protocol.Command) error {
		return saveRegistry(reg)
	}
	return remote.Run(m)
}

// serveCmd runs the bridge
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the rev4_switch WebSocket bridge",
	Long: `Run the WebSocket bridge that radio hosts and controllers connect to.

Clients send "send" requests to have a command encoded and "receive"
requests to have a capture decoded. Every code is broadcast to all
connected clients. Health, protocol description and Prometheus metrics
are served over HTTP on the same port.`,
	Example: `  # Plain WebSocket on the default port, announced over mDNS
  rev4ctl serve --advertise

  # TLS with capture logging
  rev4ctl serve --cert server.crt --key server.key --analysis-dir ./captures`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen address (default: registry preference, all interfaces)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (default: registry preference, 5001)")
	serveCmd.Flags().StringVar(&serveCert, "cert", "", "TLS certificate file")
	serveCmd.Flags().StringVar(&serveKey, "key", "", "TLS private key file")
	serveCmd.Flags().StringVar(&serveAnalysisDir, "analysis-dir", "", "Directory for JSON lines capture files")
	serveCmd.Flags().BoolVar(&serveAdvertise, "advertise", false, "Announce the bridge over mDNS")
	serveCmd.Flags().StringVar(&serveInstance, "instance", "", "mDNS instance name (default: rev4-<hostname>)")
	serveCmd.Flags().BoolVar(&serveLegacy, "legacy-state", false, "Force the state slot high like legacy transmitters")
	serveCmd.Flags().BoolVarP(&serveYes, "yes", "y", false, "Skip confirmation prompts")
}

// serverConfig merges the registry preferences with the serve flags.
func serverConfig(cmd *cobra.Command, reg *config.Registry) (*server.Config, error) {
	prefs := reg.Preferences
	cfg := &server.Config{
		Host:                prefs.Server.Host,
		Port:                prefs.Server.Port,
		PulseLength:         prefs.PulseLength,
		LegacyStateEncoding: prefs.LegacyStateEncoding,
		Advertise:           prefs.Server.Advertise,
		CertPath:            serveCert,
		KeyPath:             serveKey,
		AnalysisDir:         serveAnalysisDir,
		Instance:            serveInstance,
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = serveHost
	}
	if flags.Changed("port") {
		cfg.Port = servePort
	}
	if flags.Changed("advertise") {
		cfg.Advertise = serveAdvertise
	}
	if flags.Changed("legacy-state") {
		cfg.LegacyStateEncoding = serveLegacy
	}
	if pulseLength != 0 {
		cfg.PulseLength = pulseLength
	}
	if cfg.Port == 0 {
		cfg.Port = config.DefaultServerPort
	}
	if cfg.Instance == "" {
		cfg.Instance = discovery.DefaultInstanceName()
	}

	if (cfg.CertPath == "") != (cfg.KeyPath == "") {
		return nil, fmt.Errorf("--cert and --key must be given together")
	}
	for _, p := range []string{cfg.CertPath, cfg.KeyPath} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("TLS file not readable: %w", err)
		}
	}
	if cfg.AnalysisDir != "" {
		info, err := os.Stat(cfg.AnalysisDir)
		if err != nil {
			return nil, fmt.Errorf("analysis directory does not exist: %s", cfg.AnalysisDir)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("analysis path is not a directory: %s", cfg.AnalysisDir)
		}
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	cfg, err := serverConfig(cmd, reg)
	if err != nil {
		return err
	}

	if cfg.LegacyStateEncoding && !serveYes {
		if !ui.ConfirmLegacyEncoding(cmd.InOrStdin(), cmd.OutOrStdout(), ui.GetTerminalWidth()) {
			return nil
		}
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Bridge listening on %s:%d (Ctrl+C to stop)\n", cfg.Host, cfg.Port)
	return srv.Start(cmd.Context())
}

// scanCmd discovers bridges on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for rev4_switch bridges on the network",
	Long: `Scan for bridges announcing themselves over mDNS/DNS-SD and list their
WebSocket addresses.`,
	Example: `  # Scan for 5 seconds (default)
  rev4ctl scan

  # Longer scan for busy networks
  rev4ctl scan --timeout 15`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

var scanTimeout int

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", int(discovery.DefaultScanTimeout/time.Second), "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if outputFormat == formatPretty {
		fmt.Fprintf(out, "Scanning for bridges (timeout: %ds)...\n\n", scanTimeout)
	}

	bridges, err := discovery.ScanForBridges(cmd.Context(), time.Duration(scanTimeout)*time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	switch outputFormat {
	case formatJSON:
		return printJSON(cmd, bridges)
	case formatRaw:
		for _, b := range bridges {
			fmt.Fprintln(out, b.WebSocketURL())
		}
		return nil
	}

	if len(bridges) == 0 {
		ui.NewPrinterTo(out, ui.GetTerminalWidth()).PrintWarning("No bridges found", []string{
			"Ensure a bridge is running with --advertise",
			"Check that this machine is on the same network segment",
			"Try increasing --timeout for slower networks",
			"Use --bridge to connect by address if discovery fails",
		})
		return nil
	}

	fmt.Fprintf(out, "Found %d bridge(s):\n\n", len(bridges))
	for i, b := range bridges {
		fmt.Fprintf(out, "%d. %s\n", i+1, b.Instance)
		fmt.Fprintf(out, "   URL:      %s\n", b.WebSocketURL())
		if v := b.GetMetadata(discovery.TXTKeyVersion); v != "" {
			fmt.Fprintf(out, "   Version:  %s\n", v)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, "Use 'rev4ctl send --bridge <url>' to switch through a specific bridge")
	return nil
}
