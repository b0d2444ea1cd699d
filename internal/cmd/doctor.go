package cmd

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/calgate/calgate/internal/config"
	"github.com/calgate/calgate/internal/gateway/prompt"
	"github.com/calgate/calgate/internal/output"
)

var (
	doctorFormat  string
	doctorTimeout time.Duration
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose gateway configuration and upstream connectivity",
	Long: `Run layered diagnostics: app identity, configuration, shared credential,
prompt file, and DNS/TCP/TLS reachability of the upstream Messages API.

A missing shared credential is reported as a warning, not a failure: the
gateway still serves requests that carry a caller-supplied API key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(doctorFormat)
		if err != nil {
			return err
		}

		cfg, err := config.FromViper()
		if err != nil {
			return err
		}

		report := runDoctor(cmd.Context(), cfg, doctorTimeout)

		rendered, err := output.NewFormatter(format).FormatReport(report)
		if err != nil {
			return err
		}
		fmt.Println(rendered)

		if report.Failed() {
			return fmt.Errorf("doctor found failing checks")
		}
		return nil
	},
}

func runDoctor(ctx context.Context, cfg *config.Config, timeout time.Duration) *output.Report {
	identity := GetAppIdentity()

	report := &output.Report{
		Service:   "calgate",
		Version:   versionInfo.Version,
		Timestamp: time.Now().UTC(),
	}
	if identity != nil && identity.BinaryName != "" {
		report.Service = identity.BinaryName
	}

	report.Checks = append(report.Checks, checkIdentity())
	report.Checks = append(report.Checks, checkConfigFile())
	report.Checks = append(report.Checks, checkSharedCredential(cfg.Upstream.KeyEnv))
	report.Checks = append(report.Checks, checkPromptFile(cfg.Prompt.File))
	report.Checks = append(report.Checks, checkUpstream(ctx, cfg.Upstream.BaseURL, timeout)...)

	return report
}

func checkIdentity() output.Check {
	identity := GetAppIdentity()
	check := output.Check{Name: "app_identity"}
	switch {
	case identity == nil:
		check.Status = output.StatusFail
		check.Detail = "app identity not loaded"
	case identity.BinaryName == "" || identity.EnvPrefix == "":
		check.Status = output.StatusFail
		check.Detail = "app identity incomplete"
	default:
		check.Status = output.StatusPass
		check.Detail = identity.BinaryName
	}
	return check
}

func checkConfigFile() output.Check {
	check := output.Check{Name: "config_file"}
	path := config.DefaultConfigPath(GetAppIdentity())
	if path == "" {
		check.Status = output.StatusWarn
		check.Detail = "could not resolve config directory"
		return check
	}

	if _, err := os.Stat(path); err != nil {
		check.Status = output.StatusWarn
		check.Detail = fmt.Sprintf("%s not found (defaults and environment apply)", path)
		return check
	}

	check.Status = output.StatusPass
	check.Detail = path
	return check
}

func checkSharedCredential(keyEnv string) output.Check {
	if keyEnv == "" {
		keyEnv = "ANTHROPIC_API_KEY"
	}
	check := output.Check{Name: "shared_credential"}
	if strings.TrimSpace(os.Getenv(keyEnv)) == "" {
		check.Status = output.StatusWarn
		check.Detail = keyEnv + " not set; only caller-supplied keys will work"
		return check
	}

	// Only presence is checked; the value itself never appears in output.
	check.Status = output.StatusPass
	check.Detail = keyEnv + " is set"
	return check
}

func checkPromptFile(path string) output.Check {
	check := output.Check{Name: "prompt_file"}
	if path == "" {
		check.Status = output.StatusSkip
		check.Detail = "using built-in prompt"
		return check
	}

	loaded, err := prompt.LoadFile(path)
	if err != nil {
		check.Status = output.StatusFail
		check.Detail = err.Error()
		return check
	}

	check.Status = output.StatusPass
	check.Detail = loaded.Source
	return check
}

// checkUpstream runs layered DNS, TCP, and TLS checks against the upstream
// base URL, stopping at the first failing layer.
func checkUpstream(ctx context.Context, baseURL string, timeout time.Duration) []output.Check {
	host, port, err := upstreamHostPort(baseURL)
	if err != nil {
		return []output.Check{{
			Name:   "upstream_dns",
			Status: output.StatusFail,
			Detail: err.Error(),
		}}
	}

	checks := make([]output.Check, 0, 3)

	dnsCheck := runDNSCheck(ctx, host, timeout)
	checks = append(checks, dnsCheck)
	if dnsCheck.Status != output.StatusPass {
		return checks
	}

	tcpCheck, conn := runTCPCheck(ctx, host, port, timeout)
	checks = append(checks, tcpCheck)
	if tcpCheck.Status != output.StatusPass {
		return checks
	}

	checks = append(checks, runTLSCheck(ctx, host, conn, timeout))
	return checks
}

func upstreamHostPort(baseURL string) (string, int, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", 0, fmt.Errorf("invalid upstream base URL: %w", err)
	}
	host := parsed.Hostname()
	if host == "" {
		return "", 0, fmt.Errorf("upstream base URL has no host: %s", baseURL)
	}

	port := 443
	if parsed.Scheme == "http" {
		port = 80
	}
	if p := parsed.Port(); p != "" {
		if _, err := fmt.Sscanf(p, "%d", &port); err != nil {
			return "", 0, fmt.Errorf("invalid upstream port: %s", p)
		}
	}
	return host, port, nil
}

func runDNSCheck(ctx context.Context, host string, timeout time.Duration) output.Check {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	check := output.Check{Name: "upstream_dns"}
	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	check.Duration = time.Since(start)
	if err != nil {
		check.Status = output.StatusFail
		check.Detail = err.Error()
		return check
	}

	resolved := make([]string, 0, len(ips))
	for _, ip := range ips {
		resolved = append(resolved, ip.IP.String())
	}
	check.Status = output.StatusPass
	check.Detail = fmt.Sprintf("%s → %s", host, strings.Join(resolved, ", "))
	return check
}

func runTCPCheck(ctx context.Context, host string, port int, timeout time.Duration) (output.Check, net.Conn) {
	start := time.Now()
	dialer := &net.Dialer{Timeout: timeout}

	check := output.Check{Name: "upstream_tcp"}
	conn, err := dialer.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", host, port))
	check.Duration = time.Since(start)
	if err != nil {
		check.Status = output.StatusFail
		check.Detail = err.Error()
		return check, nil
	}

	check.Status = output.StatusPass
	check.Detail = conn.RemoteAddr().String()
	return check, conn
}

func runTLSCheck(ctx context.Context, host string, conn net.Conn, timeout time.Duration) output.Check {
	check := output.Check{Name: "upstream_tls"}
	if conn == nil {
		check.Status = output.StatusSkip
		return check
	}

	start := time.Now()
	_ = conn.SetDeadline(time.Now().Add(timeout))
	client := tls.Client(conn, &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
	defer func() { _ = client.Close() }()

	err := client.HandshakeContext(ctx)
	check.Duration = time.Since(start)
	if err != nil {
		check.Status = output.StatusFail
		check.Detail = err.Error()
		return check
	}

	state := client.ConnectionState()
	check.Status = output.StatusPass
	check.Detail = tls.CipherSuiteName(state.CipherSuite)
	if len(state.PeerCertificates) > 0 {
		leaf := state.PeerCertificates[0]
		check.Detail = fmt.Sprintf("issuer=%s, expires=%s",
			leaf.Issuer.CommonName,
			leaf.NotAfter.UTC().Format("2006-01-02"))
	}
	return check
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().StringVar(&doctorFormat, "output", "table", "output format (table, json, markdown)")
	doctorCmd.Flags().DurationVar(&doctorTimeout, "timeout", 5*time.Second, "per-check timeout")
}
